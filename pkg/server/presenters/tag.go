/* Copyright 2025 Marginalia Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package presenters

import (
	"github.com/marginalia/marginalia/pkg/server/database"
)

// Tag is a result of PresentTag
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PresentTag presents a tag
func PresentTag(tag database.Tag) Tag {
	return Tag{
		ID:   tag.ID,
		Name: tag.Name,
	}
}

// PresentTags presents tags
func PresentTags(tags []database.Tag) []Tag {
	ret := []Tag{}

	for _, tag := range tags {
		ret = append(ret, PresentTag(tag))
	}

	return ret
}

// HighlightTag is a result of PresentHighlightTag
type HighlightTag struct {
	ID         int    `json:"id"`
	BookID     int    `json:"book_id"`
	Name       string `json:"name"`
	TagGroupID *int   `json:"tag_group_id"`
}

// PresentHighlightTag presents a highlight tag
func PresentHighlightTag(tag database.HighlightTag) HighlightTag {
	return HighlightTag{
		ID:         tag.ID,
		BookID:     tag.BookID,
		Name:       tag.Name,
		TagGroupID: tag.TagGroupID,
	}
}

// PresentHighlightTags presents highlight tags
func PresentHighlightTags(tags []database.HighlightTag) []HighlightTag {
	ret := []HighlightTag{}

	for _, tag := range tags {
		ret = append(ret, PresentHighlightTag(tag))
	}

	return ret
}

// HighlightTagGroup is a result of PresentHighlightTagGroup
type HighlightTagGroup struct {
	ID     int    `json:"id"`
	BookID int    `json:"book_id"`
	Name   string `json:"name"`
}

// PresentHighlightTagGroup presents a highlight tag group
func PresentHighlightTagGroup(group database.HighlightTagGroup) HighlightTagGroup {
	return HighlightTagGroup{
		ID:     group.ID,
		BookID: group.BookID,
		Name:   group.Name,
	}
}

// PresentHighlightTagGroups presents highlight tag groups
func PresentHighlightTagGroups(groups []database.HighlightTagGroup) []HighlightTagGroup {
	ret := []HighlightTagGroup{}

	for _, group := range groups {
		ret = append(ret, PresentHighlightTagGroup(group))
	}

	return ret
}
