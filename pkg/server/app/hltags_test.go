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

package app

import (
	"testing"

	"github.com/marginalia/marginalia/pkg/assert"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/testutils"
	"github.com/pkg/errors"
)

func highlightTagNames(tags []database.HighlightTag) []string {
	ret := make([]string, 0, len(tags))
	for _, t := range tags {
		ret = append(ret, t.Name)
	}

	return ret
}

func setupHighlight(t *testing.T, a *App, userID, bookID int, text string) database.Highlight {
	t.Helper()

	_, _, err := a.BulkCreateHighlights(userID, bookID, []NewHighlight{
		{Text: text, Datetime: "2024-01-01 10:00:00", ContentHash: text},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting up highlight"))
	}

	var h database.Highlight
	testutils.MustExec(t, a.DB.Where("book_id = ? AND text = ?", bookID, text).First(&h), "finding highlight")

	return h
}

func TestCreateHighlightTag(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	tag, err := a.CreateHighlightTag(user.ID, book.ID, "key-passage", nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating highlight tag"))
	}

	assert.Equal(t, tag.Name, "key-passage", "Name mismatch")
	assert.Equal(t, tag.BookID, book.ID, "BookID mismatch")

	_, err = a.CreateHighlightTag(user.ID, book.ID, "key-passage", nil)
	assert.Equal(t, err, ErrDuplicateHighlightTag, "duplicate error mismatch")

	_, err = a.CreateHighlightTag(user.ID, book.ID, " ", nil)
	assert.Equal(t, err, ErrEmptyTagName, "empty name error mismatch")
}

func TestCreateHighlightTag_WithGroup(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	group, err := a.CreateHighlightTagGroup(user.ID, book.ID, "themes")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating tag group"))
	}

	tag, err := a.CreateHighlightTag(user.ID, book.ID, "solitude", &group.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating highlight tag"))
	}
	assert.Equal(t, *tag.TagGroupID, group.ID, "TagGroupID mismatch")

	bogus := 99999
	_, err = a.CreateHighlightTag(user.ID, book.ID, "other", &bogus)
	assert.Equal(t, err, ErrNotFound, "unknown group error mismatch")
}

func TestUpdateHighlightTags(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")
	h := setupHighlight(t, a, user.ID, book.ID, "I went to the woods")

	tags, err := a.UpdateHighlightTags(user.ID, h.ID, []string{"solitude", "nature"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating highlight tags"))
	}
	assert.DeepEqual(t, highlightTagNames(tags), []string{"nature", "solitude"}, "tag names mismatch")

	tags, err = a.UpdateHighlightTags(user.ID, h.ID, []string{"solitude"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "removing a highlight tag"))
	}
	assert.DeepEqual(t, highlightTagNames(tags), []string{"solitude"}, "tag names mismatch after removal")

	// The user explicitly re-adds the removed tag; the association is restored
	tags, err = a.UpdateHighlightTags(user.ID, h.ID, []string{"solitude", "nature"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "re-adding the highlight tag"))
	}
	assert.DeepEqual(t, highlightTagNames(tags), []string{"nature", "solitude"}, "re-added tag should be restored")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.HighlightTagAssoc{}).Count(&count), "counting associations")
	assert.Equal(t, count, int64(2), "restore should reuse the association row")
}

func TestUpdateHighlightTags_NotFound(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	_, err := a.UpdateHighlightTags(user.ID, 99999, []string{"solitude"})

	assert.Equal(t, err, ErrNotFound, "error mismatch")
}

func TestHighlightTagGroups(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	group, err := a.CreateHighlightTagGroup(user.ID, book.ID, "themes")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating tag group"))
	}

	_, err = a.CreateHighlightTagGroup(user.ID, book.ID, "themes")
	assert.Equal(t, err, ErrDuplicateHighlightTagGroup, "duplicate error mismatch")

	groups, err := a.GetHighlightTagGroups(user.ID, book.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting tag groups"))
	}
	assert.Equal(t, len(groups), 1, "group count mismatch")
	assert.Equal(t, groups[0].ID, group.ID, "group ID mismatch")
}

func TestDeleteHighlightTagGroup(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	group, err := a.CreateHighlightTagGroup(user.ID, book.ID, "themes")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating tag group"))
	}
	tag, err := a.CreateHighlightTag(user.ID, book.ID, "solitude", &group.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating highlight tag"))
	}

	if err := a.DeleteHighlightTagGroup(user.ID, book.ID, group.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting tag group"))
	}

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.HighlightTagGroup{}).Count(&count), "counting groups")
	assert.Equal(t, count, int64(0), "group should be deleted")

	// Member tags are kept, detached from the group
	var stored database.HighlightTag
	testutils.MustExec(t, a.DB.First(&stored, tag.ID), "finding highlight tag")
	if stored.TagGroupID != nil {
		t.Errorf("TagGroupID should be nil but got %d", *stored.TagGroupID)
	}
}
