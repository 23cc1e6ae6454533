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

// Chapter is a result of PresentChapter
type Chapter struct {
	ID            int    `json:"id"`
	BookID        int    `json:"book_id"`
	Name          string `json:"name"`
	ChapterNumber *int   `json:"chapter_number"`
}

// PresentChapter presents a chapter
func PresentChapter(ch database.Chapter) Chapter {
	return Chapter{
		ID:            ch.ID,
		BookID:        ch.BookID,
		Name:          ch.Name,
		ChapterNumber: ch.ChapterNumber,
	}
}

// PresentChapters presents chapters
func PresentChapters(chapters []database.Chapter) []Chapter {
	ret := []Chapter{}

	for _, ch := range chapters {
		ret = append(ret, PresentChapter(ch))
	}

	return ret
}
