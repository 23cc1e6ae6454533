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
	"time"

	"github.com/marginalia/marginalia/pkg/server/database"
)

// Bookmark is a result of PresentBookmark
type Bookmark struct {
	ID        int                 `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	BookID    int                 `json:"book_id"`
	Page      int                 `json:"page"`
	Note      database.NullString `json:"note"`
}

// PresentBookmark presents a bookmark
func PresentBookmark(b database.Bookmark) Bookmark {
	return Bookmark{
		ID:        b.ID,
		CreatedAt: FormatTS(b.CreatedAt),
		BookID:    b.BookID,
		Page:      b.Page,
		Note:      b.Note,
	}
}

// PresentBookmarks presents bookmarks
func PresentBookmarks(bookmarks []database.Bookmark) []Bookmark {
	ret := []Bookmark{}

	for _, b := range bookmarks {
		ret = append(ret, PresentBookmark(b))
	}

	return ret
}
