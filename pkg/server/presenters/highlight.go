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

// Highlight is a result of PresentHighlight
type Highlight struct {
	ID        int                 `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	BookID    int                 `json:"book_id"`
	ChapterID *int                `json:"chapter_id"`
	Text      string              `json:"text"`
	Page      *int                `json:"page"`
	Note      database.NullString `json:"note"`
	Datetime  string              `json:"datetime"`
}

// PresentHighlight presents a highlight
func PresentHighlight(h database.Highlight) Highlight {
	return Highlight{
		ID:        h.ID,
		CreatedAt: FormatTS(h.CreatedAt),
		UpdatedAt: FormatTS(h.UpdatedAt),
		BookID:    h.BookID,
		ChapterID: h.ChapterID,
		Text:      h.Text,
		Page:      h.Page,
		Note:      h.Note,
		Datetime:  h.Datetime,
	}
}

// PresentHighlights presents highlights
func PresentHighlights(highlights []database.Highlight) []Highlight {
	ret := []Highlight{}

	for _, h := range highlights {
		ret = append(ret, PresentHighlight(h))
	}

	return ret
}
