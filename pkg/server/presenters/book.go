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

	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/marginalia/marginalia/pkg/server/database"
)

// Book is a result of PresentBook
type Book struct {
	ID             int                 `json:"id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Title          string              `json:"title"`
	Author         string              `json:"author"`
	ISBN           string              `json:"isbn"`
	CoverURL       database.NullString `json:"cover_url"`
	Description    database.NullString `json:"description"`
	Language       database.NullString `json:"language"`
	PageCount      *int                `json:"page_count"`
	LastViewedAt   *time.Time          `json:"last_viewed_at"`
	HighlightCount int64               `json:"highlight_count"`
}

// PresentBook presents a book
func PresentBook(book database.Book) Book {
	return Book{
		ID:           book.ID,
		CreatedAt:    FormatTS(book.CreatedAt),
		UpdatedAt:    FormatTS(book.UpdatedAt),
		Title:        book.Title,
		Author:       book.Author,
		ISBN:         book.ISBN,
		CoverURL:     book.CoverURL,
		Description:  book.Description,
		Language:     book.Language,
		PageCount:    book.PageCount,
		LastViewedAt: formatTSPtr(book.LastViewedAt),
	}
}

// PresentBookItem presents a book along with its highlight count
func PresentBookItem(item app.BookItem) Book {
	ret := PresentBook(item.Book)
	ret.HighlightCount = item.HighlightCount

	return ret
}

// PresentBookItems presents a list of books with highlight counts
func PresentBookItems(items []app.BookItem) []Book {
	ret := []Book{}

	for _, item := range items {
		ret = append(ret, PresentBookItem(item))
	}

	return ret
}

// PresentBooks presents books
func PresentBooks(books []database.Book) []Book {
	ret := []Book{}

	for _, book := range books {
		ret = append(ret, PresentBook(book))
	}

	return ret
}
