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

package controllers

import (
	"net/http"
	"strconv"

	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/marginalia/marginalia/pkg/server/presenters"
)

// NewBooks creates a new Books controller
func NewBooks(app *app.App) *Books {
	return &Books{
		app: app,
	}
}

// Books is a book controller
type Books struct {
	app *app.App
}

// GetBooksResponse is the response for listing books
type GetBooksResponse struct {
	Books []presenters.Book `json:"books"`
	Total int64             `json:"total"`
}

// V1Index handles GET /v1/books
func (b *Books) V1Index(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("per_page"))

	result, err := b.app.GetBooks(user.ID, app.GetBooksParams{
		Page:    page,
		PerPage: perPage,
		Search:  query.Get("q"),
	})
	if err != nil {
		handleJSONError(w, err, "getting books")
		return
	}

	respondJSON(w, http.StatusOK, GetBooksResponse{
		Books: presenters.PresentBookItems(result.Books),
		Total: result.Total,
	})
}

// V1Recent handles GET /v1/books/recent
func (b *Books) V1Recent(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	books, err := b.app.GetRecentlyViewedBooks(user.ID, limit)
	if err != nil {
		handleJSONError(w, err, "getting recently viewed books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBooks(books))
}

// V1Show handles GET /v1/books/{bookID}
func (b *Books) V1Show(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	book, err := b.app.GetBook(user.ID, bookID)
	if err != nil {
		handleJSONError(w, err, "getting book")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBook(book))
}

// V1View handles POST /v1/books/{bookID}/view. It records that the user
// opened the book.
func (b *Books) V1View(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	if err := b.app.TouchLastViewed(user.ID, bookID); err != nil {
		handleJSONError(w, err, "touching last viewed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateBookPayload struct {
	Title  *string `schema:"title" json:"title"`
	Author *string `schema:"author" json:"author"`
	ISBN   *string `schema:"isbn" json:"isbn"`
}

// V1Update handles PATCH /v1/books/{bookID}
func (b *Books) V1Update(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	var payload updateBookPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	book, err := b.app.UpdateBook(user.ID, bookID, app.UpdateBookParams{
		Title:  payload.Title,
		Author: payload.Author,
		ISBN:   payload.ISBN,
	})
	if err != nil {
		handleJSONError(w, err, "updating book")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBook(book))
}

// V1Delete handles DELETE /v1/books/{bookID}
func (b *Books) V1Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	if err := b.app.DeleteBook(user.ID, bookID); err != nil {
		handleJSONError(w, err, "deleting book")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// V1Chapters handles GET /v1/books/{bookID}/chapters
func (b *Books) V1Chapters(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	chapters, err := b.app.GetChapters(user.ID, bookID)
	if err != nil {
		handleJSONError(w, err, "getting chapters")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentChapters(chapters))
}

// V1Highlights handles GET /v1/books/{bookID}/highlights
func (b *Books) V1Highlights(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	chapterID, err := getIntQuery(r, "chapter_id")
	if err != nil {
		handleJSONError(w, err, "parsing chapter id")
		return
	}

	highlights, err := b.app.GetHighlights(user.ID, bookID, app.GetHighlightsParams{
		ChapterID: chapterID,
	})
	if err != nil {
		handleJSONError(w, err, "getting highlights")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentHighlights(highlights))
}
