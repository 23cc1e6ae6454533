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

	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/marginalia/marginalia/pkg/server/presenters"
)

// NewBookmarks creates a new Bookmarks controller
func NewBookmarks(app *app.App) *Bookmarks {
	return &Bookmarks{
		app: app,
	}
}

// Bookmarks is a bookmark controller
type Bookmarks struct {
	app *app.App
}

type createBookmarkPayload struct {
	Page int    `schema:"page" json:"page"`
	Note string `schema:"note" json:"note"`
}

// V1Create handles POST /v1/books/{bookID}/bookmarks
func (b *Bookmarks) V1Create(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	var payload createBookmarkPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	bookmark, err := b.app.CreateBookmark(user.ID, bookID, payload.Page, payload.Note)
	if err != nil {
		handleJSONError(w, err, "creating bookmark")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentBookmark(bookmark))
}

// V1Index handles GET /v1/books/{bookID}/bookmarks
func (b *Bookmarks) V1Index(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	bookmarks, err := b.app.GetBookmarks(user.ID, bookID)
	if err != nil {
		handleJSONError(w, err, "getting bookmarks")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBookmarks(bookmarks))
}

// V1Delete handles DELETE /v1/bookmarks/{bookmarkID}
func (b *Bookmarks) V1Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookmarkID, err := getIntParam(r, "bookmarkID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing bookmark id")
		return
	}

	if err := b.app.DeleteBookmark(user.ID, bookmarkID); err != nil {
		handleJSONError(w, err, "deleting bookmark")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
