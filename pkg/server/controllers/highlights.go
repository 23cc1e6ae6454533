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
	"fmt"
	"net/http"

	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/marginalia/marginalia/pkg/server/presenters"
)

// NewHighlights creates a new Highlights controller
func NewHighlights(app *app.App) *Highlights {
	return &Highlights{
		app: app,
	}
}

// Highlights is a highlight controller
type Highlights struct {
	app *app.App
}

type deleteHighlightsPayload struct {
	HighlightIDs []int `json:"highlight_ids"`
}

// DeleteHighlightsResponse is the response for bulk deleting highlights
type DeleteHighlightsResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

// V1Delete handles DELETE /v1/books/{bookID}/highlights. The named
// highlights are soft-deleted so that a later sync cannot bring them
// back.
func (h *Highlights) V1Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	var payload deleteHighlightsPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	count, err := h.app.SoftDeleteHighlights(user.ID, bookID, payload.HighlightIDs)
	if err != nil {
		handleJSONError(w, err, "deleting highlights")
		return
	}

	respondJSON(w, http.StatusOK, DeleteHighlightsResponse{
		Success:      true,
		Message:      fmt.Sprintf("deleted %d highlights", count),
		DeletedCount: count,
	})
}

type updateHighlightPayload struct {
	Note *string `schema:"note" json:"note"`
}

// V1Update handles PATCH /v1/highlights/{highlightID}
func (h *Highlights) V1Update(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	highlightID, err := getIntParam(r, "highlightID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing highlight id")
		return
	}

	var payload updateHighlightPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	var note string
	if payload.Note != nil {
		note = *payload.Note
	}

	highlight, err := h.app.UpdateHighlightNote(user.ID, highlightID, note)
	if err != nil {
		handleJSONError(w, err, "updating highlight")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentHighlight(highlight))
}

// V1Search handles GET /v1/highlights/search
func (h *Highlights) V1Search(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	bookID, err := getIntQuery(r, "book_id")
	if err != nil {
		handleJSONError(w, err, "parsing book id")
		return
	}

	var limit int
	limitParam, err := getIntQuery(r, "limit")
	if err != nil {
		handleJSONError(w, err, "parsing limit")
		return
	}
	if limitParam != nil {
		limit = *limitParam
	}

	results, err := h.app.SearchHighlights(user.ID, app.SearchHighlightsParams{
		Text:   query.Get("search_text"),
		BookID: bookID,
		Limit:  limit,
	})
	if err != nil {
		handleJSONError(w, err, "searching highlights")
		return
	}

	respondJSON(w, http.StatusOK, results)
}

type updateHighlightTagsPayload struct {
	Tags []string `json:"tags"`
}

// V1UpdateTags handles PUT /v1/highlights/{highlightID}/tags
func (h *Highlights) V1UpdateTags(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	highlightID, err := getIntParam(r, "highlightID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing highlight id")
		return
	}

	var payload updateHighlightTagsPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	tags, err := h.app.UpdateHighlightTags(user.ID, highlightID, payload.Tags)
	if err != nil {
		handleJSONError(w, err, "updating highlight tags")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentHighlightTags(tags))
}

// V1Tags handles GET /v1/highlights/{highlightID}/tags
func (h *Highlights) V1Tags(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	highlightID, err := getIntParam(r, "highlightID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing highlight id")
		return
	}

	tags, err := h.app.GetTagsForHighlight(user.ID, highlightID)
	if err != nil {
		handleJSONError(w, err, "getting highlight tags")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentHighlightTags(tags))
}
