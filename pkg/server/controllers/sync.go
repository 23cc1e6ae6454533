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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/pkg/errors"
)

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{
		app: app,
	}
}

// Sync is a controller for the highlight upload endpoint
type Sync struct {
	app *app.App
}

// UploadResponse is the response for a sync upload
type UploadResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	BookID            int    `json:"book_id"`
	HighlightsCreated int    `json:"highlights_created"`
	HighlightsSkipped int    `json:"highlights_skipped"`
}

// V1Upload handles POST /v1/sync. The payload is a device export of one
// book and its highlights.
func (s *Sync) V1Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	var payload app.SyncPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		handleJSONError(w, errors.Wrap(err, "decoding payload"), "parsing payload")
		return
	}

	result, err := s.app.SyncUpload(*user, payload)
	if err != nil {
		handleJSONError(w, err, "applying sync upload")
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{
		Success:           true,
		Message:           fmt.Sprintf("created %d highlights, skipped %d", result.HighlightsCreated, result.HighlightsSkipped),
		BookID:            result.BookID,
		HighlightsCreated: result.HighlightsCreated,
		HighlightsSkipped: result.HighlightsSkipped,
	})
}
