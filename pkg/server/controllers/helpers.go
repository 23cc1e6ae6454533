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
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/marginalia/marginalia/pkg/server/context"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/log"
	"github.com/marginalia/marginalia/pkg/server/middleware"
	"github.com/pkg/errors"
)

var formDecoder = schema.NewDecoder()

func init() {
	formDecoder.IgnoreUnknownKeys(true)
}

// parseRequestData parses the request payload into the given destination.
// JSON bodies and form submissions are both supported.
func parseRequestData(r *http.Request, dst interface{}) error {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return errors.Wrap(err, "decoding json payload")
		}

		return nil
	}

	if err := r.ParseForm(); err != nil {
		return errors.Wrap(err, "parsing form")
	}
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return errors.Wrap(err, "decoding form")
	}

	return nil
}

// respondJSON writes the given payload as a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// errorStatusCode maps the given application error to an HTTP status code
func errorStatusCode(err error) int {
	cause := errors.Cause(err)

	// Malformed numeric parameters are the client's fault
	if _, ok := cause.(*strconv.NumError); ok {
		return http.StatusBadRequest
	}

	switch cause {
	case app.ErrNotFound:
		return http.StatusNotFound
	case app.ErrLoginInvalid:
		return http.StatusUnauthorized
	case app.ErrDuplicateEmail,
		app.ErrDuplicateTag,
		app.ErrDuplicateHighlightTag,
		app.ErrDuplicateHighlightTagGroup:
		return http.StatusConflict
	case app.ErrRegistrationDisabled:
		return http.StatusForbidden
	case app.ErrEmailRequired,
		app.ErrPasswordRequired,
		app.ErrPasswordTooShort,
		app.ErrPasswordConfirmationMismatch,
		app.ErrBookTitleRequired,
		app.ErrHighlightTextRequired,
		app.ErrHighlightDatetimeRequired,
		app.ErrChapterNumberInvalid,
		app.ErrPageInvalid,
		app.ErrHighlightIDsRequired,
		app.ErrSearchTextRequired,
		app.ErrEmptyTagName:
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// handleJSONError logs the error and responds with the error message in a
// JSON payload
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	statusCode := errorStatusCode(err)

	if statusCode == http.StatusInternalServerError {
		log.ErrorWrap(err, msg)
		respondJSON(w, statusCode, map[string]string{"error": http.StatusText(statusCode)})
		return
	}

	respondJSON(w, statusCode, map[string]string{"error": errors.Cause(err).Error()})
}

// getIntParam parses the given mux route variable as an integer
func getIntParam(r *http.Request, name string) (int, error) {
	vars := mux.Vars(r)

	val, err := strconv.Atoi(vars[name])
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", name)
	}

	return val, nil
}

// getIntQuery parses the named query parameter as an integer, returning
// nil if the parameter is absent
func getIntQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}

	return &val, nil
}

func setSessionCookie(w http.ResponseWriter, key string, expires time.Time) {
	cookie := http.Cookie{
		Name:     "id",
		Value:    key,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
	}
	http.SetCookie(w, &cookie)
}

func unsetSessionCookie(w http.ResponseWriter) {
	expire := time.Now().Add(time.Hour * -24 * 30)
	cookie := http.Cookie{
		Name:     "id",
		Value:    "",
		Expires:  expire,
		Path:     "/",
		HttpOnly: true,
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.SetCookie(w, &cookie)
}

// SessionResponse is a response containing a session information
type SessionResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

func respondWithSession(w http.ResponseWriter, statusCode int, s *database.Session) {
	setSessionCookie(w, s.Key, s.ExpiresAt)

	response := SessionResponse{
		Key:       s.Key,
		ExpiresAt: s.ExpiresAt.Unix(),
	}

	respondJSON(w, statusCode, response)
}

// GetCredential extracts the client credential from the request
func GetCredential(r *http.Request) (string, error) {
	return middleware.GetCredential(r)
}

// authUser returns the authenticated user from the request context. A
// missing user responds with 401 and returns false.
func authUser(w http.ResponseWriter, r *http.Request) (*database.User, bool) {
	user := context.User(r.Context())
	if user == nil {
		middleware.RespondUnauthorized(w)
		return nil, false
	}

	return user, true
}
