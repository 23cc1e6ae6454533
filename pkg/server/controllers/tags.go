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

// NewTags creates a new Tags controller
func NewTags(app *app.App) *Tags {
	return &Tags{
		app: app,
	}
}

// Tags is a tag controller
type Tags struct {
	app *app.App
}

// V1Index handles GET /v1/tags
func (t *Tags) V1Index(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	tags, err := t.app.GetTags(user.ID)
	if err != nil {
		handleJSONError(w, err, "getting tags")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentTags(tags))
}

type createTagPayload struct {
	Name string `schema:"name" json:"name"`
}

// V1Create handles POST /v1/tags
func (t *Tags) V1Create(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	var payload createTagPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	tag, err := t.app.CreateTag(user.ID, payload.Name)
	if err != nil {
		handleJSONError(w, err, "creating tag")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentTag(tag))
}

// V1Delete handles DELETE /v1/tags/{tagID}
func (t *Tags) V1Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	tagID, err := getIntParam(r, "tagID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing tag id")
		return
	}

	if err := t.app.DeleteTag(user.ID, tagID); err != nil {
		handleJSONError(w, err, "deleting tag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateBookTagsPayload struct {
	Tags []string `json:"tags"`
}

// V1UpdateBookTags handles PUT /v1/books/{bookID}/tags
func (t *Tags) V1UpdateBookTags(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	var payload updateBookTagsPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	tags, err := t.app.UpdateBookTags(user.ID, bookID, payload.Tags)
	if err != nil {
		handleJSONError(w, err, "updating book tags")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentTags(tags))
}

// V1BookTags handles GET /v1/books/{bookID}/tags
func (t *Tags) V1BookTags(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	tags, err := t.app.GetBookTags(user.ID, bookID)
	if err != nil {
		handleJSONError(w, err, "getting book tags")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentTags(tags))
}

type createHighlightTagPayload struct {
	Name       string `schema:"name" json:"name"`
	TagGroupID *int   `schema:"tag_group_id" json:"tag_group_id"`
}

// V1CreateHighlightTag handles POST /v1/books/{bookID}/highlight-tags
func (t *Tags) V1CreateHighlightTag(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	var payload createHighlightTagPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	tag, err := t.app.CreateHighlightTag(user.ID, bookID, payload.Name, payload.TagGroupID)
	if err != nil {
		handleJSONError(w, err, "creating highlight tag")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentHighlightTag(tag))
}

// V1HighlightTags handles GET /v1/books/{bookID}/highlight-tags
func (t *Tags) V1HighlightTags(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	tags, err := t.app.GetHighlightTags(user.ID, bookID)
	if err != nil {
		handleJSONError(w, err, "getting highlight tags")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentHighlightTags(tags))
}

type createTagGroupPayload struct {
	Name string `schema:"name" json:"name"`
}

// V1CreateTagGroup handles POST /v1/books/{bookID}/highlight-tag-groups
func (t *Tags) V1CreateTagGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	var payload createTagGroupPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	group, err := t.app.CreateHighlightTagGroup(user.ID, bookID, payload.Name)
	if err != nil {
		handleJSONError(w, err, "creating highlight tag group")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentHighlightTagGroup(group))
}

// V1TagGroups handles GET /v1/books/{bookID}/highlight-tag-groups
func (t *Tags) V1TagGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}

	groups, err := t.app.GetHighlightTagGroups(user.ID, bookID)
	if err != nil {
		handleJSONError(w, err, "getting highlight tag groups")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentHighlightTagGroups(groups))
}

// V1DeleteTagGroup handles DELETE /v1/books/{bookID}/highlight-tag-groups/{groupID}
func (t *Tags) V1DeleteTagGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := authUser(w, r)
	if !ok {
		return
	}

	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing book id")
		return
	}
	groupID, err := getIntParam(r, "groupID")
	if err != nil {
		handleJSONError(w, app.ErrNotFound, "parsing group id")
		return
	}

	if err := t.app.DeleteHighlightTagGroup(user.ID, bookID, groupID); err != nil {
		handleJSONError(w, err, "deleting highlight tag group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
