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
	"testing"

	"github.com/marginalia/marginalia/pkg/assert"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/testutils"
	"github.com/pkg/errors"
)

var waldenUpload = `{
	"book": {
		"title": "Walden",
		"author": "Henry David Thoreau",
		"isbn": "9780000000000",
		"keywords": ["philosophy"]
	},
	"highlights": [
		{
			"text": "I went to the woods to live deliberately",
			"chapter": "Where I Lived, and What I Lived For",
			"chapter_number": 2,
			"page": 59,
			"datetime": "2024-01-01 10:00:00"
		},
		{
			"text": "Simplicity, simplicity, simplicity",
			"chapter": "Where I Lived, and What I Lived For",
			"chapter_number": 2,
			"page": 61,
			"datetime": "2024-01-01 11:00:00"
		}
	]
}`

func TestV1Upload(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	res := testutils.HTTPAuthDo(t, a.DB, req, user)

	assert.StatusCodeEquals(t, res, http.StatusOK, "uploading")

	var result UploadResponse
	testutils.MustUnmarshalJSON(t, res, &result)
	assert.Equal(t, result.Success, true, "Success mismatch")
	assert.Equal(t, result.Message, "created 2 highlights, skipped 0", "Message mismatch")
	assert.Equal(t, result.HighlightsCreated, 2, "created mismatch")
	assert.Equal(t, result.HighlightsSkipped, 0, "skipped mismatch")

	var book database.Book
	testutils.MustExec(t, a.DB.First(&book, result.BookID), "finding book")
	assert.Equal(t, book.Title, "Walden", "Title mismatch")

	var chapterCount int64
	testutils.MustExec(t, a.DB.Model(&database.Chapter{}).Where("book_id = ?", book.ID).Count(&chapterCount),
		"counting chapters")
	assert.Equal(t, chapterCount, int64(1), "chapter count mismatch")
}

func TestV1Upload_Reupload(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	res := testutils.HTTPAuthDo(t, a.DB, req, user)
	assert.StatusCodeEquals(t, res, http.StatusOK, "uploading")

	var first UploadResponse
	testutils.MustUnmarshalJSON(t, res, &first)

	req = testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	res = testutils.HTTPAuthDo(t, a.DB, req, user)
	assert.StatusCodeEquals(t, res, http.StatusOK, "re-uploading")

	var second UploadResponse
	testutils.MustUnmarshalJSON(t, res, &second)

	assert.Equal(t, second.Success, true, "Success mismatch")
	assert.Equal(t, second.BookID, first.BookID, "BookID should be stable")
	assert.Equal(t, second.HighlightsCreated, 0, "re-upload should create nothing")
	assert.Equal(t, second.HighlightsSkipped, 2, "re-upload should skip everything")
}

func TestV1Upload_DeletedHighlightStaysDeleted(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	res := testutils.HTTPAuthDo(t, a.DB, req, user)
	assert.StatusCodeEquals(t, res, http.StatusOK, "uploading")

	var result UploadResponse
	testutils.MustUnmarshalJSON(t, res, &result)

	var highlight database.Highlight
	testutils.MustExec(t, a.DB.Where("book_id = ?", result.BookID).First(&highlight), "finding highlight")

	deletePath := fmt.Sprintf("/v1/books/%d/highlights", result.BookID)
	req = testutils.MakeJSONReq(server.URL, "DELETE", "/api"+deletePath,
		fmt.Sprintf(`{"highlight_ids": [%d]}`, highlight.ID))
	res = testutils.HTTPAuthDo(t, a.DB, req, user)
	assert.StatusCodeEquals(t, res, http.StatusOK, "deleting highlight")

	var deleted DeleteHighlightsResponse
	testutils.MustUnmarshalJSON(t, res, &deleted)
	assert.Equal(t, deleted.Success, true, "Success mismatch")
	assert.Equal(t, deleted.DeletedCount, int64(1), "DeletedCount mismatch")

	req = testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	res = testutils.HTTPAuthDo(t, a.DB, req, user)
	assert.StatusCodeEquals(t, res, http.StatusOK, "re-uploading")

	var again UploadResponse
	testutils.MustUnmarshalJSON(t, res, &again)
	assert.Equal(t, again.HighlightsCreated, 0, "deleted highlight should not be resurrected")

	var activeCount int64
	testutils.MustExec(t, a.DB.Model(&database.Highlight{}).
		Where("book_id = ? AND deleted_at IS NULL", result.BookID).Count(&activeCount),
		"counting active highlights")
	assert.Equal(t, activeCount, int64(1), "active highlight count mismatch")
}

func TestV1Upload_WithAPIToken(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	tok, err := a.CreateAPIToken(user.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating api token"))
	}

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	res := testutils.HTTPDo(t, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "uploading with an api token")

	var stored database.Token
	testutils.MustExec(t, a.DB.Where("value = ?", tok.Value).First(&stored), "finding token")
	if stored.UsedAt == nil {
		t.Error("UsedAt should be touched when the token is used")
	}
}

func TestV1Upload_Unauthenticated(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync", waldenUpload)
	res := testutils.HTTPDo(t, req)

	assert.StatusCodeEquals(t, res, http.StatusUnauthorized, "uploading without credentials")
}

func TestV1Upload_MissingTitle(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync",
		`{"book": {"title": ""}, "highlights": []}`)
	res := testutils.HTTPAuthDo(t, a.DB, req, user)

	assert.StatusCodeEquals(t, res, http.StatusBadRequest, "uploading without a title")
}

func TestV1Upload_InvalidPage(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync",
		`{"book": {"title": "Walden"}, "highlights": [{"text": "some text", "page": -5, "datetime": "2024-01-01 10:00:00"}]}`)
	res := testutils.HTTPAuthDo(t, a.DB, req, user)

	assert.StatusCodeEquals(t, res, http.StatusBadRequest, "uploading with a negative page")
}

func TestV1Upload_InvalidChapterNumber(t *testing.T) {
	a := newServerTestApp(t)
	server := MustNewServer(t, a)
	defer server.Close()

	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	req := testutils.MakeJSONReq(server.URL, "POST", "/api/v1/sync",
		`{"book": {"title": "Walden"}, "highlights": [{"text": "some text", "chapter": "Economy", "chapter_number": 0, "datetime": "2024-01-01 10:00:00"}]}`)
	res := testutils.HTTPAuthDo(t, a.DB, req, user)

	assert.StatusCodeEquals(t, res, http.StatusBadRequest, "uploading with a zero chapter number")
}
