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

package app

import (
	"fmt"
	"testing"

	"github.com/marginalia/marginalia/pkg/assert"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/testutils"
	"github.com/pkg/errors"
)

func waldenPayload() SyncPayload {
	return SyncPayload{
		Book: SyncBook{
			Title:    "Walden",
			Author:   "Henry David Thoreau",
			ISBN:     "9780000000000",
			Keywords: []string{"philosophy", "nature"},
		},
		Highlights: []SyncHighlight{
			{
				Text:          "I went to the woods to live deliberately",
				Chapter:       "Where I Lived, and What I Lived For",
				ChapterNumber: intPtr(2),
				Page:          intPtr(59),
				Datetime:      "2024-01-01 10:00:00",
			},
			{
				Text:          "Simplicity, simplicity, simplicity",
				Chapter:       "Where I Lived, and What I Lived For",
				ChapterNumber: intPtr(2),
				Page:          intPtr(61),
				Note:          "a favorite",
				Datetime:      "2024-01-01 11:00:00",
			},
			{
				Text:     "The mass of men lead lives of quiet desperation",
				Chapter:  "Economy",
				Page:     intPtr(8),
				Datetime: "2024-01-01 12:00:00",
			},
		},
	}
}

func TestSyncUpload(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	result, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}

	assert.Equal(t, result.HighlightsCreated, 3, "created mismatch")
	assert.Equal(t, result.HighlightsSkipped, 0, "skipped mismatch")

	book, err := a.GetBook(user.ID, result.BookID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting book"))
	}
	assert.Equal(t, book.Title, "Walden", "Title mismatch")
	assert.Equal(t, book.ISBN, "9780000000000", "ISBN mismatch")

	chapters, err := a.GetChapters(user.ID, book.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting chapters"))
	}
	assert.Equal(t, len(chapters), 2, "chapter count mismatch")

	highlights, err := a.GetHighlights(user.ID, book.ID, GetHighlightsParams{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting highlights"))
	}
	assert.Equal(t, len(highlights), 3, "highlight count mismatch")
	for _, h := range highlights {
		if h.ChapterID == nil {
			t.Errorf("highlight %q should be linked to a chapter", h.Text)
		}
	}

	tags, err := a.GetBookTags(user.ID, book.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting book tags"))
	}
	assert.DeepEqual(t, tagNames(tags), []string{"nature", "philosophy"}, "keywords should seed book tags")
}

func TestSyncUpload_Reupload(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	first, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}

	second, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "re-uploading"))
	}

	assert.Equal(t, second.BookID, first.BookID, "BookID should be stable")
	assert.Equal(t, second.HighlightsCreated, 0, "re-upload should create nothing")
	assert.Equal(t, second.HighlightsSkipped, 3, "re-upload should skip everything")

	var bookCount, chapterCount, highlightCount int64
	testutils.MustExec(t, a.DB.Model(&database.Book{}).Count(&bookCount), "counting books")
	testutils.MustExec(t, a.DB.Model(&database.Chapter{}).Count(&chapterCount), "counting chapters")
	testutils.MustExec(t, a.DB.Model(&database.Highlight{}).Count(&highlightCount), "counting highlights")
	assert.Equal(t, bookCount, int64(1), "book count mismatch")
	assert.Equal(t, chapterCount, int64(2), "chapter count mismatch")
	assert.Equal(t, highlightCount, int64(3), "highlight count mismatch")
}

func TestSyncUpload_Incremental(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	if _, err := a.SyncUpload(user, waldenPayload()); err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}

	p := waldenPayload()
	p.Highlights = append(p.Highlights, SyncHighlight{
		Text:     "Our life is frittered away by detail",
		Chapter:  "Where I Lived, and What I Lived For",
		Datetime: "2024-01-02 09:00:00",
	})

	result, err := a.SyncUpload(user, p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "uploading incrementally"))
	}

	assert.Equal(t, result.HighlightsCreated, 1, "only the new highlight should be created")
	assert.Equal(t, result.HighlightsSkipped, 3, "skipped mismatch")
}

func TestSyncUpload_DeletedHighlightStaysDeleted(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	result, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}

	highlights, err := a.GetHighlights(user.ID, result.BookID, GetHighlightsParams{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting highlights"))
	}
	if _, err := a.SoftDeleteHighlights(user.ID, result.BookID, []int{highlights[0].ID}); err != nil {
		t.Fatal(errors.Wrap(err, "soft-deleting highlight"))
	}

	again, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "re-uploading"))
	}

	assert.Equal(t, again.HighlightsCreated, 0, "re-upload should not resurrect the deleted highlight")
	assert.Equal(t, again.HighlightsSkipped, 3, "skipped mismatch")

	remaining, err := a.GetHighlights(user.ID, result.BookID, GetHighlightsParams{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting highlights after re-upload"))
	}
	assert.Equal(t, len(remaining), 2, "deleted highlight should stay deleted")
}

func TestSyncUpload_KeywordsOnlyOnFirstSync(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	result, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}

	// The user clears the seeded tags
	if _, err := a.UpdateBookTags(user.ID, result.BookID, nil); err != nil {
		t.Fatal(errors.Wrap(err, "clearing book tags"))
	}

	if _, err := a.SyncUpload(user, waldenPayload()); err != nil {
		t.Fatal(errors.Wrap(err, "re-uploading"))
	}

	tags, err := a.GetBookTags(user.ID, result.BookID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting book tags"))
	}

	assert.Equal(t, len(tags), 0, "keywords should not re-seed tags on an existing book")
}

func TestSyncUpload_MetadataEditSurvives(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	result, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "uploading"))
	}

	title := "Walden; or, Life in the Woods"
	if _, err := a.UpdateBook(user.ID, result.BookID, UpdateBookParams{Title: &title}); err != nil {
		t.Fatal(errors.Wrap(err, "editing book"))
	}

	again, err := a.SyncUpload(user, waldenPayload())
	if err != nil {
		t.Fatal(errors.Wrap(err, "re-uploading"))
	}

	assert.Equal(t, again.BookID, result.BookID, "BookID should be stable")
	assert.Equal(t, again.HighlightsSkipped, 3, "highlight identity should not depend on the stored title")

	book, err := a.GetBook(user.ID, result.BookID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting book"))
	}
	assert.Equal(t, book.Title, "Walden; or, Life in the Woods", "edited title should survive resync")
}

func TestSyncUpload_Validation(t *testing.T) {
	testCases := []struct {
		payload     SyncPayload
		expectedErr error
	}{
		{
			payload:     SyncPayload{Book: SyncBook{Title: "   "}},
			expectedErr: ErrBookTitleRequired,
		},
		{
			payload: SyncPayload{
				Book:       SyncBook{Title: "Walden"},
				Highlights: []SyncHighlight{{Text: "", Datetime: "2024-01-01 10:00:00"}},
			},
			expectedErr: ErrHighlightTextRequired,
		},
		{
			payload: SyncPayload{
				Book:       SyncBook{Title: "Walden"},
				Highlights: []SyncHighlight{{Text: "some text"}},
			},
			expectedErr: ErrHighlightDatetimeRequired,
		},
		{
			payload: SyncPayload{
				Book: SyncBook{Title: "Walden"},
				Highlights: []SyncHighlight{
					{Text: "some text", Datetime: "2024-01-01 10:00:00", ChapterNumber: intPtr(0)},
				},
			},
			expectedErr: ErrChapterNumberInvalid,
		},
		{
			payload: SyncPayload{
				Book: SyncBook{Title: "Walden"},
				Highlights: []SyncHighlight{
					{Text: "some text", Datetime: "2024-01-01 10:00:00", Page: intPtr(-5)},
				},
			},
			expectedErr: ErrPageInvalid,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			a := newTestApp(t)
			user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

			_, err := a.SyncUpload(user, tc.payload)

			assert.Equal(t, err, tc.expectedErr, "error mismatch")

			var count int64
			testutils.MustExec(t, a.DB.Model(&database.Highlight{}).Count(&count), "counting highlights")
			assert.Equal(t, count, int64(0), "rejected payload should not persist anything")
		})
	}
}

func TestCollectChapterSpecs(t *testing.T) {
	highlights := []SyncHighlight{
		{Text: "a", Chapter: "Economy", ChapterNumber: intPtr(1)},
		{Text: "b", Chapter: "  "},
		{Text: "c", Chapter: "Reading", ChapterNumber: intPtr(3)},
		{Text: "d", Chapter: "Economy", ChapterNumber: intPtr(2)},
	}

	specs := collectChapterSpecs(highlights)

	assert.Equal(t, len(specs), 2, "spec count mismatch")
	assert.Equal(t, specs[0].Name, "Economy", "order should follow first appearance")
	assert.Equal(t, *specs[0].Number, 2, "last reported ordinal should win")
	assert.Equal(t, specs[1].Name, "Reading", "Name mismatch")
}
