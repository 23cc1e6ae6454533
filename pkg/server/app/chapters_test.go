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
	"testing"

	"github.com/marginalia/marginalia/pkg/assert"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/testutils"
	"github.com/pkg/errors"
)

func intPtr(n int) *int {
	return &n
}

func TestResolveChapters(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	specs := []ChapterSpec{
		{Name: "Economy", Number: intPtr(1)},
		{Name: "Reading", Number: intPtr(3)},
		{Name: "Conclusion"},
	}

	resolved, err := a.ResolveChapters(book.ID, specs)
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters"))
	}

	assert.Equal(t, len(resolved), 3, "resolved chapter count mismatch")
	assert.Equal(t, *resolved["Economy"].ChapterNumber, 1, "Economy chapter number mismatch")
	if resolved["Conclusion"].ChapterNumber != nil {
		t.Errorf("Conclusion chapter number should be nil but got %d", *resolved["Conclusion"].ChapterNumber)
	}

	again, err := a.ResolveChapters(book.ID, specs)
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters again"))
	}

	assert.Equal(t, again["Economy"].ID, resolved["Economy"].ID, "chapter ID should be stable")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Chapter{}).Count(&count), "counting chapters")
	assert.Equal(t, count, int64(3), "chapter count mismatch")
}

func TestResolveChapters_UpdatesChapterNumber(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	resolved, err := a.ResolveChapters(book.ID, []ChapterSpec{{Name: "Economy", Number: intPtr(1)}})
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters"))
	}

	// Device re-paginated; the same chapter now carries a different ordinal
	again, err := a.ResolveChapters(book.ID, []ChapterSpec{{Name: "Economy", Number: intPtr(2)}})
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters again"))
	}

	assert.Equal(t, again["Economy"].ID, resolved["Economy"].ID, "chapter identity should be stable")
	assert.Equal(t, *again["Economy"].ChapterNumber, 2, "chapter number should be updated")

	var stored database.Chapter
	testutils.MustExec(t, a.DB.First(&stored, resolved["Economy"].ID), "finding chapter")
	assert.Equal(t, *stored.ChapterNumber, 2, "stored chapter number mismatch")
}

func TestResolveChapters_NullNumberKept(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	if _, err := a.ResolveChapters(book.ID, []ChapterSpec{{Name: "Economy", Number: intPtr(1)}}); err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters"))
	}

	// A null ordinal on resync does not clobber the stored one
	again, err := a.ResolveChapters(book.ID, []ChapterSpec{{Name: "Economy"}})
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters again"))
	}

	assert.Equal(t, *again["Economy"].ChapterNumber, 1, "stored chapter number should be kept")
}

func TestResolveChapters_Empty(t *testing.T) {
	a := newTestApp(t)

	resolved, err := a.ResolveChapters(1, nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters"))
	}

	assert.Equal(t, len(resolved), 0, "resolved chapter count mismatch")
}

func TestGetChapters_Order(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	book := setupBook(t, a, user.ID, "Walden", "Henry David Thoreau")

	_, err := a.ResolveChapters(book.ID, []ChapterSpec{
		{Name: "Appendix"},
		{Name: "Reading", Number: intPtr(3)},
		{Name: "Economy", Number: intPtr(1)},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "resolving chapters"))
	}

	chapters, err := a.GetChapters(user.ID, book.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting chapters"))
	}

	assert.Equal(t, len(chapters), 3, "chapter count mismatch")
	assert.Equal(t, chapters[0].Name, "Economy", "numbered chapters should come first in order")
	assert.Equal(t, chapters[1].Name, "Reading", "numbered chapters should come first in order")
	assert.Equal(t, chapters[2].Name, "Appendix", "unnumbered chapters should come last")
}

func TestGetChapters_BookNotFound(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	_, err := a.GetChapters(user.ID, 99999)

	assert.Equal(t, err, ErrNotFound, "error mismatch")
}
