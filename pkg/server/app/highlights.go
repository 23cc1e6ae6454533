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
	stderrors "errors"
	"strings"

	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NewHighlight is one incoming highlight staged for creation
type NewHighlight struct {
	ChapterID   *int
	Text        string
	Page        *int
	Note        string
	Datetime    string
	ContentHash string
}

// highlightInsert is the outcome of a single highlight insert attempt
type highlightInsert int

const (
	highlightInserted highlightInsert = iota
	highlightExists
)

// insertHighlight attempts to insert the given highlight. A uniqueness
// violation on (user_id, content_hash) means an identical highlight
// already exists, active or soft-deleted, and is reported as
// highlightExists rather than an error.
func insertHighlight(db *gorm.DB, h *database.Highlight) (highlightInsert, error) {
	if err := db.Create(h).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return highlightExists, nil
		}

		return highlightExists, errors.Wrap(err, "inserting highlight")
	}

	return highlightInserted, nil
}

// BulkCreateHighlights inserts the given highlights one by one, counting
// duplicates as skipped. Each insert commits independently: a duplicate
// late in the batch must never roll back highlights or chapters created
// earlier in the same sync. A soft-deleted row holding the same identity
// also counts as a skip, which is what keeps a user-deleted highlight
// from being resurrected by a re-sync.
func (a *App) BulkCreateHighlights(userID, bookID int, items []NewHighlight) (int, int, error) {
	var created, skipped int

	for _, item := range items {
		h := database.Highlight{
			BookID:      bookID,
			UserID:      userID,
			ChapterID:   item.ChapterID,
			Text:        item.Text,
			Page:        item.Page,
			Datetime:    item.Datetime,
			ContentHash: item.ContentHash,
		}
		if item.Note != "" {
			h.Note = database.ToNullString(item.Note)
		}

		res, err := insertHighlight(a.DB, &h)
		if err != nil {
			return created, skipped, err
		}

		switch res {
		case highlightInserted:
			created++
		case highlightExists:
			skipped++
		}
	}

	return created, skipped, nil
}

// GetHighlightsParams is params for listing highlights within a book
type GetHighlightsParams struct {
	ChapterID *int
}

// GetHighlights returns the book's non-deleted highlights, optionally
// filtered by chapter, ordered by the device-reported datetime. The
// device's datetime format is opaque to this layer, so the ordering is a
// plain lexical string sort.
func (a *App) GetHighlights(userID, bookID int, p GetHighlightsParams) ([]database.Highlight, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	conn := a.DB.Where("book_id = ? AND user_id = ? AND deleted_at IS NULL", bookID, userID)
	if p.ChapterID != nil {
		conn = conn.Where("chapter_id = ?", *p.ChapterID)
	}

	highlights := []database.Highlight{}
	if err := conn.Order("datetime ASC, id ASC").Find(&highlights).Error; err != nil {
		return nil, errors.Wrap(err, "finding highlights")
	}

	return highlights, nil
}

// GetHighlight retrieves a non-deleted highlight owned by the given user
func (a *App) GetHighlight(userID, highlightID int) (database.Highlight, error) {
	var h database.Highlight
	err := a.DB.Where("id = ? AND user_id = ? AND deleted_at IS NULL", highlightID, userID).First(&h).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return database.Highlight{}, ErrNotFound
	}
	if err != nil {
		return database.Highlight{}, errors.Wrap(err, "finding highlight")
	}

	return h, nil
}

// SoftDeleteHighlights marks the given highlights as deleted and returns
// the number of rows actually changed. Rows already deleted, outside the
// book, or not owned by the user are untouched; re-deleting is a no-op,
// not an error. The rows keep their identity hash so that a future sync
// cannot recreate them.
func (a *App) SoftDeleteHighlights(userID, bookID int, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrHighlightIDsRequired
	}

	now := a.Clock.Now()
	res := a.DB.Model(&database.Highlight{}).
		Where("id IN ? AND book_id = ? AND user_id = ? AND deleted_at IS NULL", ids, bookID, userID).
		Update("deleted_at", &now)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "soft-deleting highlights")
	}

	return res.RowsAffected, nil
}

// UpdateHighlightNote updates the user note on a highlight
func (a *App) UpdateHighlightNote(userID, highlightID int, note string) (database.Highlight, error) {
	h, err := a.GetHighlight(userID, highlightID)
	if err != nil {
		return database.Highlight{}, err
	}

	h.Note = database.ToNullString(note)
	if err := a.DB.Save(&h).Error; err != nil {
		return database.Highlight{}, errors.Wrap(err, "updating highlight note")
	}

	return h, nil
}

// SearchHighlightsParams is params for searching highlights
type SearchHighlightsParams struct {
	Text   string
	BookID *int
	Limit  int
}

// SearchResultItem is one search hit with denormalized book and chapter
// context
type SearchResultItem struct {
	ID          int                 `json:"id"`
	BookID      int                 `json:"book_id"`
	ChapterID   *int                `json:"chapter_id"`
	Text        string              `json:"text"`
	Page        *int                `json:"page"`
	Note        database.NullString `json:"note"`
	Datetime    string              `json:"datetime"`
	BookTitle   string              `json:"book_title"`
	BookAuthor  string              `json:"book_author"`
	ChapterName database.NullString `json:"chapter_name"`
}

const searchSelectFields = `
highlights.id,
highlights.book_id,
highlights.chapter_id,
highlights.text,
highlights.page,
highlights.note,
highlights.datetime,
books.title AS book_title,
books.author AS book_author,
chapters.name AS chapter_name`

func searchBaseQuery(db *gorm.DB, userID int, p SearchHighlightsParams) *gorm.DB {
	conn := db.Table("highlights").
		Select(searchSelectFields).
		Joins("INNER JOIN books ON books.id = highlights.book_id").
		Joins("LEFT JOIN chapters ON chapters.id = highlights.chapter_id").
		Where("highlights.user_id = ? AND highlights.deleted_at IS NULL", userID)

	if p.BookID != nil {
		conn = conn.Where("highlights.book_id = ?", *p.BookID)
	}

	return conn
}

// ftsQuote turns the raw search text into an FTS5 phrase query so that
// user input is never interpreted as FTS syntax
func ftsQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SearchHighlights searches the user's non-deleted highlights. It
// delegates to the store's full-text index and falls back to a substring
// match when the index is unavailable.
func (a *App) SearchHighlights(userID int, p SearchHighlightsParams) ([]SearchResultItem, error) {
	if strings.TrimSpace(p.Text) == "" {
		return nil, ErrSearchTextRequired
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}

	ret := []SearchResultItem{}
	err := searchBaseQuery(a.DB, userID, p).
		Joins("INNER JOIN highlights_fts ON highlights_fts.rowid = highlights.id").
		Where("highlights_fts MATCH ?", ftsQuote(p.Text)).
		Order("highlights_fts.rank").
		Limit(p.Limit).
		Scan(&ret).Error
	if err == nil {
		return ret, nil
	}

	log.ErrorWrap(err, "full-text search unavailable, falling back to substring match")

	ret = []SearchResultItem{}
	s := "%" + escapeLike(p.Text) + "%"
	err = searchBaseQuery(a.DB, userID, p).
		Where(`highlights.text LIKE ? ESCAPE '\'`, s).
		Order("highlights.created_at DESC").
		Limit(p.Limit).
		Scan(&ret).Error
	if err != nil {
		return nil, errors.Wrap(err, "searching highlights")
	}

	return ret, nil
}
