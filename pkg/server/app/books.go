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

	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/hash"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ResolveBook finds or creates the book identified by the content hash of
// the given title and author. A found book is returned unmodified so that
// metadata edits made by the user survive repeated syncs reporting the
// original device values. Losing a create race against a concurrent sync
// falls back to re-selecting the winner's row.
func (a *App) ResolveBook(userID int, title, author, isbn string) (database.Book, bool, error) {
	h := hash.BookHash(title, author)

	var book database.Book
	err := a.DB.Where("user_id = ? AND content_hash = ?", userID, h).First(&book).Error
	if err == nil {
		return book, false, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return database.Book{}, false, errors.Wrap(err, "finding book by hash")
	}

	book = database.Book{
		UserID:      userID,
		Title:       title,
		Author:      author,
		ISBN:        isbn,
		ContentHash: h,
	}
	if err := a.DB.Create(&book).Error; err != nil {
		if database.IsUniqueViolation(err) {
			var existing database.Book
			if err := a.DB.Where("user_id = ? AND content_hash = ?", userID, h).First(&existing).Error; err != nil {
				return database.Book{}, false, errors.Wrap(err, "re-selecting book after create race")
			}
			return existing, false, nil
		}

		return database.Book{}, false, errors.Wrap(err, "inserting book")
	}

	return book, true, nil
}

// GetBook retrieves a book owned by the given user
func (a *App) GetBook(userID, bookID int) (database.Book, error) {
	var book database.Book
	err := a.DB.Where("id = ? AND user_id = ?", bookID, userID).First(&book).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return database.Book{}, ErrNotFound
	}
	if err != nil {
		return database.Book{}, errors.Wrap(err, "finding book")
	}

	return book, nil
}

// GetBooksParams is params for listing books
type GetBooksParams struct {
	Page    int
	PerPage int
	Search  string
}

// BookItem is a book with its number of active highlights
type BookItem struct {
	database.Book
	HighlightCount int64 `json:"highlight_count"`
}

// GetBooksResult is the result of listing books
type GetBooksResult struct {
	Books []BookItem
	Total int64
}

func getBooksBaseQuery(db *gorm.DB, userID int, p GetBooksParams) *gorm.DB {
	conn := db.Model(&database.Book{}).Where("user_id = ?", userID)

	if p.Search != "" {
		s := "%" + escapeLike(p.Search) + "%"
		conn = conn.Where(`(title LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\')`, s, s)
	}

	return conn
}

// GetBooks returns a paginated list of the user's books sorted by title,
// optionally filtered by a title/author substring, with per-book counts
// of non-deleted highlights.
func (a *App) GetBooks(userID int, p GetBooksParams) (GetBooksResult, error) {
	if p.PerPage <= 0 {
		p.PerPage = 30
	}

	conn := getBooksBaseQuery(a.DB, userID, p)

	var total int64
	if err := conn.Count(&total).Error; err != nil {
		return GetBooksResult{}, errors.Wrap(err, "counting books")
	}

	books := []database.Book{}
	if total != 0 {
		listConn := getBooksBaseQuery(a.DB, userID, p).Order("title ASC")
		listConn = paginate(listConn, p.Page, p.PerPage)
		if err := listConn.Find(&books).Error; err != nil {
			return GetBooksResult{}, errors.Wrap(err, "finding books")
		}
	}

	counts, err := a.getHighlightCounts(books)
	if err != nil {
		return GetBooksResult{}, err
	}

	items := make([]BookItem, 0, len(books))
	for _, b := range books {
		items = append(items, BookItem{Book: b, HighlightCount: counts[b.ID]})
	}

	return GetBooksResult{Books: items, Total: total}, nil
}

func (a *App) getHighlightCounts(books []database.Book) (map[int]int64, error) {
	ret := map[int]int64{}
	if len(books) == 0 {
		return ret, nil
	}

	ids := make([]int, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}

	rows := []struct {
		BookID int
		Count  int64
	}{}
	err := a.DB.Model(&database.Highlight{}).
		Select("book_id, COUNT(*) AS count").
		Where("book_id IN ? AND deleted_at IS NULL", ids).
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "counting highlights per book")
	}

	for _, r := range rows {
		ret[r.BookID] = r.Count
	}

	return ret, nil
}

// GetRecentlyViewedBooks returns the user's books ordered by last viewed
// time, most recent first. Books never viewed are excluded.
func (a *App) GetRecentlyViewedBooks(userID, limit int) ([]database.Book, error) {
	if limit <= 0 {
		limit = 10
	}

	books := []database.Book{}
	err := a.DB.Where("user_id = ? AND last_viewed_at IS NOT NULL", userID).
		Order("last_viewed_at DESC").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding recently viewed books")
	}

	return books, nil
}

// TouchLastViewed updates the book's last viewed time
func (a *App) TouchLastViewed(userID, bookID int) error {
	now := a.Clock.Now()
	res := a.DB.Model(&database.Book{}).
		Where("id = ? AND user_id = ?", bookID, userID).
		Update("last_viewed_at", &now)
	if res.Error != nil {
		return errors.Wrap(res.Error, "updating last_viewed_at")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateBookParams is the parameters for updating a book's metadata
type UpdateBookParams struct {
	Title  *string
	Author *string
	ISBN   *string
}

// UpdateBook applies a user edit to the book's metadata. The content hash
// is never recomputed; the book keeps its original identity.
func (a *App) UpdateBook(userID, bookID int, p UpdateBookParams) (database.Book, error) {
	book, err := a.GetBook(userID, bookID)
	if err != nil {
		return database.Book{}, err
	}

	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.ISBN != nil {
		book.ISBN = *p.ISBN
	}

	if err := a.DB.Save(&book).Error; err != nil {
		return database.Book{}, errors.Wrap(err, "updating book")
	}

	return book, nil
}

// DeleteBook hard-deletes the book and everything under it. The cascade
// order matters: children referencing highlights go first, then the
// highlights, then the remaining book-scoped rows, then the book.
func (a *App) DeleteBook(userID, bookID int) error {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return err
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "beginning transaction")
	}

	err := tx.Exec(
		"DELETE FROM highlight_tag_assocs WHERE highlight_id IN (SELECT id FROM highlights WHERE book_id = ?)",
		bookID,
	).Error
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting highlight tag associations")
	}

	for _, step := range []struct {
		model interface{}
		desc  string
	}{
		{&database.HighlightTag{}, "deleting highlight tags"},
		{&database.HighlightTagGroup{}, "deleting highlight tag groups"},
		{&database.Highlight{}, "deleting highlights"},
		{&database.Chapter{}, "deleting chapters"},
		{&database.BookTag{}, "deleting book tag associations"},
		{&database.Bookmark{}, "deleting bookmarks"},
	} {
		if err := tx.Where("book_id = ?", bookID).Delete(step.model).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(err, step.desc)
		}
	}

	if err := tx.Where("id = ? AND user_id = ?", bookID, userID).Delete(&database.Book{}).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting book")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}
