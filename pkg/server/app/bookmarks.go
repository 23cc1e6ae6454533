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
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CreateBookmark records a page bookmark in a book with an optional note
func (a *App) CreateBookmark(userID, bookID, page int, note string) (database.Bookmark, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return database.Bookmark{}, err
	}

	bookmark := database.Bookmark{
		BookID: bookID,
		UserID: userID,
		Page:   page,
	}
	if note != "" {
		bookmark.Note = database.ToNullString(note)
	}

	if err := a.DB.Create(&bookmark).Error; err != nil {
		return database.Bookmark{}, errors.Wrap(err, "inserting bookmark")
	}

	return bookmark, nil
}

// GetBookmarks returns the book's bookmarks ordered by page
func (a *App) GetBookmarks(userID, bookID int) ([]database.Bookmark, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	bookmarks := []database.Bookmark{}
	err := a.DB.Where("book_id = ? AND user_id = ?", bookID, userID).
		Order("page ASC, id ASC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding bookmarks")
	}

	return bookmarks, nil
}

// DeleteBookmark hard-deletes a bookmark owned by the given user
func (a *App) DeleteBookmark(userID, bookmarkID int) error {
	var bookmark database.Bookmark
	err := a.DB.Where("id = ? AND user_id = ?", bookmarkID, userID).First(&bookmark).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "finding bookmark")
	}

	if err := a.DB.Delete(&bookmark).Error; err != nil {
		return errors.Wrap(err, "deleting bookmark")
	}

	return nil
}
