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

// ChapterSpec is one requested chapter during sync
type ChapterSpec struct {
	Name   string
	Number *int
}

// ResolveChapters finds or creates the chapters named by the given specs
// for a book and returns them keyed by name. Existing chapters are
// fetched in one query and missing ones inserted in one bulk create.
// A stored chapter number is updated when the device reports a different,
// non-null ordinal: TOC order may legitimately change between syncs while
// the chapter's identity (book, name) stays stable.
//
// The work is committed in its own transaction. The caller relies on
// chapter rows being durable before any highlight that references them is
// inserted, so a later highlight conflict can never undo chapter
// creation.
func (a *App) ResolveChapters(bookID int, specs []ChapterSpec) (map[string]database.Chapter, error) {
	if len(specs) == 0 {
		return map[string]database.Chapter{}, nil
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "beginning transaction")
	}

	ret, err := resolveChapters(tx, bookID, specs)
	if err != nil {
		tx.Rollback()

		if database.IsUniqueViolation(errors.Cause(err)) {
			// Lost a create race against a concurrent sync for the same
			// book. Resolve each chapter individually instead.
			return a.resolveChaptersSlow(bookID, specs)
		}

		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	return ret, nil
}

func resolveChapters(tx *gorm.DB, bookID int, specs []ChapterSpec) (map[string]database.Chapter, error) {
	names := make([]string, 0, len(specs))
	specByName := make(map[string]ChapterSpec, len(specs))
	for _, sp := range specs {
		names = append(names, sp.Name)
		specByName[sp.Name] = sp
	}

	existing := []database.Chapter{}
	if err := tx.Where("book_id = ? AND name IN ?", bookID, names).Find(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "finding existing chapters")
	}

	ret := make(map[string]database.Chapter, len(specs))
	for _, ch := range existing {
		sp := specByName[ch.Name]
		if sp.Number != nil && (ch.ChapterNumber == nil || *ch.ChapterNumber != *sp.Number) {
			if err := tx.Model(&database.Chapter{}).Where("id = ?", ch.ID).
				Update("chapter_number", *sp.Number).Error; err != nil {
				return nil, errors.Wrap(err, "updating chapter number")
			}
			ch.ChapterNumber = sp.Number
		}

		ret[ch.Name] = ch
	}

	staged := []database.Chapter{}
	for _, sp := range specs {
		if _, ok := ret[sp.Name]; ok {
			continue
		}

		staged = append(staged, database.Chapter{
			BookID:        bookID,
			Name:          sp.Name,
			ChapterNumber: sp.Number,
		})
	}

	if len(staged) > 0 {
		if err := tx.Create(&staged).Error; err != nil {
			return nil, errors.Wrap(err, "inserting chapters")
		}
		for _, ch := range staged {
			ret[ch.Name] = ch
		}
	}

	return ret, nil
}

// resolveChaptersSlow resolves chapters one by one, re-selecting on each
// uniqueness violation. It is the recovery path after losing a bulk
// create race.
func (a *App) resolveChaptersSlow(bookID int, specs []ChapterSpec) (map[string]database.Chapter, error) {
	ret := make(map[string]database.Chapter, len(specs))

	for _, sp := range specs {
		var ch database.Chapter
		err := a.DB.Where("book_id = ? AND name = ?", bookID, sp.Name).First(&ch).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			ch = database.Chapter{BookID: bookID, Name: sp.Name, ChapterNumber: sp.Number}
			err = a.DB.Create(&ch).Error
			if err != nil && database.IsUniqueViolation(err) {
				err = a.DB.Where("book_id = ? AND name = ?", bookID, sp.Name).First(&ch).Error
			}
		}
		if err != nil {
			return nil, errors.Wrap(err, "resolving chapter")
		}

		if sp.Number != nil && (ch.ChapterNumber == nil || *ch.ChapterNumber != *sp.Number) {
			if err := a.DB.Model(&database.Chapter{}).Where("id = ?", ch.ID).
				Update("chapter_number", *sp.Number).Error; err != nil {
				return nil, errors.Wrap(err, "updating chapter number")
			}
			ch.ChapterNumber = sp.Number
		}

		ret[sp.Name] = ch
	}

	return ret, nil
}

// GetChapters returns the chapters of a book ordered by chapter number
// with unnumbered chapters last, then by name.
func (a *App) GetChapters(userID, bookID int) ([]database.Chapter, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	chapters := []database.Chapter{}
	err := a.DB.Where("book_id = ?", bookID).
		Order("chapter_number IS NULL, chapter_number ASC, name ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding chapters")
	}

	return chapters, nil
}
