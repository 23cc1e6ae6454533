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
	"strings"

	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// normalizeTagNames trims the given names, drops empties and removes
// duplicates while preserving order
func normalizeTagNames(names []string) []string {
	ret := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true
		ret = append(ret, name)
	}

	return ret
}

// getOrCreateTags resolves the given names to tags in at most two
// queries: one fetch and one bulk insert for the missing names. Losing a
// create race falls back to a re-fetch.
func getOrCreateTags(tx *gorm.DB, userID int, names []string) (map[string]database.Tag, error) {
	ret := make(map[string]database.Tag, len(names))
	if len(names) == 0 {
		return ret, nil
	}

	existing := []database.Tag{}
	if err := tx.Where("user_id = ? AND name IN ?", userID, names).Find(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "finding tags")
	}
	for _, t := range existing {
		ret[t.Name] = t
	}

	staged := []database.Tag{}
	for _, name := range names {
		if _, ok := ret[name]; ok {
			continue
		}
		staged = append(staged, database.Tag{UserID: userID, Name: name})
	}

	if len(staged) > 0 {
		if err := tx.Create(&staged).Error; err != nil {
			if !database.IsUniqueViolation(err) {
				return nil, errors.Wrap(err, "inserting tags")
			}

			refetched := []database.Tag{}
			if err := tx.Where("user_id = ? AND name IN ?", userID, names).Find(&refetched).Error; err != nil {
				return nil, errors.Wrap(err, "re-selecting tags after create race")
			}
			for _, t := range refetched {
				ret[t.Name] = t
			}

			return ret, nil
		}

		for _, t := range staged {
			ret[t.Name] = t
		}
	}

	return ret, nil
}

// applyBookTags reconciles the book's tag set against the given names.
// Tags not in the list are soft-deleted. New names are created and
// associated. A previously soft-deleted association is restored only when
// restoreSoftDeleted is set: the user path restores (the user explicitly
// re-added the tag), the external sync path never does, so a device
// export cannot bring back a tag the user removed.
func (a *App) applyBookTags(tx *gorm.DB, userID, bookID int, names []string, restoreSoftDeleted bool) error {
	names = normalizeTagNames(names)

	tags, err := getOrCreateTags(tx, userID, names)
	if err != nil {
		return err
	}

	desired := make(map[int]bool, len(tags))
	for _, t := range tags {
		desired[t.ID] = true
	}

	assocs := []database.BookTag{}
	if err := tx.Where("book_id = ?", bookID).Find(&assocs).Error; err != nil {
		return errors.Wrap(err, "finding book tag associations")
	}
	assocByTag := make(map[int]database.BookTag, len(assocs))
	for _, as := range assocs {
		assocByTag[as.TagID] = as
	}

	var toInsert []database.BookTag
	var toRestore []int
	var toSoftDelete []int

	for tagID := range desired {
		as, ok := assocByTag[tagID]
		if !ok {
			toInsert = append(toInsert, database.BookTag{BookID: bookID, TagID: tagID})
			continue
		}
		if as.DeletedAt != nil && restoreSoftDeleted {
			toRestore = append(toRestore, as.ID)
		}
	}
	for _, as := range assocs {
		if as.DeletedAt == nil && !desired[as.TagID] {
			toSoftDelete = append(toSoftDelete, as.ID)
		}
	}

	if len(toInsert) > 0 {
		if err := tx.Create(&toInsert).Error; err != nil {
			return errors.Wrap(err, "inserting book tag associations")
		}
	}
	if len(toRestore) > 0 {
		if err := tx.Model(&database.BookTag{}).Where("id IN ?", toRestore).
			Update("deleted_at", nil).Error; err != nil {
			return errors.Wrap(err, "restoring book tag associations")
		}
	}
	if len(toSoftDelete) > 0 {
		now := a.Clock.Now()
		if err := tx.Model(&database.BookTag{}).Where("id IN ?", toSoftDelete).
			Update("deleted_at", &now).Error; err != nil {
			return errors.Wrap(err, "soft-deleting book tag associations")
		}
	}

	return nil
}

// UpdateBookTags replaces the book's tag set on behalf of the user.
// Soft-deleted associations named in the new set are restored.
func (a *App) UpdateBookTags(userID, bookID int, names []string) ([]database.Tag, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "beginning transaction")
	}

	if err := a.applyBookTags(tx, userID, bookID, names, true); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	return a.GetBookTags(userID, bookID)
}

// SyncBookTags applies externally sourced tag names to the book. Unlike
// the user path, associations the user soft-deleted stay deleted.
func (a *App) SyncBookTags(userID, bookID int, names []string) error {
	tx := a.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "beginning transaction")
	}

	if err := a.applyBookTags(tx, userID, bookID, names, false); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// GetBookTags returns the book's active tags sorted by name
func (a *App) GetBookTags(userID, bookID int) ([]database.Tag, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	tags := []database.Tag{}
	err := a.DB.Model(&database.Tag{}).
		Joins("INNER JOIN book_tags ON book_tags.tag_id = tags.id").
		Where("book_tags.book_id = ? AND book_tags.deleted_at IS NULL", bookID).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding book tags")
	}

	return tags, nil
}

// GetTags returns all of the user's tags sorted by name
func (a *App) GetTags(userID int) ([]database.Tag, error) {
	tags := []database.Tag{}
	err := a.DB.Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding tags")
	}

	return tags, nil
}

// CreateTag explicitly creates a tag. Unlike the sync path, a duplicate
// name is a conflict surfaced to the caller.
func (a *App) CreateTag(userID int, name string) (database.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.Tag{}, ErrEmptyTagName
	}

	tag := database.Tag{UserID: userID, Name: name}
	if err := a.DB.Create(&tag).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return database.Tag{}, ErrDuplicateTag
		}

		return database.Tag{}, errors.Wrap(err, "inserting tag")
	}

	return tag, nil
}

// DeleteTag hard-deletes a tag along with its book associations
func (a *App) DeleteTag(userID, tagID int) error {
	var tag database.Tag
	res := a.DB.Where("id = ? AND user_id = ?", tagID, userID).First(&tag)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}

		return errors.Wrap(res.Error, "finding tag")
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "beginning transaction")
	}

	if err := tx.Where("tag_id = ?", tagID).Delete(&database.BookTag{}).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting book tag associations")
	}
	if err := tx.Delete(&tag).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting tag")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}
