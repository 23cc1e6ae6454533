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
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CreateHighlightTag explicitly creates a highlight tag within a book,
// optionally placing it in a tag group. A duplicate name within the book
// is a conflict.
func (a *App) CreateHighlightTag(userID, bookID int, name string, groupID *int) (database.HighlightTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.HighlightTag{}, ErrEmptyTagName
	}

	if _, err := a.GetBook(userID, bookID); err != nil {
		return database.HighlightTag{}, err
	}
	if groupID != nil {
		if _, err := a.getHighlightTagGroup(bookID, *groupID); err != nil {
			return database.HighlightTag{}, err
		}
	}

	tag := database.HighlightTag{BookID: bookID, Name: name, TagGroupID: groupID}
	if err := a.DB.Create(&tag).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return database.HighlightTag{}, ErrDuplicateHighlightTag
		}

		return database.HighlightTag{}, errors.Wrap(err, "inserting highlight tag")
	}

	return tag, nil
}

// GetHighlightTags returns the book's highlight tags sorted by name
func (a *App) GetHighlightTags(userID, bookID int) ([]database.HighlightTag, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	tags := []database.HighlightTag{}
	err := a.DB.Where("book_id = ?", bookID).Order("name ASC").Find(&tags).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding highlight tags")
	}

	return tags, nil
}

// getOrCreateHighlightTags mirrors getOrCreateTags for book-scoped
// highlight tags
func getOrCreateHighlightTags(tx *gorm.DB, bookID int, names []string) (map[string]database.HighlightTag, error) {
	ret := make(map[string]database.HighlightTag, len(names))
	if len(names) == 0 {
		return ret, nil
	}

	existing := []database.HighlightTag{}
	if err := tx.Where("book_id = ? AND name IN ?", bookID, names).Find(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "finding highlight tags")
	}
	for _, t := range existing {
		ret[t.Name] = t
	}

	staged := []database.HighlightTag{}
	for _, name := range names {
		if _, ok := ret[name]; ok {
			continue
		}
		staged = append(staged, database.HighlightTag{BookID: bookID, Name: name})
	}

	if len(staged) > 0 {
		if err := tx.Create(&staged).Error; err != nil {
			if !database.IsUniqueViolation(err) {
				return nil, errors.Wrap(err, "inserting highlight tags")
			}

			refetched := []database.HighlightTag{}
			if err := tx.Where("book_id = ? AND name IN ?", bookID, names).Find(&refetched).Error; err != nil {
				return nil, errors.Wrap(err, "re-selecting highlight tags after create race")
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

// applyHighlightTags reconciles a highlight's tag set the same way
// applyBookTags reconciles a book's: soft-deleted associations are
// restored only on the user path.
func (a *App) applyHighlightTags(tx *gorm.DB, bookID, highlightID int, names []string, restoreSoftDeleted bool) error {
	names = normalizeTagNames(names)

	tags, err := getOrCreateHighlightTags(tx, bookID, names)
	if err != nil {
		return err
	}

	desired := make(map[int]bool, len(tags))
	for _, t := range tags {
		desired[t.ID] = true
	}

	assocs := []database.HighlightTagAssoc{}
	if err := tx.Where("highlight_id = ?", highlightID).Find(&assocs).Error; err != nil {
		return errors.Wrap(err, "finding highlight tag associations")
	}
	assocByTag := make(map[int]database.HighlightTagAssoc, len(assocs))
	for _, as := range assocs {
		assocByTag[as.HighlightTagID] = as
	}

	var toInsert []database.HighlightTagAssoc
	var toRestore []int
	var toSoftDelete []int

	for tagID := range desired {
		as, ok := assocByTag[tagID]
		if !ok {
			toInsert = append(toInsert, database.HighlightTagAssoc{
				HighlightID:    highlightID,
				HighlightTagID: tagID,
			})
			continue
		}
		if as.DeletedAt != nil && restoreSoftDeleted {
			toRestore = append(toRestore, as.ID)
		}
	}
	for _, as := range assocs {
		if as.DeletedAt == nil && !desired[as.HighlightTagID] {
			toSoftDelete = append(toSoftDelete, as.ID)
		}
	}

	if len(toInsert) > 0 {
		if err := tx.Create(&toInsert).Error; err != nil {
			return errors.Wrap(err, "inserting highlight tag associations")
		}
	}
	if len(toRestore) > 0 {
		if err := tx.Model(&database.HighlightTagAssoc{}).Where("id IN ?", toRestore).
			Update("deleted_at", nil).Error; err != nil {
			return errors.Wrap(err, "restoring highlight tag associations")
		}
	}
	if len(toSoftDelete) > 0 {
		now := a.Clock.Now()
		if err := tx.Model(&database.HighlightTagAssoc{}).Where("id IN ?", toSoftDelete).
			Update("deleted_at", &now).Error; err != nil {
			return errors.Wrap(err, "soft-deleting highlight tag associations")
		}
	}

	return nil
}

// UpdateHighlightTags replaces a highlight's tag set on behalf of the
// user
func (a *App) UpdateHighlightTags(userID, highlightID int, names []string) ([]database.HighlightTag, error) {
	h, err := a.GetHighlight(userID, highlightID)
	if err != nil {
		return nil, err
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "beginning transaction")
	}

	if err := a.applyHighlightTags(tx, h.BookID, h.ID, names, true); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	return a.GetTagsForHighlight(userID, highlightID)
}

// GetTagsForHighlight returns a highlight's active tags sorted by name
func (a *App) GetTagsForHighlight(userID, highlightID int) ([]database.HighlightTag, error) {
	if _, err := a.GetHighlight(userID, highlightID); err != nil {
		return nil, err
	}

	tags := []database.HighlightTag{}
	err := a.DB.Model(&database.HighlightTag{}).
		Joins("INNER JOIN highlight_tag_assocs ON highlight_tag_assocs.highlight_tag_id = highlight_tags.id").
		Where("highlight_tag_assocs.highlight_id = ? AND highlight_tag_assocs.deleted_at IS NULL", highlightID).
		Order("highlight_tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding highlight tags")
	}

	return tags, nil
}

func (a *App) getHighlightTagGroup(bookID, groupID int) (database.HighlightTagGroup, error) {
	var group database.HighlightTagGroup
	err := a.DB.Where("id = ? AND book_id = ?", groupID, bookID).First(&group).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return database.HighlightTagGroup{}, ErrNotFound
	}
	if err != nil {
		return database.HighlightTagGroup{}, errors.Wrap(err, "finding highlight tag group")
	}

	return group, nil
}

// CreateHighlightTagGroup creates a tag group within a book. A duplicate
// name within the book is a conflict.
func (a *App) CreateHighlightTagGroup(userID, bookID int, name string) (database.HighlightTagGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return database.HighlightTagGroup{}, ErrEmptyTagName
	}

	if _, err := a.GetBook(userID, bookID); err != nil {
		return database.HighlightTagGroup{}, err
	}

	group := database.HighlightTagGroup{BookID: bookID, Name: name}
	if err := a.DB.Create(&group).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return database.HighlightTagGroup{}, ErrDuplicateHighlightTagGroup
		}

		return database.HighlightTagGroup{}, errors.Wrap(err, "inserting highlight tag group")
	}

	return group, nil
}

// GetHighlightTagGroups returns the book's tag groups sorted by name
func (a *App) GetHighlightTagGroups(userID, bookID int) ([]database.HighlightTagGroup, error) {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return nil, err
	}

	groups := []database.HighlightTagGroup{}
	err := a.DB.Where("book_id = ?", bookID).Order("name ASC").Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "finding highlight tag groups")
	}

	return groups, nil
}

// DeleteHighlightTagGroup deletes a tag group. Member tags are kept; the
// group reference on each is set to NULL, never cascaded.
func (a *App) DeleteHighlightTagGroup(userID, bookID, groupID int) error {
	if _, err := a.GetBook(userID, bookID); err != nil {
		return err
	}
	group, err := a.getHighlightTagGroup(bookID, groupID)
	if err != nil {
		return err
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "beginning transaction")
	}

	if err := tx.Model(&database.HighlightTag{}).Where("tag_group_id = ?", groupID).
		Update("tag_group_id", nil).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "detaching highlight tags from group")
	}
	if err := tx.Delete(&group).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting highlight tag group")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}
