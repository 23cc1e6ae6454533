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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for a user. A user owns every other entity and acts as
// the partition key for all queries.
type User struct {
	Model
	UUID        string     `json:"uuid" gorm:"type:text;index"`
	Email       NullString `json:"email" gorm:"index"`
	Password    NullString `json:"-"`
	LastLoginAt *time.Time `json:"-"`
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"index"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// Token is a model for an opaque token, such as an API token for the
// Anki plugin
type Token struct {
	Model
	UserID int    `gorm:"index"`
	Value  string `gorm:"index"`
	Type   string
	UsedAt *time.Time
}

// Book is a model for a book. ContentHash is computed from the
// device-reported title and author at first sync and never updated, even
// when the user later edits the metadata. (user_id, content_hash) is
// unique.
type Book struct {
	Model
	UserID       int        `json:"user_id" gorm:"index;uniqueIndex:idx_books_user_hash"`
	Title        string     `json:"title" gorm:"index"`
	Author       string     `json:"author"`
	ISBN         string     `json:"isbn"`
	ContentHash  string     `json:"-" gorm:"type:text;uniqueIndex:idx_books_user_hash"`
	CoverURL     NullString `json:"cover_url"`
	Description  NullString `json:"description"`
	Language     NullString `json:"language"`
	PageCount    *int       `json:"page_count"`
	LastViewedAt *time.Time `json:"last_viewed_at"`
}

// Chapter is a model for a chapter within a book. Identity is
// (book_id, name); ChapterNumber is TOC metadata that may legitimately
// change between syncs.
type Chapter struct {
	Model
	BookID        int    `json:"book_id" gorm:"index;uniqueIndex:idx_chapters_book_name"`
	Name          string `json:"name" gorm:"type:text;uniqueIndex:idx_chapters_book_name"`
	ChapterNumber *int   `json:"chapter_number"`
}

// Highlight is a model for a highlight. ContentHash identity excludes the
// device timestamp and chapter placement. The (user_id, content_hash)
// unique index applies to soft-deleted rows too, which is what prevents a
// re-sync from resurrecting a highlight the user deleted.
type Highlight struct {
	Model
	BookID      int        `json:"book_id" gorm:"index"`
	UserID      int        `json:"user_id" gorm:"index;uniqueIndex:idx_highlights_user_hash"`
	ChapterID   *int       `json:"chapter_id" gorm:"index"`
	Text        string     `json:"text"`
	Page        *int       `json:"page"`
	Note        NullString `json:"note"`
	Datetime    string     `json:"datetime"`
	ContentHash string     `json:"-" gorm:"type:text;uniqueIndex:idx_highlights_user_hash"`
	DeletedAt   *time.Time `json:"-" gorm:"index"`
}

// Tag is a model for a user-scoped book tag
type Tag struct {
	Model
	UserID int    `json:"user_id" gorm:"index;uniqueIndex:idx_tags_user_name"`
	Name   string `json:"name" gorm:"type:text;uniqueIndex:idx_tags_user_name"`
}

// BookTag associates a tag with a book. DeletedAt records that the
// association existed and was removed by the user, so an external sync
// does not silently recreate it.
type BookTag struct {
	Model
	BookID    int        `gorm:"index;uniqueIndex:idx_book_tags_book_tag"`
	TagID     int        `gorm:"index;uniqueIndex:idx_book_tags_book_tag"`
	DeletedAt *time.Time `gorm:"index"`
}

// HighlightTagGroup is an optional grouping for highlight tags within a
// book
type HighlightTagGroup struct {
	Model
	BookID int    `json:"book_id" gorm:"index;uniqueIndex:idx_highlight_tag_groups_book_name"`
	Name   string `json:"name" gorm:"type:text;uniqueIndex:idx_highlight_tag_groups_book_name"`
}

// HighlightTag is a model for a book-scoped highlight tag. TagGroupID is
// set to NULL when its group is deleted; group deletion never cascades to
// the tags themselves.
type HighlightTag struct {
	Model
	BookID     int    `json:"book_id" gorm:"index;uniqueIndex:idx_highlight_tags_book_name"`
	Name       string `json:"name" gorm:"type:text;uniqueIndex:idx_highlight_tags_book_name"`
	TagGroupID *int   `json:"tag_group_id" gorm:"index"`
}

// HighlightTagAssoc associates a highlight tag with a highlight, with the
// same soft-delete reconciliation semantics as BookTag.
type HighlightTagAssoc struct {
	Model
	HighlightID    int        `gorm:"index;uniqueIndex:idx_highlight_tag_assocs"`
	HighlightTagID int        `gorm:"index;uniqueIndex:idx_highlight_tag_assocs"`
	DeletedAt      *time.Time `gorm:"index"`
}

// Bookmark is a page marker within a book
type Bookmark struct {
	Model
	BookID int        `json:"book_id" gorm:"index"`
	UserID int        `json:"user_id" gorm:"index"`
	Page   int        `json:"page"`
	Note   NullString `json:"note"`
}
