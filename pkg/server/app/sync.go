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
	"github.com/marginalia/marginalia/pkg/server/hash"
	"github.com/marginalia/marginalia/pkg/server/log"
)

// SyncBook is the book metadata in an uploaded sync payload
type SyncBook struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	ISBN     string   `json:"isbn"`
	Keywords []string `json:"keywords"`
}

// SyncHighlight is one highlight in an uploaded sync payload
type SyncHighlight struct {
	Text          string `json:"text"`
	Chapter       string `json:"chapter"`
	ChapterNumber *int   `json:"chapter_number"`
	Page          *int   `json:"page"`
	Note          string `json:"note"`
	Datetime      string `json:"datetime"`
}

// SyncPayload is one device export: a book and its highlights
type SyncPayload struct {
	Book       SyncBook        `json:"book"`
	Highlights []SyncHighlight `json:"highlights"`
}

// SyncResult summarizes an applied sync payload
type SyncResult struct {
	BookID            int `json:"book_id"`
	HighlightsCreated int `json:"highlights_created"`
	HighlightsSkipped int `json:"highlights_skipped"`
}

func validateSyncPayload(p SyncPayload) error {
	if strings.TrimSpace(p.Book.Title) == "" {
		return ErrBookTitleRequired
	}

	for _, h := range p.Highlights {
		if strings.TrimSpace(h.Text) == "" {
			return ErrHighlightTextRequired
		}
		if strings.TrimSpace(h.Datetime) == "" {
			return ErrHighlightDatetimeRequired
		}
		if h.ChapterNumber != nil && *h.ChapterNumber < 1 {
			return ErrChapterNumberInvalid
		}
		if h.Page != nil && *h.Page < 0 {
			return ErrPageInvalid
		}
	}

	return nil
}

// SyncUpload applies a device export for the given user. Re-uploading the
// same payload is a no-op apart from the skip counts: books, chapters and
// highlights are all resolved by identity rather than re-created.
//
// The payload is applied in stages, each durable on its own. Chapters are
// committed before any highlight is inserted and each highlight insert
// stands alone, so a duplicate in the middle of the batch never takes the
// rest of the upload down with it.
func (a *App) SyncUpload(user database.User, p SyncPayload) (SyncResult, error) {
	if err := validateSyncPayload(p); err != nil {
		return SyncResult{}, err
	}

	book, created, err := a.ResolveBook(user.ID, p.Book.Title, p.Book.Author, p.Book.ISBN)
	if err != nil {
		return SyncResult{}, err
	}

	// Device keywords seed the tag set only on first sight of the book.
	// After that the tags belong to the user and the device stops being
	// an authority on them.
	if created && len(p.Book.Keywords) > 0 {
		if err := a.SyncBookTags(user.ID, book.ID, p.Book.Keywords); err != nil {
			return SyncResult{}, err
		}
	}

	specs := collectChapterSpecs(p.Highlights)
	chapters, err := a.ResolveChapters(book.ID, specs)
	if err != nil {
		return SyncResult{}, err
	}

	items := make([]NewHighlight, 0, len(p.Highlights))
	for _, h := range p.Highlights {
		item := NewHighlight{
			Text:        h.Text,
			Page:        h.Page,
			Note:        h.Note,
			Datetime:    h.Datetime,
			ContentHash: hash.HighlightHash(h.Text, p.Book.Title, p.Book.Author),
		}
		if name := strings.TrimSpace(h.Chapter); name != "" {
			if ch, ok := chapters[name]; ok {
				chID := ch.ID
				item.ChapterID = &chID
			}
		}

		items = append(items, item)
	}

	createdCount, skipped, err := a.BulkCreateHighlights(user.ID, book.ID, items)
	if err != nil {
		return SyncResult{}, err
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"book_id": book.ID,
		"created": createdCount,
		"skipped": skipped,
	}).Info("sync upload applied")

	return SyncResult{
		BookID:            book.ID,
		HighlightsCreated: createdCount,
		HighlightsSkipped: skipped,
	}, nil
}

// collectChapterSpecs gathers the distinct chapter names in the payload.
// When the same name appears with different ordinals, the last one wins.
func collectChapterSpecs(highlights []SyncHighlight) []ChapterSpec {
	order := []string{}
	byName := map[string]ChapterSpec{}

	for _, h := range highlights {
		name := strings.TrimSpace(h.Chapter)
		if name == "" {
			continue
		}

		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = ChapterSpec{Name: name, Number: h.ChapterNumber}
	}

	ret := make([]ChapterSpec, 0, len(order))
	for _, name := range order {
		ret = append(ret, byName[name])
	}

	return ret
}
