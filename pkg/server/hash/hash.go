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

// Package hash computes content-identity fingerprints for books and
// highlights. A hash is computed once when an entity is first synced and
// is never recomputed from later edits, so identity stays stable across
// metadata changes made by the user.
//
// The algorithm is a compatibility contract with stored data: SHA-256
// over the UTF-8 encoding of the trimmed fields joined with "|". The
// separator is not escaped from the input, so a field containing a
// literal "|" could in principle collide with a different field
// combination. That behavior is preserved as-is; changing it would orphan
// every hash already stored.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const separator = "|"

func digest(fields ...string) string {
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, separator)))

	return hex.EncodeToString(sum[:])
}

// BookHash returns the identity hash for a book. A missing author is
// represented by the empty string.
func BookHash(title, author string) string {
	return digest(title, author)
}

// HighlightHash returns the identity hash for a highlight. The book title
// and author are the device-reported values, not the stored ones, so that
// a user edit to book metadata does not change highlight identity. The
// device timestamp and chapter are deliberately excluded: identical text
// in the same book is the same highlight.
func HighlightHash(text, bookTitle, bookAuthor string) string {
	return digest(text, bookTitle, bookAuthor)
}
