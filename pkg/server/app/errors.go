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

import "github.com/pkg/errors"

var (
	// ErrNotFound is an error for an entity that is absent or not owned
	// by the caller. The two cases are deliberately indistinguishable so
	// that ownership is never leaked.
	ErrNotFound = errors.New("not found")

	// ErrLoginInvalid is an error for invalid credentials
	ErrLoginInvalid = errors.New("Wrong email and password combination")
	// ErrEmailRequired is an error for an empty email
	ErrEmailRequired = errors.New("Please enter an email")
	// ErrPasswordRequired is an error for an empty password
	ErrPasswordRequired = errors.New("Please enter a password")
	// ErrPasswordTooShort is an error for a too short password
	ErrPasswordTooShort = errors.New("Password should be longer than 8 characters")
	// ErrPasswordConfirmationMismatch is an error for password not matching its confirmation
	ErrPasswordConfirmationMismatch = errors.New("Password and its confirmation do not match")
	// ErrDuplicateEmail is an error for a duplicate email
	ErrDuplicateEmail = errors.New("Duplicate email")
	// ErrRegistrationDisabled is an error for registration being disabled
	ErrRegistrationDisabled = errors.New("Registration is disabled")
	// ErrUserHasExistingResources is an error for removing a user that still owns data
	ErrUserHasExistingResources = errors.New("user has existing books or highlights")

	// ErrBookTitleRequired is an error for an upload with no book title
	ErrBookTitleRequired = errors.New("Book title is required")
	// ErrHighlightTextRequired is an error for an upload containing a highlight with no text
	ErrHighlightTextRequired = errors.New("Highlight text is required")
	// ErrHighlightDatetimeRequired is an error for an upload containing a highlight with no datetime
	ErrHighlightDatetimeRequired = errors.New("Highlight datetime is required")
	// ErrChapterNumberInvalid is an error for a chapter number below 1
	ErrChapterNumberInvalid = errors.New("Chapter number must be at least 1")
	// ErrPageInvalid is an error for a negative page number
	ErrPageInvalid = errors.New("Page must not be negative")
	// ErrHighlightIDsRequired is an error for a delete request with no highlight ids
	ErrHighlightIDsRequired = errors.New("At least one highlight id is required")
	// ErrSearchTextRequired is an error for a search request with no search text
	ErrSearchTextRequired = errors.New("Search text is required")

	// ErrEmptyTagName is an error for a tag name that is empty after trimming
	ErrEmptyTagName = errors.New("Tag name is empty")
	// ErrDuplicateTag is an error for a duplicate tag name
	ErrDuplicateTag = errors.New("Duplicate tag name")
	// ErrDuplicateHighlightTag is an error for a duplicate highlight tag name within a book
	ErrDuplicateHighlightTag = errors.New("Duplicate highlight tag name")
	// ErrDuplicateHighlightTagGroup is an error for a duplicate tag group name within a book
	ErrDuplicateHighlightTagGroup = errors.New("Duplicate highlight tag group name")
)
