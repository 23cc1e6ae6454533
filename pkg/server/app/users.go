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
	"errors"

	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/helpers"
	"github.com/marginalia/marginalia/pkg/server/token"
	pkgErrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenTypeAPI is the token type for programmatic API access, issued to
// devices and plugins that upload highlights
var TokenTypeAPI = "api"

// TouchLastLoginAt updates the last login timestamp
func (a *App) TouchLastLoginAt(user database.User, tx *gorm.DB) error {
	t := a.Clock.Now()
	if err := tx.Model(&user).Update("last_login_at", &t).Error; err != nil {
		return pkgErrors.Wrap(err, "updating last_login_at")
	}

	return nil
}

// CreateUser creates a user
func (a *App) CreateUser(email, password, passwordConfirmation string) (database.User, error) {
	if a.DisableRegistration {
		return database.User{}, ErrRegistrationDisabled
	}
	if email == "" {
		return database.User{}, ErrEmailRequired
	}
	if password == "" {
		return database.User{}, ErrPasswordRequired
	}
	if len(password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}
	if password != passwordConfirmation {
		return database.User{}, ErrPasswordConfirmationMismatch
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return database.User{}, pkgErrors.Wrap(tx.Error, "beginning transaction")
	}

	var count int64
	if err := tx.Model(database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "counting user")
	}
	if count > 0 {
		tx.Rollback()
		return database.User{}, ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "hashing password")
	}

	uuid, err := helpers.GenUUID()
	if err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "generating uuid")
	}

	user := database.User{
		UUID:     uuid,
		Email:    database.ToNullString(email),
		Password: database.ToNullString(string(hashedPassword)),
	}
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()

		if database.IsUniqueViolation(err) {
			return database.User{}, ErrDuplicateEmail
		}
		return database.User{}, pkgErrors.Wrap(err, "saving user")
	}

	if err := a.TouchLastLoginAt(user, tx); err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "updating last login")
	}

	if err := tx.Commit().Error; err != nil {
		return database.User{}, pkgErrors.Wrap(err, "committing transaction")
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (a *App) GetUserByEmail(email string) (*database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pkgErrors.Wrap(err, "finding user")
	}

	return &user, nil
}

// RemoveUser removes the user with the given email. A user that still
// owns books or highlights is not removed.
func (a *App) RemoveUser(email string) error {
	user, err := a.GetUserByEmail(email)
	if err != nil {
		return err
	}

	var bookCount int64
	if err := a.DB.Model(&database.Book{}).Where("user_id = ?", user.ID).Count(&bookCount).Error; err != nil {
		return pkgErrors.Wrap(err, "counting books")
	}
	var highlightCount int64
	if err := a.DB.Model(&database.Highlight{}).Where("user_id = ?", user.ID).Count(&highlightCount).Error; err != nil {
		return pkgErrors.Wrap(err, "counting highlights")
	}
	if bookCount > 0 || highlightCount > 0 {
		return ErrUserHasExistingResources
	}

	tx := a.DB.Begin()
	if tx.Error != nil {
		return pkgErrors.Wrap(tx.Error, "beginning transaction")
	}

	for _, step := range []struct {
		model interface{}
		desc  string
	}{
		{&database.Session{}, "deleting sessions"},
		{&database.Token{}, "deleting tokens"},
		{&database.Tag{}, "deleting tags"},
	} {
		if err := tx.Where("user_id = ?", user.ID).Delete(step.model).Error; err != nil {
			tx.Rollback()
			return pkgErrors.Wrap(err, step.desc)
		}
	}

	if err := tx.Delete(user).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting user")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing transaction")
	}

	return nil
}

// Authenticate authenticates a user
func (a *App) Authenticate(email, password string) (*database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password.String), []byte(password))
	if err != nil {
		return nil, ErrLoginInvalid
	}

	return &user, nil
}

// UpdatePassword sets a new password for the user
func (a *App) UpdatePassword(user *database.User, password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return pkgErrors.Wrap(err, "hashing password")
	}

	if err := a.DB.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		return pkgErrors.Wrap(err, "updating password")
	}

	return nil
}

// CreateAPIToken issues a long-lived token the user can hand to a device
// or plugin for uploading highlights
func (a *App) CreateAPIToken(userID int) (database.Token, error) {
	tok, err := token.Create(a.DB, userID, TokenTypeAPI)
	if err != nil {
		return database.Token{}, pkgErrors.Wrap(err, "creating api token")
	}

	return tok, nil
}
