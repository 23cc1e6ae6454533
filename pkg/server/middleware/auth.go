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

package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/marginalia/marginalia/pkg/server/context"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/log"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// authWithToken authenticates the request using the bearer credential as
// an API token
func authWithToken(db *gorm.DB, r *http.Request, tokenType string) (database.User, database.Token, bool, error) {
	var user database.User
	var token database.Token

	credential, err := GetCredential(r)
	if err != nil {
		return user, token, false, pkgErrors.Wrap(err, "getting credential")
	}
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}
	if credential == "" {
		return user, token, false, nil
	}

	err = db.Where("value = ? AND type = ?", credential, tokenType).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, token, false, nil
	} else if err != nil {
		return user, token, false, pkgErrors.Wrap(err, "finding token")
	}

	if err := db.Where("id = ?", token.UserID).First(&user).Error; err != nil {
		return user, token, false, pkgErrors.Wrap(err, "finding user")
	}

	now := time.Now()
	if err := db.Model(&token).Update("used_at", &now).Error; err != nil {
		log.ErrorWrap(err, "touching token used_at")
	}

	return user, token, true, nil
}

// Auth is an authentication middleware. The session cookie is checked
// first, then the bearer credential as an API token, so both the web
// client and upload devices can call the same routes.
func Auth(db *gorm.DB, next http.HandlerFunc, tokenType string) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, ok, err := AuthWithSession(db, r)
		if err != nil {
			DoError(w, "authenticating with session", err, http.StatusInternalServerError)
			return
		}

		if !ok {
			var token database.Token
			user, token, ok, err = authWithToken(db, r, tokenType)
			if err != nil {
				DoError(w, "authenticating with token", err, http.StatusInternalServerError)
				return
			}
			if !ok {
				RespondUnauthorized(w)
				return
			}

			ctx = context.WithToken(ctx, &token)
		}

		ctx = context.WithUser(ctx, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthWithSession performs user authentication with session
func AuthWithSession(db *gorm.DB, r *http.Request) (database.User, bool, error) {
	var user database.User

	sessionKey, err := GetCredential(r)
	if err != nil {
		return user, false, pkgErrors.Wrap(err, "getting credential")
	}
	if sessionKey == "" {
		return user, false, nil
	}

	var session database.Session
	err = db.Where("key = ?", sessionKey).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, false, nil
	} else if err != nil {
		return user, false, pkgErrors.Wrap(err, "finding session")
	}

	if session.ExpiresAt.Before(time.Now()) {
		return user, false, nil
	}

	err = db.Where("id = ?", session.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, false, nil
	} else if err != nil {
		return user, false, pkgErrors.Wrap(err, "finding user from session")
	}

	return user, true, nil
}
