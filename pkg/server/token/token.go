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

// Package token provides utilities for opaque tokens, such as the API
// tokens issued to the Anki plugin
package token

import (
	"github.com/marginalia/marginalia/pkg/server/crypt"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Create generates a random token of the given type for the user and
// saves it using the given database connection
func Create(db *gorm.DB, userID int, tokenType string) (database.Token, error) {
	value, err := crypt.GetRandomStr(32)
	if err != nil {
		return database.Token{}, errors.Wrap(err, "generating token value")
	}

	token := database.Token{
		UserID: userID,
		Value:  value,
		Type:   tokenType,
	}
	if err := db.Create(&token).Error; err != nil {
		return database.Token{}, errors.Wrap(err, "saving token")
	}

	return token, nil
}
