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

// Package session provides a serializable view of the authenticated user
package session

import (
	"github.com/marginalia/marginalia/pkg/server/database"
)

// Session is a view of the authenticated user suitable for a response
// body. It never carries credentials.
type Session struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
}

// New builds a session view for the given user
func New(user database.User) Session {
	return Session{
		UUID:  user.UUID,
		Email: user.Email.String,
	}
}
