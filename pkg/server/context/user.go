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

// Package context provides helpers for the request scoped context
package context

import (
	"context"

	"github.com/marginalia/marginalia/pkg/server/database"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// WithUser returns a context with the given user
func WithUser(ctx context.Context, user *database.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User retrieves the authenticated user from the given context. It
// returns nil if the context carries no user.
func User(ctx context.Context) *database.User {
	if u, ok := ctx.Value(userKey).(*database.User); ok {
		return u
	}

	return nil
}

// WithToken returns a context with the given token
func WithToken(ctx context.Context, token *database.Token) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token retrieves the API token the request authenticated with, if any
func Token(ctx context.Context) *database.Token {
	if t, ok := ctx.Value(tokenKey).(*database.Token); ok {
		return t
	}

	return nil
}
