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
	"testing"

	"github.com/marginalia/marginalia/pkg/assert"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestCreateSession(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	session, err := a.CreateSession(user.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating session"))
	}

	assert.Equal(t, session.UserID, user.ID, "UserID mismatch")
	assert.NotEqual(t, session.Key, "", "Key should not be empty")
	assert.Equal(t, session.ExpiresAt, session.LastUsedAt.Add(sessionLifetime), "ExpiresAt mismatch")
}

func TestSignIn(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	session, err := a.SignIn(&user)
	if err != nil {
		t.Fatal(errors.Wrap(err, "signing in"))
	}

	assert.Equal(t, session.UserID, user.ID, "UserID mismatch")

	var stored database.User
	testutils.MustExec(t, a.DB.First(&stored, user.ID), "finding user")
	if stored.LastLoginAt == nil {
		t.Error("LastLoginAt should be set on sign-in")
	}
}

func TestDeleteSession(t *testing.T) {
	a := newTestApp(t)
	user := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")

	session, err := a.CreateSession(user.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating session"))
	}
	keep, err := a.CreateSession(user.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating second session"))
	}

	if err := a.DeleteSession(session.Key); err != nil {
		t.Fatal(errors.Wrap(err, "deleting session"))
	}

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Session{}).Count(&count), "counting sessions")
	assert.Equal(t, count, int64(1), "only the matching session should be deleted")

	var remaining database.Session
	testutils.MustExec(t, a.DB.First(&remaining), "finding remaining session")
	assert.Equal(t, remaining.Key, keep.Key, "remaining session mismatch")
}

func TestDeleteUserSessions(t *testing.T) {
	a := newTestApp(t)
	alice := testutils.SetupUserData(a.DB, "alice@example.com", "pass1234")
	bob := testutils.SetupUserData(a.DB, "bob@example.com", "pass1234")

	for i := 0; i < 2; i++ {
		if _, err := a.CreateSession(alice.ID); err != nil {
			t.Fatal(errors.Wrap(err, "creating session"))
		}
	}
	if _, err := a.CreateSession(bob.ID); err != nil {
		t.Fatal(errors.Wrap(err, "creating session"))
	}

	if err := a.DeleteUserSessions(a.DB, alice.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting user sessions"))
	}

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Session{}).Where("user_id = ?", alice.ID).Count(&count),
		"counting alice sessions")
	assert.Equal(t, count, int64(0), "alice's sessions should be gone")
	testutils.MustExec(t, a.DB.Model(&database.Session{}).Where("user_id = ?", bob.ID).Count(&count),
		"counting bob sessions")
	assert.Equal(t, count, int64(1), "bob's session should be untouched")
}
