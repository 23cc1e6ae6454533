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

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var userFlags struct {
	email    string
	password string
	dbPath   string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUserCreate,
}

var userRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a user",
	RunE:  runUserRemove,
}

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset a user's password",
	RunE:  runUserResetPassword,
}

func init() {
	for _, c := range []*cobra.Command{userCreateCmd, userRemoveCmd, userResetPasswordCmd} {
		c.Flags().StringVar(&userFlags.email, "email", "", "user email address (required)")
		c.Flags().StringVar(&userFlags.dbPath, "dbPath", "", "path to SQLite database file (env: DBPath)")
		c.MarkFlagRequired("email")
	}
	userCreateCmd.Flags().StringVar(&userFlags.password, "password", "", "user password (required)")
	userCreateCmd.MarkFlagRequired("password")
	userResetPasswordCmd.Flags().StringVar(&userFlags.password, "password", "", "new password (required)")
	userResetPasswordCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userRemoveCmd)
	userCmd.AddCommand(userResetPasswordCmd)

	Register(userCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupAppWithDB(userFlags.dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := a.CreateUser(userFlags.email, userFlags.password, userFlags.password); err != nil {
		return errors.Wrap(err, "creating user")
	}

	color.Green("User created successfully")
	fmt.Printf("Email: %s\n", userFlags.email)

	return nil
}

func runUserRemove(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupAppWithDB(userFlags.dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := a.GetUserByEmail(userFlags.email); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return errors.Errorf("user with email %s not found", userFlags.email)
		}

		return errors.Wrap(err, "finding user")
	}

	ok, err := confirm(os.Stdin, fmt.Sprintf("Remove user %s?", userFlags.email))
	if err != nil {
		return errors.Wrap(err, "getting confirmation")
	}
	if !ok {
		color.Yellow("Aborted by user")
		return nil
	}

	if err := a.RemoveUser(userFlags.email); err != nil {
		if errors.Is(err, app.ErrUserHasExistingResources) {
			return errors.Errorf("user %s still has books or highlights", userFlags.email)
		}

		return errors.Wrap(err, "removing user")
	}

	color.Green("User removed successfully")
	fmt.Printf("Email: %s\n", userFlags.email)

	return nil
}

func runUserResetPassword(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupAppWithDB(userFlags.dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := a.GetUserByEmail(userFlags.email)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			return errors.Errorf("user with email %s not found", userFlags.email)
		}

		return errors.Wrap(err, "finding user")
	}

	if err := a.UpdatePassword(user, userFlags.password); err != nil {
		return errors.Wrap(err, "updating password")
	}

	color.Green("Password reset successfully")
	fmt.Printf("Email: %s\n", userFlags.email)

	return nil
}
