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

package database

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/marginalia/marginalia/pkg/server/database/migrations"
	"github.com/marginalia/marginalia/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type migrationFile struct {
	filename string
	version  int
}

// validateMigrationFilename checks if filename follows format: NNN-description.sql
func validateMigrationFilename(name string) error {
	if !strings.HasSuffix(name, ".sql") {
		return errors.Errorf("invalid migration filename %s: must end with .sql", name)
	}

	trimmed := strings.TrimSuffix(name, ".sql")
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) != 2 {
		return errors.Errorf("invalid migration filename %s: must be NNN-description.sql", name)
	}

	version, description := parts[0], parts[1]

	if len(version) != 3 {
		return errors.Errorf("invalid migration filename %s: version must be 3 digits", name)
	}
	for _, c := range version {
		if c < '0' || c > '9' {
			return errors.Errorf("invalid migration filename %s: version must be numeric", name)
		}
	}

	if description == "" {
		return errors.Errorf("invalid migration filename %s: description is required", name)
	}

	return nil
}

// getMigrationFiles reads, validates, and sorts migration files
func getMigrationFiles(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading migration directory")
	}

	var files []migrationFile
	seen := make(map[int]string)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		if err := validateMigrationFilename(name); err != nil {
			return nil, err
		}

		var v int
		fmt.Sscanf(name, "%d", &v)

		if existing, found := seen[v]; found {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", v, existing, name)
		}
		seen[v] = name

		files = append(files, migrationFile{filename: name, version: v})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].version < files[j].version
	})

	return files, nil
}

type migrationRecord struct {
	ID       int    `gorm:"primaryKey"`
	Filename string `gorm:"uniqueIndex"`
	Version  int
}

// TableName returns the table name for migration records
func (migrationRecord) TableName() string {
	return "migrations"
}

// Migrate runs the migrations using the embedded migration files
func Migrate(db *gorm.DB) error {
	return migrate(db, migrations.Files)
}

func migrate(db *gorm.DB, fsys fs.FS) error {
	if err := db.AutoMigrate(&migrationRecord{}); err != nil {
		return errors.Wrap(err, "preparing migrations table")
	}

	files, err := getMigrationFiles(fsys)
	if err != nil {
		return err
	}

	var applied []migrationRecord
	if err := db.Find(&applied).Error; err != nil {
		return errors.Wrap(err, "reading applied migrations")
	}
	appliedVersions := make(map[int]bool, len(applied))
	for _, rec := range applied {
		appliedVersions[rec.Version] = true
	}

	for _, f := range files {
		if appliedVersions[f.version] {
			continue
		}

		content, err := fs.ReadFile(fsys, f.filename)
		if err != nil {
			return errors.Wrapf(err, "reading migration %s", f.filename)
		}

		tx := db.Begin()
		if tx.Error != nil {
			return errors.Wrap(tx.Error, "beginning migration transaction")
		}
		if err := tx.Exec(string(content)).Error; err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "applying migration %s", f.filename)
		}
		if err := tx.Create(&migrationRecord{Filename: f.filename, Version: f.version}).Error; err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "recording migration %s", f.filename)
		}
		if err := tx.Commit().Error; err != nil {
			return errors.Wrapf(err, "committing migration %s", f.filename)
		}

		log.WithFields(log.Fields{
			"migration": f.filename,
		}).Info("applied migration")
	}

	return nil
}
