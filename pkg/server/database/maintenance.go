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
	"time"

	"github.com/marginalia/marginalia/pkg/server/log"
	"gorm.io/gorm"
)

// StartWALCheckpointing starts a goroutine that periodically checkpoints
// the WAL to keep it from growing unbounded
func StartWALCheckpointing(db *gorm.DB, interval time.Duration) {
	go func() {
		for range time.Tick(interval) {
			if err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
				log.ErrorWrap(err, "checkpointing WAL")
			}
		}
	}()
}

// StartPeriodicVacuum starts a goroutine that periodically VACUUMs the
// database to reclaim space and defragment
func StartPeriodicVacuum(db *gorm.DB, interval time.Duration) {
	go func() {
		for range time.Tick(interval) {
			start := time.Now()
			if err := db.Exec("VACUUM").Error; err != nil {
				log.ErrorWrap(err, "vacuuming database")
				continue
			}

			log.WithFields(log.Fields{
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("vacuumed database")
		}
	}()
}
