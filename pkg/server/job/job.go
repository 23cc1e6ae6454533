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

// Package job schedules the recurring background tasks of the server
package job

import (
	"time"

	"github.com/marginalia/marginalia/pkg/server/app"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// Runner holds the scheduled background jobs
type Runner struct {
	app  *app.App
	cron *cron.Cron
}

// NewRunner creates a new job runner for the given app
func NewRunner(a *app.App) *Runner {
	return &Runner{
		app:  a,
		cron: cron.New(),
	}
}

// Start registers the recurring jobs and starts the scheduler
func (r *Runner) Start() error {
	if err := r.cron.AddFunc("@hourly", r.purgeExpiredSessions); err != nil {
		return errors.Wrap(err, "scheduling session purge")
	}
	if err := r.cron.AddFunc("@daily", r.purgeStaleTokens); err != nil {
		return errors.Wrap(err, "scheduling token purge")
	}

	r.cron.Start()
	log.Info("started background jobs")

	return nil
}

// Stop stops the scheduler. Running jobs are not interrupted.
func (r *Runner) Stop() {
	r.cron.Stop()
}

func (r *Runner) purgeExpiredSessions() {
	res := r.app.DB.Where("expires_at < ?", r.app.Clock.Now()).Delete(&database.Session{})
	if res.Error != nil {
		log.ErrorWrap(res.Error, "purging expired sessions")
		return
	}

	if res.RowsAffected > 0 {
		log.WithFields(log.Fields{
			"count": res.RowsAffected,
		}).Info("purged expired sessions")
	}
}

// purgeStaleTokens removes single-use tokens that were consumed long
// ago. API tokens never carry a used_at cutoff from this job because
// devices keep reusing them.
func (r *Runner) purgeStaleTokens() {
	cutoff := r.app.Clock.Now().Add(-30 * 24 * time.Hour)

	res := r.app.DB.Where("type <> ? AND used_at IS NOT NULL AND used_at < ?", app.TokenTypeAPI, cutoff).
		Delete(&database.Token{})
	if res.Error != nil {
		log.ErrorWrap(res.Error, "purging stale tokens")
		return
	}

	if res.RowsAffected > 0 {
		log.WithFields(log.Fields{
			"count": res.RowsAffected,
		}).Info("purged stale tokens")
	}
}
