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
	"net/http"
	"time"

	"github.com/marginalia/marginalia/pkg/server/buildinfo"
	"github.com/marginalia/marginalia/pkg/server/config"
	"github.com/marginalia/marginalia/pkg/server/controllers"
	"github.com/marginalia/marginalia/pkg/server/database"
	"github.com/marginalia/marginalia/pkg/server/job"
	"github.com/marginalia/marginalia/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var startFlags struct {
	port                string
	webURL              string
	dbPath              string
	disableRegistration bool
	logLevel            string
	configFile          string
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server",
	RunE:  runStart,
}

func init() {
	fs := startCmd.Flags()
	fs.StringVar(&startFlags.port, "port", "", "server port (env: PORT, default: 3100)")
	fs.StringVar(&startFlags.webURL, "webUrl", "", "full URL to server without trailing slash (env: WebURL)")
	fs.StringVar(&startFlags.dbPath, "dbPath", "", "path to SQLite database file (env: DBPath)")
	fs.BoolVar(&startFlags.disableRegistration, "disableRegistration", false, "disable user registration (env: DisableRegistration)")
	fs.StringVar(&startFlags.logLevel, "logLevel", "", "log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	fs.StringVar(&startFlags.configFile, "config", "", "path to a YAML configuration file")

	Register(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.New(config.Params{
		Port:                startFlags.port,
		WebURL:              startFlags.webURL,
		DBPath:              startFlags.dbPath,
		DisableRegistration: startFlags.disableRegistration,
		LogLevel:            startFlags.logLevel,
		ConfigFile:          startFlags.configFile,
	})
	if err != nil {
		return errors.Wrap(err, "building config")
	}

	log.SetLevel(cfg.LogLevel)

	app := initApp(cfg)
	defer func() {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}()

	// Keep the WAL file from growing unbounded
	database.StartWALCheckpointing(app.DB, 5*time.Minute)

	// Reclaim space and defragment periodically
	database.StartPeriodicVacuum(app.DB, 24*time.Hour)

	runner := job.NewRunner(&app)
	if err := runner.Start(); err != nil {
		return errors.Wrap(err, "starting background jobs")
	}
	defer runner.Stop()

	ctl := controllers.New(&app)
	rc := controllers.RouteConfig{
		APIRoutes:   controllers.NewAPIRoutes(&app, ctl),
		Controllers: ctl,
	}

	r, err := controllers.NewRouter(&app, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
	}).Info("Marginalia server starting")

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		return errors.Wrap(err, "server failed")
	}

	return nil
}
