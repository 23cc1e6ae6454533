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

// Package config builds the application configuration from explicit
// parameters, environment variables and an optional YAML file, in that
// order of precedence.
package config

import (
	"net/url"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = "./marginalia.db"
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrWebURLInvalid is an error for an incomplete configuration with invalid web url
	ErrWebURLInvalid = errors.New("Invalid WebURL")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
)

// Config is an application configuration
type Config struct {
	AppEnv              string
	WebURL              string
	Port                string
	DBPath              string
	DisableRegistration bool
	LogLevel            string
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv              string
	Port                string
	WebURL              string
	DBPath              string
	DisableRegistration bool
	LogLevel            string
	ConfigFile          string
}

// fileConfig is the shape of the optional YAML configuration file
type fileConfig struct {
	AppEnv              string `yaml:"app_env"`
	Port                string `yaml:"port"`
	WebURL              string `yaml:"web_url"`
	DBPath              string `yaml:"db_path"`
	DisableRegistration bool   `yaml:"disable_registration"`
	LogLevel            string `yaml:"log_level"`
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig

	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, errors.Wrapf(err, "reading config file at %s", path)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, errors.Wrapf(err, "parsing config file at %s", path)
	}

	return fc, nil
}

func readBoolEnv(name string) bool {
	return os.Getenv(name) == "true"
}

// resolve returns the first non-empty value among the explicit parameter,
// the environment variable, the config file value and the default
func resolve(value, envKey, fileVal, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	if fileVal != "" {
		return fileVal
	}
	return defaultVal
}

// New constructs and returns a new validated config.
// Empty string params fall back to environment variables, then the
// optional config file, then defaults.
func New(p Params) (Config, error) {
	fc, err := readFileConfig(p.ConfigFile)
	if err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:              resolve(p.AppEnv, "APP_ENV", fc.AppEnv, AppEnvProduction),
		Port:                resolve(p.Port, "PORT", fc.Port, "3100"),
		WebURL:              resolve(p.WebURL, "WebURL", fc.WebURL, "http://localhost:3100"),
		DBPath:              resolve(p.DBPath, "DBPath", fc.DBPath, DefaultDBPath),
		DisableRegistration: p.DisableRegistration || readBoolEnv("DisableRegistration") || fc.DisableRegistration,
		LogLevel:            resolve(p.LogLevel, "LOG_LEVEL", fc.LogLevel, "info"),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if _, err := url.ParseRequestURI(c.WebURL); err != nil {
		return errors.Wrapf(ErrWebURLInvalid, "'%s'", c.WebURL)
	}
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.DBPath == "" {
		return ErrDBMissingPath
	}

	return nil
}
