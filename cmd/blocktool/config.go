// Copyright 2026 The Callgate Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"callgate.dev/callgate/pkg/log"
)

// config is the blocktool configuration.
type config struct {
	// LogLevel is "warning", "info" or "debug".
	LogLevel string `toml:"log_level"`

	// Allowed restricts which call numbers `exec` will dispatch. Empty
	// means all.
	Allowed []uint64 `toml:"allowed_syscalls"`
}

// configKey keys the config in a command's context.
type configKey struct{}

// loadConfig loads the config from path; an empty path yields defaults.
func loadConfig(path string) (*config, error) {
	c := &config{LogLevel: "warning"}
	if path == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) logLevel() log.Level {
	switch c.LogLevel {
	case "debug":
		return log.Debug
	case "info":
		return log.Info
	default:
		return log.Warning
	}
}

func (c *config) logrusLevel() logrus.Level {
	switch c.LogLevel {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	default:
		return logrus.WarnLevel
	}
}
