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

// Binary blocktool inspects and executes call-block images: raw dumps of
// the shared memory region the call-gate protocol moves between guest and
// host.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"callgate.dev/callgate/pkg/log"
)

var configPath = flag.String("config", "", "path to a TOML config file.")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(Dump), "")
	subcommands.Register(new(Exec), "")

	flag.Parse()

	conf, err := loadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("loading config: %v", err)
	}
	lr := logrus.New()
	lr.SetLevel(conf.logrusLevel())
	log.SetLevel(conf.logLevel())
	log.SetTarget(log.LogrusEmitter{Logger: lr})

	ctx := context.WithValue(context.Background(), configKey{}, conf)
	os.Exit(int(subcommands.Execute(ctx)))
}
