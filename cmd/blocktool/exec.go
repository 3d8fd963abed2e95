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
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"callgate.dev/callgate/pkg/block"
	"callgate.dev/callgate/pkg/host"
)

// Exec implements subcommands.Command for the "exec" command: it plays the
// host role against a block image, dispatching its items to the real
// operating system and writing the executed image back out.
type Exec struct {
	output string
}

// Name implements subcommands.Command.
func (*Exec) Name() string {
	return "exec"
}

// Synopsis implements subcommands.Command.
func (*Exec) Synopsis() string {
	return "executes a call-block image against the host kernel"
}

// Usage implements subcommands.Command.
func (*Exec) Usage() string {
	return `exec [flags] <block-image>`
}

// SetFlags implements subcommands.Command.
func (e *Exec) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.output, "output", "", "where to write the executed image; defaults to in place.")
}

// Execute implements subcommands.Command.Execute.
func (e *Exec) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := ctx.Value(configKey{}).(*config)

	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading image: %v\n", err)
		return subcommands.ExitFailure
	}
	b, err := block.Use(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad image: %v\n", err)
		return subcommands.ExitFailure
	}

	var opts []host.Option
	if len(conf.Allowed) > 0 {
		opts = append(opts, host.WithAllowlist(conf.Allowed))
	}
	done, err := host.New(opts...).Execute(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "execution aborted after %d items: %v\n", done, err)
		return subcommands.ExitFailure
	}

	out := e.output
	if out == "" {
		out = f.Arg(0)
	}
	if err := os.WriteFile(out, b.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "writing executed image: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("executed %d items\n", done)
	return subcommands.ExitSuccess
}
