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
)

// Dump implements subcommands.Command for the "dump" command.
type Dump struct {
	payload bool
}

// Name implements subcommands.Command.
func (*Dump) Name() string {
	return "dump"
}

// Synopsis implements subcommands.Command.
func (*Dump) Synopsis() string {
	return "decodes a call-block image and prints its items"
}

// Usage implements subcommands.Command.
func (*Dump) Usage() string {
	return `dump [flags] <block-image>`
}

// SetFlags implements subcommands.Command.
func (d *Dump) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.payload, "payload", false, "also hex-dump each item's staged payload.")
}

// Execute implements subcommands.Command.Execute.
func (d *Dump) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
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

	cur := b.Items()
	for {
		it, ok, err := cur.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "walk stopped: %v\n", err)
			return subcommands.ExitFailure
		}
		if !ok {
			return subcommands.ExitSuccess
		}
		switch it.Kind {
		case block.KindSyscall:
			rec, payload, err := block.DecodeSyscall(it.Body)
			if err != nil {
				fmt.Fprintf(os.Stderr, "item at %d: %v\n", it.Offset, err)
				return subcommands.ExitFailure
			}
			fmt.Printf("%6d: syscall num=%d argv=%v ret=[%#x %#x] payload=%d bytes\n",
				it.Offset, rec.Num, rec.Argv, rec.Ret[0], rec.Ret[1], len(payload))
			if d.payload && len(payload) > 0 {
				fmt.Printf("        % x\n", payload)
			}
		default:
			fmt.Printf("%6d: %v (%d bytes)\n", it.Offset, it.Kind, len(it.Body))
		}
	}
}
