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

package log

import (
	"strings"
	"testing"
)

func TestWriterEmit(t *testing.T) {
	var sb strings.Builder
	l := &BasicLogger{Level: Debug, Emitter: &Writer{Next: &sb}}
	l.Infof("executed %d items", 3)
	out := sb.String()
	if !strings.Contains(out, "I: executed 3 items") {
		t.Errorf("output = %q, want the level marker and message", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("output %q does not end in a newline", out)
	}
}

func TestLevelGating(t *testing.T) {
	var sb strings.Builder
	l := &BasicLogger{Level: Warning, Emitter: &Writer{Next: &sb}}
	l.Debugf("hidden")
	l.Infof("hidden")
	l.Warningf("shown")
	if out := sb.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("output = %q, want only the warning", out)
	}
	if l.IsLogging(Debug) {
		t.Error("IsLogging(Debug) = true at Warning level")
	}
	if !l.IsLogging(Warning) {
		t.Error("IsLogging(Warning) = false at Warning level")
	}
}

func TestGlobalLoggerSwap(t *testing.T) {
	oldLevel, oldEmitter := Log().Level, Log().Emitter
	defer func() {
		SetLevel(oldLevel)
		SetTarget(oldEmitter)
	}()

	var sb strings.Builder
	SetTarget(&Writer{Next: &sb})
	SetLevel(Debug)
	Debugf("via global")
	if !strings.Contains(sb.String(), "via global") {
		t.Errorf("output = %q, want the global debug line", sb.String())
	}
}
