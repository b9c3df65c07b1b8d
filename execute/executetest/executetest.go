// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package executetest provides a fake executor for tests.
package executetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.chromium.org/infra/build/clangdeps/execute"
)

// Result is a scripted result of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as a start failure when set.
	Err error
}

// Fake is a fake executor.
// It matches a command line (args joined by space) against the registered
// handlers and returns the scripted result.
// Fake is safe for concurrent use.
type Fake struct {
	// Handler is called for a command that matches no exact or prefix entry.
	// If nil, such command fails with "executable file not found".
	Handler func(ctx context.Context, cmd *execute.Cmd) Result

	mu       sync.Mutex
	exact    map[string]Result
	prefixes []prefixResult
	calls    []string
}

type prefixResult struct {
	prefix string
	result Result
}

// Set registers the result for the exact command line.
func (f *Fake) Set(cmdline string, r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exact == nil {
		f.exact = make(map[string]Result)
	}
	f.exact[cmdline] = r
}

// SetPrefix registers the result for command lines starting with prefix.
// The first registered matching prefix wins.
func (f *Fake) SetPrefix(prefix string, r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefixResult{prefix: prefix, result: r})
}

// Calls returns command lines run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how many times the command line was run.
func (f *Fake) Count(cmdline string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == cmdline {
			n++
		}
	}
	return n
}

// Run runs the cmd with the scripted result.
func (f *Fake) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command")
	}
	cmdline := strings.Join(cmd.Args, " ")
	r, ok := f.lookup(cmdline)
	if !ok {
		if f.Handler == nil {
			r = Result{Err: fmt.Errorf("exec: %q: executable file not found in $PATH", cmd.Args[0])}
		} else {
			r = f.Handler(ctx, cmd)
		}
	}
	if r.Err != nil {
		return r.Err
	}
	cmd.SetOutput(strings.TrimSpace(r.Stdout), strings.TrimSpace(r.Stderr))
	if r.ExitCode != 0 {
		return &execute.ExitError{ExitCode: r.ExitCode, Stderr: cmd.Stderr()}
	}
	return nil
}

func (f *Fake) lookup(cmdline string) (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)
	if r, ok := f.exact[cmdline]; ok {
		return r, true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(cmdline, p.prefix) {
			return p.result, true
		}
	}
	return Result{}, false
}
