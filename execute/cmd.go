// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs commands.
package execute

import (
	"context"
	"fmt"
	"strings"

	"go.chromium.org/infra/build/clangdeps/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run an external command.
type Cmd struct {
	// Args holds command line arguments.
	Args []string

	// Env is an environment overlay of the process, as "key=value".
	// It is merged on top of the inherited environment.
	Env []string

	// Dir specifies the working directory of the cmd.
	// If empty, the cmd runs in the current directory.
	Dir string

	stdout, stderr string
}

// String returns a command line string.
func (c *Cmd) String() string {
	return c.Command()
}

// Command returns a command line string.
func (c *Cmd) Command() string {
	if len(c.Args) == 3 && c.Args[0] == "/bin/sh" && c.Args[1] == "-c" {
		return c.Args[2]
	}
	return shutil.Join(c.Args)
}

// SetOutput sets captured stdout and stderr of the cmd.
// Executor implementations call this after the process has exited.
func (c *Cmd) SetOutput(stdout, stderr string) {
	c.stdout = stdout
	c.stderr = stderr
}

// Stdout returns stdout output of the cmd, trimmed.
func (c *Cmd) Stdout() string {
	return c.stdout
}

// Stderr returns stderr output of the cmd, trimmed.
func (c *Cmd) Stderr() string {
	return c.stderr
}

// ExitError is an error of cmd exit.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit=%d", e.ExitCode)
	}
	return fmt.Sprintf("exit=%d: %s", e.ExitCode, firstLine(e.Stderr))
}

func firstLine(s string) string {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s
	}
	return s[:i] + " ..."
}
