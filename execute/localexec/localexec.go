// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/clangdeps/execute"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd.
// It returns *execute.ExitError if the cmd exited with non-zero exit code,
// or other error if the cmd could not be started.
// Stdout and stderr of the cmd are available in either case.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return errors.New("no arguments in the command")
	}
	log.Debugf("run %q in %q", cmd.Args, cmd.Dir)
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = Environ(os.Environ(), cmd.Env)
	c.Dir = cmd.Dir
	stdoutPipe, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe for %q: %w", cmd.Args, err)
	}
	stderrPipe, err := c.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe for %q: %w", cmd.Args, err)
	}
	s := time.Now()
	err = c.Start()
	if err != nil {
		return fmt.Errorf("failed to start %q in %q: %w", cmd.Args, cmd.Dir, err)
	}

	// both pipes need to be drained while the process runs,
	// or the process may block on a full pipe buffer.
	var stdout, stderr string
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		stdout, err = readLines(stdoutPipe)
		return err
	})
	eg.Go(func() error {
		var err error
		stderr, err = readLines(stderrPipe)
		return err
	})
	rerr := eg.Wait()
	// Wait closes the pipes, so it must be called after all reads finish.
	err = c.Wait()
	cmd.SetOutput(stdout, stderr)
	code := exitCode(err)
	log.Debugf("exit=%d stdout=%d stderr=%d %s", code, len(stdout), len(stderr), time.Since(s))
	if code != 0 {
		return &execute.ExitError{ExitCode: code, Stderr: stderr}
	}
	if err != nil {
		return fmt.Errorf("failed to run %q: %w", cmd.Args, err)
	}
	if rerr != nil {
		return fmt.Errorf("failed to read output of %q: %w", cmd.Args, rerr)
	}
	return nil
}

// readLines reads all lines from r, and returns them joined by newline
// with leading and trailing whitespaces trimmed.
func readLines(r io.Reader) (string, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return strings.TrimSpace(strings.Join(lines, "\n")), err
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 0
	}
	if code := eerr.ExitCode(); code > 0 {
		return code
	}
	// killed by signal.
	return 1
}
