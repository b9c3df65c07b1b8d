// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gccutil provides utilities of gcc.
package gccutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/clangdeps/execute"
	"go.chromium.org/infra/build/clangdeps/toolsupport/makeutil"
	"go.chromium.org/infra/build/clangdeps/toolsupport/shutil"
)

// DepsArgs returns command line args to write deps of the compile
// command args into depfile.
// Flags that would write deps or outputs elsewhere are removed, so that
// running the deps args never overwrites outputs of the build.
// If args is a shell command line (/bin/sh -c <cmdline>), the flags are
// appended to the command line as is.
func DepsArgs(args []string, depfile string) []string {
	if len(args) == 3 && args[0] == "/bin/sh" && args[1] == "-c" {
		return []string{args[0], args[1], args[2] + " -M -MF " + shutil.Join([]string{depfile})}
	}
	var dargs []string
	skip := false
	for _, arg := range args {
		if skip {
			skip = false
			continue
		}
		switch arg {
		case "-MD", "-MMD", "-M", "-MM", "-c":
			continue
		case "-MF", "-o":
			skip = true
			continue
		}
		if strings.HasPrefix(arg, "-MF") {
			continue
		}
		if strings.HasPrefix(arg, "-o") {
			continue
		}
		dargs = append(dargs, arg)
	}
	dargs = append(dargs, "-M", "-MF", depfile)
	return dargs
}

// Deps runs compile command specified by args, env, dir to write depfile,
// and returns deps in the depfile.
// depfile is removed after it is parsed.
// It returns error if the command fails. It returns empty deps if depfile
// can't be parsed.
func Deps(ctx context.Context, ex execute.Executor, dir string, env, args []string, depfile string) ([]string, error) {
	s := time.Now()
	cmd := &execute.Cmd{
		Args: DepsArgs(args, depfile),
		Env:  env,
		Dir:  dir,
	}
	err := ex.Run(ctx, cmd)
	defer func() {
		rerr := os.Remove(depfile)
		if rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			log.Warnf("failed to remove depfile %s: %v", depfile, rerr)
		}
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to run %q in %s: %w", cmd.Command(), dir, err)
	}
	deps, err := makeutil.ParseDepsFile(depfile)
	if err != nil {
		log.Warnf("failed to parse depfile of %q: %v", cmd.Command(), err)
		return nil, nil
	}
	log.Debugf("gcc deps -> deps:%d: %s", len(deps), time.Since(s))
	return deps, nil
}
