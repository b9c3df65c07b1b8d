// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compdb reads JSON compilation database (compile_commands.json).
package compdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.chromium.org/infra/build/clangdeps/toolsupport/shutil"
)

// Command is a compile command of a translation unit.
type Command struct {
	// Directory is the working directory of the compilation.
	Directory string `json:"directory"`

	// Command is the compile command line.
	Command string `json:"command,omitempty"`

	// Arguments is the compile command line as a list.
	// Either Command or Arguments is set.
	Arguments []string `json:"arguments,omitempty"`

	// File is the main source file of the translation unit.
	File string `json:"file"`
}

// Args returns command line args of the compile command.
// If the command line needs a shell to run, it returns
// /bin/sh -c <command>.
func (c Command) Args() []string {
	if len(c.Arguments) > 0 {
		return c.Arguments
	}
	args, err := shutil.Split(c.Command)
	if err != nil || len(args) == 0 {
		return []string{"/bin/sh", "-c", c.Command}
	}
	return args
}

// Load loads compilation database in fname.
// Relative directory is resolved relative to the directory of fname.
func Load(fname string) ([]Command, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	err = json.Unmarshal(b, &cmds)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compilation database %s: %w", fname, err)
	}
	base, err := filepath.Abs(filepath.Dir(fname))
	if err != nil {
		return nil, err
	}
	for i := range cmds {
		if cmds[i].Command == "" && len(cmds[i].Arguments) == 0 {
			return nil, fmt.Errorf("compilation database %s: entry %d for %q: no command", fname, i, cmds[i].File)
		}
		if cmds[i].Directory == "" {
			cmds[i].Directory = base
		} else if !filepath.IsAbs(cmds[i].Directory) {
			cmds[i].Directory = filepath.Join(base, cmds[i].Directory)
		}
	}
	return cmds, nil
}
