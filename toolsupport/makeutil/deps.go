// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package makeutil provides utilities for make.
package makeutil

import (
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// ParseDepsFile parses *.d file in fname.
// It returns nil and error if fname can't be read.
func ParseDepsFile(fname string) ([]string, error) {
	if fname == "" {
		return nil, nil
	}
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	deps := ParseDeps(string(b))
	log.Debugf("deps %s => %q", fname, deps)
	return deps, nil
}

var spaces = regexp.MustCompile(`\s+`)

// ParseDeps parses deps and returns a list of inputs.
// It returns nil if s is not deps format.
// The list may contain empty strings, which callers should skip.
func ParseDeps(s string) []string {
	// deps contents
	// <output>: <input> ...
	// <input> is space separated
	// '\'+newline is continuation line.
	_, inputs, ok := strings.Cut(s, ": ")
	if !ok {
		return nil
	}
	inputs = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\\':
			return ' '
		}
		return r
	}, inputs)
	return spaces.Split(inputs, -1)
}
