// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package localexec

import (
	"path/filepath"
	"slices"
	"strings"
)

// FallbackPath is a list of standard system binary directories.
// They are appended to PATH so that package manager binaries in
// default locations are found even if PATH is minimal.
var FallbackPath = []string{
	"/usr/local/sbin",
	"/usr/local/bin",
	"/usr/sbin",
	"/usr/bin",
	"/sbin",
	"/bin",
}

// Environ returns the environment for a process.
// overlay is merged on top of base, and PATH is extended
// (never replaced) by FallbackPath.
// Both base and overlay are "key=value" lists.
func Environ(base, overlay []string) []string {
	var keys []string
	values := make(map[string]string)
	set := func(kv string) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return
		}
		if _, found := values[k]; !found {
			keys = append(keys, k)
		}
		values[k] = v
	}
	for _, kv := range base {
		set(kv)
	}
	for _, kv := range overlay {
		set(kv)
	}
	if _, found := values["PATH"]; !found {
		keys = append(keys, "PATH")
	}
	values["PATH"] = extendPath(values["PATH"])

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+values[k])
	}
	return env
}

func extendPath(path string) string {
	var dirs []string
	if path != "" {
		dirs = filepath.SplitList(path)
	}
	for _, dir := range FallbackPath {
		if slices.Contains(dirs, dir) {
			continue
		}
		dirs = append(dirs, dir)
	}
	return strings.Join(dirs, string(filepath.ListSeparator))
}
