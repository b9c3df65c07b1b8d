// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Clangdeps attributes dependencies of a C/C++ build to the operating system
// packages that provide them.
package main

import (
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/infra/build/clangdeps/subcmd/extract"
	"go.chromium.org/infra/build/clangdeps/subcmd/version"
)

const versionID = "clangdeps v0.1.0"

func getApplication() *subcommands.DefaultApplication {
	return &subcommands.DefaultApplication{
		Name:  "clangdeps",
		Title: "tool to attribute C/C++ build dependencies to OS packages",
		Commands: []*subcommands.Command{
			extract.Cmd(),
			version.Cmd(versionID),
			subcommands.CmdHelp,
		},
	}
}

func main() {
	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()
	os.Exit(subcommands.Run(getApplication(), nil))
}
