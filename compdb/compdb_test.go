// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "compile_commands.json")
	err := os.WriteFile(fname, []byte(`[
  {
    "directory": "/src/hello/build",
    "command": "/usr/bin/cc -I/src/hello -o CMakeFiles/hello.dir/hello.c.o -c /src/hello/hello.c",
    "file": "/src/hello/hello.c"
  },
  {
    "directory": "sub",
    "arguments": ["clang", "-c", "a b.c"],
    "file": "a b.c"
  }
]`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Load(fname)
	if err != nil {
		t.Fatalf("Load(%q)=_, %v; want nil err", fname, err)
	}
	want := []Command{
		{
			Directory: "/src/hello/build",
			Command:   "/usr/bin/cc -I/src/hello -o CMakeFiles/hello.dir/hello.c.o -c /src/hello/hello.c",
			File:      "/src/hello/hello.c",
		},
		{
			Directory: filepath.Join(dir, "sub"),
			Arguments: []string{"clang", "-c", "a b.c"},
			File:      "a b.c",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load(%q) diff -want +got:\n%s", fname, diff)
	}
	if diff := cmp.Diff([]string{"/usr/bin/cc", "-I/src/hello", "-o", "CMakeFiles/hello.dir/hello.c.o", "-c", "/src/hello/hello.c"}, got[0].Args()); diff != "" {
		t.Errorf("Args() diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"clang", "-c", "a b.c"}, got[1].Args()); diff != "" {
		t.Errorf("Args() diff -want +got:\n%s", diff)
	}
}

func TestLoad_Error(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name    string
		content string
	}{
		{name: "malformed", content: `[{"directory": "/src", `},
		{name: "not-array", content: `{"directory": "/src"}`},
		{name: "no-command", content: `[{"directory": "/src", "file": "a.c"}]`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(dir, tc.name+".json")
			err := os.WriteFile(fname, []byte(tc.content), 0644)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Load(fname)
			if err == nil {
				t.Errorf("Load(%q)=%v, nil; want err", fname, got)
			}
		})
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("Load(missing)=nil err; want err")
	}
}

func TestArgs_Shell(t *testing.T) {
	c := Command{Command: "ccache gcc -c a.c 2>/dev/null"}
	want := []string{"/bin/sh", "-c", "ccache gcc -c a.c 2>/dev/null"}
	if diff := cmp.Diff(want, c.Args()); diff != "" {
		t.Errorf("Args() diff -want +got:\n%s", diff)
	}
}
