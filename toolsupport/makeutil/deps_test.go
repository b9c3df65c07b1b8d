// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package makeutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func nonEmpty(deps []string) []string {
	var r []string
	for _, d := range deps {
		if d != "" {
			r = append(r, d)
		}
	}
	return r
}

func TestParseDeps(t *testing.T) {
	for _, tc := range []struct {
		name     string
		depsfile string
		want     []string
	}{
		{
			name:     "continuation",
			depsfile: "foo.o: a.h b.h \\\n c.h",
			want:     []string{"a.h", "b.h", "c.h"},
		},
		{
			name:     "simple",
			depsfile: "foo.o: bar baz\tqux",
			want:     []string{"bar", "baz", "qux"},
		},
		{
			name: "gcc",
			depsfile: `hello.o: /src/hello/hello.c /usr/include/stdc-predef.h \
 /usr/include/stdio.h \
 /usr/lib/gcc/x86_64-linux-gnu/7/include/stddef.h \
 /src/hello/hello.h
`,
			want: []string{
				"/src/hello/hello.c",
				"/usr/include/stdc-predef.h",
				"/usr/include/stdio.h",
				"/usr/lib/gcc/x86_64-linux-gnu/7/include/stddef.h",
				"/src/hello/hello.h",
			},
		},
		{
			name:     "missing-backslash",
			depsfile: "foo.o: a.h\n  b.h\n\n   c.h  ",
			want:     []string{"a.h", "b.h", "c.h"},
		},
		{
			name:     "crlf",
			depsfile: "foo.o: a.h \\\r\n b.h\r\n",
			want:     []string{"a.h", "b.h"},
		},
		{
			name:     "no-deps",
			depsfile: "foo.o: ",
			want:     nil,
		},
		{
			name:     "no-separator",
			depsfile: "foo.o:a.h b.h",
			want:     nil,
		},
		{
			name:     "empty",
			depsfile: "",
			want:     nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := nonEmpty(ParseDeps(tc.depsfile))
			if diff := cmp.Diff(tc.want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
				t.Errorf("ParseDeps(%q) -want +got:\n%s", tc.depsfile, diff)
			}
		})
	}
}

func TestParseDepsFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "deps.mk")
	err := os.WriteFile(fname, []byte("main.o: main.c \\\n /usr/include/wchar.h\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseDepsFile(fname)
	if err != nil {
		t.Fatalf("ParseDepsFile(%q)=_, %v; want nil err", fname, err)
	}
	if diff := cmp.Diff([]string{"main.c", "/usr/include/wchar.h"}, nonEmpty(got)); diff != "" {
		t.Errorf("ParseDepsFile(%q) -want +got:\n%s", fname, diff)
	}

	missing := filepath.Join(dir, "missing.d")
	got, err = ParseDepsFile(missing)
	if err == nil || len(got) != 0 {
		t.Errorf("ParseDepsFile(%q)=%q, %v; want empty, err", missing, got, err)
	}
}
