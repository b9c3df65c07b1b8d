// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgmgr

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/clangdeps/execute/executetest"
)

func TestDpkgResolve(t *testing.T) {
	ctx := context.Background()
	const installed = "Package: libc6-dev\nStatus: install ok installed\nPriority: optional\nVersion: 2.27-3ubuntu1\nDescription: GNU C Library: Development Libraries and Header Files\n Contains the symlinks, headers, and object files needed to compile"
	for _, tc := range []struct {
		name  string
		setup func(*executetest.Fake)
		path  string
		want  []Package
	}{
		{
			name: "found",
			setup: func(f *executetest.Fake) {
				f.Set("dpkg -S /usr/include/wchar.h", executetest.Result{Stdout: "libc6-dev:amd64: /usr/include/wchar.h"})
				f.Set("dpkg -s libc6-dev", executetest.Result{Stdout: installed})
			},
			path: "/usr/include/wchar.h",
			want: []Package{
				{Name: Some("libc6-dev"), Version: Some("2.27-3ubuntu1"), Arch: Some("amd64")},
			},
		},
		{
			name: "multiple-owners",
			setup: func(f *executetest.Fake) {
				f.Set("dpkg -S /usr/include/x86_64-linux-gnu/bits", executetest.Result{Stdout: "libc6-dev:amd64, linux-libc-dev:amd64: /usr/include/x86_64-linux-gnu/bits"})
				f.Set("dpkg -s libc6-dev", executetest.Result{Stdout: installed})
				f.Set("dpkg -s linux-libc-dev", executetest.Result{Stdout: "Status: install ok installed\nVersion: 4.15.0-45.48"})
			},
			path: "/usr/include/x86_64-linux-gnu/bits",
			want: []Package{
				{Name: Some("libc6-dev"), Version: Some("2.27-3ubuntu1"), Arch: Some("amd64")},
				{Name: Some("linux-libc-dev"), Version: Some("4.15.0-45.48"), Arch: Some("amd64")},
			},
		},
		{
			name: "diagnostics",
			setup: func(f *executetest.Fake) {
				f.Set("dpkg -S /usr/include/foo.h", executetest.Result{Stdout: "diversion by foo from: /usr/include/foo.h\nfoo-dev: /usr/include/foo.h\nlibfoo-dev:i386: /usr/include/foo.h"})
				f.Set("dpkg -s libfoo-dev", executetest.Result{Stdout: "Status: install ok installed\nVersion: 1.0-1"})
			},
			path: "/usr/include/foo.h",
			want: []Package{
				{Name: Some("libfoo-dev"), Version: Some("1.0-1"), Arch: Some("i386")},
			},
		},
		{
			name: "not-found",
			setup: func(f *executetest.Fake) {
				f.Set("dpkg -S /usr/local/include/mine.h", executetest.Result{Stderr: "dpkg-query: no path found matching pattern /usr/local/include/mine.h", ExitCode: 1})
			},
			path: "/usr/local/include/mine.h",
		},
		{
			name: "not-installed",
			setup: func(f *executetest.Fake) {
				f.Set("dpkg -S /usr/include/old.h", executetest.Result{Stdout: "old-dev:amd64: /usr/include/old.h"})
				f.Set("dpkg -s old-dev", executetest.Result{Stdout: "Package: old-dev\nStatus: deinstall ok config-files\nVersion: 0.9-2"})
			},
			path: "/usr/include/old.h",
			want: []Package{
				{Name: Some("old-dev"), Arch: Some("amd64")},
			},
		},
		{
			name: "status-failure",
			setup: func(f *executetest.Fake) {
				f.Set("dpkg -S /usr/include/gone.h", executetest.Result{Stdout: "gone-dev:amd64: /usr/include/gone.h"})
				f.Set("dpkg -s gone-dev", executetest.Result{ExitCode: 1, Stderr: "dpkg-query: package 'gone-dev' is not installed"})
			},
			path: "/usr/include/gone.h",
			want: []Package{
				{Name: Some("gone-dev"), Arch: Some("amd64")},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fake := &executetest.Fake{}
			tc.setup(fake)
			d := NewDpkg(fake)
			got := d.Resolve(ctx, tc.path)
			if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(Value{})); diff != "" {
				t.Errorf("Resolve(ctx, %q) diff -want +got:\n%s", tc.path, diff)
			}
		})
	}
}

func TestDpkgVersionCached(t *testing.T) {
	ctx := context.Background()
	fake := &executetest.Fake{}
	fake.SetPrefix("dpkg -S ", executetest.Result{Stdout: "libc6-dev:amd64: /usr/include/x.h"})
	fake.Set("dpkg -s libc6-dev", executetest.Result{Stdout: "Status: install ok installed\nVersion: 2.27-3ubuntu1"})
	d := NewDpkg(fake)
	for _, p := range []string{"/usr/include/stdio.h", "/usr/include/wchar.h", "/usr/include/stdlib.h"} {
		if got := d.Resolve(ctx, p); len(got) != 1 {
			t.Errorf("Resolve(ctx, %q)=%v; want 1 package", p, got)
		}
	}
	if n := fake.Count("dpkg -s libc6-dev"); n != 1 {
		t.Errorf("dpkg -s libc6-dev run %d times; want 1", n)
	}
}

func TestParseDpkgStatus(t *testing.T) {
	for _, tc := range []struct {
		name   string
		out    string
		want   string
		wantOK bool
	}{
		{
			name:   "installed",
			out:    "Status: install ok installed\nVersion: 2.27-3ubuntu1\nx\n",
			want:   "2.27-3ubuntu1",
			wantOK: true,
		},
		{
			name: "config-files",
			out:  "Status: deinstall ok config-files\nVersion: 2.27-3ubuntu1",
		},
		{
			name:   "epoch",
			out:    "Package: zlib1g-dev\nStatus: install ok installed\nVersion: 1:1.2.11.dfsg-0ubuntu2",
			want:   "1:1.2.11.dfsg-0ubuntu2",
			wantOK: true,
		},
		{
			name: "no-version",
			out:  "Status: install ok installed",
		},
		{
			name: "garbage",
			out:  "dpkg-query: error",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseDpkgStatus(tc.out).Get()
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("parseDpkgStatus(%q)=%q, %t; want %q, %t", tc.out, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
