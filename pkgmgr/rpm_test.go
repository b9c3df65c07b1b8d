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

func TestParseNEVRA(t *testing.T) {
	for _, tc := range []struct {
		in     string
		want   Package
		wantOK bool
	}{
		{
			in:     "glibc-headers-2.17-222.el7.x86_64",
			want:   Package{Name: Some("glibc-headers"), Version: Some("2.17-222.el7"), Arch: Some("x86_64")},
			wantOK: true,
		},
		{
			in:     "bash-4.2.46-34.el7.x86_64",
			want:   Package{Name: Some("bash"), Version: Some("4.2.46-34.el7"), Arch: Some("x86_64")},
			wantOK: true,
		},
		{
			in:     "kernel-headers-3.10.0-862.el7.noarch",
			want:   Package{Name: Some("kernel-headers"), Version: Some("3.10.0-862.el7"), Arch: Some("noarch")},
			wantOK: true,
		},
		{in: "file /usr/include/foo-bar-baz.h is not owned by any package"},
		{in: "bash-4.2.46"},
		{in: "a-b-c.d-e-f"},
		{in: ""},
	} {
		got, ok := parseNEVRA(tc.in)
		if ok != tc.wantOK {
			t.Errorf("parseNEVRA(%q)=_, %t; want %t", tc.in, ok, tc.wantOK)
			continue
		}
		if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(Value{})); diff != "" {
			t.Errorf("parseNEVRA(%q) diff -want +got:\n%s", tc.in, diff)
		}
	}
}

func TestRpmResolve(t *testing.T) {
	ctx := context.Background()
	fake := &executetest.Fake{}
	fake.Set("rpm -qf /usr/include/stdio.h", executetest.Result{Stdout: "glibc-headers-2.17-222.el7.x86_64\n"})
	fake.Set("rpm -qf /usr/local/include/mine.h", executetest.Result{Stdout: "file /usr/local/include/mine.h is not owned by any package", ExitCode: 1})
	r := NewRpm(fake)

	got := r.Resolve(ctx, "/usr/include/stdio.h")
	want := []Package{{Name: Some("glibc-headers"), Version: Some("2.17-222.el7"), Arch: Some("x86_64")}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(Value{})); diff != "" {
		t.Errorf("Resolve diff -want +got:\n%s", diff)
	}
	if got := r.Resolve(ctx, "/usr/local/include/mine.h"); len(got) != 0 {
		t.Errorf("Resolve(not owned)=%v; want empty", got)
	}
	if diff := cmp.Diff([]Forge{CentOS, Fedora, RHEL}, r.Forges()); diff != "" {
		t.Errorf("Forges diff -want +got:\n%s", diff)
	}
	if got := r.DefaultForge(); got != CentOS {
		t.Errorf("DefaultForge=%v; want %v", got, CentOS)
	}
}
