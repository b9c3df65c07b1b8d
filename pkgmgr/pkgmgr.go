// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pkgmgr resolves files to the operating system packages that own them.
//
// A PkgMgr is a package manager backend. Supported backends are a fixed set,
// Dpkg for the Debian family and Rpm for the RPM family, and one of them is
// chosen by Select probing the host.
package pkgmgr

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"go.chromium.org/infra/build/clangdeps/execute"
)

// PkgMgr is a package manager backend.
// It must be safe for concurrent use.
type PkgMgr interface {
	// Name returns name of the package manager, e.g. "dpkg".
	Name() string

	// Present reports whether the package manager is present on the host.
	Present(ctx context.Context) bool

	// DefaultForge returns the forge used by default for the packages.
	DefaultForge() Forge

	// Forges returns all forges the packages are reported under.
	Forges() []Forge

	// Resolve returns packages that own the file at abs path.
	// A file may be owned by multiple packages.
	// It returns empty if no owning package is found or query failed.
	Resolve(ctx context.Context, path string) []Package
}

// Value is an optional string.
// The zero value is absent.
type Value struct {
	v  string
	ok bool
}

// Some returns a present value of s.
func Some(s string) Value {
	return Value{v: s, ok: true}
}

// Get returns the value and whether it is present.
func (v Value) Get() (string, bool) {
	return v.v, v.ok
}

// String returns the value, or "<none>" when absent.
func (v Value) String() string {
	if !v.ok {
		return "<none>"
	}
	return v.v
}

// Package is attributes of a package resolved by a package manager.
// Any field may be absent if resolution partially failed.
// Package is comparable and used as a map key to dedup.
type Package struct {
	Name    Value
	Version Value
	Arch    Value
}

// Complete returns name, version and arch if all of them are present.
func (p Package) Complete() (name, version, arch string, ok bool) {
	name, nok := p.Name.Get()
	version, vok := p.Version.Get()
	arch, aok := p.Arch.Get()
	if !nok || !vok || !aok {
		return "", "", "", false
	}
	return name, version, arch, true
}

func (p Package) String() string {
	return fmt.Sprintf("%s/%s/%s", p.Name, p.Version, p.Arch)
}

// Forge identifies a package ecosystem or distribution.
type Forge struct {
	// Name is the identity of the forge, e.g. "ubuntu".
	Name string

	// Type is the package URL type of the packages in the forge, e.g. "deb".
	Type string
}

// Forges of supported distributions.
var (
	Ubuntu = Forge{Name: "ubuntu", Type: "deb"}
	Debian = Forge{Name: "debian", Type: "deb"}
	CentOS = Forge{Name: "centos", Type: "rpm"}
	Fedora = Forge{Name: "fedora", Type: "rpm"}
	RHEL   = Forge{Name: "rhel", Type: "rpm"}
)

func (f Forge) String() string {
	return f.Name
}

// ExternalID returns an external id of the package in the forge,
// "<name>/<version>/<arch>". It is namespaced by the forge.
func (f Forge) ExternalID(name, version, arch string) string {
	return name + "/" + version + "/" + arch
}

// PURL returns a package url of the package in the forge.
func (f Forge) PURL(name, version, arch string) string {
	return fmt.Sprintf("pkg:%s/%s/%s@%s?arch=%s", f.Type, f.Name, name, version, arch)
}

// querier runs package manager queries, bounding the number of
// concurrent queries.
type querier struct {
	ex   execute.Executor
	sema *semaphore.Weighted
}

func newQuerier(ex execute.Executor) querier {
	return querier{
		ex:   ex,
		sema: semaphore.NewWeighted(int64(runtime.NumCPU())),
	}
}

// run runs args in the current directory and returns its stdout.
func (q querier) run(ctx context.Context, args ...string) (string, error) {
	err := q.sema.Acquire(ctx, 1)
	if err != nil {
		return "", err
	}
	defer q.sema.Release(1)
	cmd := &execute.Cmd{
		Args: args,
		Dir:  ".",
	}
	err = q.ex.Run(ctx, cmd)
	log.Debugf("%s: stdout=%q err=%v", cmd.Command(), cmd.Stdout(), err)
	if err != nil {
		return cmd.Stdout(), fmt.Errorf("failed to run %q: %w", cmd.Command(), err)
	}
	return cmd.Stdout(), nil
}
