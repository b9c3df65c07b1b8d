// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgmgr

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"go.chromium.org/infra/build/clangdeps/execute"
)

const (
	dpkgBanner = "package management program version"

	// versionCacheSize is the number of package versions kept.
	// A build usually pulls headers from far fewer packages.
	versionCacheSize = 4096
)

// Dpkg is a package manager of the Debian family.
type Dpkg struct {
	q querier

	// dpkg -s results by package name.
	versions *lru.Cache[string, Value]
	group    singleflight.Group
}

// NewDpkg returns dpkg package manager that runs queries with ex.
func NewDpkg(ex execute.Executor) *Dpkg {
	versions, err := lru.New[string, Value](versionCacheSize)
	if err != nil {
		// only fails for non-positive size.
		panic(err)
	}
	return &Dpkg{
		q:        newQuerier(ex),
		versions: versions,
	}
}

// Name returns "dpkg".
func (*Dpkg) Name() string { return "dpkg" }

// Present runs `dpkg --version` and checks its banner.
func (d *Dpkg) Present(ctx context.Context) bool {
	return probe(ctx, d.q, dpkgBanner, "dpkg", "--version")
}

// DefaultForge returns Ubuntu.
func (*Dpkg) DefaultForge() Forge { return Ubuntu }

// Forges returns Ubuntu and Debian.
// Packages are reported under both identities.
func (*Dpkg) Forges() []Forge {
	return []Forge{Ubuntu, Debian}
}

// Resolve runs `dpkg -S <path>` and looks up versions of owning packages.
func (d *Dpkg) Resolve(ctx context.Context, path string) []Package {
	out, err := d.q.run(ctx, "dpkg", "-S", path)
	if err != nil {
		log.Warnf("dpkg: failed to query owner of %s: %v", path, err)
		return nil
	}
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		owners := parseDpkgSearch(line)
		if len(owners) == 0 {
			log.Debugf("dpkg: skipping line: %q", line)
			continue
		}
		for _, o := range owners {
			pkgs = append(pkgs, Package{
				Name:    Some(o.name),
				Version: d.version(ctx, o.name),
				Arch:    Some(o.arch),
			})
		}
	}
	return pkgs
}

func (d *Dpkg) version(ctx context.Context, name string) Value {
	if v, ok := d.versions.Get(name); ok {
		return v
	}
	v, _, _ := d.group.Do(name, func() (any, error) {
		out, err := d.q.run(ctx, "dpkg", "-s", name)
		if err != nil {
			log.Warnf("dpkg: failed to query status of %s: %v", name, err)
			// not cached, so a later query may succeed.
			return Value{}, nil
		}
		v := parseDpkgStatus(out)
		if _, ok := v.Get(); !ok {
			log.Infof("dpkg: %s is not installed", name)
		}
		d.versions.Add(name, v)
		return v, nil
	})
	return v.(Value)
}

type dpkgOwner struct {
	name, arch string
}

// parseDpkgSearch parses a line of `dpkg -S` output,
// "<name>:<arch>[, <name>:<arch>...]: <path>".
// It returns nil for a line not in this shape, e.g. diagnostics.
func parseDpkgSearch(line string) []dpkgOwner {
	owners, path, ok := strings.Cut(line, ": ")
	if !ok || strings.TrimSpace(path) == "" {
		return nil
	}
	var r []dpkgOwner
	for _, owner := range strings.Split(owners, ", ") {
		name, arch, ok := strings.Cut(owner, ":")
		if !ok || name == "" || arch == "" || strings.ContainsAny(owner, " \t") {
			continue
		}
		r = append(r, dpkgOwner{name: name, arch: arch})
	}
	return r
}

var dpkgStatusLine = regexp.MustCompile(`^([^:]+):\s+(.*)$`)

// parseDpkgStatus returns version in `dpkg -s` output.
// It returns absent if the package is not installed.
func parseDpkgStatus(out string) Value {
	for _, line := range strings.Split(out, "\n") {
		m := dpkgStatusLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label, value := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		switch label {
		case "Status":
			if !strings.Contains(value, "installed") {
				return Value{}
			}
		case "Version":
			return Some(value)
		}
	}
	return Value{}
}
