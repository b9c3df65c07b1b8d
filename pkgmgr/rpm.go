// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgmgr

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/clangdeps/execute"
)

const rpmBanner = "RPM version"

// Rpm is a package manager of the RPM family.
type Rpm struct {
	q querier
}

// NewRpm returns rpm package manager that runs queries with ex.
func NewRpm(ex execute.Executor) *Rpm {
	return &Rpm{q: newQuerier(ex)}
}

// Name returns "rpm".
func (*Rpm) Name() string { return "rpm" }

// Present runs `rpm --version` and checks its banner.
func (r *Rpm) Present(ctx context.Context) bool {
	return probe(ctx, r.q, rpmBanner, "rpm", "--version")
}

// DefaultForge returns CentOS.
func (*Rpm) DefaultForge() Forge { return CentOS }

// Forges returns CentOS, Fedora and RHEL.
func (*Rpm) Forges() []Forge {
	return []Forge{CentOS, Fedora, RHEL}
}

// Resolve runs `rpm -qf <path>`.
func (r *Rpm) Resolve(ctx context.Context, path string) []Package {
	out, err := r.q.run(ctx, "rpm", "-qf", path)
	if err != nil {
		log.Warnf("rpm: failed to query owner of %s: %v", path, err)
		return nil
	}
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		pkg, ok := parseNEVRA(strings.TrimSpace(line))
		if !ok {
			log.Debugf("rpm: skipping line: %q", line)
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// name-version-release.arch. no spaces, so that diagnostics such as
// "file /usr/include/x-y-z.h is not owned by any package" don't match.
var nevraPattern = regexp.MustCompile(`^\S+-\S+-\S+\.\S*$`)

// parseNEVRA parses "<name>-<version>-<release>.<arch>" from the right.
// version of the package is "<version>-<release>".
func parseNEVRA(s string) (Package, bool) {
	if !nevraPattern.MatchString(s) {
		return Package{}, false
	}
	lastDot := strings.LastIndexByte(s, '.')
	lastDash := strings.LastIndexByte(s, '-')
	secondLastDash := strings.LastIndexByte(s[:lastDash], '-')
	if secondLastDash <= 0 || secondLastDash+1 > lastDot {
		return Package{}, false
	}
	return Package{
		Name:    Some(s[:secondLastDash]),
		Version: Some(s[secondLastDash+1 : lastDot]),
		Arch:    Some(s[lastDot+1:]),
	}, true
}
