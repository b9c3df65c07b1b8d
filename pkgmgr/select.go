// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/clangdeps/execute"
)

// ErrNoPackageManager is an error when no supported package manager
// is present on the host.
var ErrNoPackageManager = errors.New("no supported package manager found")

// Backends returns supported package managers in the probing order.
func Backends(ex execute.Executor) []PkgMgr {
	return []PkgMgr{
		NewDpkg(ex),
		NewRpm(ex),
	}
}

// Select probes pkgmgrs in order, and returns the first one present.
// It returns ErrNoPackageManager if none is present.
func Select(ctx context.Context, pkgmgrs ...PkgMgr) (PkgMgr, error) {
	var names []string
	for _, pm := range pkgmgrs {
		if pm.Present(ctx) {
			log.Infof("found package manager %s", pm.Name())
			return pm, nil
		}
		names = append(names, pm.Name())
	}
	return nil, fmt.Errorf("%w: tried %q", ErrNoPackageManager, names)
}

// probe runs the version command and checks the output contains banner.
func probe(ctx context.Context, q querier, banner string, args ...string) bool {
	out, err := q.run(ctx, args...)
	if err != nil {
		log.Debugf("%s is not present: %v", args[0], err)
		return false
	}
	if !strings.Contains(out, banner) {
		log.Debugf("output of %q does not look right; %s is not present: %q", args, args[0], out)
		return false
	}
	return true
}
