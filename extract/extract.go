// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package extract attributes file dependencies of a C/C++ build to the
// operating system packages that provide them.
//
// For each compile command in the compilation database, the compiler runs in
// dependency listing mode (-M -MF). Dependency files outside of the source
// tree are resolved to owning packages by the package manager, and the
// packages are folded into a dependency graph rooted at the project.
//
// Compile commands are processed concurrently. Each dependency file is
// resolved at most once, and each package is added to the graph at most
// once, in a run.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/clangdeps/compdb"
	"go.chromium.org/infra/build/clangdeps/depgraph"
	"go.chromium.org/infra/build/clangdeps/execute"
	"go.chromium.org/infra/build/clangdeps/pkgmgr"
	"go.chromium.org/infra/build/clangdeps/toolsupport/gccutil"
)

// Options is options of extraction.
type Options struct {
	// SourceDir is the root of the source tree.
	// Dependency files under SourceDir are project sources
	// and never attributed to packages.
	SourceDir string

	// Project is the root of the graph.
	Project depgraph.Project

	// Env is an environment overlay for compile commands, "key=value".
	Env []string

	// Jobs is the number of compile commands processed concurrently.
	// Default is number of CPUs.
	Jobs int

	// IncludeSourceFiles reports dependency files under SourceDir
	// in Result.SourceFiles.
	IncludeSourceFiles bool

	// DepsDir is a directory to write depfiles into.
	// If empty, a temporary directory is used and removed after the run.
	DepsDir string
}

// Stats is statistics of a run.
type Stats struct {
	// Commands is the number of compile commands.
	Commands int
	// Failed is the number of compile commands failed to get deps.
	Failed int
	// Files is the number of distinct dependency files seen.
	Files int
	// Missing is the number of dependency files not on disk.
	Missing int
	// Packages is the number of distinct packages attributed.
	Packages int
	// Records is the number of records in the graph.
	Records int
}

// Result is a result of extraction.
type Result struct {
	Graph *depgraph.Graph

	// Unattributed are files that exist, are outside of the source tree
	// and yielded no resolvable package, sorted.
	Unattributed []string

	// SourceFiles are dependency files under the source tree, sorted.
	// Only set with Options.IncludeSourceFiles.
	SourceFiles []string

	Stats Stats
}

// Document returns exported form of the result.
func (r *Result) Document() depgraph.Document {
	return depgraph.Document{
		Project:      r.Graph.Root(),
		Dependencies: r.Graph.Children(),
		Unattributed: r.Unattributed,
		SourceFiles:  r.SourceFiles,
	}
}

// Run selects a package manager present on the host and extracts
// dependencies of cmds.
// It returns pkgmgr.ErrNoPackageManager before running any compile command
// if no package manager is present.
func Run(ctx context.Context, ex execute.Executor, cmds []compdb.Command, opts Options) (*Result, error) {
	pm, err := pkgmgr.Select(ctx, pkgmgr.Backends(ex)...)
	if err != nil {
		return nil, err
	}
	return New(ex, pm).Extract(ctx, cmds, opts)
}

// Extractor extracts package dependencies of compile commands.
type Extractor struct {
	ex execute.Executor
	pm pkgmgr.PkgMgr
}

// New returns an extractor that runs compilers with ex and resolves
// files with pm.
func New(ex execute.Executor, pm pkgmgr.PkgMgr) *Extractor {
	return &Extractor{ex: ex, pm: pm}
}

// Extract extracts package dependencies of cmds.
// Failures of a compile command or of a package query are logged and
// don't fail the extraction. It returns error only if the extraction
// can't start, or ctx is canceled.
func (e *Extractor) Extract(ctx context.Context, cmds []compdb.Command, opts Options) (*Result, error) {
	started := time.Now()
	runID := uuid.New().String()
	sourceDir, err := canonicalPath(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("source dir %q: %w", opts.SourceDir, err)
	}
	depsDir := opts.DepsDir
	if depsDir == "" {
		depsDir, err = os.MkdirTemp("", "clangdeps-")
		if err != nil {
			return nil, fmt.Errorf("failed to create deps dir: %w", err)
		}
		defer func() {
			err := os.RemoveAll(depsDir)
			if err != nil {
				log.Warnf("failed to remove deps dir %s: %v", depsDir, err)
			}
		}()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	log.Infof("run %s: %d compile commands source_dir=%s pkgmgr=%s jobs=%d", runID, len(cmds), sourceDir, e.pm.Name(), jobs)

	st := &state{
		ex:        e.ex,
		pm:        e.pm,
		forges:    e.pm.Forges(),
		opts:      opts,
		sourceDir: sourceDir,
		depsDir:   depsDir,
		graph:     depgraph.New(opts.Project),
	}
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for _, cmd := range cmds {
		eg.Go(func() error {
			st.processCommand(gctx, cmd)
			return nil
		})
	}
	err = eg.Wait()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction interrupted: %w", err)
	}
	r := st.result(len(cmds))
	log.Infof("run %s: %d records from %d packages, %d unattributed files, %d/%d commands failed in %s",
		runID, r.Stats.Records, r.Stats.Packages, len(r.Unattributed), r.Stats.Failed, r.Stats.Commands, time.Since(started))
	return r, nil
}

// state is the state of a run, shared by workers.
type state struct {
	ex        execute.Executor
	pm        pkgmgr.PkgMgr
	forges    []pkgmgr.Forge
	opts      Options
	sourceDir string
	depsDir   string

	// dependency files offered to resolution.
	files syncSet[string]
	// packages converted to records.
	packages syncSet[pkgmgr.Package]

	graph *depgraph.Graph

	mu           sync.Mutex
	unattributed []string
	sourceFiles  []string

	failed  atomic.Int64
	missing atomic.Int64
}

// dependencyFile is a dependency file on disk.
type dependencyFile struct {
	path              string
	isUnderSourceTree bool
}

func (st *state) processCommand(ctx context.Context, cmd compdb.Command) {
	log.Infof("cd %s; %s", cmd.Directory, cmd.File)
	depfile := filepath.Join(st.depsDir, uuid.New().String()+".d")
	deps, err := gccutil.Deps(ctx, st.ex, cmd.Directory, st.opts.Env, cmd.Args(), depfile)
	if err != nil {
		st.failed.Add(1)
		log.Warnf("skip %s: %v", cmd.File, err)
		return
	}
	files := st.dependencyFiles(cmd.Directory, deps)

	// resolve files, then attribute packages.
	// packages are deduped by their attributes, not by files.
	var pkgs []pkgmgr.Package
	for _, f := range files {
		if f.isUnderSourceTree {
			if st.opts.IncludeSourceFiles {
				st.mu.Lock()
				st.sourceFiles = append(st.sourceFiles, f.path)
				st.mu.Unlock()
			}
			continue
		}
		resolved := st.resolve(ctx, f.path)
		if len(resolved) == 0 {
			st.mu.Lock()
			st.unattributed = append(st.unattributed, f.path)
			st.mu.Unlock()
			continue
		}
		pkgs = append(pkgs, resolved...)
	}
	for _, pkg := range pkgs {
		st.attribute(pkg)
	}
}

// dependencyFiles returns dependency files of deps that exist and were
// not seen in the run.
func (st *state) dependencyFiles(dir string, deps []string) []dependencyFile {
	var files []dependencyFile
	for _, dep := range deps {
		if dep == "" {
			continue
		}
		path := dep
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		path = filepath.Clean(path)
		if !st.files.add(path) {
			continue
		}
		_, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warnf("stat %s: %v", path, err)
			}
			st.missing.Add(1)
			continue
		}
		files = append(files, dependencyFile{
			path:              path,
			isUnderSourceTree: st.isUnderSourceTree(path),
		})
	}
	return files
}

func (st *state) isUnderSourceTree(path string) bool {
	canonical, err := canonicalPath(path)
	if err != nil {
		canonical = path
	}
	return isUnder(st.sourceDir, canonical)
}

// resolve returns complete packages that own the file.
func (st *state) resolve(ctx context.Context, path string) []pkgmgr.Package {
	var pkgs []pkgmgr.Package
	for _, pkg := range st.pm.Resolve(ctx, path) {
		if _, _, _, ok := pkg.Complete(); !ok {
			log.Infof("%s: incomplete package %s", path, pkg)
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// attribute adds records of the package, one per forge, unless
// the package was already attributed.
func (st *state) attribute(pkg pkgmgr.Package) {
	name, version, arch, ok := pkg.Complete()
	if !ok {
		return
	}
	if !st.packages.add(pkg) {
		return
	}
	for _, forge := range st.forges {
		r := depgraph.NewRecord(forge, name, version, arch)
		log.Debugf("add %s", r.ID())
		st.graph.AddChild(r)
	}
}

func (st *state) result(ncmds int) *Result {
	st.mu.Lock()
	defer st.mu.Unlock()
	unattributed := slices.Clone(st.unattributed)
	slices.Sort(unattributed)
	sourceFiles := slices.Clone(st.sourceFiles)
	slices.Sort(sourceFiles)
	return &Result{
		Graph:        st.graph,
		Unattributed: unattributed,
		SourceFiles:  sourceFiles,
		Stats: Stats{
			Commands: ncmds,
			Failed:   int(st.failed.Load()),
			Files:    st.files.len(),
			Missing:  int(st.missing.Load()),
			Packages: st.packages.len(),
			Records:  st.graph.Len(),
		},
	}
}

// canonicalPath returns absolute path with symlinks resolved.
func canonicalPath(path string) (string, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(path)
}

// isUnder reports whether path is root or under root.
func isUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
