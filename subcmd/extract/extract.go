// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package extract is extract subcommand to attribute build dependencies
// to operating system packages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/cpuid/v2"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/clangdeps/compdb"
	"go.chromium.org/infra/build/clangdeps/depgraph"
	"go.chromium.org/infra/build/clangdeps/execute/localexec"
	"go.chromium.org/infra/build/clangdeps/extract"
	"go.chromium.org/infra/build/clangdeps/pkgmgr"
)

const usage = `extract package dependencies of a C/C++ build

 $ clangdeps extract -C <dir> [-compdb compile_commands.json] [-o clangdeps-bom.json]

It runs each compile command in the compilation database with -M -MF
to get its dependency files, and resolves the files outside of
-source_dir to the packages that own them with dpkg or rpm.

Output format is chosen by the -o suffix: .json, .yaml or .yml,
optionally followed by .zst for zstd compression.
`

// Cmd returns the Command for the `extract` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "extract [-C <dir>] [-compdb <file>] [-o <file>]",
		ShortDesc: "extract package dependencies of a C/C++ build",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	dir                string
	compdb             string
	sourceDir          string
	output             string
	project            string
	projectVersion     string
	codeLocation       string
	jobs               int
	envFile            string
	configFile         string
	includeSourceFiles bool
	depsDir            string
	logLevel           string
	logFile            string
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "working directory. relative paths except -config are relative to it")
	c.Flags.StringVar(&c.compdb, "compdb", "compile_commands.json", "compilation database")
	c.Flags.StringVar(&c.sourceDir, "source_dir", ".", "root of the source tree. files under it are not attributed to packages")
	c.Flags.StringVar(&c.output, "o", "clangdeps-bom.json", "output file. .json, .yaml or .yml, with optional .zst")
	c.Flags.StringVar(&c.project, "project", "ClangExtractorProject", "project name")
	c.Flags.StringVar(&c.projectVersion, "project_version", "default", "project version")
	c.Flags.StringVar(&c.codeLocation, "code_location", "ClangExtractorCodeLocation", "code location name")
	c.Flags.IntVar(&c.jobs, "j", runtime.NumCPU(), "number of compile commands to run in parallel")
	c.Flags.StringVar(&c.envFile, "env_file", "", "dotenv file of environment variables for compile commands")
	c.Flags.StringVar(&c.configFile, "config", "", "toml config file. flags set on the command line override it")
	c.Flags.BoolVar(&c.includeSourceFiles, "include_source_files", false, "report dependency files under -source_dir in sourceFiles")
	c.Flags.StringVar(&c.depsDir, "deps_dir", "", "directory to write depfiles. temporary directory if empty")
	c.Flags.StringVar(&c.logLevel, "log_level", "info", "log level: debug, info, warn or error")
	c.Flags.StringVar(&c.logFile, "log_file", "", "log file. stderr if empty")
}

type flagError struct {
	err error
}

func (f flagError) Error() string {
	return f.err.Error()
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		var errFlag flagError
		switch {
		case errors.As(err, &errFlag):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
			return 2
		case errors.Is(err, pkgmgr.ErrNoPackageManager):
			fmt.Fprintf(os.Stderr, "Error: %v\nneed dpkg or rpm on the host\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	started := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer signals.HandleInterrupt(cancel)()

	if len(args) > 0 {
		return flagError{err: fmt.Errorf("position arguments not expected: %q", args)}
	}
	if c.configFile != "" {
		err := applyConfig(&c.Flags, c.configFile)
		if err != nil {
			return flagError{err: err}
		}
	}
	level, err := log.ParseLevel(c.logLevel)
	if err != nil {
		return flagError{err: fmt.Errorf("bad -log_level %q: %w", c.logLevel, err)}
	}
	log.SetLevel(level)
	if c.logFile != "" {
		f, err := os.Create(c.logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	}
	log.Infof("cpuinfo: %s", cpuinfo())
	logBuildInfo()

	if c.dir != "." {
		err := os.Chdir(c.dir)
		if err != nil {
			return err
		}
		log.Infof("chdir %s", c.dir)
	}
	env, err := loadEnv(c.envFile)
	if err != nil {
		return err
	}
	cmds, err := compdb.Load(c.compdb)
	if err != nil {
		return err
	}
	log.Infof("%d compile commands in %s", len(cmds), c.compdb)

	r, err := extract.Run(ctx, localexec.LocalExec{}, cmds, extract.Options{
		SourceDir: c.sourceDir,
		Project: depgraph.Project{
			Name:         c.project,
			Version:      c.projectVersion,
			CodeLocation: c.codeLocation,
		},
		Env:                env,
		Jobs:               c.jobs,
		IncludeSourceFiles: c.includeSourceFiles,
		DepsDir:            c.depsDir,
	})
	if err != nil {
		return err
	}
	err = depgraph.WriteFile(c.output, r.Document())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d packages (%d records), %d unattributed files, %d/%d compile commands failed in %s: %s\n",
		r.Stats.Packages, r.Stats.Records, len(r.Unattributed), r.Stats.Failed, r.Stats.Commands,
		time.Since(started).Round(time.Millisecond), c.output)
	return nil
}

func cpuinfo() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cpu family=%d model=%d stepping=%d ", cpuid.CPU.Family, cpuid.CPU.Model, cpuid.CPU.Stepping)
	fmt.Fprintf(&sb, "brand=%q vendor=%q ", cpuid.CPU.BrandName, cpuid.CPU.VendorString)
	fmt.Fprintf(&sb, "physicalCores=%d logicalCores=%d vm=%t", cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.VM())
	return sb.String()
}

func logBuildInfo() {
	buildinfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Infof("buildinfo: not available")
		return
	}
	log.Infof("main module: %s %s %s", buildinfo.Main.Path, buildinfo.Main.Version, vcsInfo(buildinfo))
	for _, m := range buildinfo.Deps {
		log.Debugf("deps module: %s %s", m.Path, m.Version)
	}
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
