// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package extract

import (
	"flag"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// fileConfig is a config file of the extract subcommand.
//
//	compdb = "out/compile_commands.json"
//	source_dir = "."
//	output = "bom.yaml.zst"
//	project = "myproject"
//	project_version = "1.2"
//	code_location = "myproject-linux"
//	jobs = 8
//	env_file = "build.env"
//	include_source_files = true
//	log_level = "debug"
type fileConfig struct {
	CompDB             string `toml:"compdb"`
	SourceDir          string `toml:"source_dir"`
	Output             string `toml:"output"`
	Project            string `toml:"project"`
	ProjectVersion     string `toml:"project_version"`
	CodeLocation       string `toml:"code_location"`
	Jobs               int    `toml:"jobs"`
	EnvFile            string `toml:"env_file"`
	IncludeSourceFiles bool   `toml:"include_source_files"`
	DepsDir            string `toml:"deps_dir"`
	LogLevel           string `toml:"log_level"`
	LogFile            string `toml:"log_file"`
}

// applyConfig sets flags from the config file fname.
// Flags set on the command line are kept.
func applyConfig(flags *flag.FlagSet, fname string) error {
	var cfg fileConfig
	md, err := toml.DecodeFile(fname, &cfg)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", fname, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in config %s: %q", fname, keys)
	}
	explicit := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})
	for _, o := range []struct {
		key, flag, value string
	}{
		{"compdb", "compdb", cfg.CompDB},
		{"source_dir", "source_dir", cfg.SourceDir},
		{"output", "o", cfg.Output},
		{"project", "project", cfg.Project},
		{"project_version", "project_version", cfg.ProjectVersion},
		{"code_location", "code_location", cfg.CodeLocation},
		{"jobs", "j", strconv.Itoa(cfg.Jobs)},
		{"env_file", "env_file", cfg.EnvFile},
		{"include_source_files", "include_source_files", strconv.FormatBool(cfg.IncludeSourceFiles)},
		{"deps_dir", "deps_dir", cfg.DepsDir},
		{"log_level", "log_level", cfg.LogLevel},
		{"log_file", "log_file", cfg.LogFile},
	} {
		if !md.IsDefined(o.key) || explicit[o.flag] {
			continue
		}
		err := flags.Set(o.flag, o.value)
		if err != nil {
			return fmt.Errorf("config %s: %s: %w", fname, o.key, err)
		}
	}
	return nil
}

// loadEnv returns an environment overlay, "key=value", from the dotenv file,
// sorted by key.
func loadEnv(fname string) ([]string, error) {
	if fname == "" {
		return nil, nil
	}
	m, err := godotenv.Read(fname)
	if err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", fname, err)
	}
	var env []string
	for _, k := range slices.Sorted(maps.Keys(m)) {
		env = append(env, k+"="+m[k])
	}
	return env, nil
}
