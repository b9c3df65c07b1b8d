// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depgraph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Document is an exported form of an extraction result.
type Document struct {
	Project      Project  `json:"project" yaml:"project"`
	Dependencies []Record `json:"dependencies" yaml:"dependencies"`
	// Unattributed are files outside of the source tree that no
	// package owns. They need further scanning.
	Unattributed []string `json:"unattributedFiles" yaml:"unattributedFiles"`
	// SourceFiles are dependency files under the source tree.
	SourceFiles []string `json:"sourceFiles,omitempty" yaml:"sourceFiles,omitempty"`
}

// Format is an output format.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor returns format and compression for the filename.
// "<name>.yaml", "<name>.yml" are YAML, others are JSON.
// ".zst" suffix means zstd compressed.
func FormatFor(fname string) (Format, bool) {
	compressed := false
	if strings.HasSuffix(fname, ".zst") {
		compressed = true
		fname = strings.TrimSuffix(fname, ".zst")
	}
	switch filepath.Ext(fname) {
	case ".yaml", ".yml":
		return YAML, compressed
	}
	return JSON, compressed
}

// Encode writes doc to w in the format.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err := enc.Encode(doc)
		if err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
}

// WriteFile writes doc to the file, in the format for the filename.
func WriteFile(fname string, doc Document) (err error) {
	format, compressed := FormatFor(fname)
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	if !compressed {
		return Encode(f, doc, format)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("zstd writer for %s: %w", fname, err)
	}
	err = Encode(zw, doc, format)
	cerr := zw.Close()
	if err != nil {
		return err
	}
	return cerr
}

// ReadFile reads doc from the file written by WriteFile.
func ReadFile(fname string) (Document, error) {
	var doc Document
	format, compressed := FormatFor(fname)
	f, err := os.Open(fname)
	if err != nil {
		return doc, err
	}
	defer f.Close()
	var r io.Reader = f
	if compressed {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return doc, fmt.Errorf("zstd reader for %s: %w", fname, err)
		}
		defer zr.Close()
		r = zr
	}
	switch format {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		err = json.NewDecoder(r).Decode(&doc)
	}
	if err != nil {
		return doc, fmt.Errorf("failed to decode %s: %w", fname, err)
	}
	return doc, nil
}
