// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package depgraph provides a dependency graph of a project
// to the operating system packages it depends on.
package depgraph

import (
	"cmp"
	"slices"
	"sync"

	"go.chromium.org/infra/build/clangdeps/pkgmgr"
)

// Record is a package attributed to the project, in a forge.
type Record struct {
	Name       string `json:"name" yaml:"name"`
	Version    string `json:"version" yaml:"version"`
	Arch       string `json:"arch" yaml:"arch"`
	ExternalID string `json:"externalId" yaml:"externalId"`
	Forge      string `json:"forge" yaml:"forge"`
	PURL       string `json:"purl" yaml:"purl"`
}

// NewRecord returns a record of the package in the forge.
func NewRecord(forge pkgmgr.Forge, name, version, arch string) Record {
	return Record{
		Name:       name,
		Version:    version,
		Arch:       arch,
		ExternalID: forge.ExternalID(name, version, arch),
		Forge:      forge.Name,
		PURL:       forge.PURL(name, version, arch),
	}
}

// ID returns forge namespaced external id.
func (r Record) ID() string {
	return r.Forge + ":" + r.ExternalID
}

// Project is the root of the graph.
type Project struct {
	Name         string `json:"name" yaml:"name"`
	Version      string `json:"version" yaml:"version"`
	CodeLocation string `json:"codeLocation" yaml:"codeLocation"`
}

// Graph is a rooted dependency graph.
// All records are direct children of the project root.
// It is safe for concurrent use.
type Graph struct {
	root Project

	mu       sync.Mutex
	children []Record
}

// New returns a new graph rooted at the project.
func New(root Project) *Graph {
	return &Graph{root: root}
}

// Root returns the project root.
func (g *Graph) Root() Project {
	return g.root
}

// AddChild adds the record as a direct child of the root.
func (g *Graph) AddChild(r Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.children = append(g.children, r)
}

// Children returns children of the root, sorted by id.
func (g *Graph) Children() []Record {
	g.mu.Lock()
	children := slices.Clone(g.children)
	g.mu.Unlock()
	slices.SortFunc(children, func(a, b Record) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return children
}

// Len returns number of children.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.children)
}
