// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package extract

import "sync"

// syncSet is a set safe for concurrent use.
// The zero value is an empty set.
type syncSet[K comparable] struct {
	mu sync.Mutex
	m  map[K]struct{}
}

// add adds k to the set, and reports whether k was newly added.
// For concurrent adds of the same k, exactly one returns true.
func (s *syncSet[K]) add(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.m[k]; found {
		return false
	}
	if s.m == nil {
		s.m = make(map[K]struct{})
	}
	s.m[k] = struct{}{}
	return true
}

func (s *syncSet[K]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
