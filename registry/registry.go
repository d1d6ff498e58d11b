/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package registry is the identifier cache: a process-lifetime map from Go
// type to its one canonical identifier.
//
// Each type owns a cell that is published exactly once. The first candidate
// offered for a type wins; every later caller receives that identifier no
// matter which candidate it brings. Entries are never removed.
package registry

import (
	"errors"
	"reflect"
	"sync"

	"go.uber.org/atomic"

	"dirpx.dev/mtx/identifier"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("mtx(registry): nil reflect.Type provided")
	// ErrNilCandidate is returned when no candidate identifier is provided.
	ErrNilCandidate = errors.New("mtx(registry): nil candidate identifier")
	// ErrTypeMismatch indicates a candidate built for a different type.
	ErrTypeMismatch = errors.New("mtx(registry): candidate built for a different type")
)

// New constructs an empty identifier cache.
func New() *Registry {
	return &Registry{}
}

// Registry maps reflect.Type to its published identifier.
type Registry struct {
	// m maps reflect.Type to *cell.
	m sync.Map
	// mu guards count.
	mu sync.Mutex
	// count tracks the number of published identifiers.
	count int
}

// cell publishes one identifier exactly once.
type cell struct {
	once sync.Once
	id   atomic.Pointer[identifier.ID]
}

// GetOrCreate returns the canonical identifier for t, publishing candidate if
// no identifier was published yet. Callers detect a lost race by comparing
// the result with their candidate.
func (r *Registry) GetOrCreate(t reflect.Type, candidate *identifier.ID) (*identifier.ID, error) {
	// Validate inputs early.
	if t == nil {
		return nil, ErrNilType
	}
	if candidate == nil {
		return nil, ErrNilCandidate
	}
	if candidate.Type() != t {
		return nil, ErrTypeMismatch
	}

	// Fast read path: already published.
	if id, ok := r.Lookup(t); ok {
		return id, nil
	}

	// Slow path: the first goroutine to run the cell's once publishes.
	v, _ := r.m.LoadOrStore(t, &cell{})
	c := v.(*cell)
	c.once.Do(func() {
		candidate.Publish()
		c.id.Store(candidate)

		r.mu.Lock()
		r.count++
		r.mu.Unlock()
	})
	return c.id.Load(), nil
}

// Lookup returns the published identifier for t, if any. It never blocks:
// a type whose publication is still in flight reports false.
func (r *Registry) Lookup(t reflect.Type) (*identifier.ID, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := r.m.Load(t)
	if !ok {
		return nil, false
	}
	id := v.(*cell).id.Load()
	return id, id != nil
}

// Entries returns a snapshot of published identifiers (order is unspecified).
func (r *Registry) Entries() []*identifier.ID {
	entries := make([]*identifier.ID, 0, r.Count())
	r.m.Range(func(_, value any) bool {
		if id := value.(*cell).id.Load(); id != nil {
			entries = append(entries, id)
		}
		return true
	})
	return entries
}

// Count returns the number of published identifiers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
