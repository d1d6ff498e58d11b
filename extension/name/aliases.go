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

package name

import (
	"errors"
	"reflect"
	"sync"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/config"
	uref "dirpx.dev/mtx/utils/reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("mtx(name): nil reflect.Type provided")
	// ErrEmptyName is returned when an empty name is provided.
	ErrEmptyName = errors.New("mtx(name): empty name provided")
	// ErrConflictingAlias indicates an attempt to re-alias a type with a
	// different name.
	ErrConflictingAlias = errors.New("mtx(name): conflicting type alias")
)

// NewAliases constructs an alias table that normalizes types according to
// cfg. Only MaxUnwrap and MapPreferElem are used.
func NewAliases(cfg apis.Config) *Aliases {
	if cfg.MaxUnwrap <= 0 {
		cfg.MaxUnwrap = config.DefaultMaxUnwrap
	}
	return &Aliases{cfg: cfg}
}

// Aliases maps the nearest named type of a type to an explicit name.
// An alias for T therefore also names *T, []T and map[K]T.
type Aliases struct {
	// cfg is the configuration used for type normalization.
	cfg apis.Config
	// mu guards write-side consistency and counter
	mu sync.Mutex
	// m maps reflect.Type to its alias.
	m sync.Map // map[reflect.Type]string
	// count tracks the number of aliases.
	count int
}

var _ apis.Aliases = (*Aliases)(nil)

// Entry is one (type, alias) association.
type Entry struct {
	Type reflect.Type
	Name string
}

// Register associates the nearest named type of t with name.
// It is idempotent for the same (type, name) pair.
func (a *Aliases) Register(t reflect.Type, name string) error {
	if t == nil {
		return ErrNilType
	}
	if name == "" {
		return ErrEmptyName
	}

	b, err := uref.Normalize(t, a.cfg)
	if err != nil {
		return err
	}

	// Lock-free idempotency / conflict check.
	if old, ok := a.m.Load(b); ok {
		return conflict(old.(string), name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := a.m.Load(b); ok {
		return conflict(old.(string), name)
	}
	a.m.Store(b, name)
	a.count++
	return nil
}

func conflict(old, name string) error {
	if old == name {
		return nil
	}
	return ErrConflictingAlias
}

// Lookup returns the alias of t's nearest named type.
func (a *Aliases) Lookup(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	b, err := uref.Normalize(t, a.cfg)
	if err != nil {
		return "", false
	}
	if v, ok := a.m.Load(b); ok {
		return v.(string), true
	}
	return "", false
}

// Entries returns a snapshot of the table (order is unspecified).
func (a *Aliases) Entries() []Entry {
	entries := make([]Entry, 0, a.Count())
	a.m.Range(func(key, value any) bool {
		entries = append(entries, Entry{Type: key.(reflect.Type), Name: value.(string)})
		return true
	})
	return entries
}

// Count returns the number of aliases.
func (a *Aliases) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
