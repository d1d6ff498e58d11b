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

package strategy

import (
	"path"
	"reflect"
	"strings"
	"sync"

	"dirpx.dev/mtx/apis"
	uref "dirpx.dev/mtx/utils/reflect"
)

// NewReflectStrategy creates an apis.Strategy that names the nearest named
// type as "pkg.Type", using utils/reflect.Normalize and memoization.
func NewReflectStrategy() apis.Strategy {
	return reflectStrategy{}
}

// NewQualifiedStrategy creates an apis.Strategy that names a type by its full
// spelling with complete import paths (utils/reflect.Qualified). It does not
// unwrap containers, so T and *T get different names, and it names every
// type, builtin or anonymous, regardless of IncludeBuiltins.
func NewQualifiedStrategy() apis.Strategy {
	return reflectStrategy{qualified: true}
}

// reflectStrategy is the universal fallback of a resolver chain.
type reflectStrategy struct {
	qualified bool
}

// Ensure reflectStrategy implements apis.Strategy.
var _ apis.Strategy = (*reflectStrategy)(nil)

// cacheKey ensures memoization respects all config knobs that affect resolution.
type cacheKey struct {
	t              reflect.Type
	qualified      bool
	includeBuiltin bool
	maxUnwrap      int16
	mapPreferElem  bool
}

// typeNameCache caches resolved type names by (type, mode, config knobs).
var typeNameCache sync.Map // key: cacheKey, val: string

// TryResolve names v's dynamic type.
func (s reflectStrategy) TryResolve(v any, cfg apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	return s.byType(reflect.TypeOf(v), cfg), true
}

// TryResolveType names t.
func (s reflectStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (string, bool) {
	if t == nil {
		return "", false
	}
	return s.byType(t, cfg), true
}

// byType resolves the name for t with memoization.
func (s reflectStrategy) byType(t reflect.Type, cfg apis.Config) string {
	key := cacheKey{t: t, qualified: s.qualified}
	if !s.qualified {
		// Qualified names ignore the knobs; keep a single cache entry.
		key.includeBuiltin = cfg.IncludeBuiltins
		key.maxUnwrap = int16(cfg.MaxUnwrap)
		key.mapPreferElem = cfg.MapPreferElem
	}
	if v, ok := typeNameCache.Load(key); ok {
		return v.(string)
	}

	var name string
	if s.qualified {
		name = uref.Qualified(t)
	} else {
		name = shortName(t, cfg)
	}

	v, _ := typeNameCache.LoadOrStore(key, name)
	return v.(string)
}

// shortName returns "pkg.Type" for the nearest named type of t, "" when t
// has none or it is a builtin hidden by cfg.
func shortName(t reflect.Type, cfg apis.Config) string {
	base, err := uref.Normalize(t, cfg)
	if err != nil || base == nil {
		return ""
	}

	name := stripTypeParams(base.Name())
	if p := base.PkgPath(); p != "" {
		return path.Base(p) + "." + name
	}
	if !cfg.IncludeBuiltins {
		return ""
	}
	return name
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
