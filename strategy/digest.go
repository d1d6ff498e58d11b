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
	"fmt"
	"reflect"

	"github.com/zeebo/xxh3"

	"dirpx.dev/mtx/apis"
)

// NewDigestStrategy creates an apis.Strategy that names a value or type by
// the xxh3 hash of the name inner produces, as 16 lowercase hex digits.
// A nil inner defaults to NewQualifiedStrategy.
func NewDigestStrategy(inner apis.Strategy) apis.Strategy {
	if inner == nil {
		inner = NewQualifiedStrategy()
	}
	return &digestStrategy{inner: inner}
}

// digestStrategy hashes another strategy's result.
type digestStrategy struct {
	inner apis.Strategy
}

// Ensure digestStrategy implements apis.Strategy.
var _ apis.Strategy = (*digestStrategy)(nil)

// TryResolve hashes inner's name for v.
func (s *digestStrategy) TryResolve(v any, cfg apis.Config) (string, bool) {
	name, ok := s.inner.TryResolve(v, cfg)
	if !ok || name == "" {
		return "", false
	}
	return Hex(Sum(name)), true
}

// TryResolveType hashes inner's name for t.
func (s *digestStrategy) TryResolveType(t reflect.Type, cfg apis.Config) (string, bool) {
	name, ok := s.inner.TryResolveType(t, cfg)
	if !ok || name == "" {
		return "", false
	}
	return Hex(Sum(name)), true
}

// Sum returns the 64-bit xxh3 digest of name.
func Sum(name string) uint64 { return xxh3.HashString(name) }

// Hex formats a digest as 16 lowercase hex digits.
func Hex(sum uint64) string { return fmt.Sprintf("%016x", sum) }
