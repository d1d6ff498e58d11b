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
	"fmt"
	"reflect"
	"strconv"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/registrar"
	"dirpx.dev/mtx/strategy"
	"dirpx.dev/mtx/tag"
)

// Digest is the hash-based naming module.
var Digest = &DigestModule{strat: strategy.NewDigestStrategy(strategy.NewQualifiedStrategy())}

// DigestModule implements apis.Extension for hashed names.
type DigestModule struct {
	apis.NopHooks

	strat apis.Strategy
	self  registrar.SelfID
}

var _ apis.Extension = (*DigestModule)(nil)

// digest is the per-type state, computed once.
type digest struct {
	sum uint64
	hex string
}

// ID returns the module's identifier.
func (m *DigestModule) ID() apis.TypeID { return m.self.Of(m) }

// Tag returns tag.Digest.
func (m *DigestModule) Tag() tag.Ext { return tag.Digest }

// Accepts reports whether e is tag.Digest or tag.Name.
func (m *DigestModule) Accepts(e tag.Ext) bool { return e == tag.Digest || e == tag.Name }

// New hashes t's qualified spelling.
func (m *DigestModule) New(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrNilType
	}
	// Qualified names ignore the configuration.
	hex, ok := m.strat.TryResolveType(t, apis.Config{})
	if !ok {
		return nil, fmt.Errorf("mtx(name): no digest for %v", t)
	}
	sum, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("mtx(name): digest of %v: %w", t, err)
	}
	return &digest{sum: sum, hex: hex}, nil
}

// Call executes a digest operation.
func (m *DigestModule) Call(tbl apis.Table, op tag.Op, args ...any) bool {
	v, ok := tbl.Lookup(m.ID())
	if !ok {
		return false
	}
	d, ok := v.(*digest)
	if !ok {
		return false
	}

	switch op {
	case OpName:
		out, ok := apis.Arg[*string](args, 0)
		if !ok || out == nil {
			return false
		}
		*out = d.hex
		return true
	case OpDigest:
		out, ok := apis.Arg[*uint64](args, 0)
		if !ok || out == nil {
			return false
		}
		*out = d.sum
		return true
	default:
		return false
	}
}
