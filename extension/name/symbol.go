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
	"reflect"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/config"
	"dirpx.dev/mtx/registrar"
	"dirpx.dev/mtx/resolver"
	"dirpx.dev/mtx/strategy"
	"dirpx.dev/mtx/tag"
)

// Symbol is the strategy-chain naming module.
var Symbol = NewSymbol(NewAliases(config.DefaultConfig()))

// SymbolModule implements apis.Extension for symbolic names.
type SymbolModule struct {
	apis.NopHooks

	aliases *Aliases
	res     apis.Resolver
	self    registrar.SelfID
}

var _ apis.Extension = (*SymbolModule)(nil)

// NewSymbol creates a symbol module consulting aliases. All modules share
// one identifier, so an identifier table holds at most one of them.
func NewSymbol(aliases *Aliases) *SymbolModule {
	return &SymbolModule{
		aliases: aliases,
		res: resolver.New(
			strategy.NewNamerStrategy(),
			strategy.NewAliasStrategy(aliases),
			strategy.NewReflectStrategy(),
		),
	}
}

// symbol is the per-type state. Names are resolved on each call so that
// aliases and configuration changes made after registration apply.
type symbol struct {
	typ reflect.Type
}

// ID returns the module's identifier.
func (m *SymbolModule) ID() apis.TypeID { return m.self.Of(m) }

// Tag returns tag.Name.
func (m *SymbolModule) Tag() tag.Ext { return tag.Name }

// Accepts reports whether e is tag.Name.
func (m *SymbolModule) Accepts(e tag.Ext) bool { return e == tag.Name }

// New prepares naming for t.
func (m *SymbolModule) New(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return &symbol{typ: t}, nil
}

// Call executes a naming operation.
func (m *SymbolModule) Call(tbl apis.Table, op tag.Op, args ...any) bool {
	v, ok := tbl.Lookup(m.ID())
	if !ok {
		return false
	}
	s, ok := v.(*symbol)
	if !ok || op != OpName {
		return false
	}
	out, ok := apis.Arg[*string](args, 0)
	if !ok || out == nil {
		return false
	}
	*out = m.resolve(s.typ)
	return true
}

// resolve names t with the process-wide naming configuration.
func (m *SymbolModule) resolve(t reflect.Type) string {
	if n := m.res.ResolveType(t, registrar.Default().Config()); n != "" {
		return n
	}
	return t.String()
}
