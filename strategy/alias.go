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
	"reflect"

	"dirpx.dev/mtx/apis"
)

// NewAliasStrategy creates an apis.Strategy that consults a table of
// explicitly assigned names. A nil table never handles anything.
func NewAliasStrategy(aliases apis.Aliases) apis.Strategy {
	return &aliasStrategy{aliases: aliases}
}

// aliasStrategy is a reflection-free lookup in an alias table.
type aliasStrategy struct {
	aliases apis.Aliases
}

// Ensure aliasStrategy implements apis.Strategy.
var _ apis.Strategy = (*aliasStrategy)(nil)

// TryResolve looks up v's type.
func (s *aliasStrategy) TryResolve(v any, _ apis.Config) (string, bool) {
	if v == nil || s.aliases == nil {
		return "", false
	}
	return s.aliases.Lookup(reflect.TypeOf(v))
}

// TryResolveType looks up t.
func (s *aliasStrategy) TryResolveType(t reflect.Type, _ apis.Config) (string, bool) {
	if t == nil || s.aliases == nil {
		return "", false
	}
	return s.aliases.Lookup(t)
}
