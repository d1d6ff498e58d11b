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

package apis

import (
	"reflect"

	"dirpx.dev/mtx/tag"
)

// Extension is a capability module that can be attached to type identifiers.
//
// An extension is itself a registrable type: ID returns the identifier of the
// module's own Go type, registered against the minimal extension set so that
// bootstrapping never recurses more than once.
type Extension interface {
	// ID returns the module's own identifier. It keys the module's entry in
	// every known-extensions table.
	ID() TypeID

	// Tag returns the table slot the module occupies.
	Tag() tag.Ext

	// Accepts reports whether the module services extension tag e.
	Accepts(e tag.Ext) bool

	// New builds the per-type extension instance for t.
	New(t reflect.Type) (any, error)

	// Call executes op against the module's instance stored in tbl.
	// It returns false if the instance is missing or op is unknown.
	Call(tbl Table, op tag.Op, args ...any) bool

	// PreRegister runs before an identifier for t is obtained.
	PreRegister(t reflect.Type)

	// PostRegister runs with the canonical identifier for t.
	PostRegister(t reflect.Type, id TypeID)
}

// Table is a read-only view of an identifier's known-extensions table.
type Table interface {
	// Lookup returns the instance stored for the extension identified by ext.
	Lookup(ext TypeID) (instance any, ok bool)

	// Slot returns the extension and instance stored under tag e.
	Slot(e tag.Ext) (ext Extension, instance any, ok bool)

	// Len returns the number of occupied slots.
	Len() int
}

// NopHooks provides no-op PreRegister and PostRegister methods for embedding.
type NopHooks struct{}

// PreRegister does nothing.
func (NopHooks) PreRegister(reflect.Type) {}

// PostRegister does nothing.
func (NopHooks) PostRegister(reflect.Type, TypeID) {}

// Arg returns args[i] as T.
func Arg[T any](args []any, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}
