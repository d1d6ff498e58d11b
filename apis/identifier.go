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
	"fmt"
	"reflect"

	"dirpx.dev/mtx/tag"
)

// State is the lifecycle position of a type identifier.
type State uint32

const (
	// Unpublished identifiers are candidates still owned by one registrar call.
	Unpublished State = iota
	// Published identifiers are canonical for their type.
	Published
	// Extended identifiers are published and have at least one chain entry.
	Extended
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unpublished:
		return "unpublished"
	case Published:
		return "published"
	case Extended:
		return "extended"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// TypeID is the canonical, process-lifetime handle of a registered type.
//
// Identifiers are compared by identity: two TypeID values denote the same
// type if and only if they are ==.
type TypeID interface {
	fmt.Stringer

	// Type returns the Go type the identifier stands for.
	Type() reflect.Type

	// Call routes an encoded (extension, operation) tag to the extension
	// servicing it, first through the known-extensions table, then through
	// the extension chain. It returns false when no extension can service
	// the tag or the operation fails.
	Call(t tag.Tag, args ...any) bool

	// Accepts reports whether an extension tag can currently be serviced.
	Accepts(e tag.Ext) bool

	// Extensions returns the identifier's known-extensions table.
	Extensions() Table

	// State returns the lifecycle state.
	State() State
}
