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

// Package reflect holds the type normalization helpers shared by the naming
// strategies and the alias table.
package reflect

import (
	"errors"
	"reflect"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/config"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("mtx(reflect): nil reflect.Type provided")
	// ErrReflectTypeNotNamed indicates that the provided type (after unwrapping containers)
	// does not contain a named type (e.g., anonymous struct, func, interface{}).
	ErrReflectTypeNotNamed = errors.New("mtx(reflect): type has no named inner type")
)

// Normalize unwraps containers according to config (MaxUnwrap/MapPreferElem)
// and returns the nearest named inner type, or an error if none is found.
//
// Unwrapping policy:
//   - ptr/slice/array/chan  -> Elem()
//   - map[K]V: the preferred side (V if MapPreferElem, otherwise K) wins if
//     named, then the other side; if neither is named, continue with V.
//   - default: if t.Name() != "", return t; otherwise ErrReflectTypeNotNamed.
//
// If MaxUnwrap <= 0, DefaultMaxUnwrap is used.
func Normalize(t reflect.Type, cfg apis.Config) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	maxUnwrap := cfg.MaxUnwrap
	if maxUnwrap <= 0 {
		maxUnwrap = config.DefaultMaxUnwrap
	}

	for i := 0; t != nil && i < maxUnwrap; i++ {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
			t = t.Elem()

		case reflect.Map:
			first, second := t.Key(), t.Elem()
			if cfg.MapPreferElem {
				first, second = second, first
			}
			if named(first) {
				return first, nil
			}
			if named(second) {
				return second, nil
			}
			t = t.Elem()

		default:
			if named(t) {
				return t, nil
			}
			return nil, ErrReflectTypeNotNamed
		}
	}

	// Depth exhausted: only a named type is an answer.
	if named(t) {
		return t, nil
	}
	return nil, ErrReflectTypeNotNamed
}

func named(t reflect.Type) bool { return t != nil && t.Name() != "" }
