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

// Package name holds the capability extensions that give a registered type a
// human-readable name.
//
// Symbol resolves names through a strategy chain: the type's own
// apis.Namer implementation, then an explicit alias, then "pkg.Type" by
// reflection, then reflect.Type.String. Digest names a type by the xxh3 hash
// of its fully qualified spelling and also services the Name tag, so an
// identifier carrying only Digest still answers name queries. When both are
// attached the first accepting extension, Symbol, answers.
//
// Operations and their arguments:
//
//	OpName    (*string)   under tag.Name or tag.Digest
//	OpDigest  (*uint64)   under tag.Digest only
package name

import (
	"reflect"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/tag"
)

// Operation ids.
const (
	OpName tag.Op = 1 + iota
	OpDigest
)

// Encoded tags.
var (
	TagName       = tag.Make(tag.Name, OpName)
	TagDigestName = tag.Make(tag.Digest, OpName)
	TagDigest     = tag.Make(tag.Digest, OpDigest)
)

// Of returns the name of id's type as serviced by the Name tag.
func Of(id apis.TypeID) (string, bool) {
	return call[string](id, TagName)
}

// DigestOf returns the xxh3 digest of id's type.
func DigestOf(id apis.TypeID) (uint64, bool) {
	return call[uint64](id, TagDigest)
}

// Alias assigns an explicit name to t's nearest named type in the table
// consulted by Symbol.
func Alias(t reflect.Type, name string) error {
	return Symbol.aliases.Register(t, name)
}

func call[T any](id apis.TypeID, tg tag.Tag) (T, bool) {
	var out T
	if id == nil || !id.Call(tg, &out) {
		var zero T
		return zero, false
	}
	return out, true
}
