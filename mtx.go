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

package mtx

import (
	"reflect"

	"go.uber.org/zap"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/extension/allocation"
	"dirpx.dev/mtx/extension/name"
	"dirpx.dev/mtx/extension/stream"
	"dirpx.dev/mtx/registrar"
	"dirpx.dev/mtx/tag"
)

// DefaultSet returns the extensions used when TypeOf or TypeFor is called
// without any.
func DefaultSet() []apis.Extension {
	return []apis.Extension{allocation.Extension, stream.Extension, name.Symbol}
}

// TypeOf returns the canonical identifier of T, making sure it services the
// tags of exts (DefaultSet if none are given).
//
// A non-nil error reports extensions that could not be attached; the
// identifier is still valid in that case.
func TypeOf[T any](exts ...apis.Extension) (apis.TypeID, error) {
	return TypeFor(reflect.TypeFor[T](), exts...)
}

// TypeFor is TypeOf for a reflect.Type.
func TypeFor(t reflect.Type, exts ...apis.Extension) (apis.TypeID, error) {
	if len(exts) == 0 {
		exts = DefaultSet()
	}
	return registrar.Default().Register(t, exts...)
}

// Lookup returns T's identifier if it was registered, without registering it.
func Lookup[T any]() (apis.TypeID, bool) {
	return registrar.Default().Lookup(reflect.TypeFor[T]())
}

// Probe dispatches t on id and reports whether it was serviced. A false
// result is silent.
func Probe(id apis.TypeID, t tag.Tag, args ...any) bool {
	return id != nil && id.Call(t, args...)
}

// Invoke dispatches t on id like Probe, but counts a failure and logs it
// when Config().WarnOnMiss is set.
func Invoke(id apis.TypeID, t tag.Tag, args ...any) bool {
	return registrar.Default().Invoke(id, t, args...)
}

// Name returns the name of v's dynamic type, attaching name.Symbol to the
// type's identifier on first use. It returns "" for a nil v.
func Name(v any) string {
	if v == nil {
		return ""
	}
	return NameFor(reflect.TypeOf(v))
}

// NameFor returns the name of t, attaching name.Symbol to t's identifier on
// first use. An identifier that already answers the Name tag through another
// extension keeps answering with it.
func NameFor(t reflect.Type) string {
	if t == nil {
		return ""
	}
	id, err := registrar.Default().Register(t, name.Symbol)
	if err != nil && id == nil {
		return ""
	}
	n, _ := name.Of(id)
	return n
}

// Config returns the process-wide configuration.
func Config() apis.Config { return registrar.Default().Config() }

// SetConfig replaces the process-wide configuration.
func SetConfig(cfg apis.Config) { registrar.Default().SetConfig(cfg) }

// Logger returns the process-wide diagnostics logger.
func Logger() *zap.Logger { return registrar.Default().Logger() }

// SetLogger replaces the process-wide diagnostics logger. Nil disables
// logging.
func SetLogger(l *zap.Logger) { registrar.Default().SetLogger(l) }

// Stats returns the process-wide registrar counters.
func Stats() registrar.Stats { return registrar.Default().Stats() }
