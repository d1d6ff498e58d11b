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

// Package stream is the capability extension that serializes values of a
// registered type.
//
// The codec is chosen once per type: protobuf for types implementing
// proto.Message, deterministic CBOR for everything else. Write and Read frame
// each value so that several values can share one stream.
//
// Operations and their arguments (a trailing *error receives the failure
// cause and is optional):
//
//	OpMarshal    (src, *[]byte [, *error])
//	OpUnmarshal  ([]byte, dst [, *error])     dst is *T, or T for proto types
//	OpWrite      (io.Writer, src [, *error])
//	OpRead       (io.Reader, dst [, *error])
package stream

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/registrar"
	"dirpx.dev/mtx/tag"
)

// Operation ids.
const (
	OpMarshal tag.Op = 1 + iota
	OpUnmarshal
	OpWrite
	OpRead
)

// Encoded tags.
var (
	TagMarshal   = tag.Make(tag.Stream, OpMarshal)
	TagUnmarshal = tag.Make(tag.Stream, OpUnmarshal)
	TagWrite     = tag.Make(tag.Stream, OpWrite)
	TagRead      = tag.Make(tag.Stream, OpRead)
)

var (
	// ErrNilType is returned when an instance is requested for a nil type.
	ErrNilType = errors.New("mtx(stream): nil reflect.Type provided")
	// ErrUnsupported is returned for types that cannot be serialized.
	ErrUnsupported = errors.New("mtx(stream): type cannot be serialized")
	// ErrUnavailable is returned by the helpers when the identifier has no
	// stream extension or the arguments do not match its type.
	ErrUnavailable = errors.New("mtx(stream): operation unavailable")
	// ErrFrameTooLarge is returned when a framed value exceeds MaxFrame.
	ErrFrameTooLarge = errors.New("mtx(stream): frame too large")
)

// MaxFrame bounds the size of a single framed value read by OpRead.
const MaxFrame = 64 << 20

// Extension is the stream module.
var Extension = &Module{}

// Module implements apis.Extension for serialization.
type Module struct {
	apis.NopHooks

	self registrar.SelfID
}

var _ apis.Extension = (*Module)(nil)

// codec serializes values of one type.
type codec interface {
	marshal(v any) ([]byte, error)
	unmarshal(data []byte, dst any) error
	write(w io.Writer, v any) error
	read(r io.Reader, dst any) error
}

// instance is the per-type state.
type instance struct {
	typ   reflect.Type
	codec codec
}

// ID returns the module's identifier.
func (m *Module) ID() apis.TypeID { return m.self.Of(m) }

// Tag returns tag.Stream.
func (m *Module) Tag() tag.Ext { return tag.Stream }

// Accepts reports whether e is tag.Stream.
func (m *Module) Accepts(e tag.Ext) bool { return e == tag.Stream }

// New selects the codec for t.
func (m *Module) New(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if isProto(t) {
		return &instance{typ: t, codec: protoCodec{typ: t}}, nil
	}
	if reflect.PointerTo(t).Implements(protoMessage) {
		return nil, fmt.Errorf("%w: %v is a protobuf message value, register *%v", ErrUnsupported, t, t)
	}
	if err := serializable(t, 0); err != nil {
		return nil, err
	}
	return &instance{typ: t, codec: cborCodec{typ: t}}, nil
}

// Call executes a stream operation.
func (m *Module) Call(tbl apis.Table, op tag.Op, args ...any) bool {
	v, ok := tbl.Lookup(m.ID())
	if !ok {
		return false
	}
	in, ok := v.(*instance)
	if !ok {
		return false
	}

	var err error
	switch op {
	case OpMarshal:
		out, ok := apis.Arg[*[]byte](args, 1)
		if !ok || out == nil || len(args) < 1 || !in.holds(args[0]) {
			return false
		}
		var b []byte
		if b, err = in.codec.marshal(args[0]); err == nil {
			*out = b
		}
		report(args, 2, err)

	case OpUnmarshal:
		data, ok := apis.Arg[[]byte](args, 0)
		if !ok || len(args) < 2 || !in.target(args[1]) {
			return false
		}
		err = in.codec.unmarshal(data, args[1])
		report(args, 2, err)

	case OpWrite:
		w, ok := apis.Arg[io.Writer](args, 0)
		if !ok || w == nil || len(args) < 2 || !in.holds(args[1]) {
			return false
		}
		err = in.codec.write(w, args[1])
		report(args, 2, err)

	case OpRead:
		r, ok := apis.Arg[io.Reader](args, 0)
		if !ok || r == nil || len(args) < 2 || !in.target(args[1]) {
			return false
		}
		err = in.codec.read(r, args[1])
		report(args, 2, err)

	default:
		return false
	}
	return err == nil
}

// holds reports whether v is a T or a non-nil *T.
func (in *instance) holds(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == in.typ {
		return true
	}
	return rv.Type() == reflect.PointerTo(in.typ) && !rv.IsNil()
}

// target reports whether v can receive a decoded T.
func (in *instance) target(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if isProto(in.typ) && rv.Type() == in.typ {
		return !rv.IsNil()
	}
	return rv.Type() == reflect.PointerTo(in.typ) && !rv.IsNil()
}

// report stores err into an optional *error argument at index i.
func report(args []any, i int, err error) {
	if p, ok := apis.Arg[*error](args, i); ok && p != nil {
		*p = err
	}
}

// serializable rejects kinds no codec can represent.
func serializable(t reflect.Type, depth int) error {
	if depth > maxDepth {
		return nil
	}
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("%w: %v has kind %v", ErrUnsupported, t, t.Kind())
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return serializable(t.Elem(), depth+1)
	case reflect.Map:
		if err := serializable(t.Key(), depth+1); err != nil {
			return err
		}
		return serializable(t.Elem(), depth+1)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("cbor") == "-" {
				continue
			}
			if err := serializable(f.Type, depth+1); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// maxDepth stops the kind check on recursive types.
const maxDepth = 16

// Marshal serializes v through id.
func Marshal(id apis.TypeID, v any) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if id == nil || !id.Call(TagMarshal, v, &out, &err) {
		return nil, unavailable(err)
	}
	return out, nil
}

// Unmarshal decodes data into dst through id.
func Unmarshal(id apis.TypeID, data []byte, dst any) error {
	var err error
	if id == nil || !id.Call(TagUnmarshal, data, dst, &err) {
		return unavailable(err)
	}
	return nil
}

// Write writes one framed value to w through id.
func Write(id apis.TypeID, w io.Writer, v any) error {
	var err error
	if id == nil || !id.Call(TagWrite, w, v, &err) {
		return unavailable(err)
	}
	return nil
}

// Read reads one framed value from r into dst through id.
func Read(id apis.TypeID, r io.Reader, dst any) error {
	var err error
	if id == nil || !id.Call(TagRead, r, dst, &err) {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	if err != nil {
		return err
	}
	return ErrUnavailable
}
