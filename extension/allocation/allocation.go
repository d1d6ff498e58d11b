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

// Package allocation is the capability extension that creates, copies and
// resets values of a registered type without knowing it statically.
//
// Operations and their arguments:
//
//	OpConstruct  (*any)            stores a new *T holding the zero value
//	OpCopy       (*any, src)       stores a new *T holding a copy of src (T or *T)
//	OpDestroy    (*T)              resets *T to the zero value
//	OpSize       (*uintptr)        stores the size of T in bytes
//
// Copies are shallow, as with Go assignment.
package allocation

import (
	"errors"
	"reflect"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/registrar"
	"dirpx.dev/mtx/tag"
)

// Operation ids.
const (
	OpConstruct tag.Op = 1 + iota
	OpCopy
	OpDestroy
	OpSize
)

// Encoded tags.
var (
	TagConstruct = tag.Make(tag.Allocation, OpConstruct)
	TagCopy      = tag.Make(tag.Allocation, OpCopy)
	TagDestroy   = tag.Make(tag.Allocation, OpDestroy)
	TagSize      = tag.Make(tag.Allocation, OpSize)
)

// ErrNilType is returned when an instance is requested for a nil type.
var ErrNilType = errors.New("mtx(allocation): nil reflect.Type provided")

// Extension is the allocation module.
var Extension = &Module{}

// Module implements apis.Extension for allocation.
type Module struct {
	apis.NopHooks

	self registrar.SelfID
}

var _ apis.Extension = (*Module)(nil)

// instance is the per-type state.
type instance struct {
	typ reflect.Type
	ptr reflect.Type
}

// ID returns the module's identifier.
func (m *Module) ID() apis.TypeID { return m.self.Of(m) }

// Tag returns tag.Allocation.
func (m *Module) Tag() tag.Ext { return tag.Allocation }

// Accepts reports whether e is tag.Allocation.
func (m *Module) Accepts(e tag.Ext) bool { return e == tag.Allocation }

// New prepares allocation for t. Every Go type has a zero value, so only a
// nil type is rejected.
func (m *Module) New(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return &instance{typ: t, ptr: reflect.PointerTo(t)}, nil
}

// Call executes an allocation operation.
func (m *Module) Call(tbl apis.Table, op tag.Op, args ...any) bool {
	v, ok := tbl.Lookup(m.ID())
	if !ok {
		return false
	}
	in, ok := v.(*instance)
	if !ok {
		return false
	}

	switch op {
	case OpConstruct:
		out, ok := apis.Arg[*any](args, 0)
		if !ok || out == nil {
			return false
		}
		*out = reflect.New(in.typ).Interface()
		return true

	case OpCopy:
		out, ok := apis.Arg[*any](args, 0)
		if !ok || out == nil || len(args) < 2 {
			return false
		}
		src, ok := in.value(args[1])
		if !ok {
			return false
		}
		dst := reflect.New(in.typ)
		dst.Elem().Set(src)
		*out = dst.Interface()
		return true

	case OpDestroy:
		if len(args) < 1 || args[0] == nil {
			return false
		}
		p := reflect.ValueOf(args[0])
		if p.Type() != in.ptr || p.IsNil() {
			return false
		}
		p.Elem().SetZero()
		return true

	case OpSize:
		out, ok := apis.Arg[*uintptr](args, 0)
		if !ok || out == nil {
			return false
		}
		*out = in.typ.Size()
		return true

	default:
		return false
	}
}

// value returns src as a T, dereferencing a non-nil *T.
func (in *instance) value(src any) (reflect.Value, bool) {
	if src == nil {
		// A nil interface is the zero value of an interface type.
		if in.typ.Kind() == reflect.Interface {
			return reflect.Zero(in.typ), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(src)
	switch {
	case v.Type() == in.ptr:
		if v.IsNil() {
			return reflect.Value{}, false
		}
		return v.Elem(), true
	case v.Type().AssignableTo(in.typ):
		return v, true
	default:
		return reflect.Value{}, false
	}
}

// New returns a new zero *T through id.
func New[T any](id apis.TypeID) (*T, bool) {
	var out any
	if id == nil || !id.Call(TagConstruct, &out) {
		return nil, false
	}
	p, ok := out.(*T)
	return p, ok
}

// Copy returns a new *T holding a copy of *src through id.
func Copy[T any](id apis.TypeID, src *T) (*T, bool) {
	var out any
	if id == nil || src == nil || !id.Call(TagCopy, &out, src) {
		return nil, false
	}
	p, ok := out.(*T)
	return p, ok
}

// Destroy resets *p to the zero value through id.
func Destroy[T any](id apis.TypeID, p *T) bool {
	return id != nil && p != nil && id.Call(TagDestroy, p)
}

// Size returns the size in bytes of id's type.
func Size(id apis.TypeID) (uintptr, bool) {
	var n uintptr
	if id == nil || !id.Call(TagSize, &n) {
		return 0, false
	}
	return n, true
}
