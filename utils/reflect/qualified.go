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

package reflect

import (
	"reflect"
	"strconv"
	"strings"
)

// Qualified returns a spelling of t that uses full import paths for every
// named type it mentions, e.g. "map[string]*example.com/app/model.User".
//
// Unlike reflect.Type.String, which only keeps the last path element,
// two distinct types of one build never share a qualified spelling, with
// the exception of distinct types declared inside function bodies under
// the same name.
func Qualified(t reflect.Type) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	qualify(&b, t)
	return b.String()
}

func qualify(b *strings.Builder, t reflect.Type) {
	if t.Name() != "" {
		if p := t.PkgPath(); p != "" {
			b.WriteString(p)
			b.WriteByte('.')
		}
		b.WriteString(t.Name())
		return
	}
	switch t.Kind() {
	case reflect.Pointer:
		b.WriteByte('*')
		qualify(b, t.Elem())
	case reflect.Slice:
		b.WriteString("[]")
		qualify(b, t.Elem())
	case reflect.Array:
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(t.Len()))
		b.WriteByte(']')
		qualify(b, t.Elem())
	case reflect.Map:
		b.WriteString("map[")
		qualify(b, t.Key())
		b.WriteByte(']')
		qualify(b, t.Elem())
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			b.WriteString("<-chan ")
		case reflect.SendDir:
			b.WriteString("chan<- ")
		default:
			b.WriteString("chan ")
		}
		qualify(b, t.Elem())
	case reflect.Struct:
		qualifyStruct(b, t)
	case reflect.Func:
		b.WriteString("func")
		qualifySignature(b, t)
	case reflect.Interface:
		qualifyInterface(b, t)
	default:
		b.WriteString(t.String())
	}
}

// qualifyStruct spells an unnamed struct. Unexported field names carry their
// package path since they make otherwise identical structs distinct.
func qualifyStruct(b *strings.Builder, t reflect.Type) {
	if t.NumField() == 0 {
		b.WriteString("struct {}")
		return
	}
	b.WriteString("struct { ")
	for i := 0; i < t.NumField(); i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		f := t.Field(i)
		if !f.Anonymous {
			member(b, f.PkgPath, f.Name)
			b.WriteByte(' ')
		}
		qualify(b, f.Type)
		if f.Tag != "" {
			b.WriteByte(' ')
			b.WriteString(strconv.Quote(string(f.Tag)))
		}
	}
	b.WriteString(" }")
}

// qualifySignature spells the parameter and result lists of a func type.
func qualifySignature(b *strings.Builder, t reflect.Type) {
	b.WriteByte('(')
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if t.IsVariadic() && i == t.NumIn()-1 {
			b.WriteString("...")
			qualify(b, t.In(i).Elem())
			continue
		}
		qualify(b, t.In(i))
	}
	b.WriteByte(')')

	switch t.NumOut() {
	case 0:
	case 1:
		b.WriteByte(' ')
		qualify(b, t.Out(0))
	default:
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			qualify(b, t.Out(i))
		}
		b.WriteByte(')')
	}
}

// qualifyInterface spells an unnamed interface by its method set.
func qualifyInterface(b *strings.Builder, t reflect.Type) {
	if t.NumMethod() == 0 {
		b.WriteString("interface {}")
		return
	}
	b.WriteString("interface { ")
	for i := 0; i < t.NumMethod(); i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		m := t.Method(i)
		member(b, m.PkgPath, m.Name)
		qualifySignature(b, m.Type)
	}
	b.WriteString(" }")
}

func member(b *strings.Builder, pkgPath, name string) {
	if pkgPath != "" {
		b.WriteString(pkgPath)
		b.WriteByte('.')
	}
	b.WriteString(name)
}
