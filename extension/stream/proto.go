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

package stream

import (
	"fmt"
	"io"
	"reflect"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
)

var protoMessage = reflect.TypeOf((*proto.Message)(nil)).Elem()

func isProto(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Implements(protoMessage)
}

// protoCodec encodes protobuf messages in their binary wire format. Framed
// values use protodelim's uvarint length prefix.
type protoCodec struct {
	typ reflect.Type
}

// message returns v as a proto.Message, dereferencing a **M.
func message(v any) (proto.Message, bool) {
	if m, ok := v.(proto.Message); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if rv.Elem().IsNil() {
			rv.Elem().Set(reflect.New(rv.Type().Elem().Elem()))
		}
		m, ok := rv.Elem().Interface().(proto.Message)
		return m, ok
	}
	return nil, false
}

func (c protoCodec) marshal(v any) ([]byte, error) {
	m, ok := message(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("mtx(stream): proto marshal %v: %w", c.typ, err)
	}
	return b, nil
}

func (c protoCodec) unmarshal(data []byte, dst any) error {
	m, ok := message(dst)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupported, dst)
	}
	if err := proto.Unmarshal(data, m); err != nil {
		return fmt.Errorf("mtx(stream): proto unmarshal %v: %w", c.typ, err)
	}
	return nil
}

func (c protoCodec) write(w io.Writer, v any) error {
	m, ok := message(v)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
	_, err := protodelim.MarshalOptions{MarshalOptions: proto.MarshalOptions{Deterministic: true}}.MarshalTo(w, m)
	return err
}

func (c protoCodec) read(r io.Reader, dst any) error {
	m, ok := message(dst)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupported, dst)
	}
	return protodelim.UnmarshalOptions{MaxSize: MaxFrame}.UnmarshalFrom(byteReader(r), m)
}
