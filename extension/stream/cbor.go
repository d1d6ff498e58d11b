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
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncOpts = cbor.EncOptions{
		Sort:        cbor.SortCanonical, // deterministic output
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8RejectInvalid,
	}

	// encMode and decMode are immutable and safe for concurrent use.
	encMode, _ = cborEncOpts.EncMode()
	decMode, _ = cborDecOpts.DecMode()
)

// cborCodec encodes values as CBOR. Framed values are prefixed with their
// length as a uvarint.
type cborCodec struct {
	typ reflect.Type
}

func (c cborCodec) marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mtx(stream): cbor marshal %v: %w", c.typ, err)
	}
	return b, nil
}

func (c cborCodec) unmarshal(data []byte, dst any) error {
	if err := decMode.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("mtx(stream): cbor unmarshal %v: %w", c.typ, err)
	}
	return nil
}

func (c cborCodec) write(w io.Writer, v any) error {
	b, err := c.marshal(v)
	if err != nil {
		return err
	}
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(b)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (c cborCodec) read(r io.Reader, dst any) error {
	br := byteReader(r)
	size, err := binary.ReadUvarint(br)
	if err != nil {
		return err
	}
	if size > MaxFrame {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(br, b); err != nil {
		return err
	}
	return c.unmarshal(b, dst)
}

// byteReader returns r itself when it reads bytes. Otherwise it reads the
// frame header one byte at a time so nothing past the frame is consumed.
func byteReader(r io.Reader) interface {
	io.Reader
	io.ByteReader
} {
	if br, ok := r.(interface {
		io.Reader
		io.ByteReader
	}); ok {
		return br
	}
	return &unbufferedReader{Reader: r}
}

type unbufferedReader struct {
	io.Reader
	b [1]byte
}

func (u *unbufferedReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(u.Reader, u.b[:]); err != nil {
		return 0, err
	}
	return u.b[0], nil
}
