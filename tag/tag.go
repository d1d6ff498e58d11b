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

// Package tag packs an (extension tag, operation id) pair into the single
// integer routed through a type identifier's Call.
//
// The low Bits bits of a Tag select the extension, the remaining bits carry
// the operation id. The number of extension slots of an identifier's
// known-extensions table is Slots, derived from the same Bits constant, so the
// mask and the table can never disagree.
package tag

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/atomic"
)

const (
	// Bits is the number of low bits of a Tag reserved for the extension tag.
	Bits = 3
	// Slots is the number of extension tags addressable with Bits bits.
	// Identifier tables are declared with exactly this many slots.
	Slots = 1 << Bits
	// Mask selects the extension part of a Tag.
	Mask Tag = Slots - 1
	// MaxOp is the largest operation id that can be encoded.
	MaxOp Op = math.MaxUint64 >> Bits
)

// Ext is the extension part of a Tag.
type Ext uint8

// Op is the operation part of a Tag.
type Op uint64

// Tag is an encoded (extension, operation) pair.
type Tag uint64

// Built-in extension tags.
const (
	// Control is reserved for operations handled by the identifier itself.
	Control Ext = iota
	// Allocation is the tag of the construct/copy/destroy extension.
	Allocation
	// Stream is the tag of the serialization extension.
	Stream
	// Name is the tag of the name resolution extensions.
	Name
	// Digest is the tag of the hash-based naming extension.
	Digest

	firstCustom
)

// Compile-time checks: Slots must fit in Ext, and the built-in tags must fit
// in the slot space.
const (
	_ = Ext(Slots - 1)
	_ = uint(Slots - firstCustom)
)

// RegisterExtension is the Control operation that appends an extension
// descriptor to an identifier's chain.
const RegisterExtension Op = 0

// Register is the encoded Control/RegisterExtension tag.
const Register = Tag(RegisterExtension)<<Bits | Tag(Control)

var (
	// ErrExtOutOfRange is returned when an extension tag does not fit in Bits.
	ErrExtOutOfRange = errors.New("mtx(tag): extension tag out of range")
	// ErrOpOutOfRange is returned when an operation id exceeds MaxOp.
	ErrOpOutOfRange = errors.New("mtx(tag): operation id out of range")
	// ErrExhausted is returned by Reserve when every extension tag is taken.
	ErrExhausted = errors.New("mtx(tag): extension tags exhausted")
)

// next is the next extension tag handed out by Reserve.
var next = atomic.NewUint32(uint32(firstCustom))

// Reserve claims a free extension tag for a custom extension module.
// Tags are process-wide and are never released.
func Reserve() (Ext, error) {
	for {
		cur := next.Load()
		if cur >= Slots {
			return 0, ErrExhausted
		}
		if next.CompareAndSwap(cur, cur+1) {
			return Ext(cur), nil
		}
	}
}

// Encode packs e and op into a Tag.
func Encode(e Ext, op Op) (Tag, error) {
	if e >= Slots {
		return 0, ErrExtOutOfRange
	}
	if op > MaxOp {
		return 0, ErrOpOutOfRange
	}
	return Tag(op)<<Bits | Tag(e), nil
}

// Make is like Encode but panics on invalid input.
// Meant for package-level tag constants of extension modules.
func Make(e Ext, op Op) Tag {
	t, err := Encode(e, op)
	if err != nil {
		panic(err)
	}
	return t
}

// Ext returns the extension part of t.
func (t Tag) Ext() Ext { return Ext(t & Mask) }

// Op returns the operation part of t.
func (t Tag) Op() Op { return Op(t >> Bits) }

// Split decodes t into its extension and operation parts.
func (t Tag) Split() (Ext, Op) { return t.Ext(), t.Op() }

// String returns "ext/op".
func (t Tag) String() string {
	return fmt.Sprintf("%d/%d", t.Ext(), t.Op())
}
