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

// Package identifier implements the canonical type identifier: a handle for
// one Go type carrying a fixed-size known-extensions table and an extension
// chain.
//
// The table is filled by a single writer while the identifier is
// unpublished and is read-only afterwards. Capabilities added after
// publication go through the chain, reached with the Control/Register tag.
package identifier

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/atomic"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/chain"
	"dirpx.dev/mtx/tag"
)

var (
	// ErrNilExtension is returned when inserting a nil extension.
	ErrNilExtension = errors.New("mtx(identifier): nil extension")
	// ErrPublished is returned when inserting into a published identifier.
	ErrPublished = errors.New("mtx(identifier): identifier already published")
	// ErrReservedTag is returned for extensions claiming the Control tag.
	ErrReservedTag = errors.New("mtx(identifier): extension tag reserved for control operations")
	// ErrTagOutOfRange is returned for extensions claiming a tag beyond the table.
	ErrTagOutOfRange = errors.New("mtx(identifier): extension tag out of range")
	// ErrSlotTaken is returned when two extensions claim the same slot.
	ErrSlotTaken = errors.New("mtx(identifier): extension slot already occupied")
)

// seq assigns type indexes in creation order.
var seq atomic.Uint64

// ID is the concrete apis.TypeID.
type ID struct {
	typ   reflect.Type
	seq   uint64
	table Table
	chain *chain.Chain
	state atomic.Uint32
}

var _ apis.TypeID = (*ID)(nil)

// Option configures a new ID.
type Option func(*ID)

// WithChainOptions configures the identifier's extension chain.
func WithChainOptions(opts ...chain.Option) Option {
	return func(id *ID) {
		id.chain = chain.New(opts...)
	}
}

// New creates an unpublished identifier for t with an empty table.
func New(t reflect.Type, opts ...Option) *ID {
	id := &ID{typ: t, seq: seq.Inc()}
	for _, opt := range opts {
		opt(id)
	}
	if id.chain == nil {
		id.chain = chain.New()
	}
	return id
}

// Type returns the identified type.
func (id *ID) Type() reflect.Type { return id.typ }

// Seq returns the identifier's type index. Indexes are unique and increase
// in creation order; they are not stable across processes.
func (id *ID) Seq() uint64 { return id.seq }

// State returns the lifecycle state.
func (id *ID) State() apis.State { return apis.State(id.state.Load()) }

// Extensions returns the known-extensions table.
func (id *ID) Extensions() apis.Table { return &id.table }

// Chain returns the extension chain.
func (id *ID) Chain() *chain.Chain { return id.chain }

// String returns "type#seq".
func (id *ID) String() string {
	if id == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v#%d", id.typ, id.seq)
}

// Insert stores inst for ext in the slot named by ext.Tag().
// Only valid before publication, from the goroutine that created id.
func (id *ID) Insert(ext apis.Extension, inst any) error {
	if ext == nil {
		return ErrNilExtension
	}
	if id.State() != apis.Unpublished {
		return ErrPublished
	}
	e := ext.Tag()
	switch {
	case e == tag.Control:
		return ErrReservedTag
	case int(e) >= tag.Slots:
		return ErrTagOutOfRange
	case id.table.slots[e] != nil:
		return fmt.Errorf("%w: tag %d", ErrSlotTaken, e)
	}
	id.table.slots[e] = &slot{ext: ext, id: ext.ID(), inst: inst}
	id.table.n++
	return nil
}

// Publish moves id from Unpublished to Published. It reports whether this
// call performed the transition.
func (id *ID) Publish() bool {
	return id.state.CompareAndSwap(uint32(apis.Unpublished), uint32(apis.Published))
}

// Call dispatches t: Control tags are handled by the identifier, other tags
// go to the first accepting table slot, then to the chain.
func (id *ID) Call(t tag.Tag, args ...any) bool {
	e, op := t.Split()
	if e == tag.Control {
		return id.control(op, args)
	}
	if ok, accepted := id.table.dispatch(t, args); accepted {
		return ok
	}
	return id.chain.CallIfAccepted(t, args...)
}

// Accepts reports whether e is serviceable through the table or the chain.
func (id *ID) Accepts(e tag.Ext) bool {
	return id.table.accepts(e) || id.chain.Accepts(e)
}

// Descriptor wraps the identifier's table dispatch into a chain descriptor,
// so a losing candidate can lend its extensions to the canonical identifier.
func (id *ID) Descriptor() *chain.Descriptor {
	tbl := &id.table
	return &chain.Descriptor{
		Accepts: tbl.accepts,
		Call: func(t tag.Tag, args ...any) bool {
			ok, _ := tbl.dispatch(t, args)
			return ok
		},
	}
}

func (id *ID) control(op tag.Op, args []any) bool {
	switch op {
	case tag.RegisterExtension:
		d, ok := apis.Arg[*chain.Descriptor](args, 0)
		if !ok || id.State() == apis.Unpublished {
			return false
		}
		if err := id.chain.Append(d); err != nil {
			return false
		}
		id.state.CompareAndSwap(uint32(apis.Published), uint32(apis.Extended))
		return true
	default:
		return false
	}
}
