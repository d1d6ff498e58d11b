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

package identifier

import (
	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/tag"
)

// slot is one known-extensions table entry.
type slot struct {
	ext  apis.Extension
	id   apis.TypeID
	inst any
}

// Table is the known-extensions table. It has exactly tag.Slots slots,
// indexed by extension tag; slot 0 (tag.Control) is never used.
type Table struct {
	slots [tag.Slots]*slot
	n     int
}

var _ apis.Table = (*Table)(nil)

// Lookup returns the instance stored for the extension identified by ext.
func (t *Table) Lookup(ext apis.TypeID) (any, bool) {
	if ext == nil {
		return nil, false
	}
	for _, s := range t.slots {
		if s != nil && s.id == ext {
			return s.inst, true
		}
	}
	return nil, false
}

// Slot returns the extension and instance stored under e.
func (t *Table) Slot(e tag.Ext) (apis.Extension, any, bool) {
	if int(e) >= tag.Slots || t.slots[e] == nil {
		return nil, nil, false
	}
	s := t.slots[e]
	return s.ext, s.inst, true
}

// Len returns the number of occupied slots.
func (t *Table) Len() int { return t.n }

func (t *Table) accepts(e tag.Ext) bool {
	for _, s := range t.slots {
		if s != nil && s.ext.Accepts(e) {
			return true
		}
	}
	return false
}

// dispatch hands tg to the first slot, in tag order, accepting its
// extension tag. accepted is false when no slot takes it.
func (t *Table) dispatch(tg tag.Tag, args []any) (ok, accepted bool) {
	e, op := tg.Split()
	for _, s := range t.slots {
		if s != nil && s.ext.Accepts(e) {
			return s.ext.Call(t, op, args...), true
		}
	}
	return false, false
}
