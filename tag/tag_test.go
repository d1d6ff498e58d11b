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

package tag_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"dirpx.dev/mtx/tag"
)

func TestEncode_RoundTrip(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		e := tag.Ext(rapid.IntRange(0, tag.Slots-1).Draw(r, "ext"))
		op := tag.Op(rapid.Uint64Range(0, uint64(tag.MaxOp)).Draw(r, "op"))

		tg, err := tag.Encode(e, op)
		if err != nil {
			r.Fatalf("Encode(%d, %d): %v", e, op, err)
		}
		ge, gop := tg.Split()
		if ge != e || gop != op {
			r.Fatalf("Split() = (%d, %d), want (%d, %d)", ge, gop, e, op)
		}
	})
}

func TestEncode_Bounds(t *testing.T) {
	_, err := tag.Encode(tag.Slots, 0)
	require.ErrorIs(t, err, tag.ErrExtOutOfRange)

	_, err = tag.Encode(tag.Name, tag.MaxOp+1)
	require.ErrorIs(t, err, tag.ErrOpOutOfRange)

	tg, err := tag.Encode(tag.Slots-1, tag.MaxOp)
	require.NoError(t, err)
	require.Equal(t, tag.Ext(tag.Slots-1), tg.Ext())
	require.Equal(t, tag.MaxOp, tg.Op())
}

func TestMake_PanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() { tag.Make(tag.Slots, 1) })
	require.NotPanics(t, func() { tag.Make(tag.Allocation, 1) })
}

func TestMaskMatchesSlots(t *testing.T) {
	require.Equal(t, tag.Tag(tag.Slots-1), tag.Mask)
	require.Equal(t, 1<<tag.Bits, tag.Slots)
	// Every slot index survives the mask, the next one does not.
	for e := 0; e < tag.Slots; e++ {
		require.Equal(t, tag.Ext(e), tag.Tag(e).Ext())
	}
	require.Equal(t, tag.Control, tag.Tag(tag.Slots).Ext())
}

func TestRegisterIsControl(t *testing.T) {
	e, op := tag.Register.Split()
	require.Equal(t, tag.Control, e)
	require.Equal(t, tag.RegisterExtension, op)
}

func TestReserve_Exhausts(t *testing.T) {
	seen := map[tag.Ext]bool{
		tag.Control: true, tag.Allocation: true, tag.Stream: true,
		tag.Name: true, tag.Digest: true,
	}
	for {
		e, err := tag.Reserve()
		if err != nil {
			require.ErrorIs(t, err, tag.ErrExhausted)
			break
		}
		require.Less(t, int(e), tag.Slots)
		require.False(t, seen[e], "tag %d handed out twice", e)
		seen[e] = true
	}
	require.Len(t, seen, tag.Slots)
}

func TestString(t *testing.T) {
	require.Equal(t, "3/1", tag.Make(tag.Name, 1).String())
}
