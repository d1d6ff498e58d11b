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

package chain_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dirpx.dev/mtx/chain"
	"dirpx.dev/mtx/tag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// accepting returns a descriptor accepting exactly e; calls bump *hits.
func accepting(e tag.Ext, hits *int) *chain.Descriptor {
	return &chain.Descriptor{
		Accepts: func(x tag.Ext) bool { return x == e },
		Call: func(tag.Tag, ...any) bool {
			if hits != nil {
				*hits++
			}
			return true
		},
	}
}

func TestAppend_Invalid(t *testing.T) {
	c := chain.New()
	require.ErrorIs(t, c.Append(nil), chain.ErrInvalidDescriptor)
	require.ErrorIs(t, c.Append(&chain.Descriptor{}), chain.ErrInvalidDescriptor)
	require.Zero(t, c.Len())
}

func TestAppend_Twice(t *testing.T) {
	c := chain.New()
	d := accepting(tag.Name, nil)
	require.NoError(t, c.Append(d))
	require.ErrorIs(t, c.Append(d), chain.ErrLinked)

	other := chain.New()
	require.ErrorIs(t, other.Append(d), chain.ErrLinked)
	require.Equal(t, 1, c.Len())
	require.Zero(t, other.Len())
}

func TestAppend_PushesOnHead(t *testing.T) {
	c := chain.New()
	d1 := accepting(tag.Allocation, nil)
	d2 := accepting(tag.Stream, nil)
	require.NoError(t, c.Append(d1))
	require.NoError(t, c.Append(d2))

	require.Same(t, d2, c.Head())
	require.Same(t, d1, c.Head().Next())
	require.Nil(t, d1.Next())
}

func TestCallIfAccepted(t *testing.T) {
	c := chain.New()
	var allocHits, nameHits int
	require.NoError(t, c.Append(accepting(tag.Allocation, &allocHits)))
	require.NoError(t, c.Append(accepting(tag.Name, &nameHits)))

	require.True(t, c.CallIfAccepted(tag.Make(tag.Name, 1)))
	require.True(t, c.CallIfAccepted(tag.Make(tag.Allocation, 7)))
	require.False(t, c.CallIfAccepted(tag.Make(tag.Stream, 1)))

	require.Equal(t, 1, allocHits)
	require.Equal(t, 1, nameHits)
	require.True(t, c.Accepts(tag.Name))
	require.False(t, c.Accepts(tag.Digest))
}

func TestCallIfAccepted_FirstAcceptingWins(t *testing.T) {
	c := chain.New()
	var first, second int
	require.NoError(t, c.Append(accepting(tag.Name, &first)))
	require.NoError(t, c.Append(accepting(tag.Name, &second)))

	require.True(t, c.CallIfAccepted(tag.Make(tag.Name, 1)))
	// The head is the most recent append in a single-threaded run.
	require.Zero(t, first)
	require.Equal(t, 1, second)
}

func TestCallIfAccepted_PassesFullTagAndArgs(t *testing.T) {
	c := chain.New()
	want := tag.Make(tag.Stream, 42)
	var gotTag tag.Tag
	var gotArgs []any
	require.NoError(t, c.Append(&chain.Descriptor{
		Accepts: func(e tag.Ext) bool { return e == tag.Stream },
		Call: func(t tag.Tag, args ...any) bool {
			gotTag, gotArgs = t, args
			return false
		},
	}))

	require.False(t, c.CallIfAccepted(want, "a", 1))
	require.Equal(t, want, gotTag)
	require.Equal(t, []any{"a", 1}, gotArgs)
}

func TestZeroValueChain(t *testing.T) {
	var c chain.Chain
	require.False(t, c.CallIfAccepted(tag.Make(tag.Name, 1)))
	require.NoError(t, c.Append(accepting(tag.Name, nil)))
	require.Equal(t, 1, c.Len())
}

// TestConcurrentAppend checks that K concurrent appends produce a chain of
// length K in which every descriptor is reachable.
func TestConcurrentAppend(t *testing.T) {
	for _, opts := range [][]chain.Option{
		nil,
		{chain.WithSpinLimit(0), chain.WithMaxBackoff(10 * time.Microsecond)},
	} {
		c := chain.New(opts...)
		workers := runtime.GOMAXPROCS(0) * 16

		descs := make([]*chain.Descriptor, workers)
		for i := range descs {
			descs[i] = accepting(tag.Ext(1+i%(tag.Slots-1)), nil)
		}

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(d *chain.Descriptor) {
				defer wg.Done()
				<-start
				if err := c.Append(d); err != nil {
					t.Errorf("Append: %v", err)
				}
			}(descs[i])
		}
		close(start)
		wg.Wait()

		require.Equal(t, workers, c.Len())

		seen := make(map[*chain.Descriptor]bool, workers)
		c.Walk(func(d *chain.Descriptor) bool {
			seen[d] = true
			return true
		})
		require.Len(t, seen, workers)
		for _, d := range descs {
			require.True(t, seen[d], "descriptor unreachable")
		}
	}
}

func TestWalk_Stops(t *testing.T) {
	c := chain.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Append(accepting(tag.Name, nil)))
	}
	n := 0
	c.Walk(func(*chain.Descriptor) bool {
		n++
		return n < 2
	})
	require.Equal(t, 2, n)
}

func TestOptions_Reset(t *testing.T) {
	// Negative/zero values fall back to defaults and must not break Append.
	c := chain.New(chain.WithSpinLimit(-1), chain.WithMaxBackoff(0))
	require.NoError(t, c.Append(accepting(tag.Name, nil)))
	require.Zero(t, c.Retries())
}
