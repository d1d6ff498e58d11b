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

package mtx_test

import (
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"dirpx.dev/mtx"
	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/config"
	"dirpx.dev/mtx/extension/allocation"
	"dirpx.dev/mtx/extension/name"
	"dirpx.dev/mtx/extension/stream"
	"dirpx.dev/mtx/registrar"
	"dirpx.dev/mtx/strategy"
	"dirpx.dev/mtx/tag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type Point struct{ X, Y int }

type Widget struct{ Label string }

type Order struct {
	ID    string `cbor:"id"`
	Items []int  `cbor:"items"`
}

type Racer struct{ N int }

type Account struct{}

func (Account) EntityName() string { return "bank.account" }

func TestPointDispatch(t *testing.T) {
	id, err := mtx.TypeOf[Point](allocation.Extension)
	require.NoError(t, err)

	p, ok := allocation.New[Point](id)
	require.True(t, ok)
	require.Equal(t, Point{}, *p)

	_, err = stream.Marshal(id, Point{X: 1})
	require.ErrorIs(t, err, stream.ErrUnavailable, "stream was never requested for Point")

	var out []byte
	require.False(t, mtx.Probe(id, stream.TagMarshal, Point{}, &out))
	require.False(t, mtx.Probe(nil, stream.TagMarshal))
}

func TestWidgetRedirect(t *testing.T) {
	id1, err := mtx.TypeOf[Widget](allocation.Extension)
	require.NoError(t, err)
	_, ok := name.Of(id1)
	require.False(t, ok)

	id2, err := mtx.TypeOf[Widget](name.Symbol)
	require.NoError(t, err)
	require.Same(t, id1, id2)

	n, ok := name.Of(id1)
	require.True(t, ok)
	require.Equal(t, "mtx_test.Widget", n)
	require.Equal(t, apis.Extended, id1.State())

	looked, ok := mtx.Lookup[Widget]()
	require.True(t, ok)
	require.Same(t, id1, looked)
}

func TestDefaultSet(t *testing.T) {
	id, err := mtx.TypeOf[Order]()
	require.NoError(t, err)

	for _, e := range mtx.DefaultSet() {
		require.True(t, id.Accepts(e.Tag()), "tag %d", e.Tag())
	}

	in := Order{ID: "o-1", Items: []int{1, 2, 3}}
	data, err := stream.Marshal(id, in)
	require.NoError(t, err)

	out, ok := allocation.New[Order](id)
	require.True(t, ok)
	require.NoError(t, stream.Unmarshal(id, data, out))
	require.Equal(t, in, *out)

	require.Equal(t, "mtx_test.Order", mtx.Name(in))
	require.Equal(t, "mtx_test.Order", mtx.Name(&in))
}

func TestDefaultSet_PartialFailure(t *testing.T) {
	id, err := mtx.TypeFor(reflect.TypeOf(func(int) {}))
	require.ErrorIs(t, err, stream.ErrUnsupported)
	require.NotNil(t, id)

	n, ok := allocation.Size(id)
	require.True(t, ok)
	require.NotZero(t, n)
	_, ok = name.Of(id)
	require.True(t, ok)

	// The failure is settled: repeat calls reuse the identifier and the
	// recorded error without building or logging again.
	core, logs := observer.New(zapcore.WarnLevel)
	prev := mtx.Logger()
	mtx.SetLogger(zap.New(core))
	t.Cleanup(func() { mtx.SetLogger(prev) })

	before := mtx.Stats()
	for i := 0; i < 5; i++ {
		again, err := mtx.TypeFor(reflect.TypeOf(func(int) {}))
		require.ErrorIs(t, err, stream.ErrUnsupported)
		require.Same(t, id, again)
	}
	require.Equal(t, before, mtx.Stats())
	require.Zero(t, logs.Len())
}

func TestName(t *testing.T) {
	require.Equal(t, "", mtx.Name(nil))
	require.Equal(t, "", mtx.NameFor(nil))
	require.Equal(t, "bank.account", mtx.Name(Account{}))
	require.Equal(t, "bank.account", mtx.NameFor(reflect.TypeOf(&Account{})))
	require.Equal(t, "int", mtx.Name(42))
}

// An identifier first published with Digest already answers the Name tag, so
// Name keeps returning the hex digest and never attaches Symbol.
func TestName_DigestFirst(t *testing.T) {
	type digestFirst struct{}

	id, err := mtx.TypeOf[digestFirst](name.Digest)
	require.NoError(t, err)
	sum, ok := name.DigestOf(id)
	require.True(t, ok)

	n := mtx.Name(digestFirst{})
	require.Equal(t, strategy.Hex(sum), n)
	require.Len(t, n, 16)

	again, ok := mtx.Lookup[digestFirst]()
	require.True(t, ok)
	require.Same(t, id, again)
	require.Equal(t, apis.Published, id.State(), "Symbol is not appended")
	_, ok = id.Extensions().Lookup(name.Symbol.ID())
	require.False(t, ok)
}

func TestLookup_Unregistered(t *testing.T) {
	type neverRegistered struct{}
	_, ok := mtx.Lookup[neverRegistered]()
	require.False(t, ok)
}

func TestConcurrentFirstUse(t *testing.T) {
	sets := [][]apis.Extension{
		{allocation.Extension},
		{stream.Extension},
		{name.Symbol},
		{name.Digest},
		nil,
	}

	const workers = 1000
	ids := make([]apis.TypeID, workers)
	start := make(chan struct{})
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			<-start
			id, err := mtx.TypeOf[Racer](sets[i%len(sets)]...)
			ids[i] = id
			return err
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	for i := 1; i < workers; i++ {
		require.Same(t, ids[0], ids[i], "worker %d", i)
	}
	id := ids[0]

	p, ok := allocation.New[Racer](id)
	require.True(t, ok)
	p.N = 7
	data, err := stream.Marshal(id, p)
	require.NoError(t, err)
	var back Racer
	require.NoError(t, stream.Unmarshal(id, data, &back))
	require.Equal(t, 7, back.N)
	_, ok = name.Of(id)
	require.True(t, ok)
	_, ok = name.DigestOf(id)
	require.True(t, ok)
}

// counter is a custom extension on a reserved tag: every call increments
// a per-type counter.
type counter struct {
	apis.NopHooks
	tg tag.Ext
}

type counterState struct {
	mu sync.Mutex
	n  int
}

func (c *counter) ID() apis.TypeID        { return registrar.Self(c) }
func (c *counter) Tag() tag.Ext           { return c.tg }
func (c *counter) Accepts(e tag.Ext) bool { return e == c.tg }

func (c *counter) New(reflect.Type) (any, error) { return &counterState{}, nil }

func (c *counter) Call(tbl apis.Table, _ tag.Op, args ...any) bool {
	v, ok := tbl.Lookup(c.ID())
	if !ok {
		return false
	}
	st := v.(*counterState)
	st.mu.Lock()
	st.n++
	n := st.n
	st.mu.Unlock()
	if out, ok := apis.Arg[*int](args, 0); ok && out != nil {
		*out = n
	}
	return true
}

func TestCustomExtension(t *testing.T) {
	e, err := tag.Reserve()
	require.NoError(t, err)
	c := &counter{tg: e}

	id, err := mtx.TypeOf[Point](c)
	require.NoError(t, err)

	var n int
	inc := tag.Make(e, 1)
	require.True(t, mtx.Invoke(id, inc, &n))
	require.True(t, mtx.Invoke(id, inc, &n))
	require.Equal(t, 2, n)

	// Point keeps what it had before.
	_, ok := allocation.New[Point](id)
	require.True(t, ok)
}

func TestInvokeLogsMiss(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := mtx.Logger()
	mtx.SetLogger(zap.New(core))
	t.Cleanup(func() { mtx.SetLogger(prev) })

	id, err := mtx.TypeOf[Widget](allocation.Extension)
	require.NoError(t, err)

	before := mtx.Stats().Misses
	var out []byte
	require.False(t, mtx.Invoke(id, stream.TagMarshal, Widget{}, &out))
	require.Equal(t, before+1, mtx.Stats().Misses)
	require.Equal(t, 1, logs.FilterMessage("mtx: dispatch miss").Len())
}

func TestBootstrapOfBuiltinModules(t *testing.T) {
	for _, e := range append(mtx.DefaultSet(), name.Digest) {
		id := e.ID()
		require.NotNil(t, id)
		require.Same(t, id, e.ID(), "module identifiers are canonical")
		require.Zero(t, id.Extensions().Len(), "modules register with the minimal set")
	}
}

// TestName_Concurrent_With_SetConfig reads names while the configuration is
// being swapped.
func TestName_Concurrent_With_SetConfig(t *testing.T) {
	prev := mtx.Config()
	t.Cleanup(func() { mtx.SetConfig(prev) })

	done := make(chan struct{})
	var wg sync.WaitGroup

	readers := runtime.GOMAXPROCS(0) * 4
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if n := mtx.Name(Order{}); n != "mtx_test.Order" {
					t.Errorf("Name(Order) = %q", n)
					return
				}
				_ = mtx.Name(map[string][]Order{})
			}
		}()
	}

	go func() {
		for i := 0; i < 20; i++ {
			mtx.SetConfig(config.NewConfig(
				config.WithIncludeBuiltins(i%2 == 0),
				config.WithMapPreferElem(i%3 == 0),
				config.WithMaxUnwrap(4+(i%5)),
			))
			time.Sleep(time.Millisecond)
		}
		close(done)
	}()

	wg.Wait()
	<-done
}
