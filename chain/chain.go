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

// Package chain implements the append-only, lock-free list of extension
// descriptors attached to a published type identifier.
//
// Descriptors are pushed onto the head with compare-and-swap. A reader that
// loads the head sees every descriptor whose append completed before the load
// and nothing partially built. The relative order of two descriptors appended
// concurrently is unspecified, and CallIfAccepted hands a call to the first
// accepting descriptor in the current order. Callers must not assume that the
// earliest registration wins.
package chain

import (
	"errors"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/atomic"

	"dirpx.dev/mtx/tag"
)

const (
	// DefaultSpinLimit is the number of immediate CAS retries before Append
	// starts backing off.
	DefaultSpinLimit = 64
	// DefaultMaxBackoff caps a single backoff sleep.
	DefaultMaxBackoff = time.Millisecond
)

var (
	// ErrInvalidDescriptor is returned when a descriptor is nil or lacks
	// its predicate or handler.
	ErrInvalidDescriptor = errors.New("mtx(chain): invalid descriptor")
	// ErrLinked is returned when a descriptor is appended a second time.
	ErrLinked = errors.New("mtx(chain): descriptor already linked")
)

// Descriptor is one node of a Chain.
type Descriptor struct {
	// Accepts reports whether the descriptor services an extension tag.
	Accepts func(e tag.Ext) bool
	// Call executes the full tag against the descriptor's extensions.
	Call func(t tag.Tag, args ...any) bool

	// next is written only before the descriptor is published.
	next   *Descriptor
	linked atomic.Bool
}

// Next returns the descriptor appended before d, or nil.
func (d *Descriptor) Next() *Descriptor { return d.next }

// Chain is a lock-free, append-only singly linked list of descriptors.
// The zero value is usable and backs off on the first failed CAS; New applies
// the default spin limit.
type Chain struct {
	head    atomic.Pointer[Descriptor]
	size    atomic.Int64
	retries atomic.Int64

	spinLimit  int
	maxBackoff time.Duration
}

// Option configures a Chain.
type Option func(*Chain)

// WithSpinLimit sets the number of immediate retries before backing off.
// Zero means back off from the first failed CAS; negative values reset to
// DefaultSpinLimit.
func WithSpinLimit(n int) Option {
	return func(c *Chain) {
		if n < 0 {
			n = DefaultSpinLimit
		}
		c.spinLimit = n
	}
}

// WithMaxBackoff caps a single backoff sleep. Non-positive values reset to
// DefaultMaxBackoff.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Chain) {
		if d <= 0 {
			d = DefaultMaxBackoff
		}
		c.maxBackoff = d
	}
}

// New creates an empty Chain.
func New(opts ...Option) *Chain {
	c := &Chain{
		spinLimit:  DefaultSpinLimit,
		maxBackoff: DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append pushes d onto the head of the chain.
//
// The CAS is retried until it succeeds: first SpinLimit times yielding the
// processor in between, then with exponential backoff capped at MaxBackoff.
// Append never gives up, so a successful return means d is visible to every
// reader that starts afterwards.
func (c *Chain) Append(d *Descriptor) error {
	if d == nil || d.Accepts == nil || d.Call == nil {
		return ErrInvalidDescriptor
	}
	if !d.linked.CompareAndSwap(false, true) {
		return ErrLinked
	}

	var bo *backoff.ExponentialBackOff
	for attempt := 0; ; attempt++ {
		old := c.head.Load()
		d.next = old
		if c.head.CompareAndSwap(old, d) {
			c.size.Inc()
			return nil
		}
		c.retries.Inc()

		if attempt < c.spinLimit {
			runtime.Gosched()
			continue
		}
		if bo == nil {
			bo = c.newBackOff()
		}
		time.Sleep(bo.NextBackOff())
	}
}

// CallIfAccepted walks the chain from the head and hands the call to the
// first descriptor accepting t's extension tag. It returns false when no
// descriptor accepts the tag or the accepting handler fails.
func (c *Chain) CallIfAccepted(t tag.Tag, args ...any) bool {
	e := t.Ext()
	for d := c.head.Load(); d != nil; d = d.next {
		if d.Accepts(e) {
			return d.Call(t, args...)
		}
	}
	return false
}

// Accepts reports whether any descriptor services e.
func (c *Chain) Accepts(e tag.Ext) bool {
	for d := c.head.Load(); d != nil; d = d.next {
		if d.Accepts(e) {
			return true
		}
	}
	return false
}

// Walk calls fn for each descriptor from the head until fn returns false.
func (c *Chain) Walk(fn func(d *Descriptor) bool) {
	for d := c.head.Load(); d != nil; d = d.next {
		if !fn(d) {
			return
		}
	}
}

// Head returns the most recently appended descriptor, or nil.
func (c *Chain) Head() *Descriptor { return c.head.Load() }

// Len returns the number of appended descriptors.
func (c *Chain) Len() int { return int(c.size.Load()) }

// Retries returns the number of failed CAS attempts so far.
func (c *Chain) Retries() int64 { return c.retries.Load() }

func (c *Chain) newBackOff() *backoff.ExponentialBackOff {
	maxBackoff := c.maxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Microsecond
	bo.MaxInterval = maxBackoff
	// Zero disables the elapsed-time cutoff: Append must eventually succeed.
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}
