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

// Package registrar turns a (type, extension set) request into the type's
// canonical identifier.
//
// A Registrar owns an identifier cache and a candidate builder. Register is
// safe for concurrent use: racing first calls for a type agree on a single
// identifier, and every capability requested by a losing call is added to the
// winner through its extension chain. A published known-extensions table is
// never modified.
package registrar

import (
	"errors"
	"reflect"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/builder"
	"dirpx.dev/mtx/config"
	"dirpx.dev/mtx/identifier"
	"dirpx.dev/mtx/registry"
	"dirpx.dev/mtx/tag"
)

// def is the process-wide registrar.
var def = New()

// Default returns the process-wide registrar.
func Default() *Registrar { return def }

// MinimalSet returns the extension set extension modules register their own
// types with. It is empty, so registering an extension module never asks
// another extension module for its identifier.
func MinimalSet() []apis.Extension { return nil }

// Self returns the identifier of ext's own Go type in the process-wide
// registrar, registered against MinimalSet. Extension modules implement
// apis.Extension.ID with it.
func Self(ext apis.Extension) apis.TypeID {
	if ext == nil {
		return nil
	}
	id, _ := def.Register(reflect.TypeOf(ext), MinimalSet()...)
	return id
}

// SelfID caches the result of Self for one extension module. The zero value
// is ready to use; it must not be copied after first use.
type SelfID struct {
	once sync.Once
	id   apis.TypeID
}

// Of returns Self(ext), computing it on the first call only.
func (s *SelfID) Of(ext apis.Extension) apis.TypeID {
	s.once.Do(func() { s.id = Self(ext) })
	return s.id
}

// Stats is a point-in-time copy of a registrar's counters.
type Stats struct {
	// Published counts candidates that became canonical.
	Published int64
	// Redirected counts candidates that lost the publication race or arrived
	// after it.
	Redirected int64
	// Appended counts descriptors added to canonical identifiers' chains.
	Appended int64
	// Misses counts failed Invoke dispatches.
	Misses int64
}

// Option configures a Registrar.
type Option func(*state)

// WithConfig sets the registrar configuration.
func WithConfig(cfg apis.Config) Option {
	return func(s *state) { s.cfg = cfg }
}

// WithLogger sets the diagnostics logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *state) { s.log = l }
}

// New creates a registrar with its own identifier cache.
func New(opts ...Option) *Registrar {
	s := &state{cfg: config.DefaultConfig(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	r := &Registrar{reg: registry.New(), bld: builder.New()}
	r.st.Store(s)
	return r
}

// Registrar hands out canonical type identifiers.
type Registrar struct {
	reg *registry.Registry
	bld *builder.Builder

	// buildMu serializes writers of st.
	buildMu sync.Mutex
	st      atomic.Pointer[state]

	// failed caches build errors per (type, extension) so a type whose
	// extension cannot be built is not rebuilt on every call.
	failed sync.Map // failKey -> error

	published  atomic.Int64
	redirected atomic.Int64
	appended   atomic.Int64
	misses     atomic.Int64
}

type failKey struct {
	t   reflect.Type
	ext apis.TypeID
}

// state is an immutable snapshot published through Registrar.st.
// Writers create a new state and swap it atomically.
type state struct {
	cfg apis.Config
	log *zap.Logger
}

// Register returns the canonical identifier for t, making sure that every
// extension in exts can service its tag through it.
//
// Nil and duplicate extensions are ignored. Extensions whose per-type
// instance cannot be built are reported in the returned error, which is
// combined with multierr; the identifier is still returned in that case and
// the remaining extensions are usable. Such failures are remembered: later
// calls for the same type and extension return the recorded error without
// building again. The only errors without an identifier are those of the
// cache itself (nil type).
func (r *Registrar) Register(t reflect.Type, exts ...apis.Extension) (apis.TypeID, error) {
	if t == nil {
		return nil, registry.ErrNilType
	}
	exts = lo.UniqBy(
		lo.Filter(exts, func(e apis.Extension, _ int) bool { return e != nil }),
		func(e apis.Extension) apis.TypeID { return e.ID() },
	)

	for _, e := range exts {
		e.PreRegister(t)
	}

	// Fast path: already published, and every extension is either serviced
	// or known to be unavailable for t.
	if id, ok := r.reg.Lookup(t); ok {
		if known, ferr := r.settled(t, id, exts); known {
			r.post(t, id, exts)
			return id, ferr
		}
	}

	// Extensions that already failed for t are not built again.
	pending, known := r.partition(t, exts)

	s := r.st.Load()
	cand, berr := r.bld.Build(t, s.cfg, pending)
	for _, err := range multierr.Errors(berr) {
		r.remember(t, err)
		s.log.Warn("mtx: extension unavailable", zap.Stringer("type", t), zap.Error(err))
	}
	berr = multierr.Append(known, berr)

	id, err := r.reg.GetOrCreate(t, cand)
	if err != nil {
		return nil, multierr.Append(berr, err)
	}

	if id == cand {
		r.published.Inc()
		s.log.Debug("mtx: identifier published", zap.Stringer("id", id))
	} else {
		r.redirected.Inc()
		if contributes(cand, id) && id.Call(tag.Register, cand.Descriptor()) {
			r.appended.Inc()
			s.log.Debug("mtx: extensions appended",
				zap.Stringer("id", id),
				zap.Int("chain", id.Chain().Len()),
			)
		}
	}

	r.post(t, id, exts)
	return id, berr
}

// Invoke dispatches tg on id. A failed dispatch is counted and, when the
// configuration asks for it, logged as a warning. The warning is advisory
// only; callers still branch on the result.
func (r *Registrar) Invoke(id apis.TypeID, tg tag.Tag, args ...any) bool {
	if id == nil {
		return false
	}
	if id.Call(tg, args...) {
		return true
	}
	r.misses.Inc()
	if s := r.st.Load(); s.cfg.WarnOnMiss {
		s.log.Warn("mtx: dispatch miss",
			zap.Stringer("id", id),
			zap.Stringer("tag", tg),
			zap.Bool("accepted", id.Accepts(tg.Ext())),
		)
	}
	return false
}

// Lookup returns the published identifier for t without registering it.
func (r *Registrar) Lookup(t reflect.Type) (apis.TypeID, bool) {
	id, ok := r.reg.Lookup(t)
	if !ok {
		return nil, false
	}
	return id, true
}

// Entries returns a snapshot of every published identifier (order is
// unspecified).
func (r *Registrar) Entries() []apis.TypeID {
	return lo.Map(r.reg.Entries(), func(id *identifier.ID, _ int) apis.TypeID { return id })
}

// Count returns the number of published identifiers.
func (r *Registrar) Count() int { return r.reg.Count() }

// Stats returns a copy of the registrar's counters.
func (r *Registrar) Stats() Stats {
	return Stats{
		Published:  r.published.Load(),
		Redirected: r.redirected.Load(),
		Appended:   r.appended.Load(),
		Misses:     r.misses.Load(),
	}
}

// Config returns the registrar configuration.
func (r *Registrar) Config() apis.Config { return r.st.Load().cfg }

// SetConfig replaces the registrar configuration. Identifiers built before
// the call keep the chain settings they were created with.
func (r *Registrar) SetConfig(cfg apis.Config) {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	old := r.st.Load()
	r.st.Store(&state{cfg: cfg, log: old.log})
}

// Logger returns the diagnostics logger.
func (r *Registrar) Logger() *zap.Logger { return r.st.Load().log }

// SetLogger replaces the diagnostics logger. Nil disables logging.
func (r *Registrar) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	old := r.st.Load()
	r.st.Store(&state{cfg: old.cfg, log: l})
}

func (r *Registrar) post(t reflect.Type, id apis.TypeID, exts []apis.Extension) {
	for _, e := range exts {
		e.PostRegister(t, id)
	}
}

// settled reports whether every extension in exts is either serviced by id
// or recorded as unavailable for t. The recorded errors are returned.
func (r *Registrar) settled(t reflect.Type, id apis.TypeID, exts []apis.Extension) (bool, error) {
	var errs error
	for _, e := range exts {
		if id.Accepts(e.Tag()) {
			continue
		}
		v, ok := r.failed.Load(failKey{t: t, ext: e.ID()})
		if !ok {
			return false, nil
		}
		errs = multierr.Append(errs, v.(error))
	}
	return true, errs
}

// partition splits exts into those still to be built for t and the combined
// errors of those already recorded as unavailable.
func (r *Registrar) partition(t reflect.Type, exts []apis.Extension) ([]apis.Extension, error) {
	var errs error
	pending := lo.Filter(exts, func(e apis.Extension, _ int) bool {
		v, ok := r.failed.Load(failKey{t: t, ext: e.ID()})
		if ok {
			errs = multierr.Append(errs, v.(error))
		}
		return !ok
	})
	return pending, errs
}

func (r *Registrar) remember(t reflect.Type, err error) {
	var f *builder.Failure
	if errors.As(err, &f) {
		r.failed.LoadOrStore(failKey{t: t, ext: f.Ext.ID()}, err)
	}
}

// contributes reports whether cand's table services a tag id cannot.
func contributes(cand, id *identifier.ID) bool {
	for e := tag.Ext(1); e < tag.Slots; e++ {
		if cand.Accepts(e) && !id.Accepts(e) {
			return true
		}
	}
	return false
}
