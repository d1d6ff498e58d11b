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

package builder

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/chain"
	"dirpx.dev/mtx/identifier"
)

// Failure records an extension that could not be installed in a candidate.
type Failure struct {
	Ext  apis.Extension
	Type reflect.Type
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extension %v for %v: %v", f.Ext.ID(), f.Type, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// New creates and returns a new candidate Builder.
func New() *Builder {
	return &Builder{}
}

// Builder assembles unpublished candidate identifiers.
type Builder struct{}

// Build creates an unpublished identifier for t whose known-extensions table
// holds one instance per extension in exts. The chain of the identifier is
// configured from cfg.
//
// An extension whose instance cannot be created is left out of the table;
// all such failures are returned together, each as a *Failure. The candidate
// is always usable, even when err is non-nil.
func (b *Builder) Build(t reflect.Type, cfg apis.Config, exts []apis.Extension) (*identifier.ID, error) {
	id := identifier.New(t, identifier.WithChainOptions(
		chain.WithSpinLimit(cfg.ChainSpinLimit),
		chain.WithMaxBackoff(cfg.ChainMaxBackoff),
	))

	var errs error
	for _, ext := range exts {
		if ext == nil {
			continue
		}
		inst, err := ext.New(t)
		if err != nil {
			errs = multierr.Append(errs, &Failure{Ext: ext, Type: t, Err: err})
			continue
		}
		if err := id.Insert(ext, inst); err != nil {
			errs = multierr.Append(errs, &Failure{Ext: ext, Type: t, Err: err})
		}
	}
	return id, errs
}
