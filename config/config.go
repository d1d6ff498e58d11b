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

package config

import (
	"time"

	"dirpx.dev/mtx/apis"
)

const (
	// DefaultIncludeBuiltins represents the default for IncludeBuiltins.
	// When true, built-in types will be included.
	DefaultIncludeBuiltins = true
	// DefaultMaxUnwrap represents the default for MaxUnwrap.
	// A value of 8 should be sufficient for all practical purposes.
	DefaultMaxUnwrap = 8
	// DefaultMapPreferElem represents the default for MapPreferElem.
	// When true, map value types are preferred when searching for named inner types.
	DefaultMapPreferElem = true
	// DefaultChainSpinLimit represents the default for ChainSpinLimit.
	DefaultChainSpinLimit = 64
	// DefaultChainMaxBackoff represents the default for ChainMaxBackoff.
	DefaultChainMaxBackoff = time.Millisecond
	// DefaultWarnOnMiss represents the default for WarnOnMiss.
	DefaultWarnOnMiss = true
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return sanitize(cfg)
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		IncludeBuiltins: DefaultIncludeBuiltins,
		MaxUnwrap:       DefaultMaxUnwrap,
		MapPreferElem:   DefaultMapPreferElem,
		ChainSpinLimit:  DefaultChainSpinLimit,
		ChainMaxBackoff: DefaultChainMaxBackoff,
		WarnOnMiss:      DefaultWarnOnMiss,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithIncludeBuiltins sets the IncludeBuiltins option.
func WithIncludeBuiltins(include bool) Option {
	return func(c *apis.Config) {
		c.IncludeBuiltins = include
	}
}

// WithMaxUnwrap sets the MaxUnwrap option.
// A negative value resets to the default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		if max < 0 {
			c.MaxUnwrap = DefaultMaxUnwrap
			return
		}
		c.MaxUnwrap = max
	}
}

// WithMapPreferElem sets the MapPreferElem option.
func WithMapPreferElem(prefer bool) Option {
	return func(c *apis.Config) {
		c.MapPreferElem = prefer
	}
}

// WithChainSpinLimit sets the number of immediate CAS retries of a chain
// append. A negative value resets to the default.
func WithChainSpinLimit(n int) Option {
	return func(c *apis.Config) {
		if n < 0 {
			c.ChainSpinLimit = DefaultChainSpinLimit
			return
		}
		c.ChainSpinLimit = n
	}
}

// WithChainMaxBackoff caps a single backoff sleep of a chain append.
// A non-positive value resets to the default.
func WithChainMaxBackoff(d time.Duration) Option {
	return func(c *apis.Config) {
		if d <= 0 {
			c.ChainMaxBackoff = DefaultChainMaxBackoff
			return
		}
		c.ChainMaxBackoff = d
	}
}

// WithWarnOnMiss toggles the failed-dispatch diagnostic.
func WithWarnOnMiss(warn bool) Option {
	return func(c *apis.Config) {
		c.WarnOnMiss = warn
	}
}

// sanitize replaces out-of-range values with defaults.
func sanitize(cfg apis.Config) apis.Config {
	if cfg.MaxUnwrap < 0 {
		cfg.MaxUnwrap = DefaultMaxUnwrap
	}
	if cfg.ChainSpinLimit < 0 {
		cfg.ChainSpinLimit = DefaultChainSpinLimit
	}
	if cfg.ChainMaxBackoff <= 0 {
		cfg.ChainMaxBackoff = DefaultChainMaxBackoff
	}
	return cfg
}
