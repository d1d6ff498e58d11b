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
	"github.com/spf13/viper"

	"dirpx.dev/mtx/apis"
)

// Configuration keys understood by FromViper.
const (
	KeyIncludeBuiltins = "mtx.include_builtins"
	KeyMaxUnwrap       = "mtx.max_unwrap"
	KeyMapPreferElem   = "mtx.map_prefer_elem"
	KeyChainSpinLimit  = "mtx.chain.spin_limit"
	KeyChainMaxBackoff = "mtx.chain.max_backoff"
	KeyWarnOnMiss      = "mtx.warn_on_miss"
)

// FromViper builds an apis.Config from v. Keys that are not set keep their
// defaults; a nil v yields DefaultConfig.
//
//	mtx:
//	  max_unwrap: 4
//	  chain:
//	    spin_limit: 16
//	    max_backoff: 500us
func FromViper(v *viper.Viper) apis.Config {
	if v == nil {
		return DefaultConfig()
	}
	var opts []Option
	if v.IsSet(KeyIncludeBuiltins) {
		opts = append(opts, WithIncludeBuiltins(v.GetBool(KeyIncludeBuiltins)))
	}
	if v.IsSet(KeyMaxUnwrap) {
		opts = append(opts, WithMaxUnwrap(v.GetInt(KeyMaxUnwrap)))
	}
	if v.IsSet(KeyMapPreferElem) {
		opts = append(opts, WithMapPreferElem(v.GetBool(KeyMapPreferElem)))
	}
	if v.IsSet(KeyChainSpinLimit) {
		opts = append(opts, WithChainSpinLimit(v.GetInt(KeyChainSpinLimit)))
	}
	if v.IsSet(KeyChainMaxBackoff) {
		opts = append(opts, WithChainMaxBackoff(v.GetDuration(KeyChainMaxBackoff)))
	}
	if v.IsSet(KeyWarnOnMiss) {
		opts = append(opts, WithWarnOnMiss(v.GetBool(KeyWarnOnMiss)))
	}
	return NewConfig(opts...)
}
