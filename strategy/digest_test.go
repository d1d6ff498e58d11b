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

package strategy_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	"dirpx.dev/mtx/apis"
	"dirpx.dev/mtx/strategy"
)

func TestDigestStrategy(t *testing.T) {
	s := strategy.NewDigestStrategy(nil)
	conf := apis.Config{}

	got, ok := s.TryResolveType(reflect.TypeOf(Foo{}), conf)
	require.True(t, ok)
	require.Len(t, got, 16)
	require.Equal(t, strategy.Hex(xxh3.HashString("dirpx.dev/mtx/strategy_test.Foo")), got)

	byValue, ok := s.TryResolve(Foo{}, conf)
	require.True(t, ok)
	require.Equal(t, got, byValue)

	ptr, ok := s.TryResolveType(reflect.TypeOf(&Foo{}), conf)
	require.True(t, ok)
	require.NotEqual(t, got, ptr, "T and *T hash differently")
}

func TestDigestStrategy_Inner(t *testing.T) {
	s := strategy.NewDigestStrategy(strategy.NewNamerStrategy())

	got, ok := s.TryResolveType(reflect.TypeOf(namedType{}), apis.Config{})
	require.True(t, ok)
	require.Equal(t, strategy.Hex(strategy.Sum("custom.Name")), got)

	_, ok = s.TryResolveType(reflect.TypeOf(Foo{}), apis.Config{})
	require.False(t, ok, "inner did not handle Foo")
}

func TestHex(t *testing.T) {
	require.Equal(t, "0000000000000001", strategy.Hex(1))
	require.Equal(t, "ffffffffffffffff", strategy.Hex(^uint64(0)))
}
