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

package strategy

import (
	"reflect"

	"dirpx.dev/mtx/apis"
)

// namerType is the reflect.Type of apis.Namer.
var namerType = reflect.TypeOf((*apis.Namer)(nil)).Elem()

// NewNamerStrategy creates an apis.Strategy that uses apis.Namer.
func NewNamerStrategy() apis.Strategy {
	return &namerStrategy{}
}

// namerStrategy asks the type itself: if it implements apis.Namer, its
// EntityName is the name and the chain stops.
type namerStrategy struct{}

// Ensure namerStrategy implements apis.Strategy.
var _ apis.Strategy = (*namerStrategy)(nil)

// TryResolve checks if v implements apis.Namer and returns its EntityName().
func (*namerStrategy) TryResolve(v any, _ apis.Config) (string, bool) {
	if v == nil {
		return "", false
	}
	if n, ok := v.(apis.Namer); ok {
		return nonEmpty(n.EntityName())
	}
	return "", false
}

// TryResolveType calls EntityName on a zero value of t. Pointer receivers
// are served with a pointer to a fresh zero value. Interface types are
// never handled.
func (*namerStrategy) TryResolveType(t reflect.Type, _ apis.Config) (string, bool) {
	if t == nil || t.Kind() == reflect.Interface {
		return "", false
	}

	var zero reflect.Value
	switch {
	case t.Implements(namerType) && t.Kind() == reflect.Pointer:
		zero = reflect.New(t.Elem())
	case t.Implements(namerType):
		zero = reflect.Zero(t)
	case reflect.PointerTo(t).Implements(namerType):
		zero = reflect.New(t)
	default:
		return "", false
	}
	return nonEmpty(zero.Interface().(apis.Namer).EntityName())
}

func nonEmpty(name string) (string, bool) {
	return name, name != ""
}
