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

package name_test

import (
	"errors"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"dirpx.dev/mtx/config"
	"dirpx.dev/mtx/extension/name"
	uref "dirpx.dev/mtx/utils/reflect"
)

type A0 struct{}
type A1 struct{}
type A2 struct{}
type A3 struct{}
type A4 struct{}

func TestAliases_Register(t *testing.T) {
	a := name.NewAliases(config.DefaultConfig())

	if err := a.Register(reflect.TypeOf(A0{}), "a.zero"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Idempotent.
	if err := a.Register(reflect.TypeOf(&A0{}), "a.zero"); err != nil {
		t.Fatalf("idempotent Register: %v", err)
	}
	// Conflict on the normalized type.
	if err := a.Register(reflect.TypeOf([]A0{}), "other"); !errors.Is(err, name.ErrConflictingAlias) {
		t.Fatalf("conflict: got %v, want ErrConflictingAlias", err)
	}

	if got, ok := a.Lookup(reflect.TypeOf(map[string]*A0{})); !ok || got != "a.zero" {
		t.Fatalf("Lookup(map[string]*A0): got (%q,%v)", got, ok)
	}
	if _, ok := a.Lookup(reflect.TypeOf(A1{})); ok {
		t.Fatal("Lookup(A1): unexpected hit")
	}
	if a.Count() != 1 || len(a.Entries()) != 1 {
		t.Fatalf("count=%d entries=%d, want 1", a.Count(), len(a.Entries()))
	}
}

func TestAliases_Errors(t *testing.T) {
	a := name.NewAliases(config.DefaultConfig())

	if err := a.Register(nil, "x"); !errors.Is(err, name.ErrNilType) {
		t.Fatalf("nil type: got %v", err)
	}
	if err := a.Register(reflect.TypeOf(A1{}), ""); !errors.Is(err, name.ErrEmptyName) {
		t.Fatalf("empty name: got %v", err)
	}
	if err := a.Register(reflect.TypeOf(struct{}{}), "anon"); !errors.Is(err, uref.ErrReflectTypeNotNamed) {
		t.Fatalf("anonymous: got %v", err)
	}
	if _, ok := a.Lookup(nil); ok {
		t.Fatal("Lookup(nil): unexpected hit")
	}
}

// TestAliases_Concurrent registers and looks up the same types from many
// goroutines; exactly one alias per type must survive.
func TestAliases_Concurrent(t *testing.T) {
	a := name.NewAliases(config.DefaultConfig())
	types := []reflect.Type{
		reflect.TypeOf(A0{}), reflect.TypeOf(A1{}), reflect.TypeOf(A2{}),
		reflect.TypeOf(A3{}), reflect.TypeOf(A4{}),
	}

	workers := runtime.GOMAXPROCS(0) * 4
	start := make(chan struct{})
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			<-start
			for i := 0; i < 200; i++ {
				tt := types[(i+w)%len(types)]
				err := a.Register(tt, tt.Name())
				if err != nil {
					t.Errorf("Register(%v): %v", tt, err)
					return
				}
				if got, ok := a.Lookup(tt); !ok || got != tt.Name() {
					t.Errorf("Lookup(%v) = (%q,%v)", tt, got, ok)
					return
				}
			}
		}(w)
	}
	close(start)
	wg.Wait()

	if a.Count() != len(types) {
		t.Fatalf("count = %d, want %d", a.Count(), len(types))
	}
}
