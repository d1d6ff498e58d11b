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

package apis

// Namer identifies application-level entities by a stable, canonical name.
//
// Namer is a type-level contract: EntityName describes the kind of entity,
// not a particular instance, and is expected to work on the zero value of
// the implementing type. The name extension calls it on a zero value when it
// builds the per-type instance.
//
//	type User struct{ ID string }
//
//	func (User) EntityName() string { return "domain.user" }
type Namer interface {
	// EntityName returns the canonical, type-level name for this entity.
	// It must be non-empty, deterministic for a given concrete type and
	// must not depend on instance state.
	EntityName() string
}
