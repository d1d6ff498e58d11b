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

// Package mtx provides a process-wide, extensible metadata registry for Go
// types.
//
// mtx turns "some Go type" into one canonical identifier (apis.TypeID) that
// lives as long as the process and supports type-erased operations:
// constructing, copying and resetting values, serializing them, and naming
// them. Which operations an identifier supports is decided by the capability
// extensions requested for the type, and call sites may request more at any
// time without invalidating identifiers already handed out.
//
// # Design
//
// Every identifier carries two places where capabilities live:
//
//   - The known-extensions table: a fixed array of tag.Slots slots, one per
//     extension tag, filled while the identifier is still a private
//     candidate and read-only once it is published.
//
//   - The extension chain: a lock-free, append-only list of descriptors.
//     Capabilities requested after publication are appended here, so the
//     published table is never written again.
//
// Operations are addressed with a tag.Tag, a single integer packing an
// extension tag (low tag.Bits bits) and an operation id. Call consults the
// table first, then the chain, and returns false when nobody services the
// tag. A false result is a probe answer, never an error.
//
// # Registration
//
// TypeOf and TypeFor ask the process-wide registrar for a type's identifier:
//
//	id, err := mtx.TypeOf[Point](allocation.Extension)
//	p, ok := allocation.New[Point](id)
//
// The first call for a type builds a candidate and publishes it through the
// identifier cache. Racing first calls agree on a single winner; each loser
// contributes the extensions the winner lacks as a chain descriptor. Later
// calls asking for capabilities the identifier already has return it
// without allocating.
//
// With no extensions, DefaultSet is used: allocation, stream and the symbol
// naming extension. An extension that cannot serve a type (stream for a func
// type, for instance) is reported in the returned error while the
// identifier and the other extensions stay usable.
//
// # Extensions
//
// Extension modules are themselves registered types: apis.Extension.ID
// returns the identifier of the module's own Go type, registered with the
// empty minimal set, so bootstrapping a module never recurses more than
// once. The built-in modules are:
//
//   - extension/allocation: OpConstruct, OpCopy, OpDestroy, OpSize.
//   - extension/stream: OpMarshal, OpUnmarshal, OpWrite, OpRead over
//     protobuf for proto.Message types and deterministic CBOR otherwise.
//   - extension/name: Symbol ("pkg.Type", apis.Namer, explicit aliases) and
//     Digest (xxh3 of the fully qualified type spelling).
//
// tag.Reserve hands out the remaining extension tags to custom modules.
//
// # Concurrency model
//
// Everything is safe for concurrent use. Lookups and dispatch are lock-free.
// Publication happens exactly once per type. Chain appends are
// compare-and-swap pushes that spin briefly and then back off; a reader
// observes a descriptor only after its append completed. When several
// extensions accept the same tag, the first one in table order, then chain
// order, wins; chain order reflects one interleaving of concurrent appends
// and is not the registration order.
//
// # Diagnostics
//
// The registrar logs through zap. The default logger discards everything;
// SetLogger installs a real one. Failed Invoke calls are counted in Stats
// and logged as warnings when Config().WarnOnMiss is set. Probe performs the
// same dispatch silently.
package mtx
