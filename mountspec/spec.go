//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package mountspec implements domain.MountSpecIface: an opaque, hashable,
// comparable description of a mount location. The broker never looks past
// the Type/Fields shape described here; matching and parsing live in this
// package so the rest of the tree depends only on domain.MountSpecIface.
package mountspec

import (
	"hash/fnv"
	"sort"

	"github.com/nestybox/mountbrokerd/domain"
)

var _ domain.MountSpecIface = (*Spec)(nil)

// Spec is the concrete MountSpec: a type tag plus a bag of named string
// fields (spec.md §3).
type Spec struct {
	typ    string
	fields map[string]string
}

// Parse validates and builds a Spec from its wire form. An empty Type is
// rejected with domain.InvalidArgument (spec.md §4.3 register_mount /
// lookup_mount / mount_location all parse specs this way).
func Parse(w domain.MountSpecVariant) (*Spec, error) {
	if w.Type == "" {
		return nil, domain.NewBrokerError(domain.InvalidArgument, "mount spec has no type")
	}

	fields := make(map[string]string, len(w.Fields))
	for k, v := range w.Fields {
		fields[k] = v
	}

	return &Spec{typ: w.Type, fields: fields}, nil
}

// New builds a Spec directly, for callers (such as tests) that already
// hold validated components rather than a wire value.
func New(typ string, fields map[string]string) *Spec {
	s, _ := Parse(domain.MountSpecVariant{Type: typ, Fields: fields})
	return s
}

func (s *Spec) Type() string { return s.typ }

func (s *Spec) Field(name string) (string, bool) {
	v, ok := s.fields[name]
	return v, ok
}

func (s *Spec) Fields() map[string]string {
	cp := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		cp[k] = v
	}
	return cp
}

func (s *Spec) Equal(other domain.MountSpecIface) bool {
	if other == nil {
		return false
	}
	if s.typ != other.Type() {
		return false
	}

	fields := s.fields
	otherFields := other.Fields()
	if len(fields) != len(otherFields) {
		return false
	}
	for k, v := range fields {
		if ov, ok := otherFields[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Match implements the Registry's M2 dedup relation: two specs refer to the
// same location. A plain Spec has no type-specific normalization rules, so
// Match coincides with Equal — exactly the behavior spec.md documents as
// "externally defined" and leaves unspecified beyond equality.
func (s *Spec) Match(other domain.MountSpecIface) bool {
	return s.Equal(other)
}

// Hash returns an FNV-1a digest over the canonical (sorted-key) encoding of
// the spec, so field insertion order does not change the digest. The
// Registry does not use it; it finds duplicates with Match.
func (s *Spec) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.typ))
	h.Write([]byte{0})

	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(s.fields[k]))
		h.Write([]byte{0})
	}

	return h.Sum64()
}

// ToWire re-encodes the spec for transmission, the inverse of Parse.
func (s *Spec) ToWire() domain.MountSpecVariant {
	return domain.MountSpecVariant{Type: s.typ, Fields: s.Fields()}
}
