// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
)

// pending is a staged write: a new value, or a deletion.
type pending[V any] struct {
	v       V
	deleted bool
}

// table is a committed map plus staged writes.
type table[K comparable, V any] struct {
	committed map[K]V
	staged    map[K]pending[V]
}

func newTable[K comparable, V any]() table[K, V] {
	return table[K, V]{committed: map[K]V{}, staged: map[K]pending[V]{}}
}

func (t *table[K, V]) get(k K) (V, bool) {
	if p, ok := t.staged[k]; ok {
		return p.v, !p.deleted
	}
	v, ok := t.committed[k]
	return v, ok
}

func (t *table[K, V]) put(k K, v V) { t.staged[k] = pending[V]{v: v} }

func (t *table[K, V]) del(k K) { t.staged[k] = pending[V]{deleted: true} }

// keys returns the live keys matching f, in no particular order.
func (t *table[K, V]) keys(f func(K) bool) []K {
	var r []K
	for k := range t.committed {
		if _, ok := t.staged[k]; !ok && f(k) {
			r = append(r, k)
		}
	}
	for k, p := range t.staged {
		if !p.deleted && f(k) {
			r = append(r, k)
		}
	}
	return r
}

func (t *table[K, V]) commit() {
	for k, p := range t.staged {
		if p.deleted {
			delete(t.committed, k)
		} else {
			t.committed[k] = p.v
		}
	}
	t.staged = map[K]pending[V]{}
}

func (t *table[K, V]) rollback() { t.staged = map[K]pending[V]{} }

// MemStore is an in-memory Store. Values are copied on the way in and out so
// callers cannot alias stored segment lists.
type MemStore struct {
	alignments table[string, alignment.Alignment]
	sequences  table[string, Sequence]
	members    table[MemberKey, segment.List]
	// Commits counts successful Commit calls.
	Commits int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		alignments: newTable[string, alignment.Alignment](),
		sequences:  newTable[string, Sequence](),
		members:    newTable[MemberKey, segment.List](),
	}
}

// Alignments implements Store.
func (m *MemStore) Alignments(ctx context.Context) ([]alignment.Alignment, error) {
	names := m.alignments.keys(func(string) bool { return true })
	sort.Strings(names)
	r := make([]alignment.Alignment, len(names))
	for i, name := range names {
		r[i], _ = m.alignments.get(name)
	}
	return r, nil
}

// PutAlignment implements Store.
func (m *MemStore) PutAlignment(ctx context.Context, a alignment.Alignment) error {
	if a.Name == "" {
		return errors.E(errors.Invalid, "alignment name is empty")
	}
	m.alignments.put(a.Name, a)
	return nil
}

// DeleteAlignment implements Store.
func (m *MemStore) DeleteAlignment(ctx context.Context, name string) error {
	if _, ok := m.alignments.get(name); !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("no alignment named %s", name))
	}
	m.alignments.del(name)
	for _, k := range m.members.keys(func(k MemberKey) bool { return k.Alignment == name }) {
		m.members.del(k)
	}
	return nil
}

// Sequence implements Store.
func (m *MemStore) Sequence(ctx context.Context, id string) (Sequence, bool, error) {
	s, ok := m.sequences.get(id)
	return s, ok, nil
}

// PutSequence implements Store.
func (m *MemStore) PutSequence(ctx context.Context, s Sequence) error {
	if s.ID == "" {
		return errors.E(errors.Invalid, "sequence ID is empty")
	}
	m.sequences.put(s.ID, s)
	return nil
}

// MemberSegments implements Store.
func (m *MemStore) MemberSegments(ctx context.Context, alignment, seq string) (segment.List, bool, error) {
	l, ok := m.members.get(MemberKey{alignment, seq})
	if !ok {
		return nil, false, nil
	}
	return l.Clone(), true, nil
}

// ReplaceMemberSegments implements Store.
func (m *MemStore) ReplaceMemberSegments(ctx context.Context, alignment, seq string, l segment.List) error {
	if _, ok := m.alignments.get(alignment); !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("no alignment named %s", alignment))
	}
	l = l.Clone()
	l.Sort()
	m.members.put(MemberKey{alignment, seq}, l)
	return nil
}

// DeleteMember implements Store.
func (m *MemStore) DeleteMember(ctx context.Context, alignment, seq string) error {
	k := MemberKey{alignment, seq}
	if _, ok := m.members.get(k); !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("%s is not a member of %s", seq, alignment))
	}
	m.members.del(k)
	return nil
}

// Members implements Store.
func (m *MemStore) Members(ctx context.Context, alignment string, match func(seq string) bool) ([]string, error) {
	keys := m.members.keys(func(k MemberKey) bool {
		return k.Alignment == alignment && (match == nil || match(k.Sequence))
	})
	r := make([]string, len(keys))
	for i, k := range keys {
		r[i] = k.Sequence
	}
	sort.Strings(r)
	return r, nil
}

// Commit implements Store.
func (m *MemStore) Commit(ctx context.Context) error {
	m.alignments.commit()
	m.sequences.commit()
	m.members.commit()
	m.Commits++
	return nil
}

// Rollback discards staged writes.
func (m *MemStore) Rollback() {
	m.alignments.rollback()
	m.sequences.rollback()
	m.members.rollback()
}

// Close implements Store.
func (m *MemStore) Close() error {
	m.Rollback()
	return nil
}
