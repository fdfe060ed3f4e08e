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

package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSessionGenerations(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	assert.NoError(t, st.PutAlignment(ctx, alignment.Alignment{Name: "AL", RefName: "R"}))
	s := store.NewSession(st)
	key := store.MemberKey{Alignment: "AL", Sequence: "S1"}

	rec, err := s.Member(ctx, key)
	assert.NoError(t, err)
	expect.False(t, rec.Exists)
	expect.EQ(t, rec.Generation(), 0)
	assert.NoError(t, s.Replace(ctx, rec, segment.List{seg(1, 5, 1, 5)}))
	expect.EQ(t, s.Writes(), 1)

	assert.NoError(t, s.Reset(ctx))
	expect.EQ(t, s.Generation(), 1)
	expect.EQ(t, s.Writes(), 0)
	expect.EQ(t, st.Commits, 1)

	// The record from generation 0 can no longer be written.
	err = s.Replace(ctx, rec, nil)
	expect.True(t, errors.Is(errors.Precondition, err), "err %v", err)
	expect.HasSubstr(t, err.Error(), "AL/S1")

	rec, err = s.Member(ctx, key)
	assert.NoError(t, err)
	expect.True(t, rec.Exists)
	expect.EQ(t, rec.Segments, segment.List{seg(1, 5, 1, 5)})
	assert.NoError(t, s.Check(rec))
}

func TestRunBatched(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	assert.NoError(t, st.PutAlignment(ctx, alignment.Alignment{Name: "AL", RefName: "R"}))
	s := store.NewSession(st)

	var items []string
	for i := 0; i < 7; i++ {
		items = append(items, fmt.Sprintf("S%d", i))
	}
	var gens []int
	err := store.RunBatched(ctx, s, items, 3, func(ctx context.Context, seq string) error {
		rec, err := s.Member(ctx, store.MemberKey{Alignment: "AL", Sequence: seq})
		if err != nil {
			return err
		}
		gens = append(gens, rec.Generation())
		return s.Replace(ctx, rec, segment.List{seg(1, 2, 1, 2)})
	})
	assert.NoError(t, err)
	expect.EQ(t, gens, []int{0, 0, 0, 1, 1, 1, 2})
	expect.EQ(t, st.Commits, 3)
	expect.EQ(t, s.Generation(), 3)
	members, err := st.Members(ctx, "AL", nil)
	assert.NoError(t, err)
	expect.EQ(t, len(members), 7)

	// An error stops the run and leaves the current batch uncommitted.
	st2 := store.NewMemStore()
	s2 := store.NewSession(st2)
	n := 0
	err = store.RunBatched(ctx, s2, items, 0, func(ctx context.Context, seq string) error {
		n++
		if seq == "S4" {
			return errors.E(errors.Invalid, "boom")
		}
		return nil
	})
	expect.HasSubstr(t, err.Error(), "boom")
	expect.EQ(t, n, 5)
	expect.EQ(t, st2.Commits, 0)

	assert.NoError(t, store.RunBatched(ctx, s2, []string(nil), 10, func(context.Context, string) error { return nil }))
	expect.EQ(t, st2.Commits, 1)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err = store.RunBatched(cctx, s2, items, 2, func(context.Context, string) error { return nil })
	expect.EQ(t, err, context.Canceled)
}
