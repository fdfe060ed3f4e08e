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
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func seg(rs, re, qs, qe segment.PosType) segment.Segment {
	return segment.Segment{RefStart: rs, RefEnd: re, QueryStart: qs, QueryEnd: qe}
}

func alignmentNames(t *testing.T, st store.Store) []string {
	as, err := st.Alignments(context.Background())
	require.NoError(t, err)
	var r []string
	for _, a := range as {
		r = append(r, a.Name)
	}
	return r
}

func testStore(t *testing.T, st store.Store) {
	ctx := context.Background()
	assert.NoError(t, st.PutAlignment(ctx, alignment.Alignment{Name: "AL_MASTER", RefName: "R0"}))
	assert.NoError(t, st.PutAlignment(ctx, alignment.Alignment{Name: "AL_1", RefName: "R1", Parent: "AL_MASTER"}))
	assert.NoError(t, st.PutSequence(ctx, store.Sequence{ID: "R0", Nucleotides: "ACGTACGT"}))
	expect.True(t, errors.Is(errors.Invalid, st.PutAlignment(ctx, alignment.Alignment{})))

	// Staged writes are visible before commit.
	expect.EQ(t, alignmentNames(t, st), []string{"AL_1", "AL_MASTER"})
	s, ok, err := st.Sequence(ctx, "R0")
	assert.NoError(t, err)
	expect.True(t, ok)
	expect.EQ(t, s.Nucleotides, "ACGTACGT")
	_, ok, err = st.Sequence(ctx, "R9")
	assert.NoError(t, err)
	expect.False(t, ok)

	l := segment.List{seg(30, 40, 1, 11), seg(1, 10, 20, 29)}
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_1", "R0", l))
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_1", "S1", segment.List{seg(5, 8, 5, 8)}))
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_1", "S2", nil))
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_MASTER", "S1", segment.List{seg(1, 3, 1, 3)}))
	err = st.ReplaceMemberSegments(ctx, "AL_NONE", "S1", nil)
	expect.True(t, errors.Is(errors.NotExist, err), "err %v", err)
	assert.NoError(t, st.Commit(ctx))

	got, ok, err := st.MemberSegments(ctx, "AL_1", "R0")
	assert.NoError(t, err)
	expect.True(t, ok)
	expect.EQ(t, got, segment.List{seg(1, 10, 20, 29), seg(30, 40, 1, 11)})
	got, ok, err = st.MemberSegments(ctx, "AL_1", "S2")
	assert.NoError(t, err)
	expect.True(t, ok)
	expect.EQ(t, len(got), 0)
	_, ok, err = st.MemberSegments(ctx, "AL_1", "S3")
	assert.NoError(t, err)
	expect.False(t, ok)

	members, err := st.Members(ctx, "AL_1", nil)
	assert.NoError(t, err)
	expect.EQ(t, members, []string{"R0", "S1", "S2"})
	members, err = st.Members(ctx, "AL_1", func(seq string) bool { return strings.HasPrefix(seq, "S") })
	assert.NoError(t, err)
	expect.EQ(t, members, []string{"S1", "S2"})

	// Replacement is destructive.
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_1", "S1", segment.List{seg(100, 101, 7, 8)}))
	got, _, err = st.MemberSegments(ctx, "AL_1", "S1")
	assert.NoError(t, err)
	expect.EQ(t, got, segment.List{seg(100, 101, 7, 8)})

	assert.NoError(t, st.DeleteMember(ctx, "AL_1", "S2"))
	expect.True(t, errors.Is(errors.NotExist, st.DeleteMember(ctx, "AL_1", "S2")))
	members, err = st.Members(ctx, "AL_1", nil)
	assert.NoError(t, err)
	expect.EQ(t, members, []string{"R0", "S1"})

	tree, err := store.LoadTree(ctx, st)
	assert.NoError(t, err)
	p, ok := tree.Parent("AL_1")
	expect.True(t, ok)
	expect.EQ(t, p.Name, "AL_MASTER")

	assert.NoError(t, st.DeleteAlignment(ctx, "AL_1"))
	expect.True(t, errors.Is(errors.NotExist, st.DeleteAlignment(ctx, "AL_1")))
	assert.NoError(t, st.Commit(ctx))
	expect.EQ(t, alignmentNames(t, st), []string{"AL_MASTER"})
	members, err = st.Members(ctx, "AL_1", nil)
	assert.NoError(t, err)
	expect.EQ(t, len(members), 0)
	members, err = st.Members(ctx, "AL_MASTER", nil)
	assert.NoError(t, err)
	expect.EQ(t, members, []string{"S1"})
}

func TestMemStore(t *testing.T) {
	st := store.NewMemStore()
	testStore(t, st)
	expect.EQ(t, st.Commits, 2)

	ctx := context.Background()
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_MASTER", "S9", nil))
	st.Rollback()
	_, ok, err := st.MemberSegments(ctx, "AL_MASTER", "S9")
	assert.NoError(t, err)
	expect.False(t, ok)
	assert.NoError(t, st.Close())
}

func TestBadgerStoreInMemory(t *testing.T) {
	st, err := store.OpenBadger(store.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	testStore(t, st)
	assert.NoError(t, st.Close())
}

func TestBadgerStorePersistence(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cfg := store.DefaultBadgerConfig
	cfg.Path = dir

	st, err := store.OpenBadger(cfg)
	require.NoError(t, err)
	assert.NoError(t, st.PutAlignment(ctx, alignment.Alignment{Name: "AL_MASTER", RefName: "R0"}))
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_MASTER", "S1", segment.List{seg(1, 3, 11, 13)}))
	assert.NoError(t, st.Commit(ctx))
	assert.NoError(t, st.PutAlignment(ctx, alignment.Alignment{Name: "AL_UNCOMMITTED"}))
	assert.NoError(t, st.Close())

	st, err = store.OpenBadger(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, st.Close()) }()
	expect.EQ(t, alignmentNames(t, st), []string{"AL_MASTER"})
	got, ok, err := st.MemberSegments(ctx, "AL_MASTER", "S1")
	assert.NoError(t, err)
	expect.True(t, ok)
	expect.EQ(t, got, segment.List{seg(1, 3, 11, 13)})

	_, err = store.OpenBadger(store.BadgerConfig{})
	expect.True(t, errors.Is(errors.Invalid, err), "err %v", err)
}
