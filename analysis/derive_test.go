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

package analysis_test

import (
	"context"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func memberSegments(t *testing.T, st store.Store, alignment, seq string) segment.List {
	l, ok, err := st.MemberSegments(context.Background(), alignment, seq)
	require.NoError(t, err)
	require.True(t, ok, "%s is not a member of %s", seq, alignment)
	return l
}

func TestDerive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	a := newTestAnalyzer(t, st, analysis.DefaultOpts)

	req := analysis.DeriveRequest{
		Source:   "AL_A",
		Target:   "AL_MASTER",
		Selector: sMembers,
		Strategy: segment.Overwrite,
	}
	stats, err := a.Derive(ctx, req)
	assert.NoError(t, err)
	expect.EQ(t, stats, analysis.WriteStats{Updated: 3})
	expect.EQ(t, memberSegments(t, st, "AL_MASTER", "S1"), segment.List{seg(1, 15, 1, 15)})
	expect.EQ(t, memberSegments(t, st, "AL_MASTER", "S2"), segment.List{seg(1, 6, 3, 8)})
	expect.EQ(t, memberSegments(t, st, "AL_MASTER", "S3"), segment.List{seg(1, 15, 1, 15)})

	// Deriving again changes nothing.
	stats, err = a.Derive(ctx, req)
	assert.NoError(t, err)
	expect.EQ(t, stats, analysis.WriteStats{Unchanged: 3})

	// Source and target must be related by ancestry.
	req.Source, req.Target = "AL_B", "AL_A"
	_, err = a.Derive(ctx, req)
	expect.True(t, errors.Is(errors.Precondition, err), "err %v", err)

	req.Source, req.Target = "AL_A", "AL_NONE"
	_, err = a.Derive(ctx, req)
	expect.True(t, errors.Is(errors.NotExist, err), "err %v", err)

	req.Target = "AL_MASTER"
	req.Selector = analysis.Selector{}
	_, err = a.Derive(ctx, req)
	expect.True(t, errors.Is(errors.Invalid, err), "err %v", err)
}

func TestDeriveRecursiveSkipsBrokenLinks(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	opts := analysis.DefaultOpts
	opts.SuppressLinkageWarnings = true
	a := newTestAnalyzer(t, st, opts)
	stats, err := a.Derive(ctx, analysis.DeriveRequest{
		Source:    "AL_MASTER",
		Recursive: true,
		Target:    "AL_MASTER",
		Selector:  allMembers,
		Strategy:  segment.Overwrite,
	})
	assert.NoError(t, err)
	expect.EQ(t, stats, analysis.WriteStats{Updated: 4})
	expect.EQ(t, a.Warnings(), []*alignment.LinkageError{{Alignment: "AL_B", Parent: "AL_MASTER", Reference: "R0"}})
	members, err := st.Members(ctx, "AL_MASTER", nil)
	assert.NoError(t, err)
	expect.EQ(t, members, []string{"R0", "S1", "S2", "S3"})
}

func TestDeriveMerge(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_MASTER", "S2", segment.List{seg(4, 9, 20, 25)}))
	assert.NoError(t, st.Commit(ctx))
	a := newTestAnalyzer(t, st, analysis.DefaultOpts)
	req := analysis.DeriveRequest{
		Source:   "AL_A",
		Target:   "AL_MASTER",
		Selector: analysis.Selector{AllMembers: true},
		Strategy: segment.PreferExisting,
	}
	// Derived S2 is R0 1-6 <-> S2 3-8; existing wins on R0 4-6.
	_, err := a.Derive(ctx, req)
	assert.NoError(t, err)
	expect.EQ(t, memberSegments(t, st, "AL_MASTER", "S2"), segment.List{seg(1, 3, 3, 5), seg(4, 9, 20, 25)})

	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_MASTER", "S2", segment.List{seg(4, 9, 20, 25)}))
	assert.NoError(t, st.Commit(ctx))
	req.Strategy = segment.PreferNew
	_, err = a.Derive(ctx, req)
	assert.NoError(t, err)
	expect.EQ(t, memberSegments(t, st, "AL_MASTER", "S2"), segment.List{seg(1, 6, 3, 8), seg(7, 9, 23, 25)})

	// Existing segments that claim the same member positions as derived
	// ones cannot be merged.
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_MASTER", "S2", segment.List{seg(10, 15, 3, 8)}))
	assert.NoError(t, st.Commit(ctx))
	req.Strategy = segment.PreferExisting
	_, err = a.Derive(ctx, req)
	expect.True(t, errors.Is(errors.Integrity, err), "err %v", err)
	expect.HasSubstr(t, err.Error(), "AL_MASTER/S2")
}
