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
	"regexp"
	"testing"

	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/homology/interval"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"github.com/stretchr/testify/require"
)

func seg(rs, re, qs, qe segment.PosType) segment.Segment {
	return segment.Segment{RefStart: rs, RefEnd: re, QueryStart: qs, QueryEnd: qe}
}

// R0 encodes M K P G *. R1 is R0 with two extra leading bases.
const (
	r0 = "ATGAAACCCGGGTAA"
	r1 = "CC" + r0
)

var (
	allMembers = analysis.Selector{AllMembers: true}
	sMembers   = analysis.Selector{Where: regexp.MustCompile("^S")}
	featureF   = analysis.Feature{
		Name:        "F",
		RefName:     "R0",
		Spans:       []interval.Span{{Start: 1, End: 15}},
		CodingStart: 1,
	}
)

// newTestStore builds
//
//	AL_MASTER [R0]
//	  AL_A [R1]: members R0, S1, S2, S3
//	  AL_B [R2]: member S4; R0 is not a member, so the link is broken
func newTestStore(t *testing.T) *store.MemStore {
	ctx := context.Background()
	st := store.NewMemStore()
	for _, a := range []alignment.Alignment{
		{Name: "AL_MASTER", RefName: "R0"},
		{Name: "AL_A", RefName: "R1", Parent: "AL_MASTER"},
		{Name: "AL_B", RefName: "R2", Parent: "AL_MASTER"},
	} {
		require.NoError(t, st.PutAlignment(ctx, a))
	}
	for _, s := range []store.Sequence{
		{ID: "R0", Nucleotides: r0},
		{ID: "R1", Nucleotides: r1},
		{ID: "R2", Nucleotides: r0},
		{ID: "S1", Nucleotides: "ATGAAAGCCGGGTAA"},
		{ID: "S2", Nucleotides: "GGATGAAA"},
		{ID: "S3", Nucleotides: "ATGNNNCCCGGGTAA"},
		{ID: "S4", Nucleotides: r0},
	} {
		require.NoError(t, st.PutSequence(ctx, s))
	}
	for _, m := range []struct {
		alignment, seq string
		segs           segment.List
	}{
		{"AL_A", "R0", segment.List{seg(3, 17, 1, 15)}},
		{"AL_A", "S1", segment.List{seg(3, 17, 1, 15)}},
		{"AL_A", "S2", segment.List{seg(3, 8, 3, 8)}},
		{"AL_A", "S3", segment.List{seg(3, 17, 1, 15)}},
		{"AL_B", "S4", segment.List{seg(1, 15, 1, 15)}},
	} {
		require.NoError(t, st.ReplaceMemberSegments(ctx, m.alignment, m.seq, m.segs))
	}
	require.NoError(t, st.Commit(ctx))
	return st
}

func newTestAnalyzer(t *testing.T, st store.Store, opts analysis.Opts) *analysis.Analyzer {
	a, err := analysis.New(context.Background(), st, opts)
	require.NoError(t, err)
	return a
}
