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
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/homology/interval"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func counts(freqs []analysis.CodonFrequency) map[int]map[byte]int {
	r := map[int]map[byte]int{}
	for _, f := range freqs {
		r[f.Label] = f.Counts
	}
	return r
}

func TestAminoAcidFrequency(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	opts := analysis.DefaultOpts
	opts.FrequencyBatchSize = 2
	a := newTestAnalyzer(t, st, opts)
	targets, err := a.Targets("AL_A", false)
	assert.NoError(t, err)

	freqs, err := a.AminoAcidFrequency(ctx, targets, sMembers, featureF)
	assert.NoError(t, err)
	expect.EQ(t, len(freqs), 5)
	expect.EQ(t, counts(freqs), map[int]map[byte]int{
		1: {'M': 3},
		2: {'K': 2},
		3: {'A': 1, 'P': 1},
		4: {'G': 2},
		5: {'*': 2},
	})
	expect.EQ(t, freqs[0].Total(), 3)
	expect.EQ(t, freqs[2].Start, interval.PosType(7))
	// Three members in batches of two: two commits.
	expect.EQ(t, a.Session.Generation(), 2)

	nonCoding := featureF
	nonCoding.CodingStart = 0
	_, err = a.AminoAcidFrequency(ctx, targets, sMembers, nonCoding)
	expect.True(t, errors.Is(errors.Invalid, err), "err %v", err)
}

func TestAminoAcidFrequencyMissingSequence(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	assert.NoError(t, st.ReplaceMemberSegments(ctx, "AL_A", "S9", segment.List{seg(3, 5, 1, 3)}))
	assert.NoError(t, st.Commit(ctx))
	a := newTestAnalyzer(t, st, analysis.DefaultOpts)
	targets, err := a.Targets("AL_A", false)
	assert.NoError(t, err)
	_, err = a.AminoAcidFrequency(ctx, targets, sMembers, featureF)
	expect.True(t, errors.Is(errors.NotExist, err), "err %v", err)
}

func TestVariationScan(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	a := newTestAnalyzer(t, st, analysis.DefaultOpts)
	targets, err := a.Targets("AL_A", false)
	assert.NoError(t, err)

	alanine, err := analysis.NewVariation("P3A", "R0", interval.Span{Start: 7, End: 9}, "GC[ACGT]")
	assert.NoError(t, err)
	start, err := analysis.NewVariation("start", "R0", interval.Span{Start: 1, End: 3}, "ATG")
	assert.NoError(t, err)
	r1Prefix, err := analysis.NewVariation("prefix", "R1", interval.Span{Start: 1, End: 2}, "CC")
	assert.NoError(t, err)

	got, err := a.VariationScan(ctx, targets, sMembers, []analysis.Variation{alanine, start, r1Prefix})
	assert.NoError(t, err)
	s := func(seq string) store.MemberKey { return store.MemberKey{Alignment: "AL_A", Sequence: seq} }
	expect.EQ(t, got, []analysis.VariationCount{
		{Variation: "P3A", Present: 1, Absent: 1, NotCovered: 1, PresentIn: []store.MemberKey{s("S1")}},
		{Variation: "start", Present: 3, PresentIn: []store.MemberKey{s("S1"), s("S2"), s("S3")}},
		{Variation: "prefix", NotCovered: 3},
	})

	p, err := analysis.ScanMember(start, segment.List{seg(1, 3, 4, 6)}, "AAAATG")
	assert.NoError(t, err)
	expect.EQ(t, p, analysis.Present)
	expect.EQ(t, p.String(), "present")
	_, err = analysis.ScanMember(start, segment.List{seg(1, 3, 4, 6)}, "AAA")
	expect.True(t, errors.Is(errors.Integrity, err), "err %v", err)
}
