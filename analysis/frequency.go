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

package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/interval"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
)

// Sampled reports whether a sequence is included under SampleFraction.
func (o Opts) Sampled(seqID string) bool {
	if o.SampleFraction >= 1 {
		return true
	}
	h := farm.Hash64WithSeed([]byte(seqID), o.SampleSeed)
	return float64(h) < o.SampleFraction*math.MaxUint64
}

// memberBases extracts the bases at 1-based member positions. It returns
// false if a position is outside the sequence.
func memberBases(nts string, positions []interval.PosType) (string, bool) {
	b := make([]byte, len(positions))
	for i, p := range positions {
		if p < 1 || int(p) > len(nts) {
			return "", false
		}
		b[i] = nts[p-1]
	}
	return string(b), true
}

// CodonFrequency tallies the residues members encode at one codon.
type CodonFrequency struct {
	Codon
	// Counts maps residues to the number of members encoding them.
	Counts map[byte]int
}

// Total returns the number of members with an unambiguous residue.
func (c CodonFrequency) Total() int {
	n := 0
	for _, v := range c.Counts {
		n += v
	}
	return n
}

// AminoAcidFrequency translates every sampled, selected member of the
// targets to the feature's reference and tallies the residue each member
// encodes at each labelled codon. Members that do not cover all three bases
// of a codon, or whose codon is ambiguous, are not counted for it.
func (a *Analyzer) AminoAcidFrequency(ctx context.Context, targets []alignment.Alignment, sel Selector, feature Feature) ([]CodonFrequency, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if err := feature.Validate(); err != nil {
		return nil, err
	}
	codons := feature.Codons()
	if len(codons) == 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("feature %s has no codons", feature.Name))
	}
	freqs := make([]CodonFrequency, len(codons))
	for i, c := range codons {
		freqs[i] = CodonFrequency{Codon: c, Counts: map[byte]int{}}
	}
	chains, err := a.chains(ctx, targets, feature.RefName)
	if err != nil {
		return nil, err
	}
	spans := interval.Normalize(feature.Spans)
	for _, c := range chains {
		keys, err := a.members(ctx, c.From().Name, sel)
		if err != nil {
			return nil, err
		}
		var sampled []store.MemberKey
		for _, k := range keys {
			if a.Opts.Sampled(k.Sequence) {
				sampled = append(sampled, k)
			}
		}
		log.Printf("amino acid frequency %s: %d of %d members of %s sampled",
			feature.Name, len(sampled), len(keys), c.From().Name)
		err = store.RunBatched(ctx, a.Session, sampled, a.Opts.FrequencyBatchSize, func(ctx context.Context, key store.MemberKey) error {
			rec, err := a.readMember(ctx, key)
			if err != nil {
				return err
			}
			translated := segment.IntersectSpans(c.Apply(rec.Segments), spans)
			if len(translated) == 0 {
				return nil
			}
			nts, err := a.sequence(ctx, key.Sequence)
			if err != nil {
				return err
			}
			idx := segment.NewIndex(translated)
			for i := range freqs {
				cs := freqs[i].Span()
				positions, ok := idx.MapRefs(cs.Start, cs.End)
				if !ok {
					continue
				}
				bases, ok := memberBases(nts, positions)
				if !ok {
					return errors.E(errors.Integrity,
						fmt.Sprintf("member %s maps beyond the end of its sequence", key))
				}
				if aa := TranslateCodon(bases); aa != Ambiguous {
					freqs[i].Counts[aa]++
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return freqs, nil
}
