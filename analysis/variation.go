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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
)

// Presence is the outcome of scanning one member for one variation.
type Presence int

const (
	// NotCovered means the member does not map every position of the
	// variation.
	NotCovered Presence = iota
	// Absent means the member's bases do not match the pattern.
	Absent
	// Present means the member's bases match the pattern.
	Present
)

var presenceNames = [...]string{"not_covered", "absent", "present"}

func (p Presence) String() string {
	if p < 0 || int(p) >= len(presenceNames) {
		return fmt.Sprintf("Presence(%d)", int(p))
	}
	return presenceNames[p]
}

// VariationCount tallies one variation across members.
type VariationCount struct {
	Variation  string
	Present    int
	Absent     int
	NotCovered int
	// PresentIn lists the members in which the variation was found.
	PresentIn []store.MemberKey
}

// ScanMember reports whether the variation is present in a member. l must be
// in the variation's reference coordinates; nts is the member's sequence.
func ScanMember(v Variation, l segment.List, nts string) (Presence, error) {
	positions, ok := segment.NewIndex(l).MapRefs(v.Span.Start, v.Span.End)
	if !ok {
		return NotCovered, nil
	}
	bases, ok := memberBases(nts, positions)
	if !ok {
		return NotCovered, errors.E(errors.Integrity, fmt.Sprintf("variation %s maps beyond the end of the member sequence", v.Name))
	}
	if v.Pattern.MatchString(bases) {
		return Present, nil
	}
	return Absent, nil
}

// VariationScan scans every selected member of the targets for each
// variation. Each variation is evaluated in the coordinates of its own
// reference, which must constrain the target or one of its ancestors.
func (a *Analyzer) VariationScan(ctx context.Context, targets []alignment.Alignment, sel Selector, variations []Variation) ([]VariationCount, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	counts := make([]VariationCount, len(variations))
	for i, v := range variations {
		counts[i].Variation = v.Name
	}
	tr := a.Translator()
	for _, t := range targets {
		// Resolve every variation's chain before touching members.
		chains := make([]*alignment.Chain, len(variations))
		broken := false
		for i, v := range variations {
			c, err := tr.Chain(ctx, t.Name, v.RefName)
			if err != nil {
				if err = a.skipLinkage(err); err != nil {
					return nil, err
				}
				broken = true
				break
			}
			chains[i] = c
		}
		if broken {
			continue
		}
		keys, err := a.members(ctx, t.Name, sel)
		if err != nil {
			return nil, err
		}
		err = store.RunBatched(ctx, a.Session, keys, a.Opts.FrequencyBatchSize, func(ctx context.Context, key store.MemberKey) error {
			rec, err := a.readMember(ctx, key)
			if err != nil {
				return err
			}
			nts, err := a.sequence(ctx, key.Sequence)
			if err != nil {
				return err
			}
			for i, v := range variations {
				p, err := ScanMember(v, chains[i].Apply(rec.Segments), nts)
				if err != nil {
					return errors.E(err, "member", key.String())
				}
				switch p {
				case Present:
					counts[i].Present++
					counts[i].PresentIn = append(counts[i].PresentIn, key)
				case Absent:
					counts[i].Absent++
				default:
					counts[i].NotCovered++
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return counts, nil
}
