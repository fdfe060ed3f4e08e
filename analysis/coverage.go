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

	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/interval"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
)

// CoveragePercent returns the percentage of the reference positions in spans
// that l maps. l must be in the spans' reference coordinates. The result is
// in [0, 100]; it is 0 when spans is empty.
func CoveragePercent(l segment.List, spans []interval.Span) float64 {
	u := interval.NewUnion(spans)
	total := u.Len()
	if total == 0 {
		return 0
	}
	covered := interval.TotalLength(interval.Intersect(l.RefSpans(), u.Spans()))
	return 100 * float64(covered) / float64(total)
}

// MemberCoverage is the coverage of a feature by one member.
type MemberCoverage struct {
	store.MemberKey
	// Covered is the number of feature positions the member maps.
	Covered int
	// Percent is 100*Covered/feature length.
	Percent float64
}

// FeatureCoverage computes, for every selected member of each target
// alignment, the coverage of feature after translation to the feature's
// reference.
func (a *Analyzer) FeatureCoverage(ctx context.Context, targets []alignment.Alignment, sel Selector, feature Feature) ([]MemberCoverage, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if err := feature.Validate(); err != nil {
		return nil, err
	}
	chains, err := a.chains(ctx, targets, feature.RefName)
	if err != nil {
		return nil, err
	}
	var (
		r     []MemberCoverage
		spans = interval.Normalize(feature.Spans)
	)
	for _, c := range chains {
		keys, err := a.members(ctx, c.From().Name, sel)
		if err != nil {
			return nil, err
		}
		err = store.RunBatched(ctx, a.Session, keys, a.Opts.FrequencyBatchSize, func(ctx context.Context, key store.MemberKey) error {
			rec, err := a.readMember(ctx, key)
			if err != nil {
				return err
			}
			translated := segment.IntersectSpans(c.Apply(rec.Segments), spans)
			mc := MemberCoverage{
				MemberKey: key,
				Covered:   translated.CoveredLength(),
				Percent:   CoveragePercent(translated, spans),
			}
			if log.At(log.Debug) {
				log.Debug.Printf("coverage %s %s: %.2f%%", key, feature.Name, mc.Percent)
			}
			r = append(r, mc)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}
