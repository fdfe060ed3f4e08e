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
	"fmt"
	"regexp"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/interval"
)

// Feature is a region of a reference sequence, such as a gene.
type Feature struct {
	Name    string
	RefName string
	// Spans are the feature's reference ranges.
	Spans []interval.Span
	// CodingStart is the first position of codon 1, or 0 for a non-coding
	// feature.
	CodingStart interval.PosType
}

// Validate checks the feature's spans.
func (f Feature) Validate() error {
	if f.RefName == "" {
		return errors.E(errors.Invalid, fmt.Sprintf("feature %s has no reference", f.Name))
	}
	if len(f.Spans) == 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("feature %s has no spans", f.Name))
	}
	for _, s := range f.Spans {
		if !s.Valid() {
			return errors.E(errors.Invalid, fmt.Sprintf("feature %s: invalid span %v", f.Name, s))
		}
	}
	if f.CodingStart != 0 && !interval.NewUnion(f.Spans).Contains(f.CodingStart) {
		return errors.E(errors.Invalid, fmt.Sprintf("feature %s: coding start %d is outside the feature", f.Name, f.CodingStart))
	}
	return nil
}

// Len returns the number of reference positions the feature covers.
func (f Feature) Len() int { return interval.NewUnion(f.Spans).Len() }

// Codon is a labelled codon of a coding feature.
type Codon struct {
	// Label numbers codons from 1 at the feature's coding start.
	Label int
	// Start is the reference position of the codon's first base. The codon
	// occupies Start..Start+2.
	Start interval.PosType
}

// Span returns the codon's reference span.
func (c Codon) Span() interval.Span { return interval.Span{Start: c.Start, End: c.Start + 2} }

// Codons labels the codons of f. The reading frame runs from CodingStart
// through the feature's spans in order, continuing across gaps between
// spans. A codon whose bases fall in different spans keeps its label but is
// omitted.
func (f Feature) Codons() []Codon {
	if f.CodingStart == 0 {
		return nil
	}
	var (
		r     []Codon
		u     = interval.NewUnion(f.Spans)
		sc    = u.Scanner()
		span  interval.Span
		label = 0
		phase = 0
	)
	for sc.Scan(&span, interval.PosTypeMax-1) {
		if span.End < f.CodingStart {
			continue
		}
		if span.Start < f.CodingStart {
			span.Start = f.CodingStart
		}
		for pos := span.Start; pos <= span.End; pos++ {
			if phase == 0 {
				label++
				// The bases are contiguous iff the union covers the whole codon.
				if c := (Codon{Label: label, Start: pos}); u.ContainsSpan(c.Span()) {
					r = append(r, c)
				}
			}
			phase = (phase + 1) % 3
		}
	}
	return r
}

// Variation is a pattern over a member's bases at a range of reference
// positions.
type Variation struct {
	Name    string
	RefName string
	Span    interval.Span
	// Pattern is matched against the member bases aligned to Span.
	Pattern *regexp.Regexp
}

// NewVariation compiles a variation. The pattern is anchored at both ends.
func NewVariation(name, refName string, span interval.Span, pattern string) (Variation, error) {
	if !span.Valid() {
		return Variation{}, errors.E(errors.Invalid, fmt.Sprintf("variation %s: invalid span %v", name, span))
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return Variation{}, errors.E(errors.Invalid, err, "variation", name)
	}
	return Variation{Name: name, RefName: refName, Span: span, Pattern: re}, nil
}
