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

package interval

import (
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/base/errors"
)

// PosType is the type used to represent sequence coordinates.  Virus genomes
// are tiny compared to what int32 can address, but keeping the same width as
// our alignment-file code avoids conversions at package boundaries.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Span is a closed, 1-based interval [Start, End].
type Span struct {
	Start PosType
	End   PosType
}

// NewSpan returns Span{start, end}, or an errors.Invalid error if start < 1
// or end < start.
func NewSpan(start, end PosType) (Span, error) {
	s := Span{start, end}
	if !s.Valid() {
		return Span{}, errors.E(errors.Invalid, fmt.Sprintf("interval.NewSpan: invalid span %d-%d", start, end))
	}
	return s, nil
}

// Valid checks the Span invariants.
func (s Span) Valid() bool {
	return s.Start >= 1 && s.Start <= s.End
}

// Len returns the number of positions covered by s.
func (s Span) Len() int {
	return int(s.End-s.Start) + 1
}

// Contains returns true iff pos is inside s.
func (s Span) Contains(pos PosType) bool {
	return s.Start <= pos && pos <= s.End
}

// ContainsSpan returns true iff (s ∩ o) = o.
func (s Span) ContainsSpan(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Overlaps returns true iff (s ∩ o) != ∅.
func (s Span) Overlaps(o Span) bool {
	return s.Start <= o.End && o.Start <= s.End
}

// Intersect returns s ∩ o.  The second return value is false if the
// intersection is empty, in which case the returned Span is meaningless.
func (s Span) Intersect(o Span) (Span, bool) {
	lo, hi := s.Start, s.End
	if o.Start > lo {
		lo = o.Start
	}
	if o.End < hi {
		hi = o.End
	}
	return Span{lo, hi}, lo <= hi
}

// EntirelyBefore returns true iff every position of s is smaller than every
// position of o.
func (s Span) EntirelyBefore(o Span) bool {
	return s.End < o.Start
}

// Abuts returns true iff o starts immediately after s ends.
func (s Span) Abuts(o Span) bool {
	return s.End+1 == o.Start
}

// Compare returns (negative int, 0, positive int) if (s<o, s=o, s>o)
// respectively, ordering by Start and then End.
func (s Span) Compare(o Span) int {
	if s.Start != o.Start {
		return int(s.Start) - int(o.Start)
	}
	return int(s.End) - int(o.End)
}

// String returns "start-end".
func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// SortSpans sorts spans in place by (Start, End).
func SortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool { return spans[i].Compare(spans[j]) < 0 })
}

// TotalLength returns the sum of the span lengths.  Overlapping positions are
// counted once per span; call Union first to count them once.
func TotalLength(spans []Span) int {
	n := 0
	for _, s := range spans {
		n += s.Len()
	}
	return n
}
