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

package segment

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/interval"
)

// PosType is the coordinate type.
type PosType = interval.PosType

// Segment is a gapless, collinear mapping between a reference span and an
// equal-length query span.
type Segment struct {
	RefStart   PosType
	RefEnd     PosType
	QueryStart PosType
	QueryEnd   PosType
}

// RefSpan returns the reference-axis span of s.
func (s Segment) RefSpan() interval.Span { return interval.Span{Start: s.RefStart, End: s.RefEnd} }

// QuerySpan returns the query-axis span of s.
func (s Segment) QuerySpan() interval.Span { return interval.Span{Start: s.QueryStart, End: s.QueryEnd} }

// Len returns the number of positions mapped by s.
func (s Segment) Len() int { return int(s.RefEnd-s.RefStart) + 1 }

// Valid checks that both spans are valid and have equal length.
func (s Segment) Valid() bool {
	return s.RefSpan().Valid() && s.QuerySpan().Valid() && s.RefEnd-s.RefStart == s.QueryEnd-s.QueryStart
}

// Invert swaps the reference and query roles.
func (s Segment) Invert() Segment {
	return Segment{RefStart: s.QueryStart, RefEnd: s.QueryEnd, QueryStart: s.RefStart, QueryEnd: s.RefEnd}
}

// MapRef returns the query position paired with reference position pos.
//
// REQUIRES: s.RefSpan().Contains(pos)
func (s Segment) MapRef(pos PosType) PosType {
	return s.QueryStart + (pos - s.RefStart)
}

// MapQuery returns the reference position paired with query position pos.
//
// REQUIRES: s.QuerySpan().Contains(pos)
func (s Segment) MapQuery(pos PosType) PosType {
	return s.RefStart + (pos - s.QueryStart)
}

// restrictRef returns the part of s whose reference positions lie in
// [lo, hi].
//
// REQUIRES: s.RefStart <= lo <= hi <= s.RefEnd
func (s Segment) restrictRef(lo, hi PosType) Segment {
	return Segment{RefStart: lo, RefEnd: hi, QueryStart: s.MapRef(lo), QueryEnd: s.MapRef(hi)}
}

// String returns "[refStart-refEnd]->[queryStart-queryEnd]".
func (s Segment) String() string {
	return fmt.Sprintf("[%d-%d]->[%d-%d]", s.RefStart, s.RefEnd, s.QueryStart, s.QueryEnd)
}

// List is an ordered collection of segments.  Lists produced by this package
// are sorted by RefStart.
type List []Segment

// Clone returns a copy of l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	c := make(List, len(l))
	copy(c, l)
	return c
}

// Sort sorts l in place by (RefStart, QueryStart).
func (l List) Sort() {
	sort.Slice(l, func(i, j int) bool {
		if l[i].RefStart != l[j].RefStart {
			return l[i].RefStart < l[j].RefStart
		}
		return l[i].QueryStart < l[j].QueryStart
	})
}

func (l List) sortedByRef() bool {
	return sort.SliceIsSorted(l, func(i, j int) bool { return l[i].RefStart < l[j].RefStart })
}

// byRef returns l sorted by RefStart, copying only if l isn't sorted already.
func (l List) byRef() List {
	if l.sortedByRef() {
		return l
	}
	c := l.Clone()
	c.Sort()
	return c
}

// byQuery returns l sorted by QueryStart, copying only if necessary.
func (l List) byQuery() List {
	less := func(c List) func(i, j int) bool {
		return func(i, j int) bool { return c[i].QueryStart < c[j].QueryStart }
	}
	if sort.SliceIsSorted(l, less(l)) {
		return l
	}
	c := l.Clone()
	sort.Slice(c, less(c))
	return c
}

// RefSpans returns the normalized reference-axis coverage of l.
func (l List) RefSpans() []interval.Span {
	spans := make([]interval.Span, len(l))
	for i, s := range l {
		spans[i] = s.RefSpan()
	}
	return interval.Normalize(spans)
}

// QuerySpans returns the normalized query-axis coverage of l.
func (l List) QuerySpans() []interval.Span {
	spans := make([]interval.Span, len(l))
	for i, s := range l {
		spans[i] = s.QuerySpan()
	}
	return interval.Normalize(spans)
}

// CoveredLength returns the number of reference positions mapped by l.
func (l List) CoveredLength() int {
	return interval.TotalLength(l.RefSpans())
}

// Validate checks the member segment set invariants: every segment is valid
// (equal reference and query lengths), and no two segments overlap on either
// axis.  Violations are reported as errors.Integrity; a stored list that
// fails validation is corrupt and must not be repaired silently.
func Validate(l List) error {
	for _, s := range l {
		if !s.Valid() {
			return errors.E(errors.Integrity, fmt.Sprintf("segment %v: reference length %d and query length %d disagree or bounds are invalid",
				s, s.RefEnd-s.RefStart+1, s.QueryEnd-s.QueryStart+1))
		}
	}
	ref := l.byRef()
	for i := 1; i < len(ref); i++ {
		if ref[i].RefStart <= ref[i-1].RefEnd {
			return errors.E(errors.Integrity, fmt.Sprintf("segments %v and %v overlap in reference coordinates", ref[i-1], ref[i]))
		}
	}
	query := l.byQuery()
	for i := 1; i < len(query); i++ {
		if query[i].QueryStart <= query[i-1].QueryEnd {
			return errors.E(errors.Integrity, fmt.Sprintf("segments %v and %v overlap in query coordinates", query[i-1], query[i]))
		}
	}
	return nil
}
