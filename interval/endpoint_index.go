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

import "sort"

// This file includes support datatypes and functions for representing a
// normalized span list as a []PosType of sorted half-open endpoints, which
// makes point and span queries a binary search.
//
// For example, given the closed spans
//
//	[5, 14]
//	[7, 16]
//	[20, 24]
//
// the union is [5, 16] U [20, 24], and the endpoint sequence is
//
//	{5, 17, 20, 25}
//
// i.e. each span contributes Start and End+1.
//
// A position pos is covered iff the number of endpoints <= pos is odd.

// SearchPosTypes returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchInts(), except for PosType.
func SearchPosTypes(a []PosType, x PosType) EndpointIndex {
	return EndpointIndex(sort.Search(len(a), func(i int) bool { return a[i] >= x }))
}

// EndpointIndex is intended to represent the result of
// SearchPosTypes(endpoints, pos+1).
// NOTE THE "+1"!  This is what makes an odd index mean "inside a span".
type EndpointIndex uint32

// Contained returns whether we're inside a span.
func (ei EndpointIndex) Contained() bool {
	return ei&1 != 0
}

// Union is a normalized span list in endpoint form, supporting fast
// containment queries.
type Union struct {
	endpoints []PosType
}

// NewUnion builds a Union from arbitrary (possibly overlapping) spans.
func NewUnion(spans []Span) *Union {
	norm := Normalize(spans)
	u := &Union{endpoints: make([]PosType, 0, 2*len(norm))}
	for _, s := range norm {
		u.endpoints = append(u.endpoints, s.Start, s.End+1)
	}
	return u
}

// Contains checks whether pos is covered by the union.
func (u *Union) Contains(pos PosType) bool {
	return SearchPosTypes(u.endpoints, pos+1).Contained()
}

// ContainsSpan checks whether every position of s is covered.
func (u *Union) ContainsSpan(s Span) bool {
	idx := SearchPosTypes(u.endpoints, s.Start+1)
	if !idx.Contained() {
		return false
	}
	// endpoints[idx] is End+1 of the span containing s.Start.
	return u.endpoints[idx] > s.End
}

// Len returns the number of covered positions.
func (u *Union) Len() int {
	n := 0
	for i := 0; i < len(u.endpoints); i += 2 {
		n += int(u.endpoints[i+1] - u.endpoints[i])
	}
	return n
}

// Spans returns the normalized spans of the union.
func (u *Union) Spans() []Span {
	spans := make([]Span, 0, len(u.endpoints)/2)
	for i := 0; i < len(u.endpoints); i += 2 {
		spans = append(spans, Span{u.endpoints[i], u.endpoints[i+1] - 1})
	}
	return spans
}

// Scanner returns a UnionScanner positioned at the first span.
func (u *Union) Scanner() UnionScanner {
	return NewUnionScanner(u.endpoints)
}

// UnionScanner supports iteration over the positions of a Union.
// Invariants:
//
//	endpointIdx == SearchPosTypes(endpoints, pos+1)
//	pos is either contained in a span, or is PosTypeMax
type UnionScanner struct {
	endpoints   []PosType
	pos         PosType
	endpointIdx EndpointIndex
}

// NewUnionScanner returns a UnionScanner initialized to the first span of the
// given endpoint sequence.
func NewUnionScanner(endpoints []PosType) UnionScanner {
	startPos := PosType(PosTypeMax)
	startEndpointIdx := EndpointIndex(0)
	if len(endpoints) >= 1 {
		startPos = endpoints[0]
		startEndpointIdx = 1
	}
	return UnionScanner{
		endpoints:   endpoints,
		pos:         startPos,
		endpointIdx: startEndpointIdx,
	}
}

// Scan is written so that the following loop visits every covered position
// up to and including limit:
//
//	for us.Scan(&span, limit) {
//	  for pos := span.Start; pos <= span.End; pos++ {
//	    // ...do stuff with pos...
//	  }
//	}
func (us *UnionScanner) Scan(span *Span, limit PosType) bool {
	if us.pos > limit || us.pos == PosTypeMax {
		return false
	}
	span.Start = us.pos
	spanEnd := us.endpoints[us.endpointIdx] - 1
	if spanEnd > limit {
		span.End = limit
		us.pos = limit + 1
		return true
	}
	span.End = spanEnd
	us.endpointIdx++
	if int(us.endpointIdx) >= len(us.endpoints) {
		us.pos = PosTypeMax
	} else {
		us.pos = us.endpoints[us.endpointIdx]
		us.endpointIdx++
	}
	return true
}
