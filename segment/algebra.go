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

import "github.com/grailbio/homology/interval"

// Invert swaps the reference and query roles of every segment.  The result is
// sorted by its new RefStart; it is disjoint on that axis whenever the input
// was disjoint on its query axis.
func Invert(l List) List {
	if len(l) == 0 {
		return nil
	}
	result := make(List, len(l))
	for i, s := range l {
		result[i] = s.Invert()
	}
	result.Sort()
	return result
}

// Translate composes two mappings.  ab maps an A axis (reference) to a B axis
// (query); bc maps the same B axis (reference) to a C axis (query).  The
// result maps A to C over exactly the B positions covered by both inputs.
// Positions covered by only one side are dropped, so the coverage of the
// result never exceeds that of either input.
//
// Both inputs must be disjoint on B.  The composition is a single two-pointer
// sweep along B after sorting; the result is sorted by RefStart.
func Translate(ab, bc List) List {
	a := ab.byQuery()
	b := bc.byRef()
	var result List
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		m1, m2 := a[i], b[j]
		lo, hi := m1.QueryStart, m1.QueryEnd
		if m2.RefStart > lo {
			lo = m2.RefStart
		}
		if m2.RefEnd < hi {
			hi = m2.RefEnd
		}
		if lo <= hi {
			result = append(result, Segment{
				RefStart:   m1.MapQuery(lo),
				RefEnd:     m1.MapQuery(hi),
				QueryStart: m2.MapRef(lo),
				QueryEnd:   m2.MapRef(hi),
			})
		}
		if m1.QueryEnd < m2.RefEnd {
			i++
		} else {
			j++
		}
	}
	result.Sort()
	return result
}

// Merger picks, for a pair of segments overlapping on the reference axis,
// the segment whose query mapping survives on the overlap.
type Merger func(left, right Segment) Segment

// LeftWins is the default Merger: the left operand's mapping survives.
func LeftWins(left, right Segment) Segment { return left }

// RightWins makes the right operand's mapping survive.
func RightWins(left, right Segment) Segment { return right }

// Intersect returns the reference positions mapped by both a and b.  On each
// overlapping piece the query mapping comes from merger(aSeg, bSeg); a nil
// merger means LeftWins.  Both inputs must be disjoint on the reference axis.
func Intersect(a, b List, merger Merger) List {
	if merger == nil {
		merger = LeftWins
	}
	a, b = a.byRef(), b.byRef()
	var result List
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if ov, ok := a[i].RefSpan().Intersect(b[j].RefSpan()); ok {
			result = append(result, merger(a[i], b[j]).restrictRef(ov.Start, ov.End))
		}
		if a[i].RefEnd < b[j].RefEnd {
			i++
		} else {
			j++
		}
	}
	return result
}

// IntersectSpans restricts l to the reference positions in spans, e.g. to a
// feature location.  Segments straddling a span boundary are split.
func IntersectSpans(l List, spans []interval.Span) List {
	l = l.byRef()
	spans = interval.Normalize(spans)
	var result List
	i, j := 0, 0
	for i < len(l) && j < len(spans) {
		if ov, ok := l[i].RefSpan().Intersect(spans[j]); ok {
			result = append(result, l[i].restrictRef(ov.Start, ov.End))
		}
		if l[i].RefEnd < spans[j].End {
			i++
		} else {
			j++
		}
	}
	return result
}

// SubtractSpans returns the parts of l whose reference positions are not in
// spans.
func SubtractSpans(l List, spans []interval.Span) List {
	return IntersectSpans(l, interval.Subtract(l.RefSpans(), spans))
}

// Subtract returns the parts of a whose reference positions are not mapped by
// b.
func Subtract(a, b List) List {
	return SubtractSpans(a, b.RefSpans())
}

// CoalesceAdjacent merges consecutive segments that abut on both axes, e.g.
// [1-10]->[101-110] and [11-20]->[111-120] become [1-20]->[101-120].  The
// mapping is unchanged; only its representation gets shorter.
func CoalesceAdjacent(l List) List {
	if len(l) == 0 {
		return nil
	}
	l = l.byRef()
	result := make(List, 0, len(l))
	cur := l[0]
	for _, s := range l[1:] {
		if s.RefStart == cur.RefEnd+1 && s.QueryStart == cur.QueryEnd+1 {
			cur.RefEnd = s.RefEnd
			cur.QueryEnd = s.QueryEnd
			continue
		}
		result = append(result, cur)
		cur = s
	}
	return append(result, cur)
}
