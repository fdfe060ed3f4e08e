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

// This file contains the normalized span-list operations.  Inputs need not be
// normalized; every function normalizes its inputs first (an O(n log n) sort
// unless the input is already sorted) and returns a normalized list.

import "sort"

func isSorted(spans []Span) bool {
	return sort.SliceIsSorted(spans, func(i, j int) bool { return spans[i].Compare(spans[j]) < 0 })
}

// Normalize returns the union of spans as a sorted list of disjoint,
// non-adjacent spans.  spans is not modified.
func Normalize(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := spans
	if !isSorted(spans) {
		sorted = make([]Span, len(spans))
		copy(sorted, spans)
		SortSpans(sorted)
	}
	result := make([]Span, 0, len(sorted))
	cur := sorted[0]
	for _, s := range sorted[1:] {
		// Merge both overlapping and abutting spans; position sets are what
		// matter here, not the original span boundaries.
		if s.Start <= cur.End+1 {
			if s.End > cur.End {
				cur.End = s.End
			}
			continue
		}
		result = append(result, cur)
		cur = s
	}
	return append(result, cur)
}

// CoveredLength returns the number of distinct positions covered by spans.
func CoveredLength(spans []Span) int {
	return TotalLength(Normalize(spans))
}

// Intersect returns the positions covered by both a and b.
func Intersect(a, b []Span) []Span {
	a, b = Normalize(a), Normalize(b)
	var result []Span
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if s, ok := a[i].Intersect(b[j]); ok {
			result = append(result, s)
		}
		// Advance whichever span ends first; the other may still overlap the
		// next span on the opposite side.
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return result
}

// Subtract returns the positions covered by a but not by b.
func Subtract(a, b []Span) []Span {
	a, b = Normalize(a), Normalize(b)
	var result []Span
	j := 0
	for _, s := range a {
		for j < len(b) && b[j].End < s.Start {
			j++
		}
		cur := s
		k := j
		for ; k < len(b) && b[k].Start <= cur.End; k++ {
			if b[k].Start > cur.Start {
				result = append(result, Span{cur.Start, b[k].Start - 1})
			}
			if b[k].End >= cur.End {
				cur.Start = cur.End + 1
				break
			}
			cur.Start = b[k].End + 1
		}
		if cur.Start <= cur.End {
			result = append(result, cur)
		}
	}
	return result
}
