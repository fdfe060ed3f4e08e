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

import "github.com/biogo/store/llrb"

type indexEntry struct {
	seg Segment
}

// Compare compares two entries by RefStart for use in llrb.
func (e indexEntry) Compare(c llrb.Comparable) int {
	return int(e.seg.RefStart) - int(c.(indexEntry).seg.RefStart)
}

// Index supports point lookups of reference positions in a segment list
// whose reference spans are disjoint.  Thread compatible.
type Index struct {
	byRef llrb.Tree // byRef orders the segments by RefStart.
}

// NewIndex builds an Index over l.
//
// REQUIRES: l is disjoint on the reference axis.
func NewIndex(l List) *Index {
	idx := &Index{}
	for _, s := range l {
		idx.byRef.Insert(indexEntry{s})
	}
	return idx
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int { return idx.byRef.Len() }

// Find returns the segment mapping reference position pos.
func (idx *Index) Find(pos PosType) (Segment, bool) {
	c := idx.byRef.Floor(indexEntry{Segment{RefStart: pos}})
	if c == nil {
		return Segment{}, false
	}
	s := c.(indexEntry).seg
	if s.RefEnd < pos {
		return Segment{}, false
	}
	return s, true
}

// MapRef returns the query position paired with reference position pos, if
// pos is mapped.
func (idx *Index) MapRef(pos PosType) (PosType, bool) {
	s, ok := idx.Find(pos)
	if !ok {
		return 0, false
	}
	return s.MapRef(pos), true
}

// MapRefs maps every position in [start, end].  It returns false if any
// position in the range is unmapped.  Positions are returned in reference
// order; consecutive query positions need not be contiguous when the range
// spans several segments.
func (idx *Index) MapRefs(start, end PosType) ([]PosType, bool) {
	result := make([]PosType, 0, end-start+1)
	for pos := start; pos <= end; {
		s, ok := idx.Find(pos)
		if !ok {
			return nil, false
		}
		for ; pos <= end && pos <= s.RefEnd; pos++ {
			result = append(result, s.MapRef(pos))
		}
	}
	return result, true
}
