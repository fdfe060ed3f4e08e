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
	"encoding/binary"
	"fmt"

	"blainsmith.com/go/seahash"
	"github.com/golang/snappy"
	"github.com/grailbio/base/errors"
)

// Storage format of a segment list:
//
//	uvarint  number of segments
//	per segment, in RefStart order:
//	  varint  RefStart - previous RefEnd (previous RefEnd is 0 initially)
//	  uvarint RefEnd - RefStart
//	  varint  QueryStart - RefStart
//
// The whole buffer is then snappy-compressed.  Segments are stored sorted,
// so deltas are small for realistic member segment sets.

// Encode serializes l in the storage format.  l is not modified.
func Encode(l List) []byte {
	l = l.byRef()
	buf := make([]byte, 0, binary.MaxVarintLen64*(1+3*len(l)))
	buf = binary.AppendUvarint(buf, uint64(len(l)))
	prevEnd := int64(0)
	for _, s := range l {
		buf = binary.AppendVarint(buf, int64(s.RefStart)-prevEnd)
		buf = binary.AppendUvarint(buf, uint64(s.RefEnd-s.RefStart))
		buf = binary.AppendVarint(buf, int64(s.QueryStart)-int64(s.RefStart))
		prevEnd = int64(s.RefEnd)
	}
	return snappy.Encode(nil, buf)
}

// Decode parses the storage format produced by Encode.  Corrupt data is
// reported as errors.Integrity.
func Decode(data []byte) (List, error) {
	buf, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.E(errors.Integrity, err, "segment.Decode: corrupt segment data")
	}
	corrupt := func(what string) error {
		return errors.E(errors.Integrity, fmt.Sprintf("segment.Decode: truncated segment data (%s)", what))
	}
	n, k := binary.Uvarint(buf)
	if k <= 0 {
		return nil, corrupt("count")
	}
	buf = buf[k:]
	if n == 0 {
		return nil, nil
	}
	l := make(List, 0, n)
	prevEnd := int64(0)
	for i := uint64(0); i < n; i++ {
		dStart, k1 := binary.Varint(buf)
		if k1 <= 0 {
			return nil, corrupt("ref start")
		}
		buf = buf[k1:]
		span, k2 := binary.Uvarint(buf)
		if k2 <= 0 {
			return nil, corrupt("ref length")
		}
		buf = buf[k2:]
		dQuery, k3 := binary.Varint(buf)
		if k3 <= 0 {
			return nil, corrupt("query start")
		}
		buf = buf[k3:]
		refStart := prevEnd + dStart
		s := Segment{
			RefStart:   PosType(refStart),
			RefEnd:     PosType(refStart + int64(span)),
			QueryStart: PosType(refStart + dQuery),
			QueryEnd:   PosType(refStart + dQuery + int64(span)),
		}
		l = append(l, s)
		prevEnd = int64(s.RefEnd)
	}
	if len(buf) != 0 {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("segment.Decode: %d trailing bytes", len(buf)))
	}
	return l, nil
}

// Fingerprint returns a hash of the mapping represented by l.  Lists that
// differ only in segment order have the same fingerprint; lists that differ
// only in how a mapping is split into segments do not (coalesce first if that
// matters).
func Fingerprint(l List) uint64 {
	l = l.byRef()
	h := seahash.New()
	var buf [16]byte
	for _, s := range l {
		binary.LittleEndian.PutUint32(buf[0:4], uint32(s.RefStart))
		binary.LittleEndian.PutUint32(buf[4:8], uint32(s.RefEnd))
		binary.LittleEndian.PutUint32(buf[8:12], uint32(s.QueryStart))
		binary.LittleEndian.PutUint32(buf[12:16], uint32(s.QueryEnd))
		h.Write(buf[:]) // nolint: errcheck
	}
	return h.Sum64()
}
