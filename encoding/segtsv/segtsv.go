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

// Package segtsv reads and writes member segment tables. A table is a TSV
// file with a header row and one segment per line:
//
//	ALIGNMENT  SEQUENCE  REF_START  REF_END  QUERY_START  QUERY_END
//
// REF columns are alignment reference coordinates and QUERY columns are
// member coordinates, both 1-based and inclusive. Files whose names end in
// .gz are gzip-compressed.
package segtsv

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/homology/interval"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"github.com/klauspost/compress/gzip"
)

type row struct {
	Alignment  string `tsv:"ALIGNMENT"`
	Sequence   string `tsv:"SEQUENCE"`
	RefStart   int64  `tsv:"REF_START"`
	RefEnd     int64  `tsv:"REF_END"`
	QueryStart int64  `tsv:"QUERY_START"`
	QueryEnd   int64  `tsv:"QUERY_END"`
}

// Member is the segment list of one member.
type Member struct {
	store.MemberKey
	Segments segment.List
}

// Read parses a segment table. Members are returned in order of first
// appearance; rows of one member need not be contiguous. Every segment is
// checked for equal reference and query lengths.
func Read(r io.Reader) ([]Member, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	tr.Comment = '#'
	var (
		members []Member
		index   = map[store.MemberKey]int{}
	)
	for line := 2; ; line++ {
		var rw row
		if err := tr.Read(&rw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, "segment table")
		}
		var s segment.Segment
		for _, c := range []struct {
			name string
			v    int64
			pos  *segment.PosType
		}{
			{"REF_START", rw.RefStart, &s.RefStart},
			{"REF_END", rw.RefEnd, &s.RefEnd},
			{"QUERY_START", rw.QueryStart, &s.QueryStart},
			{"QUERY_END", rw.QueryEnd, &s.QueryEnd},
		} {
			if c.v <= 0 || c.v >= interval.PosTypeMax {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("segment table line %d: %s %d out of range", line, c.name, c.v))
			}
			*c.pos = segment.PosType(c.v)
		}
		if !s.Valid() {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("segment table line %d: invalid segment %v", line, s))
		}
		key := store.MemberKey{Alignment: rw.Alignment, Sequence: rw.Sequence}
		i, ok := index[key]
		if !ok {
			i = len(members)
			index[key] = i
			members = append(members, Member{MemberKey: key})
		}
		members[i].Segments = append(members[i].Segments, s)
	}
	for i := range members {
		members[i].Segments.Sort()
	}
	return members, nil
}

// Write writes a segment table.
func Write(w io.Writer, members []Member) error {
	tw := tsv.NewRowWriter(w)
	for _, m := range members {
		for _, s := range m.Segments {
			rw := row{
				Alignment:  m.Alignment,
				Sequence:   m.Sequence,
				RefStart:   int64(s.RefStart),
				RefEnd:     int64(s.RefEnd),
				QueryStart: int64(s.QueryStart),
				QueryEnd:   int64(s.QueryEnd),
			}
			if err := tw.Write(&rw); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

// Load reads a segment table from path.
func Load(ctx context.Context, path string) (members []Member, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	rc, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := rc.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if members, err = Read(rc); err != nil {
		return nil, errors.E(err, path)
	}
	return members, nil
}

// Save writes a segment table to path, gzip-compressed if path ends in .gz.
func Save(ctx context.Context, path string, members []Member) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	if !strings.HasSuffix(path, ".gz") {
		return Write(out.Writer(ctx), members)
	}
	zw := gzip.NewWriter(out.Writer(ctx))
	if err := Write(zw, members); err != nil {
		return err
	}
	return zw.Close()
}
