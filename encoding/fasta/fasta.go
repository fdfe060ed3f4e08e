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

// Package fasta reads and writes FASTA files of nucleotide sequences.
//
// A record starts with a '>' line whose first whitespace-delimited word is
// the sequence ID; the rest of the line is the description. Sequence lines
// follow and may be wrapped at any width:
//
//	>MN908947.3 Severe acute respiratory syndrome coronavirus 2
//	ATTAAAGGTTTATACCTTCCCAGG
//	TAACAAACCAACCAACTTTCG
package fasta

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

// maxLineLen bounds the length of one line of input.
const maxLineLen = 64 * 1024 * 1024

// DefaultLineWidth is the sequence line width used by Write.
const DefaultLineWidth = 70

// Record is one FASTA entry.
type Record struct {
	ID          string
	Description string
	Seq         string
}

// Reader reads FASTA records one at a time.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	pending string // header line of the next record
	rec     Record
	err     error
	seq     strings.Builder
}

// NewReader returns a reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineLen)
	return &Reader{sc: sc}
}

func parseHeader(line string) (id, desc string) {
	fields := strings.SplitN(strings.TrimSpace(line[1:]), " ", 2)
	id = fields[0]
	if len(fields) == 2 {
		desc = strings.TrimSpace(fields[1])
	}
	return id, desc
}

// Scan advances to the next record. It returns false at the end of input or
// on error; Err distinguishes the two.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	header := r.pending
	r.pending = ""
	r.seq.Reset()
	for r.sc.Scan() {
		r.line++
		line := strings.TrimRight(r.sc.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if header == "" {
				header = line
				continue
			}
			r.pending = line
			break
		}
		if header == "" {
			r.err = errors.Errorf("line %d: sequence data before the first '>' header", r.line)
			return false
		}
		r.seq.WriteString(strings.TrimSpace(line))
	}
	if err := r.sc.Err(); err != nil {
		r.err = errors.Wrap(err, "couldn't read FASTA data")
		return false
	}
	if header == "" {
		return false
	}
	id, desc := parseHeader(header)
	if id == "" {
		r.err = errors.Errorf("line %d: empty sequence ID", r.line)
		return false
	}
	r.rec = Record{ID: id, Description: desc, Seq: r.seq.String()}
	return true
}

// Record returns the record read by the last successful Scan.
func (r *Reader) Record() Record { return r.rec }

// Err returns the first error encountered.
func (r *Reader) Err() error { return r.err }

// ReadAll reads every record from r. Duplicate IDs are an error.
func ReadAll(r io.Reader) ([]Record, error) {
	var (
		recs []Record
		seen = map[string]bool{}
		fr   = NewReader(r)
	)
	for fr.Scan() {
		rec := fr.Record()
		if seen[rec.ID] {
			return nil, errors.Errorf("duplicate sequence ID %s", rec.ID)
		}
		seen[rec.ID] = true
		recs = append(recs, rec)
	}
	return recs, fr.Err()
}

// Load reads every record from a possibly compressed FASTA file.
func Load(ctx context.Context, path string) (recs []Record, err error) {
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
	recs, err = ReadAll(rc)
	return recs, errors.Wrap(err, path)
}

// Write writes rec to w, wrapping the sequence at width bases per line. A
// width of zero or less writes the sequence on one line.
func Write(w io.Writer, rec Record, width int) error {
	header := ">" + rec.ID
	if rec.Description != "" {
		header += " " + rec.Description
	}
	if _, err := io.WriteString(w, header+"\n"); err != nil {
		return err
	}
	seq := rec.Seq
	if width <= 0 {
		width = len(seq)
	}
	for len(seq) > 0 {
		n := width
		if n > len(seq) {
			n = len(seq)
		}
		if _, err := io.WriteString(w, seq[:n]+"\n"); err != nil {
			return err
		}
		seq = seq[n:]
	}
	return nil
}
