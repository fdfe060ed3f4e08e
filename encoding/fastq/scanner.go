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

// Package fastq reads FASTQ files of sequencing reads, for loading read
// sequences as alignment members.
package fastq

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
)

// Read is one FASTQ record. ID excludes the leading '@' and anything after
// the first space.
type Read struct {
	ID, Description, Seq, Qual string
}

// Scanner reads FASTQ records. It requires header lines to begin with '@',
// line 3 to begin with '+' and the sequence and quality lines to be of
// equal length.
type Scanner struct {
	b    *bufio.Scanner
	line int
	err  error
}

// NewScanner returns a scanner over r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &Scanner{b: b}
}

// Scan reads the next record into read. Once Scan returns false it never
// returns true again; Err then tells whether scanning stopped because of an
// error.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = io.EOF
		}
		return false
	}
	s.line++
	header := s.b.Text()
	if len(header) == 0 || header[0] != '@' {
		s.err = errors.Wrapf(ErrInvalid, "line %d: header must start with '@'", s.line)
		return false
	}
	read.ID, read.Description = header[1:], ""
	if i := strings.IndexByte(read.ID, ' '); i >= 0 {
		read.ID, read.Description = read.ID[:i], strings.TrimSpace(read.ID[i+1:])
	}
	if !s.next() {
		return false
	}
	read.Seq = s.b.Text()
	if !s.next() {
		return false
	}
	if plus := s.b.Bytes(); len(plus) == 0 || plus[0] != '+' {
		s.err = errors.Wrapf(ErrInvalid, "line %d: expected '+'", s.line)
		return false
	}
	if !s.next() {
		return false
	}
	read.Qual = s.b.Text()
	if len(read.Qual) != len(read.Seq) {
		s.err = errors.Wrapf(ErrInvalid, "read %s: %d bases but %d qualities", read.ID, len(read.Seq), len(read.Qual))
		return false
	}
	return true
}

func (s *Scanner) next() bool {
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
		return false
	}
	s.line++
	return true
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Load reads every record of a possibly compressed FASTQ file. Duplicate
// read IDs are an error.
func Load(ctx context.Context, path string) (reads []Read, err error) {
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
	var (
		sc   = NewScanner(rc)
		seen = map[string]bool{}
		r    Read
	)
	for sc.Scan(&r) {
		if seen[r.ID] {
			return nil, errors.Errorf("%s: duplicate read ID %s", path, r.ID)
		}
		seen[r.ID] = true
		reads = append(reads, r)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return reads, nil
}
