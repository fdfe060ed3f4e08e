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

package store

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/segment"
)

// MemberRecord is a member's segments as read in one session generation. A
// record may only be written back in the generation it was read in.
type MemberRecord struct {
	Key      MemberKey
	Segments segment.List
	// Exists is false for a member that had no stored segments.
	Exists bool
	gen    int
}

// Generation returns the session generation the record was read in.
func (r MemberRecord) Generation() int { return r.gen }

// Session is the working context of one command invocation. Reset commits
// staged writes and starts a new generation; records from earlier
// generations are rejected by Replace.
type Session struct {
	st  Store
	gen int
	// writes counts Replace calls in the current generation.
	writes int
}

// NewSession starts a session over st at generation 0.
func NewSession(st Store) *Session { return &Session{st: st} }

// Store returns the underlying store.
func (s *Session) Store() Store { return s.st }

// Generation returns the current generation.
func (s *Session) Generation() int { return s.gen }

// Writes returns the number of member writes staged in the current
// generation.
func (s *Session) Writes() int { return s.writes }

// Member reads a member record in the current generation.
func (s *Session) Member(ctx context.Context, key MemberKey) (MemberRecord, error) {
	l, ok, err := s.st.MemberSegments(ctx, key.Alignment, key.Sequence)
	if err != nil {
		return MemberRecord{}, err
	}
	return MemberRecord{Key: key, Segments: l, Exists: ok, gen: s.gen}, nil
}

// MemberSegments implements alignment.MemberSource.
func (s *Session) MemberSegments(ctx context.Context, alignment, seq string) (segment.List, bool, error) {
	return s.st.MemberSegments(ctx, alignment, seq)
}

// Check returns an errors.Precondition error if r was read before the
// last Reset.
func (s *Session) Check(r MemberRecord) error {
	if r.gen != s.gen {
		return errors.E(errors.Precondition,
			fmt.Sprintf("member %s was read in batch %d and used in batch %d; re-read it after a reset", r.Key, r.gen, s.gen))
	}
	return nil
}

// Replace destructively replaces the record's stored segments with l.
func (s *Session) Replace(ctx context.Context, r MemberRecord, l segment.List) error {
	if err := s.Check(r); err != nil {
		return err
	}
	if err := s.st.ReplaceMemberSegments(ctx, r.Key.Alignment, r.Key.Sequence, l); err != nil {
		return err
	}
	s.writes++
	return nil
}

// Reset commits staged writes and advances the generation.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.st.Commit(ctx); err != nil {
		return err
	}
	s.gen++
	s.writes = 0
	return nil
}

// RunBatched calls fn on each item in order. The session is reset after
// every batchSize items and once more after the last item. A batchSize of
// zero or less runs everything in one batch. The context is checked between
// items; the first error stops the run without committing the current
// batch.
func RunBatched[T any](ctx context.Context, s *Session, items []T, batchSize int, fn func(context.Context, T) error) error {
	if batchSize <= 0 {
		batchSize = len(items)
	}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, item); err != nil {
			return err
		}
		if n := i + 1; n%batchSize == 0 && n < len(items) {
			if err := s.Reset(ctx); err != nil {
				return err
			}
			log.Printf("processed %d of %d", n, len(items))
		}
	}
	return s.Reset(ctx)
}
