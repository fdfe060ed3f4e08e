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

	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
)

// MemberKey identifies one sequence's membership in one alignment.
type MemberKey struct {
	Alignment string
	Sequence  string
}

func (k MemberKey) String() string { return fmt.Sprintf("%s/%s", k.Alignment, k.Sequence) }

// Sequence is a stored nucleotide sequence.
type Sequence struct {
	ID          string
	Nucleotides string
}

// Store is the backing store used by the homology commands. Implementations
// need not be safe for concurrent use.
type Store interface {
	// Alignments returns every alignment sorted by name.
	Alignments(ctx context.Context) ([]alignment.Alignment, error)
	// PutAlignment creates or replaces an alignment.
	PutAlignment(ctx context.Context, a alignment.Alignment) error
	// DeleteAlignment removes an alignment together with its members.
	DeleteAlignment(ctx context.Context, name string) error

	// Sequence looks up a sequence by ID.
	Sequence(ctx context.Context, id string) (Sequence, bool, error)
	// PutSequence creates or replaces a sequence.
	PutSequence(ctx context.Context, s Sequence) error

	// MemberSegments returns the segments of seq in the alignment, oriented
	// with ref = alignment reference and query = member. The bool is false
	// if seq is not a member.
	MemberSegments(ctx context.Context, alignment, seq string) (segment.List, bool, error)
	// ReplaceMemberSegments deletes every stored segment of the member and
	// stores l in their place, creating the membership if needed.
	ReplaceMemberSegments(ctx context.Context, alignment, seq string, l segment.List) error
	// DeleteMember removes seq from the alignment.
	DeleteMember(ctx context.Context, alignment, seq string) error
	// Members returns, in sorted order, the members of the alignment for
	// which match returns true. A nil match selects every member.
	Members(ctx context.Context, alignment string, match func(seq string) bool) ([]string, error)

	// Commit makes staged writes durable.
	Commit(ctx context.Context) error
	// Close releases the store. Uncommitted writes are discarded.
	Close() error
}

// LoadTree reads every alignment in st into a tree.
func LoadTree(ctx context.Context, st Store) (*alignment.Tree, error) {
	as, err := st.Alignments(ctx)
	if err != nil {
		return nil, err
	}
	return alignment.NewTree(as...)
}
