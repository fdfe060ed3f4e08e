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

package alignment

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/segment"
)

// LinkageError reports a parent link that cannot be followed: the parent's
// reference sequence is not a member of the child alignment.
type LinkageError struct {
	// Alignment is the child alignment.
	Alignment string
	// Parent is the parent alignment.
	Parent string
	// Reference is the parent's reference sequence.
	Reference string
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("reference %s of alignment %s is not a member of its child %s", e.Reference, e.Parent, e.Alignment)
}

// AsLinkageError returns the LinkageError carried by err, if any.
func AsLinkageError(err error) (*LinkageError, bool) {
	for err != nil {
		switch e := err.(type) {
		case *LinkageError:
			return e, true
		case *errors.Error:
			err = e.Err
		default:
			return nil, false
		}
	}
	return nil, false
}

// MemberSource provides stored member segments. Segments are oriented with
// ref = the alignment's reference coordinates and query = the member's.
type MemberSource interface {
	// MemberSegments returns the segments of sequence seq as a member of the
	// named alignment. The bool is false if seq is not a member.
	MemberSegments(ctx context.Context, alignment, seq string) (segment.List, bool, error)
}

// Translator carries member segments up the alignment tree.
type Translator struct {
	tree *Tree
	src  MemberSource
}

// NewTranslator returns a translator over the given tree and segment source.
func NewTranslator(tree *Tree, src MemberSource) *Translator {
	return &Translator{tree: tree, src: src}
}

// Chain is a resolved path from one alignment up to an ancestor. It holds
// the composed mapping from the first alignment's coordinates to the
// ancestor's reference coordinates, so applying it costs one Translate per
// member regardless of the path length.
type Chain struct {
	// Path lists the alignments from the source up to and including the
	// target.
	Path []Alignment
	// link maps source-alignment coordinates (ref) to target reference
	// coordinates (query). It is unused when the path has one element.
	link segment.List
}

// From returns the alignment the chain starts at.
func (c *Chain) From() Alignment { return c.Path[0] }

// To returns the ancestor the chain ends at.
func (c *Chain) To() Alignment { return c.Path[len(c.Path)-1] }

// Identity reports whether the chain has no parent links.
func (c *Chain) Identity() bool { return len(c.Path) == 1 }

// Link returns the composed mapping from the source alignment's coordinates
// (ref) to the target's reference coordinates (query).
func (c *Chain) Link() segment.List { return c.link.Clone() }

// Apply translates stored member segments of the source alignment into the
// target's reference space. Both the input and the result have query =
// member coordinates; the result's ref axis is the target reference.
func (c *Chain) Apply(stored segment.List) segment.List {
	if c.Identity() {
		r := stored.Clone()
		r.Sort()
		return r
	}
	native := segment.Invert(stored)
	return segment.Invert(segment.Translate(native, c.link))
}

// Chain resolves the path from alignment from up to its closest ancestor
// constrained by ancestorRef.
func (tr *Translator) Chain(ctx context.Context, from, ancestorRef string) (*Chain, error) {
	target, err := tr.tree.AncestorConstrainingReference(from, ancestorRef)
	if err != nil {
		return nil, err
	}
	return tr.ChainTo(ctx, from, target.Name)
}

// ChainTo resolves the path from alignment from up to the named ancestor.
func (tr *Translator) ChainTo(ctx context.Context, from, ancestor string) (*Chain, error) {
	path, err := tr.tree.AncestorsOf(from, ancestor)
	if err != nil {
		return nil, err
	}
	c := &Chain{Path: path}
	for i := 0; i+1 < len(path); i++ {
		child, parent := path[i], path[i+1]
		if err := RequireConstrained(parent); err != nil {
			return nil, err
		}
		refMember, ok, err := tr.src.MemberSegments(ctx, child.Name, parent.RefName)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("reading reference member %s of %s", parent.RefName, child.Name))
		}
		if !ok {
			return nil, errors.E(errors.NotExist, &LinkageError{Alignment: child.Name, Parent: parent.Name, Reference: parent.RefName})
		}
		if err := segment.Validate(refMember); err != nil {
			return nil, errors.E(err, fmt.Sprintf("reference member %s of %s", parent.RefName, child.Name))
		}
		// refMember maps child coordinates (ref) to parent reference
		// coordinates (query), which is the orientation of a link.
		if i == 0 {
			c.link = refMember.Clone()
			c.link.Sort()
		} else {
			c.link = segment.Translate(c.link, refMember)
		}
		if log.At(log.Debug) {
			log.Debug.Printf("chain %s->%s: %d segments covering %d positions",
				path[0].Name, parent.Name, len(c.link), c.link.CoveredLength())
		}
	}
	return c, nil
}

// TranslateToAncestor translates the stored segments of a member of
// alignment from into the coordinates of ancestorRef.
func (tr *Translator) TranslateToAncestor(ctx context.Context, stored segment.List, from, ancestorRef string) (segment.List, error) {
	c, err := tr.Chain(ctx, from, ancestorRef)
	if err != nil {
		return nil, err
	}
	return c.Apply(stored), nil
}
