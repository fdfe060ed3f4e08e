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

package analysis

import (
	"context"
	"regexp"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
)

// Selector picks the members an operation applies to. Exactly one of Where
// and AllMembers must be set.
type Selector struct {
	// Where selects members whose sequence ID matches the expression.
	Where *regexp.Regexp
	// AllMembers selects every member.
	AllMembers bool
}

// Validate returns errors.Invalid unless exactly one selection is made.
func (s Selector) Validate() error {
	switch {
	case s.Where != nil && s.AllMembers:
		return errors.E(errors.Invalid, "specify either a where clause or all members, not both")
	case s.Where == nil && !s.AllMembers:
		return errors.E(errors.Invalid, "must specify either a where clause or all members")
	}
	return nil
}

// Match returns the sequence ID predicate for Store.Members.
func (s Selector) Match() func(string) bool {
	if s.AllMembers {
		return nil
	}
	return s.Where.MatchString
}

// Analyzer holds the working context of one command: the session, the
// alignment tree and the options. It is not safe for concurrent use.
type Analyzer struct {
	Session *store.Session
	Tree    *alignment.Tree
	Opts    Opts

	warnings []*alignment.LinkageError
}

// New creates an analyzer over st. The alignment tree is loaded once.
func New(ctx context.Context, st store.Store, opts Opts) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tree, err := store.LoadTree(ctx, st)
	if err != nil {
		return nil, err
	}
	return &Analyzer{Session: store.NewSession(st), Tree: tree, Opts: opts}, nil
}

// Translator returns a translator reading reference members through the
// session.
func (a *Analyzer) Translator() *alignment.Translator {
	return alignment.NewTranslator(a.Tree, a.Session)
}

// Warnings returns the broken links skipped so far.
func (a *Analyzer) Warnings() []*alignment.LinkageError { return a.warnings }

// skipLinkage records err as a warning and returns nil if it is a linkage
// error and linkage is not strict. Other errors are returned unchanged.
func (a *Analyzer) skipLinkage(err error) error {
	le, ok := alignment.AsLinkageError(err)
	if !ok || a.Opts.StrictLinkage {
		return err
	}
	a.warnings = append(a.warnings, le)
	if !a.Opts.SuppressLinkageWarnings {
		log.Error.Printf("warning: skipping alignment %s: %v", le.Alignment, le)
	}
	return nil
}

// Targets returns the named alignment, followed by its descendants if
// recursive is set.
func (a *Analyzer) Targets(name string, recursive bool) ([]alignment.Alignment, error) {
	root, err := a.Tree.Get(name)
	if err != nil {
		return nil, err
	}
	r := []alignment.Alignment{root}
	if recursive {
		r = append(r, a.Tree.Descendants(name)...)
	}
	return r, nil
}

// members lists the selected members of an alignment.
func (a *Analyzer) members(ctx context.Context, alignmentName string, sel Selector) ([]store.MemberKey, error) {
	seqs, err := a.Session.Store().Members(ctx, alignmentName, sel.Match())
	if err != nil {
		return nil, err
	}
	keys := make([]store.MemberKey, len(seqs))
	for i, seq := range seqs {
		keys[i] = store.MemberKey{Alignment: alignmentName, Sequence: seq}
	}
	return keys, nil
}

// sequence returns a stored sequence's nucleotides.
func (a *Analyzer) sequence(ctx context.Context, id string) (string, error) {
	s, ok, err := a.Session.Store().Sequence(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.E(errors.NotExist, "no sequence with ID", id)
	}
	return s.Nucleotides, nil
}

// chains resolves, for each target, the chain to refName. Targets with a
// broken link are skipped with a warning. Targets that refName does not
// constrain are an error.
func (a *Analyzer) chains(ctx context.Context, targets []alignment.Alignment, refName string) ([]*alignment.Chain, error) {
	tr := a.Translator()
	var r []*alignment.Chain
	for _, t := range targets {
		c, err := tr.Chain(ctx, t.Name, refName)
		if err != nil {
			if err = a.skipLinkage(err); err != nil {
				return nil, err
			}
			continue
		}
		r = append(r, c)
	}
	return r, nil
}

// readMember reads a member record and checks its segments. Invalid stored
// segments are reported as errors.Integrity naming the member.
func (a *Analyzer) readMember(ctx context.Context, key store.MemberKey) (store.MemberRecord, error) {
	rec, err := a.Session.Member(ctx, key)
	if err != nil {
		return rec, err
	}
	if err := segment.Validate(rec.Segments); err != nil {
		return rec, errors.E(err, "member", key.String())
	}
	return rec, nil
}
