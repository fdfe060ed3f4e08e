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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
)

// WriteStats summarizes a command that writes member segments.
type WriteStats struct {
	// Updated counts members whose stored segments changed.
	Updated int
	// Unchanged counts members whose merged segments equal the stored ones.
	Unchanged int
	// Empty counts members for which nothing could be derived.
	Empty int
}

func (s WriteStats) String() string {
	return fmt.Sprintf("%d updated, %d unchanged, %d empty", s.Updated, s.Unchanged, s.Empty)
}

// DeriveRequest describes a derive operation.
type DeriveRequest struct {
	// Source is the alignment whose members' segments are translated.
	Source string
	// Recursive also derives from every descendant of Source.
	Recursive bool
	// Target is an ancestor of Source that receives the derived segments.
	Target string
	Selector
	Strategy segment.Strategy
}

// Derive translates the segments of the selected members of Source (and,
// if Recursive, its descendants) into Target's reference coordinates, and
// stores them as members of Target, merged with Target's existing segments
// under the request's strategy. Source alignments with broken links are
// skipped with a warning.
func (a *Analyzer) Derive(ctx context.Context, req DeriveRequest) (WriteStats, error) {
	var stats WriteStats
	if err := req.Selector.Validate(); err != nil {
		return stats, err
	}
	target, err := a.Tree.Get(req.Target)
	if err != nil {
		return stats, err
	}
	if err := alignment.RequireConstrained(target); err != nil {
		return stats, err
	}
	sources, err := a.Targets(req.Source, req.Recursive)
	if err != nil {
		return stats, err
	}
	tr := a.Translator()
	for _, src := range sources {
		if src.Name == target.Name {
			continue
		}
		c, err := tr.ChainTo(ctx, src.Name, target.Name)
		if err != nil {
			if err = a.skipLinkage(err); err != nil {
				return stats, err
			}
			continue
		}
		keys, err := a.members(ctx, src.Name, req.Selector)
		if err != nil {
			return stats, err
		}
		log.Printf("derive %s -> %s: %d members, strategy %v", src.Name, target.Name, len(keys), req.Strategy)
		err = store.RunBatched(ctx, a.Session, keys, a.Opts.DeriveBatchSize, func(ctx context.Context, key store.MemberKey) error {
			rec, err := a.readMember(ctx, key)
			if err != nil {
				return err
			}
			derived := c.Apply(rec.Segments)
			if len(derived) == 0 {
				stats.Empty++
				return nil
			}
			return a.mergeInto(ctx, store.MemberKey{Alignment: target.Name, Sequence: key.Sequence}, derived, req.Strategy, &stats)
		})
		if err != nil {
			return stats, err
		}
	}
	log.Printf("derive into %s: %v", target.Name, stats)
	return stats, nil
}

// mergeInto merges derived segments into a member's stored segments and
// replaces them if the result differs.
func (a *Analyzer) mergeInto(ctx context.Context, key store.MemberKey, derived segment.List, strategy segment.Strategy, stats *WriteStats) error {
	rec, err := a.readMember(ctx, key)
	if err != nil {
		return err
	}
	merged := segment.Merge(strategy, rec.Segments, derived)
	if err := segment.Validate(merged); err != nil {
		return errors.E(err, fmt.Sprintf("merging segments of %s with strategy %v", key, strategy))
	}
	if rec.Exists && segment.Fingerprint(merged) == segment.Fingerprint(rec.Segments) {
		stats.Unchanged++
		return nil
	}
	if log.At(log.Debug) {
		log.Debug.Printf("%s: %d -> %d segments", key, len(rec.Segments), len(merged))
	}
	stats.Updated++
	return a.Session.Replace(ctx, rec, merged)
}
