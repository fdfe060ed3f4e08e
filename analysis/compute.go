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

// Aligner computes member segments against a reference. It is an external
// collaborator and may be slow.
type Aligner interface {
	// Align aligns each query to ref. queries maps sequence IDs to
	// nucleotides. The result maps sequence IDs to segments with ref =
	// reference coordinates and query = member coordinates. Queries that do
	// not align may be omitted.
	Align(ctx context.Context, ref string, queries map[string]string) (map[string]segment.List, error)
}

// ComputeRequest describes a compute operation.
type ComputeRequest struct {
	// Alignment is the constrained alignment whose members are aligned.
	Alignment string
	Selector
	Strategy segment.Strategy
}

// Compute aligns the selected members of a constrained alignment to its
// reference with aligner and merges the results into the stored segments.
// Members are aligned ComputeBatchSize at a time; each batch is committed
// before the next one is aligned.
func (a *Analyzer) Compute(ctx context.Context, req ComputeRequest, aligner Aligner) (WriteStats, error) {
	var stats WriteStats
	if err := req.Selector.Validate(); err != nil {
		return stats, err
	}
	al, err := a.Tree.Get(req.Alignment)
	if err != nil {
		return stats, err
	}
	if err := alignment.RequireConstrained(al); err != nil {
		return stats, err
	}
	ref, err := a.sequence(ctx, al.RefName)
	if err != nil {
		return stats, err
	}
	keys, err := a.members(ctx, al.Name, req.Selector)
	if err != nil {
		return stats, err
	}
	var batches [][]store.MemberKey
	for len(keys) > 0 {
		n := a.Opts.ComputeBatchSize
		if n > len(keys) {
			n = len(keys)
		}
		batches = append(batches, keys[:n])
		keys = keys[n:]
	}
	err = store.RunBatched(ctx, a.Session, batches, 1, func(ctx context.Context, batch []store.MemberKey) error {
		queries := make(map[string]string, len(batch))
		for _, key := range batch {
			nts, err := a.sequence(ctx, key.Sequence)
			if err != nil {
				return err
			}
			queries[key.Sequence] = nts
		}
		results, err := aligner.Align(ctx, ref, queries)
		if err != nil {
			return errors.E(err, fmt.Sprintf("aligning %d members of %s", len(batch), al.Name))
		}
		for _, key := range batch {
			l := results[key.Sequence]
			if len(l) == 0 {
				stats.Empty++
				continue
			}
			if err := segment.Validate(l); err != nil {
				return errors.E(err, fmt.Sprintf("aligner output for %s", key))
			}
			if err := a.mergeInto(ctx, key, l, req.Strategy, &stats); err != nil {
				return err
			}
		}
		log.Printf("compute %s: %d members aligned", al.Name, len(batch))
		return nil
	})
	if err != nil {
		return stats, err
	}
	log.Printf("compute %s: %v", al.Name, stats)
	return stats, nil
}
