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

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/homology/alignment"
	"github.com/grailbio/homology/encoding/fasta"
	"github.com/grailbio/homology/encoding/fastq"
	"github.com/grailbio/homology/encoding/segtsv"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"gopkg.in/yaml.v3"
	"v.io/x/lib/cmdline"
)

func newCmdLoad() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "load",
		Short: "Load alignments, sequences and member segments into the database",
	}
	common := addCommonFlags(cmd)
	manifest := cmd.Flags.String("alignments", "", "YAML list of alignments to create or replace")
	fastaPath := cmd.Flags.String("fasta", "", "FASTA file of sequences, optionally gzipped")
	fastqPath := cmd.Flags.String("fastq", "", "FASTQ file of read sequences, optionally gzipped")
	segmentsPath := cmd.Flags.String("segments", "", "Segment table of member segments, optionally gzipped")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("load takes no arguments, but got %v", argv)
		}
		ctx := vcontext.Background()
		return common.withStore(func(st store.Store) error {
			if *fastqPath != "" {
				if err := loadReads(ctx, st, *fastqPath); err != nil {
					return err
				}
			}
			return load(ctx, st, *manifest, *fastaPath, *segmentsPath)
		})
	})
	return cmd
}

// readManifest reads a YAML list of alignments.
func readManifest(ctx context.Context, path string) (as []alignment.Alignment, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := io.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &as); err != nil {
		return nil, errors.E(errors.Invalid, err, path)
	}
	return as, nil
}

func load(ctx context.Context, st store.Store, manifest, fastaPath, segmentsPath string) error {
	if manifest != "" {
		as, err := readManifest(ctx, manifest)
		if err != nil {
			return err
		}
		existing, err := st.Alignments(ctx)
		if err != nil {
			return err
		}
		// Check names and parent links against the combined tree before
		// writing anything.
		byName := map[string]alignment.Alignment{}
		for _, a := range existing {
			byName[a.Name] = a
		}
		for _, a := range as {
			byName[a.Name] = a
		}
		var all []alignment.Alignment
		for _, a := range byName {
			all = append(all, a)
		}
		if _, err := alignment.NewTree(all...); err != nil {
			return errors.E(err, manifest)
		}
		for _, a := range as {
			if err := st.PutAlignment(ctx, a); err != nil {
				return err
			}
		}
		log.Printf("load: %d alignments from %s", len(as), manifest)
	}
	if fastaPath != "" {
		recs, err := fasta.Load(ctx, fastaPath)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := st.PutSequence(ctx, store.Sequence{ID: rec.ID, Nucleotides: rec.Seq}); err != nil {
				return err
			}
		}
		log.Printf("load: %d sequences from %s", len(recs), fastaPath)
	}
	if segmentsPath != "" {
		members, err := segtsv.Load(ctx, segmentsPath)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := segment.Validate(m.Segments); err != nil {
				return errors.E(err, "member", m.MemberKey.String())
			}
			if err := st.ReplaceMemberSegments(ctx, m.Alignment, m.Sequence, m.Segments); err != nil {
				return err
			}
		}
		log.Printf("load: %d members from %s", len(members), segmentsPath)
	}
	return st.Commit(ctx)
}

// loadReads stages the sequences of a FASTQ file. Qualities are dropped.
func loadReads(ctx context.Context, st store.Store, path string) error {
	reads, err := fastq.Load(ctx, path)
	if err != nil {
		return err
	}
	for _, r := range reads {
		if err := st.PutSequence(ctx, store.Sequence{ID: r.ID, Nucleotides: r.Seq}); err != nil {
			return err
		}
	}
	log.Printf("load: %d reads from %s", len(reads), path)
	return nil
}

func newCmdSetParent() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "set-parent",
		Short:    "Make one alignment the parent of another",
		ArgsName: "child parent",
	}
	common := addCommonFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("set-parent takes child and parent alignment names, but got %v", argv)
		}
		return common.withStore(func(st store.Store) error {
			return setParent(vcontext.Background(), st, argv[0], argv[1])
		})
	})
	return cmd
}

func setParent(ctx context.Context, st store.Store, child, parent string) error {
	tree, err := store.LoadTree(ctx, st)
	if err != nil {
		return err
	}
	if err := tree.SetParent(child, parent); err != nil {
		return err
	}
	a, err := tree.Get(child)
	if err != nil {
		return err
	}
	if err := st.PutAlignment(ctx, a); err != nil {
		return err
	}
	return st.Commit(ctx)
}

func newCmdUnsetParent() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "unset-parent",
		Short:    "Remove an alignment's parent link",
		ArgsName: "child",
	}
	common := addCommonFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("unset-parent takes one alignment name, but got %v", argv)
		}
		return common.withStore(func(st store.Store) error {
			return unsetParent(vcontext.Background(), st, argv[0])
		})
	})
	return cmd
}

func unsetParent(ctx context.Context, st store.Store, child string) error {
	tree, err := store.LoadTree(ctx, st)
	if err != nil {
		return err
	}
	a, err := tree.Get(child)
	if err != nil {
		return err
	}
	tree.UnsetParent(child)
	a.Parent = ""
	if err := st.PutAlignment(ctx, a); err != nil {
		return err
	}
	return st.Commit(ctx)
}

func newCmdAncestors() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "ancestors",
		Short:    "Print an alignment's ancestors, closest first",
		ArgsName: "alignment",
	}
	common := addCommonFlags(cmd)
	stopAt := cmd.Flags.String("stop-at", "", "Stop at this ancestor; it is an error if it is not on the path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("ancestors takes one alignment name, but got %v", argv)
		}
		return common.withStore(func(st store.Store) error {
			return ancestors(vcontext.Background(), st, env.Stdout, argv[0], *stopAt)
		})
	})
	return cmd
}

func ancestors(ctx context.Context, st store.Store, w io.Writer, node, stopAt string) error {
	tree, err := store.LoadTree(ctx, st)
	if err != nil {
		return err
	}
	path, err := tree.AncestorsOf(node, stopAt)
	if err != nil {
		return err
	}
	for _, a := range path {
		if _, err := fmt.Fprintln(w, a.String()); err != nil {
			return err
		}
	}
	return nil
}
