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
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/homology/encoding/fasta"
	"github.com/grailbio/homology/encoding/segtsv"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"v.io/x/lib/cmdline"
)

func newCmdTranslate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "translate",
		Short: "Translate member segments into an ancestor's reference coordinates",
	}
	common := addCommonFlags(cmd)
	sel := addSelectFlags(cmd)
	from := cmd.Flags.String("alignment", "", "Alignment whose members are translated")
	ref := cmd.Flags.String("ref", "", "Reference sequence constraining the alignment or one of its ancestors")
	coalesce := cmd.Flags.Bool("coalesce", true, "Merge adjacent collinear segments in the output")
	out := cmd.Flags.String("out", "", "Output segment table; standard output if empty")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("translate takes no arguments, but got %v", argv)
		}
		s, err := sel.selector()
		if err != nil {
			return err
		}
		return common.withStore(func(st store.Store) error {
			ctx := vcontext.Background()
			members, err := translate(ctx, st, *from, *ref, s, *coalesce)
			if err != nil {
				return err
			}
			if *out == "" {
				return segtsv.Write(env.Stdout, members)
			}
			return segtsv.Save(ctx, *out, members)
		})
	})
	return cmd
}

// translate returns the selected members of alignment from with segments in
// the coordinates of ref. Output members are keyed by the ancestor
// alignment ref constrains.
func translate(ctx context.Context, st store.Store, from, ref string, sel analysis.Selector, coalesce bool) ([]segtsv.Member, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	a, err := analysis.New(ctx, st, analysis.DefaultOpts)
	if err != nil {
		return nil, err
	}
	c, err := a.Translator().Chain(ctx, from, ref)
	if err != nil {
		return nil, err
	}
	seqs, err := st.Members(ctx, from, sel.Match())
	if err != nil {
		return nil, err
	}
	var members []segtsv.Member
	for _, seq := range seqs {
		l, _, err := st.MemberSegments(ctx, from, seq)
		if err != nil {
			return nil, err
		}
		if err := segment.Validate(l); err != nil {
			return nil, errors.E(err, "member", seq, "of", from)
		}
		t := c.Apply(l)
		if coalesce {
			t = segment.CoalesceAdjacent(t)
		}
		members = append(members, segtsv.Member{
			MemberKey: store.MemberKey{Alignment: c.To().Name, Sequence: seq},
			Segments:  t,
		})
	}
	log.Printf("translate %s -> %s: %d members", from, c.To().Name, len(members))
	return members, nil
}

func newCmdExport() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "export",
		Short: "Export an alignment's member segments and sequences",
	}
	common := addCommonFlags(cmd)
	name := cmd.Flags.String("alignment", "", "Alignment to export")
	segmentsPath := cmd.Flags.String("segments", "", "Output segment table, gzipped if the name ends in .gz")
	fastaPath := cmd.Flags.String("fasta", "", "Output FASTA file of the member sequences")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("export takes no arguments, but got %v", argv)
		}
		if *segmentsPath == "" && *fastaPath == "" {
			return errors.E(errors.Invalid, "export needs -segments or -fasta")
		}
		return common.withStore(func(st store.Store) error {
			return export(vcontext.Background(), st, *name, *segmentsPath, *fastaPath)
		})
	})
	return cmd
}

func export(ctx context.Context, st store.Store, name, segmentsPath, fastaPath string) error {
	tree, err := store.LoadTree(ctx, st)
	if err != nil {
		return err
	}
	if _, err := tree.Get(name); err != nil {
		return err
	}
	seqs, err := st.Members(ctx, name, nil)
	if err != nil {
		return err
	}
	if segmentsPath != "" {
		members := make([]segtsv.Member, len(seqs))
		for i, seq := range seqs {
			l, _, err := st.MemberSegments(ctx, name, seq)
			if err != nil {
				return err
			}
			members[i] = segtsv.Member{MemberKey: store.MemberKey{Alignment: name, Sequence: seq}, Segments: l}
		}
		if err := segtsv.Save(ctx, segmentsPath, members); err != nil {
			return err
		}
	}
	if fastaPath != "" {
		if err := exportFasta(ctx, st, seqs, fastaPath); err != nil {
			return err
		}
	}
	return nil
}

func exportFasta(ctx context.Context, st store.Store, ids []string, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	var w io.Writer = out.Writer(ctx)
	for _, id := range ids {
		s, ok, err := st.Sequence(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			log.Error.Printf("export: member %s has no stored sequence", id)
			continue
		}
		if err := fasta.Write(w, fasta.Record{ID: s.ID, Seq: s.Nucleotides}, fasta.DefaultLineWidth); err != nil {
			return err
		}
	}
	return nil
}
