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
	"sort"
	"strconv"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/homology/interval"
	"github.com/grailbio/homology/segment"
	"github.com/grailbio/homology/store"
	"gopkg.in/yaml.v3"
	"v.io/x/lib/cmdline"
)

// analysisFlags are shared by the commands that scan alignment members.
type analysisFlags struct {
	commonFlags
	sel       selectFlags
	alignment *string
	recursive *bool
}

func addAnalysisFlags(cmd *cmdline.Command) analysisFlags {
	return analysisFlags{
		commonFlags: addCommonFlags(cmd),
		sel:         addSelectFlags(cmd),
		alignment:   cmd.Flags.String("alignment", "", "Alignment whose members are scanned"),
		recursive:   cmd.Flags.Bool("recursive", false, "Also scan every descendant of -alignment"),
	}
}

// run opens the store and calls fn with an analyzer and the target
// alignments.
func (f analysisFlags) run(fn func(ctx context.Context, a *analysis.Analyzer, targets analysisTargets) error) error {
	ctx := vcontext.Background()
	sel, err := f.sel.selector()
	if err != nil {
		return err
	}
	opts, err := f.analysisOpts(ctx)
	if err != nil {
		return err
	}
	return f.withStore(func(st store.Store) error {
		a, err := analysis.New(ctx, st, opts)
		if err != nil {
			return err
		}
		targets := analysisTargets{name: *f.alignment, recursive: *f.recursive, sel: sel}
		if err := fn(ctx, a, targets); err != nil {
			return err
		}
		if w := a.Warnings(); len(w) > 0 {
			log.Printf("%d alignments skipped because of broken parent links", len(w))
		}
		return nil
	})
}

type analysisTargets struct {
	name      string
	recursive bool
	sel       analysis.Selector
}

func parseFeature(region string, codingStart int) (analysis.Feature, error) {
	r, err := interval.ParseRegion(region)
	if err != nil {
		return analysis.Feature{}, err
	}
	return analysis.Feature{
		Name:        r.String(),
		RefName:     r.Name,
		Spans:       r.Spans,
		CodingStart: interval.PosType(codingStart),
	}, nil
}

type coverageRow struct {
	Alignment string `tsv:"ALIGNMENT"`
	Sequence  string `tsv:"SEQUENCE"`
	Covered   int64  `tsv:"COVERED"`
	Percent   string `tsv:"PERCENT"`
}

func newCmdCoverage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "coverage",
		Short: "Report how much of a reference region each member covers",
	}
	flags := addAnalysisFlags(cmd)
	region := cmd.Flags.String("region", "", "Reference region, as ref:start-end[,start-end...]")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("coverage takes no arguments, but got %v", argv)
		}
		return flags.run(func(ctx context.Context, a *analysis.Analyzer, t analysisTargets) error {
			return coverage(ctx, a, env.Stdout, t, *region)
		})
	})
	return cmd
}

func coverage(ctx context.Context, a *analysis.Analyzer, w io.Writer, t analysisTargets, region string) error {
	feature, err := parseFeature(region, 0)
	if err != nil {
		return err
	}
	targets, err := a.Targets(t.name, t.recursive)
	if err != nil {
		return err
	}
	cov, err := a.FeatureCoverage(ctx, targets, t.sel, feature)
	if err != nil {
		return err
	}
	tw := tsv.NewRowWriter(w)
	for _, c := range cov {
		if err := tw.Write(&coverageRow{
			Alignment: c.Alignment,
			Sequence:  c.Sequence,
			Covered:   int64(c.Covered),
			Percent:   strconv.FormatFloat(c.Percent, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newCmdDerive() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "derive",
		Short: "Derive member segments of an ancestor alignment from a descendant",
	}
	common := addCommonFlags(cmd)
	sel := addSelectFlags(cmd)
	source := cmd.Flags.String("source", "", "Alignment whose members' segments are translated")
	recursive := cmd.Flags.Bool("recursive", false, "Also derive from every descendant of -source")
	target := cmd.Flags.String("target", "", "Ancestor alignment receiving the derived segments")
	strategy := cmd.Flags.String("strategy", segment.Overwrite.String(),
		"How derived segments are combined with stored ones: OVERWRITE, MERGE_PREFER_EXISTING or MERGE_PREFER_NEW")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("derive takes no arguments, but got %v", argv)
		}
		s, err := sel.selector()
		if err != nil {
			return err
		}
		strat, err := segment.ParseStrategy(*strategy)
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		opts, err := common.analysisOpts(ctx)
		if err != nil {
			return err
		}
		return common.withStore(func(st store.Store) error {
			a, err := analysis.New(ctx, st, opts)
			if err != nil {
				return err
			}
			stats, err := a.Derive(ctx, analysis.DeriveRequest{
				Source:    *source,
				Recursive: *recursive,
				Target:    *target,
				Selector:  s,
				Strategy:  strat,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(env.Stdout, stats)
			return err
		})
	})
	return cmd
}

type aaRow struct {
	Codon    int64  `tsv:"CODON"`
	RefStart int64  `tsv:"REF_START"`
	Residue  string `tsv:"AA"`
	Count    int64  `tsv:"COUNT"`
	Total    int64  `tsv:"TOTAL"`
}

func newCmdAAFreq() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "aa-freq",
		Short: "Tally the amino acids members encode at each codon of a coding region",
	}
	flags := addAnalysisFlags(cmd)
	region := cmd.Flags.String("region", "", "Coding region, as ref:start-end[,start-end...]")
	codingStart := cmd.Flags.Int("coding-start", 0, "Reference position of codon 1; defaults to the start of -region")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("aa-freq takes no arguments, but got %v", argv)
		}
		return flags.run(func(ctx context.Context, a *analysis.Analyzer, t analysisTargets) error {
			return aaFreq(ctx, a, env.Stdout, t, *region, *codingStart)
		})
	})
	return cmd
}

func aaFreq(ctx context.Context, a *analysis.Analyzer, w io.Writer, t analysisTargets, region string, codingStart int) error {
	feature, err := parseFeature(region, codingStart)
	if err != nil {
		return err
	}
	if feature.CodingStart == 0 && len(feature.Spans) > 0 {
		feature.CodingStart = interval.Normalize(feature.Spans)[0].Start
	}
	targets, err := a.Targets(t.name, t.recursive)
	if err != nil {
		return err
	}
	freqs, err := a.AminoAcidFrequency(ctx, targets, t.sel, feature)
	if err != nil {
		return err
	}
	tw := tsv.NewRowWriter(w)
	for _, f := range freqs {
		residues := make([]byte, 0, len(f.Counts))
		for aa := range f.Counts {
			residues = append(residues, aa)
		}
		sort.Slice(residues, func(i, j int) bool { return residues[i] < residues[j] })
		for _, aa := range residues {
			if err := tw.Write(&aaRow{
				Codon:    int64(f.Label),
				RefStart: int64(f.Start),
				Residue:  string(aa),
				Count:    int64(f.Counts[aa]),
				Total:    int64(f.Total()),
			}); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

// variationSpec is one entry of a variations YAML file.
type variationSpec struct {
	Name    string `yaml:"name"`
	Ref     string `yaml:"ref"`
	Region  string `yaml:"region"`
	Pattern string `yaml:"pattern"`
}

func readVariations(ctx context.Context, path string) (vs []analysis.Variation, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := io.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, err
	}
	var specs []variationSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, errors.E(errors.Invalid, err, path)
	}
	for _, s := range specs {
		span, err := interval.ParseSpan(s.Region)
		if err != nil {
			return nil, errors.E(err, "variation", s.Name)
		}
		v, err := analysis.NewVariation(s.Name, s.Ref, span, s.Pattern)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

type variationRow struct {
	Variation  string `tsv:"VARIATION"`
	Present    int64  `tsv:"PRESENT"`
	Absent     int64  `tsv:"ABSENT"`
	NotCovered int64  `tsv:"NOT_COVERED"`
}

func newCmdVarScan() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "var-scan",
		Short: "Count the members in which each variation is present",
	}
	flags := addAnalysisFlags(cmd)
	variations := cmd.Flags.String("variations", "", "YAML list of variations with name, ref, region and pattern")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("var-scan takes no arguments, but got %v", argv)
		}
		return flags.run(func(ctx context.Context, a *analysis.Analyzer, t analysisTargets) error {
			vs, err := readVariations(ctx, *variations)
			if err != nil {
				return err
			}
			return varScan(ctx, a, env.Stdout, t, vs)
		})
	})
	return cmd
}

func varScan(ctx context.Context, a *analysis.Analyzer, w io.Writer, t analysisTargets, vs []analysis.Variation) error {
	targets, err := a.Targets(t.name, t.recursive)
	if err != nil {
		return err
	}
	counts, err := a.VariationScan(ctx, targets, t.sel, vs)
	if err != nil {
		return err
	}
	tw := tsv.NewRowWriter(w)
	for _, c := range counts {
		if err := tw.Write(&variationRow{
			Variation:  c.Variation,
			Present:    int64(c.Present),
			Absent:     int64(c.Absent),
			NotCovered: int64(c.NotCovered),
		}); err != nil {
			return err
		}
	}
	return tw.Flush()
}
