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
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// Opts configures the analysis operations.
type Opts struct {
	// DeriveBatchSize is the number of members processed by Derive between
	// commits.
	DeriveBatchSize int `yaml:"derive_batch_size" validate:"gt=0"`
	// ComputeBatchSize is the number of members passed to the aligner in one
	// call, and committed together.
	ComputeBatchSize int `yaml:"compute_batch_size" validate:"gt=0"`
	// FrequencyBatchSize bounds the members held between resets by the
	// frequency, coverage and variation scans.
	FrequencyBatchSize int `yaml:"frequency_batch_size" validate:"gt=0"`
	// SampleFraction is the fraction of members included by
	// AminoAcidFrequency. Sampling is a deterministic function of the
	// sequence ID and SampleSeed.
	SampleFraction float64 `yaml:"sample_fraction" validate:"gt=0,lte=1"`
	SampleSeed     uint64  `yaml:"sample_seed"`
	// SuppressLinkageWarnings silences the log message for each alignment
	// skipped because of a broken parent link. Skipped alignments are still
	// returned as warnings.
	SuppressLinkageWarnings bool `yaml:"suppress_linkage_warnings"`
	// StrictLinkage makes a broken parent link fatal.
	StrictLinkage bool `yaml:"strict_linkage"`
}

// DefaultOpts are the default options.
var DefaultOpts = Opts{
	DeriveBatchSize:    250,
	ComputeBatchSize:   50,
	FrequencyBatchSize: 500,
	SampleFraction:     1.0,
}

var validate = validator.New()

// Validate checks that the options are usable.
func (o Opts) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.E(errors.Invalid, err, "analysis options")
	}
	return nil
}

// LoadOpts reads YAML options from path. Fields absent from the file keep
// their DefaultOpts values.
func LoadOpts(ctx context.Context, path string) (opts Opts, err error) {
	opts = DefaultOpts
	f, err := file.Open(ctx, path)
	if err != nil {
		return opts, errors.E(err, "open options", path)
	}
	defer file.CloseAndReport(ctx, f, &err)
	data, err := io.ReadAll(f.Reader(ctx))
	if err != nil {
		return opts, errors.E(err, "read options", path)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.E(errors.Invalid, err, "parse options", path)
	}
	return opts, opts.Validate()
}
