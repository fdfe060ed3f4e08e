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

package analysis_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestLoadOpts(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(dir, "opts.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("derive_batch_size: 10\nsample_fraction: 0.5\nstrict_linkage: true\n"), 0644))
	opts, err := analysis.LoadOpts(ctx, path)
	assert.NoError(t, err)
	want := analysis.DefaultOpts
	want.DeriveBatchSize = 10
	want.SampleFraction = 0.5
	want.StrictLinkage = true
	expect.EQ(t, opts, want)

	assert.NoError(t, os.WriteFile(path, []byte("sample_fraction: 2\n"), 0644))
	_, err = analysis.LoadOpts(ctx, path)
	expect.True(t, errors.Is(errors.Invalid, err), "err %v", err)

	assert.NoError(t, os.WriteFile(path, []byte("derive_batch_size: [\n"), 0644))
	_, err = analysis.LoadOpts(ctx, path)
	expect.True(t, errors.Is(errors.Invalid, err), "err %v", err)

	_, err = analysis.LoadOpts(ctx, filepath.Join(dir, "missing.yaml"))
	expect.True(t, err != nil)
}

func TestOptsValidate(t *testing.T) {
	assert.NoError(t, analysis.DefaultOpts.Validate())
	opts := analysis.DefaultOpts
	opts.ComputeBatchSize = 0
	expect.True(t, errors.Is(errors.Invalid, opts.Validate()))
}

func TestSampled(t *testing.T) {
	opts := analysis.DefaultOpts
	expect.True(t, opts.Sampled("anything"))

	opts.SampleFraction = 0.5
	n := 0
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("seq%d", i)
		if opts.Sampled(id) {
			n++
		}
		expect.EQ(t, opts.Sampled(id), opts.Sampled(id))
	}
	expect.True(t, n > 400 && n < 600, "sampled %d of 1000", n)
}
