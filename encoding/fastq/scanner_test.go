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

package fastq

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const fq = `@NB500956:89:HW2FHBGX2:1:11101:25648:1069 1:N:0:ATCACG
ATACAGGCCTGANCCACTGTGC
+
AAAAAEEEEEEE#EEAEEEEEE
@S2
CTCAACTCTGAG
+
AAAAAEEEEEEE
`

func scanAll(s string) ([]Read, error) {
	var (
		sc    = NewScanner(bytes.NewReader([]byte(s)))
		r     Read
		reads []Read
	)
	for sc.Scan(&r) {
		reads = append(reads, r)
	}
	return reads, sc.Err()
}

func TestScan(t *testing.T) {
	reads, err := scanAll(fq)
	assert.NoError(t, err)
	expect.EQ(t, reads, []Read{
		{
			ID:          "NB500956:89:HW2FHBGX2:1:11101:25648:1069",
			Description: "1:N:0:ATCACG",
			Seq:         "ATACAGGCCTGANCCACTGTGC",
			Qual:        "AAAAAEEEEEEE#EEAEEEEEE",
		},
		{ID: "S2", Seq: "CTCAACTCTGAG", Qual: "AAAAAEEEEEEE"},
	})
}

func TestBadFASTQ(t *testing.T) {
	for _, test := range []struct {
		in   string
		want error
	}{
		{"12312#", ErrInvalid},
		{"@1234\n123", ErrShort},
		{"@1234\nACG\n-\nAAA\n", ErrInvalid},
		{"@1234\nACG\n+\nAA\n", ErrInvalid},
	} {
		_, err := scanAll(test.in)
		expect.EQ(t, errors.Cause(err), test.want, test.in)
	}
}

func TestLoad(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "reads.fq.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(fq))
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())
	assert.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	reads, err := Load(context.Background(), path)
	assert.NoError(t, err)
	expect.EQ(t, len(reads), 2)
	expect.EQ(t, reads[1].Seq, "CTCAACTCTGAG")

	dup := filepath.Join(dir, "dup.fq")
	assert.NoError(t, os.WriteFile(dup, []byte(fq+"@S2\nA\n+\nA\n"), 0644))
	_, err = Load(context.Background(), dup)
	expect.True(t, err != nil)
}
