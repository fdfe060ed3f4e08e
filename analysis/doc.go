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

// Package analysis implements the batch operations that consume translated
// member segments: coverage, codon and amino-acid frequencies, variation
// scans, and the derive and compute commands that write member segments.
//
// Every operation walks an ordered list of members in batches. Between
// batches the store.Session is reset, which commits staged writes. A member
// record must be re-read after a reset.
//
// Operations that span several alignments skip alignments whose parent
// links are broken (alignment.LinkageError) and report them as warnings,
// unless Opts.StrictLinkage is set.
package analysis
