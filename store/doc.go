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

// Package store persists alignments, sequences and member segments.
//
// Writes are staged and become durable at Commit. Reads observe staged
// writes. Nothing finer than commit-at-batch-boundary atomicity is offered.
// Session wraps a Store with an explicit batch generation so that member
// records read in one batch cannot be written back after the batch is
// committed.
package store
