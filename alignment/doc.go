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

// Package alignment maintains the hierarchy of alignments and translates
// member segments across it.
//
// An alignment is either constrained, with a reference sequence whose
// coordinates are shared by every member's segments, or unconstrained, with
// a private coordinate space. An alignment may have one parent. The parent's
// reference sequence must itself be a member of the child, so a member's
// segments can be carried up to the parent's reference by composing them
// with that reference's own segments in the child. Repeating this along the
// parent chain reaches any ancestor's reference.
//
// Tree holds the parent links and answers ancestor queries. Translator
// resolves a path once and folds segment.Translate along it.
package alignment
