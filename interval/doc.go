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

/*
Package interval implements 1-based closed coordinate spans over a single
sequence axis, and the union/intersection/subtraction operations over lists
of such spans that the segment algebra and the coverage computations are
built on.

All positions are PosType (int32), following the convention of our other
coordinate-handling code.  A Span{Start, End} covers Start..End inclusive, so
its length is End-Start+1; a span with End < Start is invalid, never empty.

Span lists returned by Union, Intersect and Subtract are normalized: sorted
by Start, pairwise disjoint, and with no two spans exactly adjacent.
*/
package interval
