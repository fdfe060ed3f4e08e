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
Package segment implements aligned segments, the gapless 1:1 mappings between
a reference coordinate axis and a query coordinate axis, and the algebra over
lists of them: inversion, composition (Translate), reference-axis
intersection and subtraction, coalescing, and the merge strategies used to
reconcile newly derived segments with stored ones.

A Segment{RefStart, RefEnd, QueryStart, QueryEnd} maps reference position
RefStart+k to query position QueryStart+k for 0 <= k <= RefEnd-RefStart.  All
coordinates are 1-based and inclusive.

Segments are never split on read; only the functions in this package produce
split segments.
*/
package segment
