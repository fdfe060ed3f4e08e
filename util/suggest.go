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

// Package util holds small helpers shared by the homology packages.
package util

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// MaxSuggestDistance is the largest edit distance at which Suggest still
// reports a candidate.
const MaxSuggestDistance = 3

// Suggest returns the candidate closest to name by Levenshtein distance, or
// "" if none is within MaxSuggestDistance. Ties are broken by lexical order.
// The comparison is case-insensitive.
func Suggest(name string, candidates []string) string {
	var (
		best     string
		bestDist = MaxSuggestDistance + 1
	)
	lname := strings.ToLower(name)
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		if c == name {
			continue
		}
		if d := matchr.Levenshtein(lname, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// DidYouMean formats a Suggest result as a message suffix, or returns "".
func DidYouMean(name string, candidates []string) string {
	if s := Suggest(name, candidates); s != "" {
		return " (did you mean " + s + "?)"
	}
	return ""
}
