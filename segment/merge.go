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

package segment

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// Strategy is the policy for reconciling newly derived segments with the
// segments currently stored for the same member.
type Strategy int

const (
	// Overwrite discards the existing segments.
	Overwrite Strategy = iota
	// PreferExisting keeps the existing segments, and fills in derived segments
	// only at reference positions the existing ones don't map.
	PreferExisting
	// PreferNew keeps the derived segments, and retains existing segments only
	// at reference positions the derived ones don't map.
	PreferNew
)

var strategyNames = [...]string{
	Overwrite:      "OVERWRITE",
	PreferExisting: "MERGE_PREFER_EXISTING",
	PreferNew:      "MERGE_PREFER_NEW",
}

// String returns the strategy's canonical name, e.g. "MERGE_PREFER_NEW".
func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy parses a canonical strategy name, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return Strategy(i), nil
		}
	}
	return Overwrite, errors.E(errors.Invalid, fmt.Sprintf("unknown merge strategy %q; expected one of %s",
		name, strings.Join(strategyNames[:], ", ")))
}

// Merge reconciles existing and derived segments for one member:
//
//	Overwrite:      derived
//	PreferExisting: Intersect(existing, derived, LeftWins) ∪ remainders
//	PreferNew:      Intersect(existing, derived, RightWins) ∪ remainders
//
// where the remainders are Subtract(existing, derived) and
// Subtract(derived, existing).  The prefer strategies coalesce their result,
// so a winning segment that Intersect split at the other side's boundaries
// comes back whole.  Neither input is modified; the result is sorted by
// RefStart.  Merge works on the reference axis only, so callers that store
// the result should Validate it: two sides that map different reference
// positions onto the same query position produce a query-axis overlap, which
// is a conflict for the caller to report, not for Merge to resolve.
func Merge(strategy Strategy, existing, derived List) List {
	switch strategy {
	case Overwrite:
		result := derived.Clone()
		result.Sort()
		return result
	case PreferExisting:
		return prefer(existing, derived, LeftWins)
	case PreferNew:
		return prefer(existing, derived, RightWins)
	default:
		panic(strategy)
	}
}

// prefer keeps winner's mapping where both sides map a reference position
// and each side's own mapping everywhere else.
func prefer(existing, derived List, winner Merger) List {
	result := Intersect(existing, derived, winner)
	result = append(result, Subtract(existing, derived)...)
	result = append(result, Subtract(derived, existing)...)
	return CoalesceAdjacent(result)
}
