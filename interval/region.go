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

package interval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Region is a named list of spans, e.g. a feature location on a reference
// sequence.
type Region struct {
	Name  string
	Spans []Span
}

// ParseSpan parses "start-end" or a single 1-based "pos".
func ParseSpan(s string) (Span, error) {
	dashPos := strings.IndexByte(s, '-')
	if dashPos == -1 {
		pos, err := parsePos(s)
		if err != nil {
			return Span{}, err
		}
		return Span{pos, pos}, nil
	}
	start, err := parsePos(s[:dashPos])
	if err != nil {
		return Span{}, err
	}
	end, err := parsePos(s[dashPos+1:])
	if err != nil {
		return Span{}, err
	}
	return NewSpan(start, end)
}

func parsePos(s string) (PosType, error) {
	// ParseInt(., 10, 32) would accept PosTypeMax, which cannot be represented
	// as an endpoint (End+1).
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.E(errors.Invalid, err, fmt.Sprintf("interval: bad position %q", s))
	}
	if v <= 0 || v >= PosTypeMax {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("interval: position %q out of range", s))
	}
	return PosType(v), nil
}

// ParseRegion parses a region string of one of the forms
//
//	[name]:[1-based first pos]-[last pos][,[first]-[last]...]
//	[name]:[1-based pos]
//
// The spans are returned in the order given.  A bare name, without any
// positional restriction, is an error: unlike a chromosome, a reference
// sequence has no implicit extent here.
func ParseRegion(region string) (Region, error) {
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos <= 0 || colonPos == len(region)-1 {
		return Region{}, errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegion: expected name:start-end, got %q", region))
	}
	r := Region{Name: region[:colonPos]}
	for _, part := range strings.Split(region[colonPos+1:], ",") {
		s, err := ParseSpan(part)
		if err != nil {
			return Region{}, err
		}
		r.Spans = append(r.Spans, s)
	}
	return r, nil
}

// String returns the region in the form accepted by ParseRegion.
func (r Region) String() string {
	parts := make([]string, len(r.Spans))
	for i, s := range r.Spans {
		parts[i] = s.String()
	}
	return r.Name + ":" + strings.Join(parts, ",")
}
