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

package util_test

import (
	"testing"

	"github.com/grailbio/homology/util"
	"github.com/grailbio/testutil/expect"
)

func TestSuggest(t *testing.T) {
	candidates := []string{"AL_MASTER", "AL_3a", "AL_3b", "AL_UNC_HCV"}
	tests := []struct {
		name string
		want string
	}{
		{"AL_3c", "AL_3a"},
		{"al_master", "AL_MASTER"},
		{"AL_MASTR", "AL_MASTER"},
		{"completely_different", ""},
		{"AL_3a", "AL_3b"},
	}
	for _, test := range tests {
		expect.EQ(t, util.Suggest(test.name, candidates), test.want, "name %s", test.name)
	}
	expect.EQ(t, util.Suggest("x", nil), "")
}

func TestDidYouMean(t *testing.T) {
	expect.EQ(t, util.DidYouMean("AL_3c", []string{"AL_3a"}), " (did you mean AL_3a?)")
	expect.EQ(t, util.DidYouMean("zzzzzzzz", []string{"AL_3a"}), "")
}
