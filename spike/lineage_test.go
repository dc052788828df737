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
package spike_test

import (
	"testing"

	"github.com/grailbio/covspike/spike"
	"github.com/grailbio/testutil/expect"
)

func set(ids ...string) map[string]bool {
	s := map[string]bool{}
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func TestMatchLineages(t *testing.T) {
	cat := spike.DefaultCatalogue()
	tests := []struct {
		name  string
		found map[string]bool
		want  []spike.LineageMatch
	}{
		{
			name:  "confirmed",
			found: set("N501Y", "A570D", "P681H", "T716I"),
			want:  []spike.LineageMatch{{Name: "B.1.1.7", Confirmed: true}},
		},
		{
			name:  "confirmed_with_ignored",
			found: set("N501Y", "A570D", "P681H", "T716I", "D614G"),
			want:  []spike.LineageMatch{{Name: "B.1.1.7", Confirmed: true}},
		},
		{
			name:  "one_missing",
			found: set("N501Y", "A570D", "P681H"),
			want:  []spike.LineageMatch{{Name: "B.1.1.7"}},
		},
		{
			name:  "one_missing_one_extra",
			found: set("N501Y", "A570D", "P681H", "N439K"),
			want:  []spike.LineageMatch{{Name: "B.1.1.7"}},
		},
		{
			name:  "two_extra",
			found: set("N501Y", "A570D", "P681H", "T716I", "N439K", "Y453F"),
		},
		{
			name:  "several",
			found: set("E484K", "N501Y", "D614G"),
			want: []spike.LineageMatch{
				{Name: "B.1.351"},
				{Name: "P1"},
			},
		},
		{
			name:  "exact_b1351",
			found: set("E484K", "N501Y", "A701V"),
			want: []spike.LineageMatch{
				{Name: "B.1.351", Confirmed: true},
				{Name: "P1"},
			},
		},
		{
			name:  "nothing",
			found: set("D614G"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cat.MatchLineages(tt.found)
			expect.EQ(t, len(got), len(tt.want))
			for i := range tt.want {
				if i < len(got) {
					expect.EQ(t, got[i], tt.want[i])
				}
			}
		})
	}
}
