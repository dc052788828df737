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
package codon_test

import (
	"testing"

	"github.com/grailbio/covspike/codon"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		seq  string
		want byte
	}{
		{"TAT", 'Y'},
		{"TGT", 'C'},
		{"AAT", 'N'},
		{"AAG", 'K'},
		{"GAT", 'D'},
		{"GGT", 'G'},
		{"CCT", 'P'},
		{"CAT", 'H'},
		{"ATG", 'M'},
		{"TGG", 'W'},
		{"TAA", codon.Stop},
		{"TAG", codon.Stop},
		{"TGA", codon.Stop},
		{"aat", 'N'},
	}
	for _, tt := range tests {
		got, err := codon.Translate(tt.seq)
		assert.NoError(t, err)
		expect.EQ(t, string(got), string(tt.want), "codon %s", tt.seq)
	}
}

func TestTranslateAllCodons(t *testing.T) {
	// Every one of the 64 codons translates, and the code has 21 distinct
	// values (20 amino acids plus stop).
	seen := map[byte]int{}
	bases := "ACGT"
	for i := 0; i < 64; i++ {
		seq := string([]byte{bases[i/16], bases[(i/4)%4], bases[i%4]})
		aa, err := codon.Translate(seq)
		assert.NoError(t, err)
		seen[aa]++
	}
	expect.EQ(t, len(seen), 21)
	expect.EQ(t, seen['L'], 6)
	expect.EQ(t, seen['M'], 1)
	expect.EQ(t, seen[codon.Stop], 3)
}

func TestTranslateInvalid(t *testing.T) {
	for _, seq := range []string{"", "TA", "TATA", "TNT", "T*T", "T.T", "RAT"} {
		_, err := codon.Translate(seq)
		expect.True(t, codon.IsInvalid(err), "codon %q: %v", seq, err)
	}
}
