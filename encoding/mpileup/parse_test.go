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
package mpileup_test

import (
	"strings"
	"testing"

	"github.com/grailbio/covspike/encoding/mpileup"
	"github.com/grailbio/covspike/pileup"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// pileupText joins rows with tabs and lines with newlines.
func pileupText(rows ...[]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

func quals(c mpileup.Codon) []int {
	return []int{c.Calls[0].Qual, c.Calls[1].Qual, c.Calls[2].Qual}
}

func TestParseCodon(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		ref     string
		obs     string
		quals   []int
		differs [3]bool
	}{
		{
			name: "match",
			text: pileupText(
				[]string{"NC_045512", "22919", "T", "1", ".", "G"},
				[]string{"NC_045512", "22920", "A", "1", ".", "E"},
				[]string{"NC_045512", "22921", "T", "1", ".", "O"},
			),
			ref:   "TAT",
			obs:   "TAT",
			quals: []int{38, 36, 46},
		},
		{
			name: "mismatch",
			text: pileupText(
				[]string{"NC_045512", "22919", "T", "1", ".", "G"},
				[]string{"NC_045512", "22920", "A", "1", "G", "E"},
				[]string{"NC_045512", "22921", "T", "1", ".", "O"},
			),
			ref:     "TAT",
			obs:     "TGT",
			quals:   []int{38, 36, 46},
			differs: [3]bool{false, true, false},
		},
		{
			name: "deletion_follows",
			text: pileupText(
				[]string{"NC_045512", "22919", "T", "1", ".", "G"},
				[]string{"NC_045512", "22920", "A", "1", ".", "E"},
				[]string{"NC_045512", "22921", "T", "1", ".*G", "O"},
			),
			ref:   "TAT",
			obs:   "TAT",
			quals: []int{38, 36, 46},
		},
		{
			name: "read_start",
			text: pileupText(
				[]string{"NC_045512", "22919", "T", "1", "^M.", "G"},
				[]string{"NC_045512", "22920", "A", "1", ".", "E"},
				[]string{"NC_045512", "22921", "T", "1", ".", "O"},
			),
			ref:   "TAT",
			obs:   "TAT",
			quals: []int{38, 36, 46},
		},
		{
			name: "reverse_strand",
			text: pileupText(
				[]string{"NC_045512", "22919", "T", "1", "^~,", "G"},
				[]string{"NC_045512", "22920", "A", "1", "g", "E"},
				[]string{"NC_045512", "22921", "T", "1", ",$", "O"},
			),
			ref:     "TAT",
			obs:     "TGT",
			quals:   []int{38, 36, 46},
			differs: [3]bool{false, true, false},
		},
		{
			name: "no_trailing_newline",
			text: "ctg\t1\tT\t1\t.\tG\nctg\t2\tA\t1\t.\tE\nctg\t3\tT\t1\t.\tO",
			ref:   "TAT",
			obs:   "TAT",
			quals: []int{38, 36, 46},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := mpileup.ParseCodon(tt.text)
			assert.NoError(t, err)
			expect.EQ(t, c.Ref, tt.ref)
			expect.EQ(t, c.Obs, tt.obs)
			expect.EQ(t, quals(c), tt.quals)
			for i := range tt.differs {
				expect.EQ(t, c.Calls[i].Differs, tt.differs[i], "position %d", i)
			}
			expect.False(t, c.HasDeletion())
		})
	}
}

func TestParseCodonAllMatch(t *testing.T) {
	// Any all-match pileup must reproduce the reference triplet.
	bases := "ACGT"
	for i := 0; i < 64; i++ {
		ref := []byte{bases[i/16], bases[(i/4)%4], bases[i%4]}
		var rows [][]string
		for j, b := range ref {
			call := "."
			if (i+j)%2 == 1 {
				call = ","
			}
			rows = append(rows, []string{"ctg", "1", string(b), "1", call, "I"})
		}
		c, err := mpileup.ParseCodon(pileupText(rows...))
		assert.NoError(t, err)
		expect.EQ(t, c.Obs, c.Ref)
		expect.EQ(t, c.Ref, string(ref))
		_, differs := c.FirstDiffQual()
		expect.False(t, differs)
		expect.EQ(t, c.MinQual(), 40)
	}
}

func TestParseCodonQualRange(t *testing.T) {
	c, err := mpileup.ParseCodon(pileupText(
		[]string{"ctg", "1", "A", "1", ".", "!"},
		[]string{"ctg", "2", "C", "1", ".", "~"},
		[]string{"ctg", "3", "G", "2", "..", "5~"},
	))
	assert.NoError(t, err)
	expect.EQ(t, c.Calls[0].Qual, 0)
	expect.EQ(t, c.Calls[1].Qual, pileup.MaxQual)
	expect.EQ(t, c.Calls[2].Qual, 20)
	expect.EQ(t, c.MinQual(), 0)
}

func TestParseCodonDeletion(t *testing.T) {
	for _, del := range []string{"*", "#", "*-1A"} {
		text := pileupText(
			[]string{"ctg", "1", "T", "1", ".", "G"},
			[]string{"ctg", "2", "A", "1", del, "E"},
			[]string{"ctg", "3", "T", "1", ".", "O"},
		)
		c, err := mpileup.ParseCodon(text)
		assert.NoError(t, err)
		expect.True(t, c.HasDeletion(), "token %q", del)
		expect.EQ(t, c.Obs, "T*T")
		expect.True(t, c.Calls[1].Differs)
	}
}

func TestParseCodonIncomplete(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"two_lines", pileupText(
			[]string{"NC_045512", "22919", "T", "1", ".", "G"},
			[]string{"NC_045512", "22920", "A", "1", ".", "E"},
		)},
		{"short_line", pileupText(
			[]string{"NC_045512", "22919", "T", "1", ".", "G"},
			[]string{"NC_045512", "22920", "A", "1", "."},
			[]string{"NC_045512", "22921", "T", "1", ".", "O"},
		)},
		{"truncated_read_start", pileupText(
			[]string{"NC_045512", "22919", "T", "1", "^M", "G"},
			[]string{"NC_045512", "22920", "A", "1", ".", "E"},
			[]string{"NC_045512", "22921", "T", "1", ".", "O"},
		)},
		{"empty_quality", pileupText(
			[]string{"NC_045512", "22919", "T", "1", ".", "G"},
			[]string{"NC_045512", "22920", "A", "1", ".", ""},
			[]string{"NC_045512", "22921", "T", "1", ".", "O"},
		)},
	}
	for _, tt := range tests {
		_, err := mpileup.ParseCodon(tt.text)
		expect.True(t, mpileup.IsIncomplete(err), "%s: %v", tt.name, err)
	}
}

func TestCodonQualities(t *testing.T) {
	c := mpileup.Codon{
		Ref: "GAT",
		Obs: "GGC",
		Calls: [3]mpileup.BaseCall{
			{Qual: 40},
			{Qual: 20, Differs: true},
			{Qual: 10, Differs: true},
		},
	}
	expect.EQ(t, c.MinQual(), 10)
	q, ok := c.FirstDiffQual()
	expect.True(t, ok)
	expect.EQ(t, q, 20)
}
