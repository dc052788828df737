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
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/covspike/interval"
	"github.com/grailbio/covspike/spike"
)

// codons maps amino acids to one of their codons.
var codons = map[byte]string{
	'A': "GCT", 'D': "GAT", 'E': "GAA", 'F': "TTT", 'G': "GGT", 'H': "CAT",
	'I': "ATT", 'K': "AAA", 'L': "CTT", 'N': "AAT", 'P': "CCT", 'Q': "CAA",
	'R': "CGT", 'S': "TCT", 'T': "ACT", 'V': "GTT", 'Y': "TAT",
}

// codonPileup renders a single-read pileup of m's region in which the read
// shows obs with the given base qualities.
func codonPileup(m spike.Mutation, obs string, quals ...int) string {
	ref := codons[m.Ref]
	var b strings.Builder
	for i := 0; i < 3; i++ {
		call := obs[i]
		if call == ref[i] {
			call = '.'
		}
		fmt.Fprintf(&b, "%s\t%d\t%c\t1\t%c\t%c\n", m.Region.Contig, int(m.Region.Start0)+i+1, ref[i], call, byte(quals[i]+33))
	}
	return b.String()
}

// fakeSource serves canned pileups keyed by sample path and region.
type fakeSource struct {
	pileups map[string]string
	err     error
}

func key(path string, r interval.Region) string { return path + "|" + r.String() }

func (s *fakeSource) set(path string, m spike.Mutation, text string) {
	if s.pileups == nil {
		s.pileups = map[string]string{}
	}
	s.pileups[key(path, m.Region)] = text
}

func (s *fakeSource) Pileup(_ context.Context, xampath string, r interval.Region) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.pileups[key(xampath, r)], nil
}
