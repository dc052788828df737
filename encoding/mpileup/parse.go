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

// Package mpileup decodes the per-base text produced by "samtools mpileup"
// (and by pileup.BAMSource) for a single codon region.
//
// Each line describes one reference position:
//
//   <contig> <1-based pos> <ref base> <depth> <read bases> <base quals>
//
// separated by tabs.  The read-bases column encodes one call per covering read:
// '.' and ',' match the reference on the forward and reverse strand, letters
// are mismatches, '*' is a deletion, a read's first base is preceded by '^'
// and its mapping-quality character, and '$', '+N...' and '-N...' may follow a
// call.  Only the first call at each position is decoded; the reads consumed
// here are single Sanger traces.
package mpileup

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/covspike/pileup"
)

const (
	// Deletion is the observed-base sentinel for a deleted reference base.
	Deletion byte = '*'

	readStart   = '^'
	matchFwd    = '.'
	matchRev    = ','
	deletionRev = '#'

	nFields = 6
)

// BaseCall describes the evidence at one codon position.
type BaseCall struct {
	// Qual is the Phred-scaled base quality of the decoded call.
	Qual int
	// Differs is true iff the decoded call is not the reference base.
	Differs bool
}

// Codon is the reference and observed triplet for one codon region, with
// per-position call details.  Positions are in ascending genomic order.
type Codon struct {
	Ref   string
	Obs   string
	Calls [3]BaseCall
}

// HasDeletion reports whether any observed position is a deletion.
func (c Codon) HasDeletion() bool {
	return strings.IndexByte(c.Obs, Deletion) >= 0
}

// MinQual returns the lowest base quality across all three positions.
func (c Codon) MinQual() int {
	q := c.Calls[0].Qual
	for _, call := range c.Calls[1:] {
		if call.Qual < q {
			q = call.Qual
		}
	}
	return q
}

// FirstDiffQual returns the base quality of the first position whose call
// differs from the reference.  ok is false if all three calls match.
func (c Codon) FirstDiffQual() (q int, ok bool) {
	for _, call := range c.Calls {
		if call.Differs {
			return call.Qual, true
		}
	}
	return 0, false
}

// IsIncomplete reports whether err was returned by ParseCodon because the
// pileup did not cover the codon with three well-formed lines.
func IsIncomplete(err error) bool {
	return errors.Is(errors.Precondition, err)
}

func incomplete(format string, args ...interface{}) error {
	return errors.E(errors.Precondition, "mpileup: pileup incomplete: "+fmt.Sprintf(format, args...))
}

// ParseCodon decodes the pileup text for exactly one codon region.  Lines
// past the third are ignored.  It returns an error satisfying IsIncomplete if
// fewer than three lines are present, or if any of them is malformed.
func ParseCodon(text string) (Codon, error) {
	var c Codon
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) < 3 {
		return c, incomplete("%d lines, want 3", len(lines))
	}
	var ref, obs [3]byte
	for i, line := range lines[:3] {
		fields := strings.Split(line, "\t")
		if len(fields) < nFields {
			return c, incomplete("line %d has %d fields, want %d", i+1, len(fields), nFields)
		}
		if len(fields[2]) == 0 {
			return c, incomplete("line %d has an empty reference base", i+1)
		}
		ref[i] = fields[2][0]
		call, err := decodeCall(fields[4])
		if err != nil {
			return c, incomplete("line %d: %v", i+1, err)
		}
		switch call {
		case matchFwd, matchRev:
			call = ref[i]
		case deletionRev:
			call = Deletion
		default:
			if call >= 'a' && call <= 'z' {
				call -= 'a' - 'A'
			}
		}
		obs[i] = call
		if len(fields[5]) == 0 {
			return c, incomplete("line %d has an empty quality column", i+1)
		}
		c.Calls[i] = BaseCall{
			Qual:    pileup.Phred(fields[5][0]),
			Differs: call != ref[i],
		}
	}
	c.Ref = string(ref[:])
	c.Obs = string(obs[:])
	return c, nil
}

// decodeCall extracts the first read's call from a read-bases token.
func decodeCall(token string) (byte, error) {
	if len(token) == 0 {
		return 0, fmt.Errorf("empty read-bases column")
	}
	if token[0] == readStart {
		// '^' is followed by the mapping-quality character, then the call.
		if len(token) < 3 {
			return 0, fmt.Errorf("truncated read-start token %q", token)
		}
		return token[2], nil
	}
	return token[0], nil
}
