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

// Package codon translates nucleotide triplets to amino acids using the
// standard genetic code.
package codon

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Stop is the amino-acid code returned for stop codons.
const Stop = '*'

// baseIndex maps an ASCII base to its 2-bit code, or 4 if the base is not an
// unambiguous A/C/G/T (either case).
var baseIndex [256]byte

// aaTable is indexed by 16*base0 + 4*base1 + base2, with T=0, C=1, A=2, G=3.
// This is the order the standard codon table is usually printed in, which
// makes the string easy to check by eye.
const aaTable = "FFLLSSSSYY**CC*W" + // TTx TCx TAx TGx
	"LLLLPPPPHHQQRRRR" + // CTx CCx CAx CGx
	"IIIMTTTTNNKKSSRR" + // ATx ACx AAx AGx
	"VVVVAAAADDEEGGGG" // GTx GCx GAx GGx

func init() {
	for i := range baseIndex {
		baseIndex[i] = 4
	}
	for i, b := range []byte("TCAG") {
		baseIndex[b] = byte(i)
		baseIndex[b|0x20] = byte(i)
	}
}

// Translate returns the single-letter amino-acid code for the given codon.
// It fails with an errors.Invalid error unless seq is exactly three
// unambiguous bases.
func Translate(seq string) (byte, error) {
	if len(seq) != 3 {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("codon.Translate: %q is not a triplet", seq))
	}
	idx := 0
	for i := 0; i < 3; i++ {
		b := baseIndex[seq[i]]
		if b == 4 {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("codon.Translate: invalid base %q in codon %q", seq[i], seq))
		}
		idx = idx*4 + int(b)
	}
	return aaTable[idx], nil
}

// IsInvalid reports whether err was produced by Translate rejecting its input.
func IsInvalid(err error) bool {
	return errors.Is(errors.Invalid, err)
}
