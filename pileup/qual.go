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
package pileup

import (
	"math"
	"strconv"
	"strings"
)

const (
	// phredOffset is the SAM/FASTQ quality character offset.
	phredOffset = 33
	// MaxQual is the largest quality that has a printable character.
	MaxQual = 93
)

// Phred decodes a SAM/FASTQ quality character.
func Phred(c byte) int {
	return int(c) - phredOffset
}

// Odds renders a Phred base quality as a "1:N" error-odds string, where N is
// the reciprocal of the error probability 10^(-q/10) rounded at its leading
// decimal scale; e.g. Odds(40) is "1:10 000".  q is clamped to
// [0, MaxQual].  The result is non-decreasing in q.
func Odds(q int) string {
	if q < 0 {
		q = 0
	}
	if q > MaxQual {
		q = MaxQual
	}
	// k is the smallest exponent with 10^(-q/10) * 10^k >= 1.
	k := (q + 9) / 10
	scale := math.Pow(10, float64(k))
	scaled := math.Pow(10, float64(10*k-q)/10)
	scaled = math.Round(scaled*scale) / scale
	n := int64(math.Round(scale / scaled))
	return "1:" + groupThousands(n)
}

// groupThousands formats n with a space between each group of three digits.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
