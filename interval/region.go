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
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// PosType is the integer type used to represent genomic positions.  It is
// int32 since that's what BAM files are limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// CodonLen is the number of bases a codon region spans.
const CodonLen = 3

// Region represents a single interval on one contig, with 0-based coordinates.
type Region struct {
	Contig string
	Start0 PosType
	End    PosType
}

// Len returns the number of bases covered by r.
func (r Region) Len() int {
	return int(r.End - r.Start0)
}

// String renders r in samtools' 1-based closed-interval form, e.g.
// "NC_045512:23063-23065", or "contig:pos" for a single base.  The result is
// accepted by ParseRegionString.
func (r Region) String() string {
	if r.Len() == 1 {
		return fmt.Sprintf("%s:%d", r.Contig, r.End)
	}
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start0+1, r.End)
}

// ParseRegionString parses a region string of the form
//   [contig ID]:[1-based first pos]-[last pos]
// returning a contig ID and 0-based interval boundaries.  A single position
// ([contig ID]:[1-based pos]) is also accepted.  Unlike samtools, a bare
// contig ID is rejected: every region used here must be positional.
func ParseRegionString(region string) (result Region, err error) {
	if len(region) == 0 {
		err = errors.E(errors.Invalid, "interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: region %q has no position range", region))
		return
	}
	if colonPos == 0 {
		err = errors.E(errors.Invalid, "interval.ParseRegionString: empty contig ID")
		return
	}
	result.Contig = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			err = errors.E(errors.Invalid, err, "interval.ParseRegionString:", region)
			return
		}
		if pos1 <= 0 {
			err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: position %v in region string out of range", rangeStr))
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1, end int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		err = errors.E(errors.Invalid, err, "interval.ParseRegionString:", region)
		return
	}
	if start1 <= 0 {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: position %v in region string out of range", start1Str))
		return
	}
	if end, err = strconv.Atoi(endStr); err != nil {
		err = errors.E(errors.Invalid, err, "interval.ParseRegionString:", region)
		return
	}
	// Closed interval, so end == start1 is a single base.
	if end < start1 || end >= PosTypeMax {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: invalid range string %v", rangeStr))
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end)
	return
}

// ParseCodonRegion is ParseRegionString restricted to regions spanning exactly
// one codon.
func ParseCodonRegion(region string) (Region, error) {
	r, err := ParseRegionString(region)
	if err != nil {
		return Region{}, err
	}
	if r.Len() != CodonLen {
		return Region{}, errors.E(errors.Invalid, fmt.Sprintf("interval.ParseCodonRegion: region %s spans %d bases, want %d", region, r.Len(), CodonLen))
	}
	return r, nil
}
