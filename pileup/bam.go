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
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/covspike/encoding/fasta"
	"github.com/grailbio/covspike/interval"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// BAMOpts controls which reads and bases BAMSource reports.
type BAMOpts struct {
	// FlagExclude drops reads with any of these flags set.
	FlagExclude sam.Flags
	// MinBaseQual drops aligned bases with a lower quality.  Deletions are
	// never dropped.
	MinBaseQual int
}

// DefaultBAMOpts matches the samtools mpileup defaults
// (--ff UNMAP,SECONDARY,QCFAIL,DUP and -Q 13).
var DefaultBAMOpts = BAMOpts{
	FlagExclude: sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate,
	MinBaseQual: 13,
}

const (
	// missingQual is the BAM encoding of an absent quality string.
	missingQual = 0xff
)

// BAMSource renders pileup text directly from a BAM file, without samtools.
// Reads are scanned linearly; inputs are expected to be small (a handful of
// Sanger traces per file).  Positions with no reported base are omitted.
type BAMSource struct {
	ref  fasta.Fasta
	opts BAMOpts
}

// NewBAMSource creates a BAMSource that looks up reference bases in ref.
func NewBAMSource(ref fasta.Fasta, opts BAMOpts) *BAMSource {
	return &BAMSource{ref: ref, opts: opts}
}

// Pileup implements Source.
func (s *BAMSource) Pileup(ctx context.Context, xampath string, r interval.Region) (text string, err error) {
	refLen, err := s.ref.Len(r.Contig)
	if err != nil {
		return "", errors.E(errors.NotExist, fmt.Sprintf("pileup: contig %s", r.Contig), err)
	}
	refSeq, err := s.ref.Get(r.Contig, 0, refLen)
	if err != nil {
		return "", err
	}
	in, err := file.Open(ctx, xampath)
	if err != nil {
		return "", err
	}
	defer file.CloseAndReport(ctx, in, &err)
	br, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return "", errors.E(fmt.Sprintf("pileup: read %s", xampath), err)
	}
	defer func() {
		if e := br.Close(); e != nil && err == nil {
			err = e
		}
	}()
	p := newPiler(r, refSeq, s.opts)
	for {
		rec, e := br.Read()
		if e == io.EOF {
			break
		}
		if e != nil {
			return "", errors.E(fmt.Sprintf("pileup: read %s", xampath), e)
		}
		p.add(rec)
	}
	return p.String(), nil
}

// column accumulates the entries reported at one reference position.
type column struct {
	bases []byte
	quals []byte
}

// piler builds the columns of one region.
type piler struct {
	region interval.Region
	ref    string
	opts   BAMOpts
	cols   []column
}

func newPiler(r interval.Region, ref string, opts BAMOpts) *piler {
	return &piler{
		region: r,
		ref:    ref,
		opts:   opts,
		cols:   make([]column, r.Len()),
	}
}

// column returns the column for 0-based position pos, or nil if pos is
// outside the region or the reference.
func (p *piler) column(pos int) *column {
	if pos < int(p.region.Start0) || pos >= int(p.region.End) || pos >= len(p.ref) {
		return nil
	}
	return &p.cols[pos-int(p.region.Start0)]
}

// refEnd returns the exclusive end of rec's alignment on the reference.
func refEnd(rec *sam.Record) int {
	end := rec.Pos
	for _, op := range rec.Cigar {
		if op.Type().Consumes().Reference > 0 {
			end += op.Len()
		}
	}
	return end
}

func qualAt(rec *sam.Record, i int) byte {
	if i >= len(rec.Qual) || rec.Qual[i] == missingQual {
		return MaxQual
	}
	if rec.Qual[i] > MaxQual {
		return MaxQual
	}
	return rec.Qual[i]
}

func strandCase(b byte, rev bool) byte {
	if rev && b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

func (p *piler) call(base byte, pos int, rev bool) byte {
	ref := p.ref[pos]
	if base == '=' || base == ref {
		if rev {
			return ','
		}
		return '.'
	}
	return strandCase(base, rev)
}

// add reports rec's bases within the region.
func (p *piler) add(rec *sam.Record) {
	if rec.Ref == nil || rec.Ref.Name() != p.region.Contig || rec.Flags&p.opts.FlagExclude != 0 {
		return
	}
	end := refEnd(rec)
	if rec.Pos >= int(p.region.End) || end <= int(p.region.Start0) {
		return
	}
	var (
		seq     = rec.Seq.Expand()
		rev     = rec.Flags&sam.Reverse != 0
		refPos  = rec.Pos
		readPos = 0
		// prev is this read's entry at prevPos, or nil if it was not reported.
		prev    *column
		prevPos = -1
	)
	for i, op := range rec.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for j := 0; j < n; j++ {
				pos := refPos + j
				prev, prevPos = p.column(pos), pos
				if prev == nil {
					continue
				}
				q := qualAt(rec, readPos+j)
				if int(q) < p.opts.MinBaseQual || readPos+j >= len(seq) {
					prev = nil
					continue
				}
				if pos == rec.Pos {
					mapq := rec.MapQ
					if mapq > MaxQual {
						mapq = MaxQual
					}
					prev.bases = append(prev.bases, '^', mapq+phredOffset)
				}
				prev.bases = append(prev.bases, p.call(seq[readPos+j], pos, rev))
				prev.quals = append(prev.quals, q+phredOffset)
			}
			refPos += n
			readPos += n
			if prev != nil && i+1 < len(rec.Cigar) {
				p.markIndel(prev, rec.Cigar[i+1], seq, readPos, refPos, rev)
			}
		case sam.CigarDeletion:
			q := qualAt(rec, readPos)
			del := byte('*')
			if rev {
				del = '#'
			}
			for j := 0; j < n; j++ {
				pos := refPos + j
				prev, prevPos = p.column(pos), pos
				if prev == nil {
					continue
				}
				prev.bases = append(prev.bases, del)
				prev.quals = append(prev.quals, q+phredOffset)
			}
			refPos += n
		case sam.CigarSkipped:
			prev = nil
			refPos += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readPos += n
		}
	}
	if prev != nil && prevPos == end-1 {
		prev.bases = append(prev.bases, '$')
	}
}

// markIndel appends the "+N<seq>" or "-N<ref>" marker for an indel that
// follows an aligned base.
func (p *piler) markIndel(c *column, next sam.CigarOp, seq []byte, readPos, refPos int, rev bool) {
	n := next.Len()
	var (
		sign byte
		ins  string
	)
	switch next.Type() {
	case sam.CigarInsertion:
		if readPos+n > len(seq) {
			return
		}
		sign, ins = '+', string(seq[readPos:readPos+n])
	case sam.CigarDeletion:
		if refPos+n > len(p.ref) {
			return
		}
		sign, ins = '-', p.ref[refPos:refPos+n]
	default:
		return
	}
	if rev {
		ins = strings.ToLower(ins)
	}
	c.bases = append(c.bases, sign)
	c.bases = strconv.AppendInt(c.bases, int64(n), 10)
	c.bases = append(c.bases, ins...)
}

// String renders the non-empty columns as mpileup lines.
func (p *piler) String() string {
	var b strings.Builder
	for i, c := range p.cols {
		if len(c.quals) == 0 {
			continue
		}
		pos := int(p.region.Start0) + i
		fmt.Fprintf(&b, "%s\t%d\t%c\t%d\t%s\t%s\n", p.region.Contig, pos+1, p.ref[pos], len(c.quals), c.bases, c.quals)
	}
	return b.String()
}
