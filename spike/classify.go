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
package spike

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/covspike/codon"
	"github.com/grailbio/covspike/encoding/mpileup"
	"github.com/grailbio/covspike/pileup"
)

// Status is the outcome of classifying one mutation in one sample.
type Status int

const (
	// Absent means the observed amino acid is the reference one.
	Absent Status = iota
	// Present means the observed amino acid is the tracked variant.
	Present
	// Unexpected means the observed amino acid is neither the reference nor
	// the tracked variant.
	Unexpected
	// NoData means the pileup did not cover the codon, or the sample failed
	// to align.
	NoData
	// Deletion means a base of the codon was deleted in the read.
	Deletion
)

var statusNames = [...]string{"absent", "present", "unexpected", "nodata", "deletion"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Call is the classification of one mutation in one sample.
type Call struct {
	Mutation Mutation
	Status   Status
	// RefAA and ObsAA are the translated reference and observed codons.  They
	// are zero for NoData and Deletion calls.
	RefAA, ObsAA byte
	// Odds is the confidence of the weakest contributing base, or "" when no
	// base was called.
	Odds string
}

// Called reports whether the codon was observed and translated.
func (c Call) Called() bool {
	return c.Status != NoData && c.Status != Deletion
}

// Cell renders c as a report cell.  Unexpected changes render as
// <ref aa><codon><obs aa> when showUnexpected is set, and as "0" otherwise.
func (c Call) Cell(showUnexpected bool) string {
	switch c.Status {
	case Absent:
		return "0"
	case Present:
		return "1"
	case Unexpected:
		if showUnexpected {
			return fmt.Sprintf("%c%d%c", c.RefAA, c.Mutation.Pos, c.ObsAA)
		}
		return "0"
	}
	return "NA"
}

// ClassifyOpts configures a Classifier.
type ClassifyOpts struct {
	// KeepDir, if nonempty, receives a copy of any aligned-read file that
	// yields an untranslatable codon.
	KeepDir string
}

// Classifier calls tracked mutations from pileups.  It holds no per-sample
// state and is safe for concurrent use if its Source is.
type Classifier struct {
	src  pileup.Source
	opts ClassifyOpts
}

// NewClassifier creates a Classifier that reads pileups from src.
func NewClassifier(src pileup.Source, opts ClassifyOpts) *Classifier {
	return &Classifier{src: src, opts: opts}
}

// Classify calls mutation m in sample s.  An incomplete pileup yields a NoData
// call and a deleted base a Deletion call; neither is an error.  A codon that
// cannot be translated yields an error of kind errors.Invalid.
func (c *Classifier) Classify(ctx context.Context, s Sample, m Mutation) (Call, error) {
	call := Call{Mutation: m, Status: NoData}
	text, err := c.src.Pileup(ctx, s.Path, m.Region)
	if err != nil {
		return call, err
	}
	cod, err := mpileup.ParseCodon(text)
	if mpileup.IsIncomplete(err) {
		log.Debug.Printf("%s %s: %v", s.ID, m.ID, err)
		return call, nil
	}
	if err != nil {
		return call, err
	}
	if cod.HasDeletion() {
		call.Status = Deletion
		return call, nil
	}
	if call.RefAA, err = codon.Translate(cod.Ref); err == nil {
		call.ObsAA, err = codon.Translate(cod.Obs)
	}
	if err != nil {
		err = errors.E(errors.Invalid, fmt.Sprintf("spike: sample %s mutation %s (%s)", s.ID, m.ID, m.Region), err)
		if c.opts.KeepDir != "" {
			log.Error.Printf("%s %s: keeping %s in %s", s.ID, m.ID, s.Path, c.opts.KeepDir)
			if e := keep(ctx, s.Path, c.opts.KeepDir); e != nil {
				log.Error.Printf("keep %s: %v", s.Path, e)
			}
		}
		return Call{Mutation: m, Status: NoData}, err
	}
	switch {
	case call.ObsAA == call.RefAA:
		call.Status = Absent
		call.Odds = pileup.Odds(cod.MinQual())
	case call.ObsAA == m.Alt:
		call.Status = Present
	default:
		call.Status = Unexpected
	}
	if call.Status != Absent {
		if q, ok := cod.FirstDiffQual(); ok {
			call.Odds = pileup.Odds(q)
		}
	}
	return call, nil
}

// keep copies path into dir.
func keep(ctx context.Context, path, dir string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, file.Join(dir, filepath.Base(path)))
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = io.Copy(out.Writer(ctx), in.Reader(ctx))
	return err
}
