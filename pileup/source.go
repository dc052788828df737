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

// Package pileup produces per-position pileup text for a codon region of an
// aligned-read file, and scores base qualities as error odds.
package pileup

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/covspike/interval"
)

// Source yields the pileup text for region r of an aligned-read file, in the
// format printed by "samtools mpileup": one tab-separated line per covered
// reference position.
//
// Implementations must be safe for concurrent use.
type Source interface {
	Pileup(ctx context.Context, xampath string, r interval.Region) (string, error)
}

// SamtoolsSource runs "samtools mpileup" for each request.
type SamtoolsSource struct {
	// Samtools is the samtools executable.  Defaults to "samtools".
	Samtools string
	// Reference is the FASTA path passed to -f.
	Reference string
}

// Pileup implements Source.  A non-zero exit status is returned as an
// errors.Unavailable error.  samtools' stderr is discarded.
func (s SamtoolsSource) Pileup(ctx context.Context, xampath string, r interval.Region) (string, error) {
	samtools := s.Samtools
	if samtools == "" {
		samtools = "samtools"
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, samtools, "mpileup", "-f", s.Reference, "-r", r.String(), xampath)
	cmd.Stdout = &out
	log.Debug.Printf("pileup: running %v", cmd.Args)
	if err := cmd.Run(); err != nil {
		return "", errors.E(errors.Unavailable, fmt.Sprintf("samtools mpileup %s %s", r, xampath), err)
	}
	return out.String(), nil
}
