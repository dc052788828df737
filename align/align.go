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

// Package align turns raw Sanger reads into sorted, indexed BAM files by
// driving the external tracy, bowtie2 and samtools executables.
package align

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/kelseyhightower/envconfig"
)

// Tools holds the external executables.  Each can be overridden with the
// environment variable named in its envconfig tag, prefixed with BIO_SPIKE_,
// e.g. BIO_SPIKE_SAMTOOLS.
type Tools struct {
	Samtools string `envconfig:"SAMTOOLS" default:"samtools"`
	Bowtie2  string `envconfig:"BOWTIE2" default:"bowtie2"`
	Tracy    string `envconfig:"TRACY" default:"tracy"`
}

// LoadTools reads Tools from the environment.
func LoadTools() (Tools, error) {
	var t Tools
	if err := envconfig.Process("BIO_SPIKE", &t); err != nil {
		return t, errors.E(errors.Invalid, "align: tool paths", err)
	}
	return t, nil
}

// Format is the read file format.
type Format string

const (
	// AB1 is an ABIF Sanger trace, basecalled with tracy.
	AB1 Format = "ab1"
	// FASTA reads are aligned without qualities.
	FASTA Format = "fasta"
	// FASTQ reads are aligned as is.
	FASTQ Format = "fastq"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case AB1, FASTA, FASTQ:
		return f, nil
	}
	return "", errors.E(errors.Invalid, fmt.Sprintf("align: unknown input format %q (want ab1, fasta or fastq)", s))
}

// Opts configures Basecall and Map.
type Opts struct {
	Tools Tools
	// Reference is the reference FASTA path.  The bowtie2 index is expected
	// next to it, named after it with the extension replaced by ".index".
	Reference string
	// Quiet discards the tools' stderr.
	Quiet bool
	// Parallelism is the number of files processed concurrently.  Values
	// below 1 mean 1.
	Parallelism int
}

// DefaultOpts runs one tool invocation at a time.
var DefaultOpts = Opts{
	Tools:       Tools{Samtools: "samtools", Bowtie2: "bowtie2", Tracy: "tracy"},
	Parallelism: 1,
}

func (o Opts) stderr() io.Writer {
	if o.Quiet {
		return nil
	}
	return os.Stderr
}

func (o Opts) parallelism() int {
	if o.Parallelism < 1 {
		return 1
	}
	return o.Parallelism
}
