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
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/covspike/align"
	"github.com/grailbio/covspike/encoding/fasta"
	"github.com/grailbio/covspike/pileup"
	"github.com/grailbio/covspike/spike"
)

// keepDir receives aligned-read files that fail to classify in -debug mode.
const keepDir = "keep"

// reportFlags are the classification and report options shared by run and
// classify.
type reportFlags struct {
	reference       string
	catalogue       string
	pileup          string
	format          string
	parallelism     int
	debug           bool
	showUnexpected  bool
	silenceWarnings bool
	noConfidence    bool
	noLineages      bool
	noImportant     bool
}

func (f *reportFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.reference, "reference", "ref/NC_045512.fasta", "Reference FASTA. The bowtie2 index must sit next to it, named <reference minus extension>.index")
	fs.StringVar(&f.catalogue, "catalogue", "", "YAML catalogue of tracked mutations and lineages. Empty means the built-in catalogue")
	fs.StringVar(&f.pileup, "pileup", "samtools", "Pileup source: 'samtools' runs samtools mpileup, 'native' reads the BAM directly. A samtools error, e.g. a -reference contig missing from a BAM, aborts the run instead of reporting NA")
	fs.StringVar(&f.format, "format", "csv", "Report format, 'csv' or 'tsv'")
	fs.IntVar(&f.parallelism, "parallelism", 1, "Number of samples processed concurrently")
	fs.BoolVar(&f.debug, "debug", false, "Keep the BAM file in ./"+keepDir+" when a codon cannot be translated")
	fs.BoolVar(&f.showUnexpected, "show-unexpected", false, "Show unexpected amino-acid changes instead of reporting 0")
	fs.BoolVar(&f.silenceWarnings, "silence-warnings", false, "Do not warn about samples missing the conserved marker (D614G)")
	fs.BoolVar(&f.noConfidence, "no-confidence", false, "Do not add error odds to comments")
	fs.BoolVar(&f.noLineages, "no-lineages", false, "Do not name matched lineages in comments")
	fs.BoolVar(&f.noImportant, "no-important", false, "Do not flag co-occurring important mutations")
}

func (f *reportFlags) source(ctx context.Context, tools align.Tools) (pileup.Source, error) {
	switch f.pileup {
	case "samtools":
		return pileup.SamtoolsSource{Samtools: tools.Samtools, Reference: f.reference}, nil
	case "native":
		ref, err := fasta.Load(ctx, f.reference)
		if err != nil {
			return nil, err
		}
		return pileup.NewBAMSource(ref, pileup.DefaultBAMOpts), nil
	}
	return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown -pileup %q", f.pileup))
}

func (f *reportFlags) writer() (func(io.Writer, []string, []spike.Row) error, string, error) {
	switch f.format {
	case "csv":
		return spike.WriteCSV, "results.csv", nil
	case "tsv":
		return spike.WriteTSV, "results.tsv", nil
	}
	return nil, "", errors.E(errors.Invalid, fmt.Sprintf("unknown -format %q", f.format))
}

// report classifies samples and writes the report to each of outs.
func (f *reportFlags) report(ctx context.Context, tools align.Tools, samples []spike.Sample, failed func(spike.Sample) bool, outs ...io.Writer) error {
	write, _, err := f.writer()
	if err != nil {
		return err
	}
	cat, err := spike.LoadCatalogue(ctx, f.catalogue)
	if err != nil {
		return err
	}
	src, err := f.source(ctx, tools)
	if err != nil {
		return err
	}
	var clsOpts spike.ClassifyOpts
	if f.debug {
		if err := os.MkdirAll(keepDir, 0755); err != nil {
			return err
		}
		clsOpts.KeepDir = keepDir
	}
	opts := spike.DefaultAggregatorOpts
	opts.ShowUnexpected = f.showUnexpected
	opts.Parallelism = f.parallelism
	opts.Rules.ConservedWarning = !f.silenceWarnings
	opts.Rules.Confidence = !f.noConfidence
	opts.Rules.Lineages = !f.noLineages
	opts.Rules.ImportantNotice = !f.noImportant
	agg := spike.NewAggregator(cat, spike.NewClassifier(src, clsOpts), failed, opts)
	rows, err := agg.Run(ctx, samples)
	if err != nil {
		return err
	}
	log.Printf("classified %d samples", len(rows))
	for _, w := range outs {
		if err := write(w, agg.Header(), rows); err != nil {
			return err
		}
	}
	return nil
}

// writeReport classifies samples into a new file at path, and also to extra.
func (f *reportFlags) writeReport(ctx context.Context, tools align.Tools, samples []spike.Sample, failed func(spike.Sample) bool, path string, extra ...io.Writer) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return f.report(ctx, tools, samples, failed, append([]io.Writer{out.Writer(ctx)}, extra...)...)
}

func copyFile(ctx context.Context, src, dst string) (err error) {
	in, err := file.Open(ctx, src)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, dst)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = io.Copy(out.Writer(ctx), in.Reader(ctx))
	return err
}
