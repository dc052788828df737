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
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/covspike/align"
	"github.com/grailbio/covspike/spike"
	"v.io/x/lib/cmdline"
)

type runFlags struct {
	reportFlags
	inputFormat string
	outdir      string
	quiet       bool
	stdout      bool
	zipResults  bool
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "run",
		Short:    "Basecall, align and classify a directory or zip file of reads",
		ArgsName: "reads",
		Long: `
run basecalls .ab1 traces with tracy (unless -input-format is fasta or fastq),
aligns each read file with bowtie2 | samtools view | samtools sort, indexes the
BAMs, and writes results.csv into -outdir. Basecalled fastq files are copied
into -outdir too. Reads that fail to align get NA for every mutation.
`,
	}
	var f runFlags
	f.register(&cmd.Flags)
	cmd.Flags.StringVar(&f.inputFormat, "input-format", string(align.AB1), "Read format: ab1, fasta or fastq")
	cmd.Flags.StringVar(&f.outdir, "outdir", time.Now().Format("2006-01-02"), "Output directory")
	cmd.Flags.BoolVar(&f.quiet, "quiet", false, "Discard the output of the external tools")
	cmd.Flags.BoolVar(&f.stdout, "stdout", false, "Also print the report to stdout")
	cmd.Flags.BoolVar(&f.zipResults, "zip-results", false, "Replace -outdir with <outdir>.zip")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("run takes one reads argument, but got %v", argv)
		}
		return run(context.Background(), env, f, argv[0])
	})
	return cmd
}

func run(ctx context.Context, env *cmdline.Env, f runFlags, reads string) error {
	format, err := align.ParseFormat(f.inputFormat)
	if err != nil {
		return err
	}
	tools, err := align.LoadTools()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(f.outdir, 0755); err != nil {
		return err
	}
	tmpdir, err := ioutil.TempDir("", "bio-spike")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpdir) // nolint: errcheck

	opts := align.Opts{
		Tools:       tools,
		Reference:   f.reference,
		Quiet:       f.quiet,
		Parallelism: f.parallelism,
	}
	readsDir, err := align.ExtractIfZip(ctx, reads, filepath.Join(tmpdir, string(format)+"s"), string(format))
	if err != nil {
		return err
	}
	var inputs []string
	if format == align.AB1 {
		if inputs, err = align.Basecall(ctx, opts, readsDir, filepath.Join(tmpdir, "fastqs")); err != nil {
			return err
		}
		for _, fq := range inputs {
			if err = copyFile(ctx, fq, filepath.Join(f.outdir, filepath.Base(fq))); err != nil {
				return err
			}
		}
		format = align.FASTQ
	} else if inputs, err = align.ListFiles(ctx, readsDir, string(format)); err != nil {
		return err
	}
	if len(inputs) == 0 {
		log.Error.Printf("no .%s files found in %s", f.inputFormat, reads)
	}

	bamDir := filepath.Join(tmpdir, "bams")
	entries, err := align.Map(ctx, opts, format, inputs, bamDir)
	if err != nil {
		return err
	}
	if err = align.WriteManifest(ctx, filepath.Join(bamDir, align.ManifestName), entries); err != nil {
		return err
	}
	samples := make([]spike.Sample, len(entries))
	for i, e := range entries {
		samples[i] = spike.NewSample(e.Path)
	}
	_, name, err := f.writer()
	if err != nil {
		return err
	}
	resultPath := filepath.Join(f.outdir, name)
	if f.stdout {
		err = f.writeReport(ctx, tools, samples, align.FailedSet(entries), resultPath, env.Stdout)
	} else {
		err = f.writeReport(ctx, tools, samples, align.FailedSet(entries), resultPath)
	}
	if err != nil {
		return err
	}
	log.Printf("wrote %s", resultPath)
	if f.zipResults {
		zipPath := filepath.Clean(f.outdir) + ".zip"
		if err = align.ZipDir(ctx, f.outdir, zipPath); err != nil {
			return err
		}
		if err = os.RemoveAll(f.outdir); err != nil {
			return fmt.Errorf("remove %s: %v", f.outdir, err)
		}
		log.Printf("wrote %s", zipPath)
	}
	return nil
}
