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
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/covspike/align"
	"github.com/grailbio/covspike/interval"
	"v.io/x/lib/cmdline"
)

func newCmdPileup() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "pileup",
		Short:    "Print the pileup text of one region of a BAM file",
		ArgsName: "bampath",
	}
	var f reportFlags
	cmd.Flags.StringVar(&f.reference, "reference", "ref/NC_045512.fasta", "Reference FASTA")
	cmd.Flags.StringVar(&f.pileup, "pileup", "native", "Pileup source, 'samtools' or 'native'. samtools errors are fatal")
	region := cmd.Flags.String("region", "", "Region, formatted as <contig>:<1-based first pos>-<last pos>")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("pileup takes one bampath argument, but got %v", argv)
		}
		return printPileup(context.Background(), env.Stdout, f, *region, argv[0])
	})
	return cmd
}

func printPileup(ctx context.Context, w io.Writer, f reportFlags, region, bamPath string) error {
	r, err := interval.ParseRegionString(region)
	if err != nil {
		return err
	}
	tools, err := align.LoadTools()
	if err != nil {
		return err
	}
	src, err := f.source(ctx, tools)
	if err != nil {
		return err
	}
	text, err := src.Pileup(ctx, bamPath, r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
