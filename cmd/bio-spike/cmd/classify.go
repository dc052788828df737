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
	"os"
	"path/filepath"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/covspike/align"
	"github.com/grailbio/covspike/spike"
	"v.io/x/lib/cmdline"
)

type classifyFlags struct {
	reportFlags
	manifest string
	out      string
}

func newCmdClassify() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "classify",
		Short:    "Classify a directory of aligned BAM files",
		ArgsName: "bamdir",
		Long: `
classify reports every *.bam file directly under bamdir. Samples listed as
failed in the alignment manifest get NA for every mutation. By default the
manifest is bamdir/` + align.ManifestName + `, if present.
`,
	}
	var f classifyFlags
	f.register(&cmd.Flags)
	cmd.Flags.StringVar(&f.manifest, "manifest", "", "Alignment manifest TSV (sample, path, status)")
	cmd.Flags.StringVar(&f.out, "out", "", "Report path. Empty means stdout")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("classify takes one bamdir argument, but got %v", argv)
		}
		return classify(context.Background(), env, f, argv[0])
	})
	return cmd
}

func classify(ctx context.Context, env *cmdline.Env, f classifyFlags, bamDir string) error {
	tools, err := align.LoadTools()
	if err != nil {
		return err
	}
	samples, err := spike.ListSamples(ctx, bamDir)
	if err != nil {
		return err
	}
	manifest := f.manifest
	if manifest == "" {
		manifest = filepath.Join(bamDir, align.ManifestName)
		if _, err := os.Stat(manifest); os.IsNotExist(err) {
			log.Debug.Printf("no manifest at %s", manifest)
			manifest = ""
		}
	}
	var entries []align.Entry
	if manifest != "" {
		if entries, err = align.ReadManifest(ctx, manifest); err != nil {
			return err
		}
		log.Printf("%s: %d alignments", manifest, len(entries))
	}
	failed := align.FailedSet(entries)
	if f.out == "" {
		return f.report(ctx, tools, samples, failed, env.Stdout)
	}
	return f.writeReport(ctx, tools, samples, failed, f.out)
}
