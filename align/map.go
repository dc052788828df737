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
package align

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/covspike/spike"
	"golang.org/x/sync/errgroup"
)

// IndexPrefix returns the bowtie2 index prefix for a reference FASTA path.
func IndexPrefix(reference string) string {
	return strings.TrimSuffix(reference, filepath.Ext(reference)) + ".index"
}

// Map aligns each read file in inputs to opts.Reference, writing
// <name>.bam into bamDir.  A read file whose bowtie2 | samtools view |
// samtools sort pipeline fails is recorded with StatusFailed and its BAM is
// left empty; other errors, including a failing samtools index, abort the
// run.  Entries follow inputs order.
func Map(ctx context.Context, opts Opts, format Format, inputs []string, bamDir string) ([]Entry, error) {
	if err := os.MkdirAll(bamDir, 0755); err != nil {
		return nil, err
	}
	entries := make([]Entry, len(inputs))
	err := traverse.Limit(opts.parallelism()).Each(len(inputs), func(i int) error {
		bamPath := filepath.Join(bamDir, filepath.Base(inputs[i])+".bam")
		entries[i] = Entry{Sample: spike.NewSample(bamPath).ID, Path: bamPath, Status: StatusOK}
		if err := alignOne(ctx, opts, format, inputs[i], bamPath); err != nil {
			if errors.Is(errors.Canceled, err) {
				return err
			}
			log.Error.Printf("align: %s failed to align: %v", inputs[i], err)
			entries[i].Status = StatusFailed
			return nil
		}
		cmd := exec.CommandContext(ctx, opts.Tools.Samtools, "index", bamPath)
		cmd.Stderr = opts.stderr()
		if err := cmd.Run(); err != nil {
			return errors.E(errors.Unavailable, fmt.Sprintf("align: samtools index %s", bamPath), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// alignOne runs the alignment pipeline for one read file.
func alignOne(ctx context.Context, opts Opts, format Format, input, bamPath string) (err error) {
	out, err := file.Create(ctx, bamPath)
	if err != nil {
		return errors.E(errors.Other, fmt.Sprintf("align: create %s", bamPath), err)
	}
	defer file.CloseAndReport(ctx, out, &err)

	args := []string{"-x", IndexPrefix(opts.Reference), "--very-sensitive-local", "-U", input, "--qc-filter"}
	if format == FASTA {
		args = append(args, "-f")
	}
	bowtie := exec.CommandContext(ctx, opts.Tools.Bowtie2, args...)
	view := exec.CommandContext(ctx, opts.Tools.Samtools, "view", "-Sb", "-")
	sorter := exec.CommandContext(ctx, opts.Tools.Samtools, "sort", "-")
	for _, cmd := range []*exec.Cmd{bowtie, view, sorter} {
		cmd.Stderr = opts.stderr()
	}
	if view.Stdin, err = bowtie.StdoutPipe(); err != nil {
		return err
	}
	if sorter.Stdin, err = view.StdoutPipe(); err != nil {
		return err
	}
	sorter.Stdout = out.Writer(ctx)
	log.Debug.Printf("align: running %v | %v | %v", bowtie.Args, view.Args, sorter.Args)

	// Start consumers first so that no stage blocks on an unread pipe.
	var started []*exec.Cmd
	for _, cmd := range []*exec.Cmd{sorter, view, bowtie} {
		if err = cmd.Start(); err != nil {
			// Upstream pipes are closed, so started stages see EOF and exit.
			for _, c := range started {
				_ = c.Wait()
			}
			return errors.E(errors.Unavailable, fmt.Sprintf("align: start %s", cmd.Path), err)
		}
		started = append(started, cmd)
	}
	var g errgroup.Group
	for _, cmd := range []*exec.Cmd{bowtie, view, sorter} {
		cmd := cmd
		g.Go(func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("%s: %v", filepath.Base(cmd.Path), err)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil && ctx.Err() != nil {
		return errors.E(errors.Canceled, ctx.Err())
	}
	return err
}
