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
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// ListFiles returns the files directly under dir whose names end in
// "."+ext, sorted.
func ListFiles(ctx context.Context, dir, ext string) ([]string, error) {
	var paths []string
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if !lister.IsDir() && strings.HasSuffix(lister.Path(), "."+ext) {
			paths = append(paths, lister.Path())
		}
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(fmt.Sprintf("align: list %s", dir), err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Basecall converts every .ab1 trace in inDir to <name>.ab1.fastq in outDir
// with "tracy basecall", and returns the fastq paths.  Any tracy failure is
// an errors.Unavailable error.
func Basecall(ctx context.Context, opts Opts, inDir, outDir string) ([]string, error) {
	traces, err := ListFiles(ctx, inDir, string(AB1))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	fastqs := make([]string, len(traces))
	err = traverse.Limit(opts.parallelism()).Each(len(traces), func(i int) error {
		fastqs[i] = filepath.Join(outDir, filepath.Base(traces[i])+".fastq")
		cmd := exec.CommandContext(ctx, opts.Tools.Tracy, "basecall", "-f", "fastq", "-o", fastqs[i], traces[i])
		cmd.Stderr = opts.stderr()
		if !opts.Quiet {
			cmd.Stdout = cmd.Stderr
		}
		log.Debug.Printf("align: running %v", cmd.Args)
		if err := cmd.Run(); err != nil {
			return errors.E(errors.Unavailable, fmt.Sprintf("align: basecall %s", traces[i]), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("align: basecalled %d traces", len(fastqs))
	return fastqs, nil
}
