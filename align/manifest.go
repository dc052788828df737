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
	"io"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/covspike/spike"
)

// ManifestName is the manifest's file name within a BAM directory.
const ManifestName = "alignments.tsv"

// Alignment statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one line of an alignment manifest.
type Entry struct {
	Sample string `tsv:"sample"`
	Path   string `tsv:"path"`
	Status string `tsv:"status"`
}

// WriteManifest writes entries as a TSV with a header row.
func WriteManifest(ctx context.Context, path string, entries []Entry) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewRowWriter(out.Writer(ctx))
	for i := range entries {
		if err = w.Write(&entries[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(ctx context.Context, path string) (entries []Entry, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	r := tsv.NewReader(in.Reader(ctx))
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	for {
		var e Entry
		if err = r.Read(&e); err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return nil, errors.E(errors.Invalid, fmt.Sprintf("align: manifest %s", path), err)
		}
		if e.Status != StatusOK && e.Status != StatusFailed {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("align: manifest %s: sample %s has status %q", path, e.Sample, e.Status))
		}
		entries = append(entries, e)
	}
}

// FailedSet returns a predicate reporting samples whose BAM was recorded as
// failed.  Samples are matched by BAM file name, so the manifest stays valid
// when the directory moves.
func FailedSet(entries []Entry) func(spike.Sample) bool {
	failed := map[string]bool{}
	for _, e := range entries {
		if e.Status == StatusFailed {
			failed[filepath.Base(e.Path)] = true
		}
	}
	return func(s spike.Sample) bool {
		return failed[filepath.Base(s.Path)]
	}
}
