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
	"path/filepath"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Sample is one aligned-read file.
type Sample struct {
	// ID is the file's base name up to its first '.'.
	ID   string
	Path string
}

// NewSample derives a Sample from an aligned-read path.
func NewSample(path string) Sample {
	id := filepath.Base(path)
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	return Sample{ID: id, Path: path}
}

// SortSamples orders samples by ID, then by path.
func SortSamples(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].ID != samples[j].ID {
			return samples[i].ID < samples[j].ID
		}
		return samples[i].Path < samples[j].Path
	})
}

// ListSamples returns the .bam files directly under dir, sorted.
func ListSamples(ctx context.Context, dir string) ([]Sample, error) {
	var samples []Sample
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if lister.IsDir() || !strings.HasSuffix(lister.Path(), ".bam") {
			continue
		}
		samples = append(samples, NewSample(lister.Path()))
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E("spike: list "+dir, err)
	}
	SortSamples(samples)
	return samples, nil
}
