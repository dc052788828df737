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
	"fmt"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// FailedAlignment is the comment of a sample that did not align.
const FailedAlignment = "read failed to align"

// CommentRules selects the fragments that make up a report comment.
type CommentRules struct {
	// ConservedWarning flags samples without the catalogue's conserved
	// marker.
	ConservedWarning bool
	// Confidence appends error odds to found mutations and to the conserved
	// warning.
	Confidence bool
	// FoundMutations lists each found mutation.
	FoundMutations bool
	// Lineages lists matched lineages.
	Lineages bool
	// ImportantNotice flags co-occurrence of the important mutations.
	ImportantNotice bool
}

// DefaultCommentRules enables every fragment.
var DefaultCommentRules = CommentRules{
	ConservedWarning: true,
	Confidence:       true,
	FoundMutations:   true,
	Lineages:         true,
	ImportantNotice:  true,
}

// AggregatorOpts configures an Aggregator.
type AggregatorOpts struct {
	// ShowUnexpected renders unexpected changes instead of "0".
	ShowUnexpected bool
	Rules          CommentRules
	// Parallelism is the number of samples evaluated concurrently.  Values
	// below 1 mean 1.
	Parallelism int
}

// DefaultAggregatorOpts evaluates samples one at a time with every comment
// rule enabled.
var DefaultAggregatorOpts = AggregatorOpts{
	Rules:       DefaultCommentRules,
	Parallelism: 1,
}

// Row is the report line of one sample.
type Row struct {
	Sample  string
	Cells   []string
	Comment string
}

// Aggregator classifies every tracked mutation in every sample and builds the
// report rows.
type Aggregator struct {
	cat    *Catalogue
	cls    *Classifier
	failed func(Sample) bool
	opts   AggregatorOpts
}

// NewAggregator creates an Aggregator.  failed reports samples that did not
// align; it may be nil.
func NewAggregator(cat *Catalogue, cls *Classifier, failed func(Sample) bool, opts AggregatorOpts) *Aggregator {
	if failed == nil {
		failed = func(Sample) bool { return false }
	}
	return &Aggregator{cat: cat, cls: cls, failed: failed, opts: opts}
}

// Header returns the report column names.
func (a *Aggregator) Header() []string {
	h := []string{"sample"}
	h = append(h, a.cat.IDs()...)
	return append(h, "comment")
}

// Run evaluates samples and returns one row per sample, sorted by sample ID.
// The first error aborts the run.
func (a *Aggregator) Run(ctx context.Context, samples []Sample) ([]Row, error) {
	sorted := append([]Sample(nil), samples...)
	SortSamples(sorted)
	rows := make([]Row, len(sorted))
	par := a.opts.Parallelism
	if par < 1 {
		par = 1
	}
	err := traverse.Limit(par).Each(len(sorted), func(i int) (err error) {
		rows[i], err = a.Evaluate(ctx, sorted[i])
		return
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Evaluate classifies every tracked mutation in s, in catalogue order.
func (a *Aggregator) Evaluate(ctx context.Context, s Sample) (Row, error) {
	mutations := a.cat.Mutations()
	row := Row{Sample: s.ID, Cells: make([]string, len(mutations))}
	if a.failed(s) {
		for i := range row.Cells {
			row.Cells[i] = "NA"
		}
		row.Comment = FailedAlignment
		return row, nil
	}
	calls := make([]Call, len(mutations))
	for i, m := range mutations {
		call, err := a.cls.Classify(ctx, s, m)
		if err != nil {
			return Row{}, err
		}
		calls[i] = call
		row.Cells[i] = call.Cell(a.opts.ShowUnexpected)
	}
	row.Comment = a.comment(calls)
	log.Debug.Printf("%s: %s", s.ID, row.Comment)
	return row, nil
}

func (a *Aggregator) comment(calls []Call) string {
	var (
		rules = a.opts.Rules
		found = map[string]bool{}
		parts []string
	)
	for _, c := range calls {
		if c.Status == Present {
			found[c.Mutation.ID] = true
		}
	}
	if id := a.cat.Conserved(); rules.ConservedWarning && id != "" && !found[id] {
		msg := id + " not found"
		if rules.Confidence {
			odds := "failed to map"
			for _, c := range calls {
				if c.Mutation.ID == id && c.Called() && c.Odds != "" {
					odds = c.Odds
				}
			}
			msg += " (" + odds + ")"
		}
		parts = append(parts, msg+"; low quality sequence?")
	}
	if rules.FoundMutations {
		for _, c := range calls {
			if c.Status != Present {
				continue
			}
			if rules.Confidence && c.Odds != "" {
				parts = append(parts, fmt.Sprintf("%s found (%s)", c.Mutation.ID, c.Odds))
			} else {
				parts = append(parts, c.Mutation.ID+" found")
			}
		}
	}
	if rules.Lineages {
		for _, m := range a.cat.MatchLineages(found) {
			if m.Confirmed {
				parts = append(parts, "found "+m.Name)
			} else {
				parts = append(parts, "possibly found "+m.Name)
			}
		}
	}
	if important := a.cat.Important(); rules.ImportantNotice && len(important) > 0 {
		all := true
		for _, id := range important {
			all = all && found[id]
		}
		if all {
			parts = append(parts, "important mutations found")
		}
	}
	return strings.Join(parts, "; ")
}
