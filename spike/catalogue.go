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

// Package spike classifies tracked spike-protein mutations per sample and
// aggregates the calls into a report.
package spike

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/covspike/interval"
)

// Mutation is a tracked amino-acid substitution, e.g. N501Y, and the codon
// region it translates from.
type Mutation struct {
	ID string
	// Ref and Alt are the reference and variant amino acids.
	Ref, Alt byte
	// Pos is the 1-based codon number within the protein.
	Pos    int
	Region interval.Region
}

var mutationIDRE = regexp.MustCompile(`^([A-Z*])([0-9]+)([A-Z*])$`)

// ParseMutationID splits a mutation ID of the form <ref aa><codon><alt aa>.
func ParseMutationID(id string) (ref byte, pos int, alt byte, err error) {
	m := mutationIDRE.FindStringSubmatch(id)
	if m == nil {
		err = errors.E(errors.Invalid, fmt.Sprintf("spike: bad mutation ID %q", id))
		return
	}
	if pos, err = strconv.Atoi(m[2]); err != nil {
		err = errors.E(errors.Invalid, fmt.Sprintf("spike: bad mutation ID %q", id), err)
		return
	}
	return m[1][0], pos, m[3][0], nil
}

// NewMutation builds a Mutation from its ID and a 1-based codon region
// string such as "NC_045512:23063-23065".
func NewMutation(id, region string) (Mutation, error) {
	ref, pos, alt, err := ParseMutationID(id)
	if err != nil {
		return Mutation{}, err
	}
	r, err := interval.ParseCodonRegion(region)
	if err != nil {
		return Mutation{}, errors.E(fmt.Sprintf("spike: mutation %s", id), err)
	}
	return Mutation{ID: id, Ref: ref, Pos: pos, Alt: alt, Region: r}, nil
}

// Lineage is a named set of mutations expected to co-occur.
type Lineage struct {
	Name      string
	Mutations []string
}

// Catalogue holds the tracked mutations, in report column order, and the
// lineage signatures matched against them.  It is immutable once built.
type Catalogue struct {
	mutations []Mutation
	index     map[string]int
	lineages  []Lineage
	conserved string
	ignored   map[string]bool
	important []string
}

// Mutations returns the tracked mutations in report order.
func (c *Catalogue) Mutations() []Mutation {
	return append([]Mutation(nil), c.mutations...)
}

// IDs returns the tracked mutation IDs in report order.
func (c *Catalogue) IDs() []string {
	ids := make([]string, len(c.mutations))
	for i, m := range c.mutations {
		ids[i] = m.ID
	}
	return ids
}

// Lookup returns the tracked mutation with the given ID.
func (c *Catalogue) Lookup(id string) (Mutation, bool) {
	i, ok := c.index[id]
	if !ok {
		return Mutation{}, false
	}
	return c.mutations[i], true
}

// Lineages returns the lineage signatures in match order.
func (c *Catalogue) Lineages() []Lineage {
	l := make([]Lineage, len(c.lineages))
	for i, lin := range c.lineages {
		l[i] = Lineage{Name: lin.Name, Mutations: append([]string(nil), lin.Mutations...)}
	}
	return l
}

// Conserved returns the ID of the mutation expected in every good-quality
// sample, or "" if there is none.
func (c *Catalogue) Conserved() string { return c.conserved }

// Ignored reports whether id is disregarded when counting a sample's
// mutations outside a lineage signature.
func (c *Catalogue) Ignored(id string) bool { return c.ignored[id] }

// Important returns the mutation IDs whose co-occurrence is flagged.
func (c *Catalogue) Important() []string {
	return append([]string(nil), c.important...)
}

// NewCatalogue validates cfg and builds a Catalogue from it.  All errors are
// of kind errors.Invalid.
func NewCatalogue(cfg CatalogueConfig) (*Catalogue, error) {
	c := &Catalogue{
		index:     make(map[string]int, len(cfg.Mutations)),
		conserved: cfg.Conserved,
		ignored:   make(map[string]bool, len(cfg.Ignored)),
	}
	for _, mc := range cfg.Mutations {
		if _, ok := c.index[mc.ID]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("spike: duplicate mutation %s", mc.ID))
		}
		m, err := NewMutation(mc.ID, mc.Region)
		if err != nil {
			return nil, errors.E(errors.Invalid, err)
		}
		c.index[m.ID] = len(c.mutations)
		c.mutations = append(c.mutations, m)
	}
	names := make(map[string]bool, len(cfg.Lineages))
	for _, lc := range cfg.Lineages {
		if lc.Name == "" || names[lc.Name] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("spike: missing or duplicate lineage name %q", lc.Name))
		}
		names[lc.Name] = true
		if len(lc.Mutations) == 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("spike: lineage %s has no mutations", lc.Name))
		}
		seen := map[string]bool{}
		lin := Lineage{Name: lc.Name}
		for _, id := range lc.Mutations {
			if err := c.checkKnown(id, "lineage "+lc.Name); err != nil {
				return nil, err
			}
			if !seen[id] {
				seen[id] = true
				lin.Mutations = append(lin.Mutations, id)
			}
		}
		c.lineages = append(c.lineages, lin)
	}
	if c.conserved != "" {
		if err := c.checkKnown(c.conserved, "conserved marker"); err != nil {
			return nil, err
		}
	}
	for _, id := range cfg.Ignored {
		if err := c.checkKnown(id, "ignored list"); err != nil {
			return nil, err
		}
		c.ignored[id] = true
	}
	for _, id := range cfg.Important {
		if err := c.checkKnown(id, "important list"); err != nil {
			return nil, err
		}
		c.important = append(c.important, id)
	}
	return c, nil
}

// checkKnown returns an error naming the closest tracked ID if id is not
// tracked.
func (c *Catalogue) checkKnown(id, where string) error {
	if _, ok := c.index[id]; ok {
		return nil
	}
	msg := fmt.Sprintf("spike: %s refers to unknown mutation %q", where, id)
	best, bestDist := "", 3
	for _, m := range c.mutations {
		if d := matchr.Levenshtein(id, m.ID); d < bestDist {
			best, bestDist = m.ID, d
		}
	}
	if best != "" {
		msg += fmt.Sprintf(" (did you mean %s?)", best)
	}
	return errors.E(errors.Invalid, msg)
}

// Config returns the configuration that rebuilds c.
func (c *Catalogue) Config() CatalogueConfig {
	var cfg CatalogueConfig
	for _, m := range c.mutations {
		cfg.Mutations = append(cfg.Mutations, MutationConfig{ID: m.ID, Region: m.Region.String()})
	}
	for _, l := range c.Lineages() {
		cfg.Lineages = append(cfg.Lineages, LineageConfig{Name: l.Name, Mutations: l.Mutations})
	}
	cfg.Conserved = c.conserved
	for _, m := range c.mutations {
		if c.ignored[m.ID] {
			cfg.Ignored = append(cfg.Ignored, m.ID)
		}
	}
	cfg.Important = c.Important()
	return cfg
}

var defaultCatalogue *Catalogue

func init() {
	var err error
	if defaultCatalogue, err = NewCatalogue(DefaultCatalogueConfig()); err != nil {
		panic(err)
	}
}

// DefaultCatalogue returns the SARS-CoV-2 spike catalogue shipped with the
// tool.
func DefaultCatalogue() *Catalogue { return defaultCatalogue }
