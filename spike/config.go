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
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	yaml "gopkg.in/yaml.v2"
)

// MutationConfig is the YAML form of a tracked mutation.
type MutationConfig struct {
	ID     string `yaml:"id"`
	Region string `yaml:"region"`
}

// LineageConfig is the YAML form of a lineage signature.
type LineageConfig struct {
	Name      string   `yaml:"name"`
	Mutations []string `yaml:"mutations"`
}

// CatalogueConfig is the YAML form of a Catalogue:
//
//   mutations:
//     - id: N501Y
//       region: NC_045512:23063-23065
//   lineages:
//     - name: B.1.1.7
//       mutations: [N501Y, A570D, P681H, T716I]
//   conserved: D614G
//   ignored: [D614G]
//   important: [N501Y, E484K]
type CatalogueConfig struct {
	Mutations []MutationConfig `yaml:"mutations"`
	Lineages  []LineageConfig  `yaml:"lineages"`
	Conserved string           `yaml:"conserved"`
	Ignored   []string         `yaml:"ignored"`
	Important []string         `yaml:"important"`
}

// DefaultCatalogueConfig returns the configuration of DefaultCatalogue.
func DefaultCatalogueConfig() CatalogueConfig {
	return CatalogueConfig{
		Mutations: []MutationConfig{
			// Mutations of direct interest.
			{"N439K", "NC_045512:22877-22879"},
			{"Y453F", "NC_045512:22919-22921"},
			{"E484K", "NC_045512:23012-23014"},
			{"N501Y", "NC_045512:23063-23065"},
			{"P681H", "NC_045512:23603-23605"},
			// Mutations that help match lineages.
			{"L452R", "NC_045512:22916-22918"},
			{"S477N", "NC_045512:22991-22993"},
			{"A570D", "NC_045512:23270-23272"},
			{"D614G", "NC_045512:23402-23404"},
			{"A626S", "NC_045512:23438-23440"},
			{"H655Y", "NC_045512:23525-23527"},
			{"I692V", "NC_045512:23636-23638"},
			{"A701V", "NC_045512:23663-23665"},
			{"T716I", "NC_045512:23708-23710"},
		},
		Lineages: []LineageConfig{
			{"B.1.1.7", []string{"N501Y", "A570D", "P681H", "T716I"}},
			{"B.1.351", []string{"E484K", "N501Y", "A701V"}},
			{"P1", []string{"E484K", "N501Y", "H655Y"}},
		},
		Conserved: "D614G",
		Ignored:   []string{"D614G"},
		Important: []string{"N501Y", "E484K"},
	}
}

// ParseCatalogue builds a Catalogue from YAML.  Top-level keys missing from
// data keep their DefaultCatalogueConfig values; an explicit empty list
// clears them.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	cfg := DefaultCatalogueConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, errors.E(errors.Invalid, "spike: parse catalogue", err)
	}
	return NewCatalogue(cfg)
}

// LoadCatalogue reads a YAML catalogue from path.  An empty path yields
// DefaultCatalogue.
func LoadCatalogue(ctx context.Context, path string) (cat *Catalogue, err error) {
	if path == "" {
		return DefaultCatalogue(), nil
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, err
	}
	if cat, err = ParseCatalogue(data); err != nil {
		return nil, errors.E(fmt.Sprintf("spike: catalogue %s", path), err)
	}
	return cat, nil
}

// MarshalCatalogue renders c as YAML accepted by ParseCatalogue.
func MarshalCatalogue(c *Catalogue) ([]byte, error) {
	return yaml.Marshal(c.Config())
}
