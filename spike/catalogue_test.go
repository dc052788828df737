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
package spike_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/covspike/spike"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestParseMutationID(t *testing.T) {
	ref, pos, alt, err := spike.ParseMutationID("N501Y")
	assert.NoError(t, err)
	expect.EQ(t, ref, byte('N'))
	expect.EQ(t, pos, 501)
	expect.EQ(t, alt, byte('Y'))

	_, _, alt, err = spike.ParseMutationID("Q27*")
	assert.NoError(t, err)
	expect.EQ(t, alt, byte('*'))

	for _, id := range []string{"", "N501", "501Y", "n501y", "N50xY", "NN501Y"} {
		_, _, _, err := spike.ParseMutationID(id)
		expect.True(t, errors.Is(errors.Invalid, err), "id %q", id)
	}
}

func TestDefaultCatalogue(t *testing.T) {
	cat := spike.DefaultCatalogue()
	expect.EQ(t, cat.IDs(), []string{
		"N439K", "Y453F", "E484K", "N501Y", "P681H", "L452R", "S477N",
		"A570D", "D614G", "A626S", "H655Y", "I692V", "A701V", "T716I",
	})
	for _, m := range cat.Mutations() {
		expect.EQ(t, m.Region.Len(), 3, m.ID)
		expect.EQ(t, m.Region.Contig, "NC_045512", m.ID)
	}
	m, ok := cat.Lookup("N501Y")
	expect.True(t, ok)
	expect.EQ(t, m.Region.String(), "NC_045512:23063-23065")
	expect.EQ(t, m.Pos, 501)
	expect.EQ(t, cat.Conserved(), "D614G")
	expect.True(t, cat.Ignored("D614G"))
	expect.False(t, cat.Ignored("N501Y"))
	expect.EQ(t, cat.Important(), []string{"N501Y", "E484K"})
	expect.EQ(t, len(cat.Lineages()), 3)

	// Accessors return copies.
	cat.Mutations()[0].ID = "changed"
	cat.Lineages()[0].Mutations[0] = "changed"
	expect.EQ(t, cat.IDs()[0], "N439K")
	expect.EQ(t, cat.Lineages()[0].Mutations[0], "N501Y")
}

func TestNewCatalogueErrors(t *testing.T) {
	base := func() spike.CatalogueConfig {
		return spike.CatalogueConfig{
			Mutations: []spike.MutationConfig{
				{ID: "N501Y", Region: "NC_045512:23063-23065"},
				{ID: "E484K", Region: "NC_045512:23012-23014"},
			},
		}
	}
	tests := []struct {
		name   string
		modify func(*spike.CatalogueConfig)
		substr string
	}{
		{"duplicate", func(c *spike.CatalogueConfig) { c.Mutations = append(c.Mutations, c.Mutations[0]) }, "duplicate mutation"},
		{"long_region", func(c *spike.CatalogueConfig) { c.Mutations[0].Region = "NC_045512:23063-23066" }, "N501Y"},
		{"bad_id", func(c *spike.CatalogueConfig) { c.Mutations[0].ID = "501Y" }, "bad mutation ID"},
		{"unknown_lineage_member", func(c *spike.CatalogueConfig) {
			c.Lineages = []spike.LineageConfig{{Name: "X", Mutations: []string{"N501X"}}}
		}, "did you mean N501Y?"},
		{"empty_lineage", func(c *spike.CatalogueConfig) {
			c.Lineages = []spike.LineageConfig{{Name: "X"}}
		}, "no mutations"},
		{"duplicate_lineage", func(c *spike.CatalogueConfig) {
			c.Lineages = []spike.LineageConfig{{Name: "X", Mutations: []string{"N501Y"}}, {Name: "X", Mutations: []string{"E484K"}}}
		}, "duplicate lineage"},
		{"unknown_conserved", func(c *spike.CatalogueConfig) { c.Conserved = "D614G" }, "conserved marker"},
		{"unknown_ignored", func(c *spike.CatalogueConfig) { c.Ignored = []string{"ZZZ"} }, "ignored list"},
		{"unknown_important", func(c *spike.CatalogueConfig) { c.Important = []string{"N501Y", "P681H"} }, "important list"},
	}
	for _, tt := range tests {
		cfg := base()
		tt.modify(&cfg)
		_, err := spike.NewCatalogue(cfg)
		require.Error(t, err, tt.name)
		expect.True(t, errors.Is(errors.Invalid, err), "%s: %v", tt.name, err)
		expect.True(t, strings.Contains(err.Error(), tt.substr), "%s: %v", tt.name, err)
	}
	_, err := spike.NewCatalogue(base())
	assert.NoError(t, err)
}

func TestCatalogueYAML(t *testing.T) {
	data, err := spike.MarshalCatalogue(spike.DefaultCatalogue())
	assert.NoError(t, err)
	cat, err := spike.ParseCatalogue(data)
	assert.NoError(t, err)
	expect.EQ(t, cat.Config(), spike.DefaultCatalogue().Config())

	// Missing keys keep their defaults.
	cat, err = spike.ParseCatalogue([]byte("important: [N501Y]\n"))
	assert.NoError(t, err)
	expect.EQ(t, cat.IDs(), spike.DefaultCatalogue().IDs())
	expect.EQ(t, cat.Important(), []string{"N501Y"})

	cat, err = spike.ParseCatalogue([]byte(`
mutations:
  - id: N501Y
    region: NC_045512:23063-23065
lineages: []
conserved: ""
ignored: []
important: []
`))
	assert.NoError(t, err)
	expect.EQ(t, cat.IDs(), []string{"N501Y"})
	expect.EQ(t, len(cat.Lineages()), 0)
	expect.EQ(t, cat.Conserved(), "")

	// Lineages referring to dropped mutations no longer validate.
	_, err = spike.ParseCatalogue([]byte("mutations: [{id: N501Y, region: 'NC_045512:23063-23065'}]\n"))
	expect.True(t, errors.Is(errors.Invalid, err), "%v", err)

	_, err = spike.ParseCatalogue([]byte("mutation: []\n"))
	expect.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestLoadCatalogue(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	cat, err := spike.LoadCatalogue(ctx, "")
	assert.NoError(t, err)
	expect.EQ(t, cat, spike.DefaultCatalogue())

	path := filepath.Join(tmpdir, "catalogue.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("conserved: N501Y\n"), 0644))
	cat, err = spike.LoadCatalogue(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, cat.Conserved(), "N501Y")

	_, err = spike.LoadCatalogue(ctx, filepath.Join(tmpdir, "missing.yaml"))
	expect.NotNil(t, err)
}
