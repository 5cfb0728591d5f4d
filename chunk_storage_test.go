package docsplit_test

import (
	"testing"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/stretchr/testify/assert"
)

func TestFindChanges(t *testing.T) {
	moved := source("a", "alpha")
	moved.StartChar = 10

	retitled := source("a", "alpha")
	retitled.HeaderPath = []string{"Title", "Sub"}

	linked := source("a", "alpha")
	linked.SourceLink = "https://example.com"

	tests := []struct {
		name                string
		fresh               []docsplit.Source
		stored              []docsplit.Source
		contentChanged      []string
		metadataOnlyChanged []string
		removed             []string
	}{
		{
			name:   "identical",
			fresh:  []docsplit.Source{source("a", "alpha"), source("b", "beta")},
			stored: []docsplit.Source{source("a", "alpha"), source("b", "beta")},
		},
		{
			name:           "new chunk",
			fresh:          []docsplit.Source{source("a", "alpha"), source("b", "beta")},
			stored:         []docsplit.Source{source("a", "alpha")},
			contentChanged: []string{"b"},
		},
		{
			name:           "content changed",
			fresh:          []docsplit.Source{source("a", "alpha v2")},
			stored:         []docsplit.Source{source("a", "alpha")},
			contentChanged: []string{"a"},
		},
		{
			name:                "offset moved",
			fresh:               []docsplit.Source{moved},
			stored:              []docsplit.Source{source("a", "alpha")},
			metadataOnlyChanged: []string{"a"},
		},
		{
			name:                "header path changed",
			fresh:               []docsplit.Source{retitled},
			stored:              []docsplit.Source{source("a", "alpha")},
			metadataOnlyChanged: []string{"a"},
		},
		{
			name:                "source link added",
			fresh:               []docsplit.Source{linked},
			stored:              []docsplit.Source{source("a", "alpha")},
			metadataOnlyChanged: []string{"a"},
		},
		{
			name:    "removed",
			fresh:   []docsplit.Source{source("a", "alpha")},
			stored:  []docsplit.Source{source("a", "alpha"), source("b", "beta"), source("c", "gamma")},
			removed: []string{"b", "c"},
		},
		{
			name:           "empty store",
			fresh:          []docsplit.Source{source("a", "alpha")},
			contentChanged: []string{"a"},
		},
		{
			name:    "nothing fresh",
			stored:  []docsplit.Source{source("a", "alpha")},
			removed: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := docsplit.FindChanges(tt.fresh, tt.stored)

			assert.Equal(t, tt.contentChanged, ids(changes.ContentChanged))
			assert.Equal(t, tt.metadataOnlyChanged, ids(changes.MetadataOnlyChanged))
			assert.Equal(t, tt.removed, changes.Removed)
			assert.Equal(t, tt.contentChanged == nil && tt.metadataOnlyChanged == nil && tt.removed == nil,
				changes.Empty())
		})
	}
}

func ids(sources []docsplit.Source) []string {
	var res []string
	for _, s := range sources {
		res = append(res, s.ID)
	}
	return res
}
