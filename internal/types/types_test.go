package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, name := range []string{"rups", "bonus", "warrant", "right"} {
		cat, err := ParseCategory(name)
		require.NoError(t, err)
		assert.Equal(t, name, cat.Name)
	}

	_, err := ParseCategory("dividend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestCategoryMetadata(t *testing.T) {
	for _, cat := range Categories() {
		cols := make(map[string]struct{}, len(cat.Columns))
		for _, c := range cat.Columns {
			cols[c] = struct{}{}
		}
		for _, k := range cat.KeyColumns {
			assert.Contains(t, cols, k, "key column %q of %s must be a declared column", k, cat.Name)
		}
		assert.NotEmpty(t, cat.Relation)
		assert.NotEmpty(t, cat.View)
		assert.Positive(t, cat.CutoffDays)
	}
}

func TestSymbolRoot(t *testing.T) {
	assert.Equal(t, "BBCA", SymbolRoot("BBCA.JK"))
	assert.Equal(t, "BBCA", SymbolRoot("BBCA"))
	assert.Equal(t, "BB", SymbolRoot("BB"))
}
