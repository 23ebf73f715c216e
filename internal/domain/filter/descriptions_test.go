package filter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Descriptions(t *testing.T) {
	d := NewRegistry(nil).Descriptions()

	assert.True(t, strings.HasPrefix(d.PropertyFilters.Overview, "property filters compute the `value`"))
	assert.Len(t, d.PropertyFilters.Descriptions, 35)
	assert.Len(t, d.CatalogFilters.Descriptions, 7)
	assert.Empty(t, d.SmartsFilters.Descriptions)
	assert.Contains(t, d.SmartsFilters.Overview, "set `min_val=None` and `max_val=0`")

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var generic map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic["property_filters"], "descriptions")
	assert.NotContains(t, generic["smarts_filters"], "descriptions")
	assert.JSONEq(t, `{"C=CC(=O)[!#7;!#8]":{"min_val":null,"max_val":0}}`, string(generic["smarts_filters"]["example_format"]))
	assert.JSONEq(t,
		`{"Number of Compounds":{"min_val":120,"max_val":450},"TPSA":{"min_val":20,"max_val":null}}`,
		string(generic["property_filters"]["example_format"]))
	assert.True(t, strings.HasPrefix(string(generic["catalog_filters"]["descriptions"]), `{"PAINS":`))
}

func TestRegistry_BaseTemplateJSON(t *testing.T) {
	raw, err := json.Marshal(NewRegistry(nil).BaseTemplate())
	require.NoError(t, err)

	s := string(raw)
	assert.True(t, strings.HasPrefix(s, `{"template_name":null,"property_filters":{"Number of Compounds":{"min_val":null,"max_val":null},"TPSA":`))
	assert.Contains(t, s, `"catalog_filters":{"PAINS":{"include":false},"PAINS_A":{"include":false}`)
	assert.True(t, strings.HasSuffix(s, `"smarts_filters":{"example_smarts":{"min_val":null,"max_val":null}}}`))
}

//Personal.AI order the ending
