package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateConfig_DecodePreservesOrder(t *testing.T) {
	doc := `{
		"template_name": "ordered",
		"property_filters": {"TPSA": {"min_val": 20}, "LogP": {"max_val": 5}, "Atom Count": {"min_val": 1, "max_val": 2}},
		"catalog_filters": {"ZINC": {"include": true}, "PAINS": {"include": false}},
		"smarts_filters": {"C=O": {"max_val": 0}, "c1ccccc1": {"min_val": 1}}
	}`

	var cfg TemplateConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &cfg))

	require.NotNil(t, cfg.TemplateName)
	assert.Equal(t, "ordered", *cfg.TemplateName)
	require.Len(t, cfg.PropertyFilters, 3)
	assert.Equal(t, "TPSA", cfg.PropertyFilters[0].Name)
	assert.Equal(t, "LogP", cfg.PropertyFilters[1].Name)
	assert.Equal(t, "Atom Count", cfg.PropertyFilters[2].Name)
	assert.Nil(t, cfg.PropertyFilters[0].MaxVal)
	assert.Equal(t, 5.0, *cfg.PropertyFilters[1].MaxVal)

	assert.Equal(t, "ZINC", cfg.CatalogFilters[0].Name)
	assert.False(t, cfg.CatalogFilters[1].Include)
	assert.Equal(t, "c1ccccc1", cfg.SmartsFilters[1].Pattern)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t,
		`{"template_name":"ordered",`+
			`"property_filters":{"TPSA":{"min_val":20,"max_val":null},"LogP":{"min_val":null,"max_val":5},"Atom Count":{"min_val":1,"max_val":2}},`+
			`"catalog_filters":{"ZINC":{"include":true},"PAINS":{"include":false}},`+
			`"smarts_filters":{"C=O":{"min_val":null,"max_val":0},"c1ccccc1":{"min_val":1,"max_val":null}}}`,
		string(out))
}

func TestTemplateConfig_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	var p PropertyFilters
	require.NoError(t, json.Unmarshal([]byte(`{"TPSA":{"min_val":1},"LogP":{"min_val":2},"TPSA":{"min_val":3}}`), &p))

	require.Len(t, p, 2)
	assert.Equal(t, "TPSA", p[0].Name)
	assert.Equal(t, 3.0, *p[0].MinVal)
	assert.Equal(t, "LogP", p[1].Name)
}

func TestTemplateConfig_NullAndMissingCategories(t *testing.T) {
	var cfg TemplateConfig
	require.NoError(t, json.Unmarshal([]byte(`{"property_filters": null}`), &cfg))
	assert.Empty(t, cfg.PropertyFilters)
	assert.True(t, cfg.IsEmpty())
	assert.Nil(t, cfg.TemplateName)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, `{"template_name":null,"property_filters":{},"catalog_filters":{},"smarts_filters":{}}`, string(out))
}

func TestTemplateConfig_RejectsNonObjectCategory(t *testing.T) {
	var cfg TemplateConfig
	err := json.Unmarshal([]byte(`{"catalog_filters": ["PAINS"]}`), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog_filters")
}

func TestTemplateConfig_RejectsBadBound(t *testing.T) {
	var cfg TemplateConfig
	err := json.Unmarshal([]byte(`{"smarts_filters": {"C=O": {"max_val": "zero"}}}`), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smarts_filters")
}

func TestRanges_Vacuous(t *testing.T) {
	assert.True(t, PropertyRange{Name: "TPSA"}.Vacuous())
	assert.False(t, PropertyRange{Name: "TPSA", MinVal: Float(0)}.Vacuous())
	assert.True(t, SmartsRange{Pattern: "C"}.Vacuous())
	assert.False(t, SmartsRange{Pattern: "C", MaxVal: Float(0)}.Vacuous())
}

//Personal.AI order the ending
