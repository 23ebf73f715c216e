package filter

import (
	"encoding/json"
)

// PropertyOutcome is the traced evaluation of one property filter.
type PropertyOutcome struct {
	Name   string   `json:"-"`
	MinVal *float64 `json:"min_val"`
	MaxVal *float64 `json:"max_val"`
	Value  *float64 `json:"value"`
	Result bool     `json:"result"`
}

// CatalogOutcome is the traced evaluation of one catalog filter.
type CatalogOutcome struct {
	Name     string `json:"-"`
	Include  bool   `json:"include"`
	HasMatch bool   `json:"has_match"`
	Result   bool   `json:"result"`
}

// SmartsOutcome is the traced evaluation of one SMARTS filter.
type SmartsOutcome struct {
	Pattern    string   `json:"-"`
	NumMatches *int     `json:"num_matches"`
	MinVal     *float64 `json:"min_val"`
	MaxVal     *float64 `json:"max_val"`
	Result     bool     `json:"result"`
}

// PropertyOutcomes, CatalogOutcomes and SmartsOutcomes encode as JSON objects
// keyed by filter name in evaluation order.
type (
	PropertyOutcomes []PropertyOutcome
	CatalogOutcomes  []CatalogOutcome
	SmartsOutcomes   []SmartsOutcome
)

func (o PropertyOutcomes) MarshalJSON() ([]byte, error) {
	return encodeObject(len(o), func(i int) (string, interface{}) { return o[i].Name, o[i] })
}

func (o *PropertyOutcomes) UnmarshalJSON(data []byte) error {
	out := PropertyOutcomes{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var v PropertyOutcome
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		v.Name = key
		out = append(out, v)
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

func (o CatalogOutcomes) MarshalJSON() ([]byte, error) {
	return encodeObject(len(o), func(i int) (string, interface{}) { return o[i].Name, o[i] })
}

func (o *CatalogOutcomes) UnmarshalJSON(data []byte) error {
	out := CatalogOutcomes{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var v CatalogOutcome
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		v.Name = key
		out = append(out, v)
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

func (o SmartsOutcomes) MarshalJSON() ([]byte, error) {
	return encodeObject(len(o), func(i int) (string, interface{}) { return o[i].Pattern, o[i] })
}

func (o *SmartsOutcomes) UnmarshalJSON(data []byte) error {
	out := SmartsOutcomes{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var v SmartsOutcome
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		v.Pattern = key
		out = append(out, v)
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

// TemplateData is the per-filter breakdown returned when tracing.
type TemplateData struct {
	TemplateName    *string          `json:"template_name"`
	ValidInput      bool             `json:"valid_input"`
	PropertyFilters PropertyOutcomes `json:"property_filters"`
	CatalogFilters  CatalogOutcomes  `json:"catalog_filters"`
	SmartsFilters   SmartsOutcomes   `json:"smarts_filters"`
}

func newTemplateData(name *string, valid bool) *TemplateData {
	return &TemplateData{
		TemplateName:    name,
		ValidInput:      valid,
		PropertyFilters: PropertyOutcomes{},
		CatalogFilters:  CatalogOutcomes{},
		SmartsFilters:   SmartsOutcomes{},
	}
}

// EvalResult is the outcome of evaluating one query against a template.
type EvalResult struct {
	Input        string        `json:"input"`
	Index        int           `json:"index"`
	Result       bool          `json:"result"`
	TemplateData *TemplateData `json:"template_data"`
}

//Personal.AI order the ending
