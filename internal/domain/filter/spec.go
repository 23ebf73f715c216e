package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category names used on the wire and in diagnostics.
const (
	CategoryProperty = "property_filters"
	CategoryCatalog  = "catalog_filters"
	CategorySmarts   = "smarts_filters"
)

// Float returns a pointer to v, for building bounds in code.
func Float(v float64) *float64 { return &v }

// PropertyRange bounds a registered numeric property. A nil bound is
// unconstrained on that side.
type PropertyRange struct {
	Name   string   `json:"-"`
	MinVal *float64 `json:"min_val"`
	MaxVal *float64 `json:"max_val"`
}

// Vacuous reports whether neither bound is present.
func (r PropertyRange) Vacuous() bool { return r.MinVal == nil && r.MaxVal == nil }

// CatalogInclude toggles a structural alert catalog.
type CatalogInclude struct {
	Name    string `json:"-"`
	Include bool   `json:"include"`
}

// SmartsRange bounds the match count of a SMARTS pattern.
type SmartsRange struct {
	Pattern string   `json:"-"`
	MinVal  *float64 `json:"min_val"`
	MaxVal  *float64 `json:"max_val"`
}

// Vacuous reports whether neither bound is present.
func (r SmartsRange) Vacuous() bool { return r.MinVal == nil && r.MaxVal == nil }

// PropertyFilters is an ordered JSON object keyed by property name.
type PropertyFilters []PropertyRange

// CatalogFilters is an ordered JSON object keyed by catalog name.
type CatalogFilters []CatalogInclude

// SmartsFilters is an ordered JSON object keyed by SMARTS pattern.
type SmartsFilters []SmartsRange

// TemplateConfig is the declarative form of a filter template. Entry order
// within each category follows the JSON document and is preserved through
// decoding, compilation and encoding.
type TemplateConfig struct {
	TemplateName    *string         `json:"template_name"`
	PropertyFilters PropertyFilters `json:"property_filters"`
	CatalogFilters  CatalogFilters  `json:"catalog_filters"`
	SmartsFilters   SmartsFilters   `json:"smarts_filters"`
}

// IsEmpty reports whether the configuration declares no filters at all.
func (c TemplateConfig) IsEmpty() bool {
	return len(c.PropertyFilters) == 0 && len(c.CatalogFilters) == 0 && len(c.SmartsFilters) == 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Ordered object codec
// ─────────────────────────────────────────────────────────────────────────────

// decodeObject calls fn for every member of the JSON object in data, in
// document order. A JSON null is treated as an empty object.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
	}
	_, err = dec.Token()
	return err
}

// encodeObject writes n members produced by member as a JSON object.
func encodeObject(n int, member func(i int) (string, interface{})) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		k, v := member(i)
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// upsert keeps the first position of a repeated key and the last value.
func upsert[T any](list []T, index map[string]int, key string, v T) []T {
	if i, ok := index[key]; ok {
		list[i] = v
		return list
	}
	index[key] = len(list)
	return append(list, v)
}

func (p PropertyFilters) MarshalJSON() ([]byte, error) {
	return encodeObject(len(p), func(i int) (string, interface{}) { return p[i].Name, p[i] })
}

func (p *PropertyFilters) UnmarshalJSON(data []byte) error {
	out := PropertyFilters{}
	index := map[string]int{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var r PropertyRange
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		r.Name = key
		out = upsert(out, index, key, r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("property_filters: %w", err)
	}
	*p = out
	return nil
}

func (c CatalogFilters) MarshalJSON() ([]byte, error) {
	return encodeObject(len(c), func(i int) (string, interface{}) { return c[i].Name, c[i] })
}

func (c *CatalogFilters) UnmarshalJSON(data []byte) error {
	out := CatalogFilters{}
	index := map[string]int{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var inc CatalogInclude
		if err := json.Unmarshal(raw, &inc); err != nil {
			return err
		}
		inc.Name = key
		out = upsert(out, index, key, inc)
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog_filters: %w", err)
	}
	*c = out
	return nil
}

func (s SmartsFilters) MarshalJSON() ([]byte, error) {
	return encodeObject(len(s), func(i int) (string, interface{}) { return s[i].Pattern, s[i] })
}

func (s *SmartsFilters) UnmarshalJSON(data []byte) error {
	out := SmartsFilters{}
	index := map[string]int{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var r SmartsRange
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		r.Pattern = key
		out = upsert(out, index, key, r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("smarts_filters: %w", err)
	}
	*s = out
	return nil
}

//Personal.AI order the ending
