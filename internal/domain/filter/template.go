package filter

import (
	"context"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
)

// Filter is one compiled predicate. The set of implementations is closed:
// *PropertyFilter, *CatalogFilter and *SmartsFilter.
type Filter interface {
	Category() string
	Key() string
	isFilter()
}

// PropertyFilter passes when the property value lies within the bounds.
type PropertyFilter struct {
	Name   string
	MinVal *float64
	MaxVal *float64
}

// CatalogFilter passes when the molecule matches nothing in the catalog.
type CatalogFilter struct {
	Name string
}

// SmartsFilter passes when the match count lies within the bounds.
type SmartsFilter struct {
	Pattern string
	MinVal  *float64
	MaxVal  *float64
}

func (*PropertyFilter) Category() string { return CategoryProperty }
func (*CatalogFilter) Category() string  { return CategoryCatalog }
func (*SmartsFilter) Category() string   { return CategorySmarts }

func (f *PropertyFilter) Key() string { return f.Name }
func (f *CatalogFilter) Key() string  { return f.Name }
func (f *SmartsFilter) Key() string   { return f.Pattern }

func (*PropertyFilter) isFilter() {}
func (*CatalogFilter) isFilter()  {}
func (*SmartsFilter) isFilter()   {}

// inBounds applies the inclusive range test, ignoring absent bounds.
func inBounds(v float64, minVal, maxVal *float64) bool {
	if minVal != nil && v < *minVal {
		return false
	}
	if maxVal != nil && v > *maxVal {
		return false
	}
	return true
}

func (f *PropertyFilter) apply(ctx context.Context, o chem.Oracle, m chem.Molecule) (bool, *PropertyOutcome, error) {
	v, err := o.ComputeProperty(ctx, f.Name, m)
	if err != nil {
		return false, nil, err
	}
	pass := inBounds(v, f.MinVal, f.MaxVal)
	return pass, &PropertyOutcome{Name: f.Name, MinVal: f.MinVal, MaxVal: f.MaxVal, Value: &v, Result: pass}, nil
}

func (f *CatalogFilter) apply(ctx context.Context, o chem.Oracle, m chem.Molecule) (bool, *CatalogOutcome, error) {
	hit, err := o.CatalogHasMatch(ctx, f.Name, m)
	if err != nil {
		return false, nil, err
	}
	return !hit, &CatalogOutcome{Name: f.Name, Include: true, HasMatch: hit, Result: !hit}, nil
}

func (f *SmartsFilter) apply(ctx context.Context, o chem.Oracle, m chem.Molecule) (bool, *SmartsOutcome, error) {
	n, err := o.SmartsMatchCount(ctx, f.Pattern, m)
	if err != nil {
		return false, nil, err
	}
	pass := inBounds(float64(n), f.MinVal, f.MaxVal)
	return pass, &SmartsOutcome{Pattern: f.Pattern, NumMatches: &n, MinVal: f.MinVal, MaxVal: f.MaxVal, Result: pass}, nil
}

// Template is a compiled, immutable filter list. Filters are ordered property
// filters first, then catalog filters, then SMARTS filters, each in declared
// order.
type Template struct {
	name    *string
	filters []Filter
}

// NewTemplate assembles a Template directly from compiled filters.
func NewTemplate(name *string, filters ...Filter) *Template {
	return &Template{name: name, filters: append([]Filter(nil), filters...)}
}

// Name returns the optional template name.
func (t *Template) Name() *string {
	if t == nil {
		return nil
	}
	return t.name
}

// Filters returns a copy of the compiled filter list.
func (t *Template) Filters() []Filter {
	if t == nil {
		return nil
	}
	return append([]Filter(nil), t.filters...)
}

// Len returns the number of compiled filters.
func (t *Template) Len() int {
	if t == nil {
		return 0
	}
	return len(t.filters)
}

// Spec projects the template back to its declarative form. Compiling the
// result yields an equal Template.
func (t *Template) Spec() TemplateConfig {
	cfg := TemplateConfig{
		PropertyFilters: PropertyFilters{},
		CatalogFilters:  CatalogFilters{},
		SmartsFilters:   SmartsFilters{},
	}
	if t == nil {
		return cfg
	}
	cfg.TemplateName = t.name
	for _, f := range t.filters {
		switch f := f.(type) {
		case *PropertyFilter:
			cfg.PropertyFilters = append(cfg.PropertyFilters, PropertyRange{Name: f.Name, MinVal: f.MinVal, MaxVal: f.MaxVal})
		case *CatalogFilter:
			cfg.CatalogFilters = append(cfg.CatalogFilters, CatalogInclude{Name: f.Name, Include: true})
		case *SmartsFilter:
			cfg.SmartsFilters = append(cfg.SmartsFilters, SmartsRange{Pattern: f.Pattern, MinVal: f.MinVal, MaxVal: f.MaxVal})
		}
	}
	return cfg
}

//Personal.AI order the ending
