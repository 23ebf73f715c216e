package filter

const propertyFilterOverview = "property filters compute the `value` of some `property_name`. The `value` is then \n" +
	"compared to `min_val` and `max_val`. If `min_val <= value <= max_val` (note this is inclusive), \n" +
	"the property filter evaluates to `True`. Otherwise, the property filter evaluates to `False`.\n\n" +
	"If `min_val=None` or `max_val=None`, that bound is ignored. If both bounds are `None`, the \n" +
	"property filter is ignored\n"

const catalogFilterOverview = "catalog filters compare the input structure \n" +
	"to preset filter catalogues in the RDKit library designed to screen undesirable compounds. \n" +
	"If an input matches a filter catalog, the filter evaluates to `False`.\n"

const smartsFilterOverview = "Smarts filters screen inputs against a given smarts string to \n" +
	"count the number of matches against the smarts pattern. The match count is then \n" +
	"compared to `min_val` and `max_val`. If `min_val <= value <= max_val` (note this is inclusive), \n" +
	"the smarts filter evaluates to `True`. Otherwise, the smarts filter evaluates to `False`.\n\n" +
	"If `min_val=None` or `max_val=None`, that bound is ignored. If both bounds are `None`, the \n" +
	"smarts filter is ignored\n\n" +
	"To exclude all inputs that match a smarts string, set `min_val=None` and `max_val=0`\n"

// BaseSmartsPlaceholder is the sample pattern carried by the base template.
const BaseSmartsPlaceholder = "example_smarts"

// NamedDescription is one registry entry with its description.
type NamedDescription struct {
	Name        string
	Description string
}

// NamedDescriptions encodes as a JSON object in registry order.
type NamedDescriptions []NamedDescription

func (d NamedDescriptions) MarshalJSON() ([]byte, error) {
	return encodeObject(len(d), func(i int) (string, interface{}) { return d[i].Name, d[i].Description })
}

// CategoryDescription documents one filter category.
type CategoryDescription struct {
	Overview      string            `json:"overview"`
	ExampleFormat interface{}       `json:"example_format"`
	Descriptions  NamedDescriptions `json:"descriptions,omitempty"`
}

// FilterDescriptions documents every filter category.
type FilterDescriptions struct {
	PropertyFilters CategoryDescription `json:"property_filters"`
	CatalogFilters  CategoryDescription `json:"catalog_filters"`
	SmartsFilters   CategoryDescription `json:"smarts_filters"`
}

// Descriptions returns the user-facing documentation of every filter category,
// including each registered property and catalog.
func (r *Registry) Descriptions() FilterDescriptions {
	props := make(NamedDescriptions, 0, len(r.propertyOrder))
	for _, name := range r.propertyOrder {
		props = append(props, NamedDescription{Name: name, Description: r.properties[name]})
	}
	cats := make(NamedDescriptions, 0, len(r.catalogOrder))
	for _, name := range r.catalogOrder {
		cats = append(cats, NamedDescription{Name: name, Description: r.catalogs[name]})
	}

	return FilterDescriptions{
		PropertyFilters: CategoryDescription{
			Overview: propertyFilterOverview,
			ExampleFormat: PropertyFilters{
				{Name: "Number of Compounds", MinVal: Float(120), MaxVal: Float(450)},
				{Name: "TPSA", MinVal: Float(20)},
			},
			Descriptions: props,
		},
		CatalogFilters: CategoryDescription{
			Overview: catalogFilterOverview,
			ExampleFormat: CatalogFilters{
				{Name: "PAINS", Include: false},
				{Name: "PAINS_A", Include: true},
			},
			Descriptions: cats,
		},
		SmartsFilters: CategoryDescription{
			Overview: smartsFilterOverview,
			ExampleFormat: SmartsFilters{
				{Pattern: "C=CC(=O)[!#7;!#8]", MaxVal: Float(0)},
			},
		},
	}
}

// BaseTemplate returns a template listing every property with open bounds,
// every catalog disabled, and one placeholder SMARTS entry. It compiles to an
// empty template.
func (r *Registry) BaseTemplate() TemplateConfig {
	cfg := TemplateConfig{
		PropertyFilters: make(PropertyFilters, 0, len(r.propertyOrder)),
		CatalogFilters:  make(CatalogFilters, 0, len(r.catalogOrder)),
		SmartsFilters:   SmartsFilters{{Pattern: BaseSmartsPlaceholder}},
	}
	for _, name := range r.propertyOrder {
		cfg.PropertyFilters = append(cfg.PropertyFilters, PropertyRange{Name: name})
	}
	for _, name := range r.catalogOrder {
		cfg.CatalogFilters = append(cfg.CatalogFilters, CatalogInclude{Name: name})
	}
	return cfg
}

//Personal.AI order the ending
