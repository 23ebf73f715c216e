package filter

import (
	"context"

	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Reasons attached to dropped entries.
const (
	ReasonUnknownProperty    = "unknown_property"
	ReasonUnknownCatalog     = "unknown_catalog"
	ReasonCatalogNotIncluded = "catalog_not_included"
	ReasonVacuousRange       = "vacuous_range"
	ReasonInvalidSmarts      = "invalid_smarts"
)

// Diagnostic records one entry dropped during compilation.
type Diagnostic struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Reason   string `json:"reason"`
}

// Compiler turns TemplateConfig values into Templates.
type Compiler struct {
	registry *Registry
	logger   logging.Logger
}

// NewCompiler returns a Compiler backed by registry.
func NewCompiler(registry *Registry, logger logging.Logger) *Compiler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Compiler{registry: registry, logger: logger}
}

// Registry returns the registry the compiler validates names against.
func (c *Compiler) Registry() *Registry { return c.registry }

// Compile keeps each entry that names a registered property or catalog (or a
// parseable SMARTS pattern) and is not vacuous; everything else is dropped and
// reported as a Diagnostic. The returned error is only ever an oracle
// transport failure from SMARTS validation.
func (c *Compiler) Compile(ctx context.Context, cfg TemplateConfig) (*Template, []Diagnostic, error) {
	var (
		filters []Filter
		diags   []Diagnostic
	)
	drop := func(category, key, reason string) {
		diags = append(diags, Diagnostic{Category: category, Key: key, Reason: reason})
	}

	for _, p := range cfg.PropertyFilters {
		switch {
		case !c.registry.HasProperty(p.Name):
			drop(CategoryProperty, p.Name, ReasonUnknownProperty)
		case p.Vacuous():
			drop(CategoryProperty, p.Name, ReasonVacuousRange)
		default:
			filters = append(filters, &PropertyFilter{Name: p.Name, MinVal: p.MinVal, MaxVal: p.MaxVal})
		}
	}

	for _, cat := range cfg.CatalogFilters {
		switch {
		case !c.registry.HasCatalog(cat.Name):
			drop(CategoryCatalog, cat.Name, ReasonUnknownCatalog)
		case !cat.Include:
			drop(CategoryCatalog, cat.Name, ReasonCatalogNotIncluded)
		default:
			filters = append(filters, &CatalogFilter{Name: cat.Name})
		}
	}

	for _, s := range cfg.SmartsFilters {
		if s.Vacuous() {
			drop(CategorySmarts, s.Pattern, ReasonVacuousRange)
			continue
		}
		ok, err := c.registry.IsValidSmarts(ctx, s.Pattern)
		if err != nil {
			return nil, nil, errors.OracleFailure(err, "is_valid_smarts")
		}
		if !ok {
			drop(CategorySmarts, s.Pattern, ReasonInvalidSmarts)
			continue
		}
		filters = append(filters, &SmartsFilter{Pattern: s.Pattern, MinVal: s.MinVal, MaxVal: s.MaxVal})
	}

	for _, d := range diags {
		c.logger.Warn("bad filter spec detected",
			logging.String("category", d.Category),
			logging.String("key", d.Key),
			logging.String("reason", d.Reason),
		)
	}

	return &Template{name: cfg.TemplateName, filters: filters}, diags, nil
}

// Strip compiles cfg and returns its normalized declarative form.
func (c *Compiler) Strip(ctx context.Context, cfg TemplateConfig) (TemplateConfig, []Diagnostic, error) {
	tpl, diags, err := c.Compile(ctx, cfg)
	if err != nil {
		return TemplateConfig{}, nil, err
	}
	return tpl.Spec(), diags, nil
}

//Personal.AI order the ending
