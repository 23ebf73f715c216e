// Package templates provides the application service for filter templates:
// stripping, evaluation, persisted template CRUD and the molecule property
// and catalog lookups that share the filter registry.
package templates

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Literal values reported for names missing from the registry.
const (
	PropertyNotFound = "property not found"
	CatalogNotFound  = "catalog not found"
)

// DefaultMaxBatchSize caps the number of queries per evaluation request.
const DefaultMaxBatchSize = 10000

// Service defines the template application operations.
type Service interface {
	Descriptions() filter.FilterDescriptions
	BaseTemplate() filter.TemplateConfig
	Strip(ctx context.Context, cfg filter.TemplateConfig) (*StripResult, error)
	Evaluate(ctx context.Context, input *EvaluateInput) ([]filter.EvalResult, error)

	Create(ctx context.Context, input *CreateInput) (*repository.TemplateRecord, error)
	Get(ctx context.Context, id string) (*repository.TemplateRecord, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*repository.TemplateRecord, error)
	Update(ctx context.Context, input *UpdateInput) (*repository.TemplateRecord, error)
	Delete(ctx context.Context, id string) error

	// ResolveTemplate returns the stored configuration of a saved template.
	ResolveTemplate(ctx context.Context, id string) (filter.TemplateConfig, error)

	ComputeProperties(ctx context.Context, inputs, names []string) ([]PropertyResult, error)
	ComputeCatalogs(ctx context.Context, inputs, names []string) ([]CatalogResult, error)
}

// StripResult is a normalized configuration plus what was dropped from it.
type StripResult struct {
	Config  filter.TemplateConfig `json:"template_config"`
	Dropped []filter.Diagnostic   `json:"dropped,omitempty"`
}

// EvaluateInput selects a template either inline or by id.
type EvaluateInput struct {
	Queries    []string
	Config     *filter.TemplateConfig
	TemplateID string
	ReturnData bool
}

// CreateInput contains input for saving a template.
type CreateInput struct {
	Name   string
	Config filter.TemplateConfig
}

// UpdateInput replaces a saved template. A zero Version skips the
// concurrent-modification check.
type UpdateInput struct {
	ID      string
	Name    string
	Config  filter.TemplateConfig
	Version int
}

// PropertyResult holds the requested property values of one input.
type PropertyResult struct {
	Input  string                 `json:"input"`
	Index  int                    `json:"index"`
	Valid  bool                   `json:"valid"`
	Values map[string]interface{} `json:"values,omitempty"`
}

// CatalogResult holds the catalog matches of one input. Values are booleans
// or CatalogNotFound.
type CatalogResult struct {
	Input  string                 `json:"input"`
	Index  int                    `json:"index"`
	Valid  bool                   `json:"valid"`
	Values map[string]interface{} `json:"values,omitempty"`
}

// Option configures the service.
type Option func(*serviceImpl)

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithMaxBatchSize overrides DefaultMaxBatchSize.
func WithMaxBatchSize(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithConcurrency bounds concurrent oracle calls in property and catalog
// lookups.
func WithConcurrency(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

type serviceImpl struct {
	repo        repository.TemplateRepository
	compiler    *filter.Compiler
	evaluator   *filter.Evaluator
	oracle      chem.Oracle
	metrics     *prometheus.AppMetrics
	maxBatch    int
	concurrency int
	logger      logging.Logger
}

// NewService creates a new template application service.
func NewService(repo repository.TemplateRepository, compiler *filter.Compiler, evaluator *filter.Evaluator, oracle chem.Oracle, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		repo:        repo,
		compiler:    compiler,
		evaluator:   evaluator,
		oracle:      oracle,
		maxBatch:    DefaultMaxBatchSize,
		concurrency: filter.DefaultConcurrency,
		logger:      logger.Named("templates"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) Descriptions() filter.FilterDescriptions {
	return s.compiler.Registry().Descriptions()
}

func (s *serviceImpl) BaseTemplate() filter.TemplateConfig {
	return s.compiler.Registry().BaseTemplate()
}

func (s *serviceImpl) Strip(ctx context.Context, cfg filter.TemplateConfig) (*StripResult, error) {
	stripped, diags, err := s.compiler.Strip(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.recordDropped(diags)
	return &StripResult{Config: stripped, Dropped: diags}, nil
}

func (s *serviceImpl) Evaluate(ctx context.Context, input *EvaluateInput) ([]filter.EvalResult, error) {
	if input == nil {
		return nil, errors.NewValidationError("queries", "request is required")
	}
	if len(input.Queries) == 0 {
		return nil, errors.NewValidationError("queries", "at least one query is required")
	}
	if len(input.Queries) > s.maxBatch {
		return nil, errors.NewValidationError("queries", fmt.Sprintf("at most %d queries per request", s.maxBatch))
	}

	var cfg filter.TemplateConfig
	switch {
	case input.Config != nil && input.TemplateID != "":
		return nil, errors.NewValidationError("template_id", "template_id and template_config are mutually exclusive")
	case input.Config != nil:
		cfg = *input.Config
	case input.TemplateID != "":
		resolved, err := s.ResolveTemplate(ctx, input.TemplateID)
		if err != nil {
			return nil, err
		}
		cfg = resolved
	default:
		return nil, errors.NewValidationError("template_config", "template_id or template_config is required")
	}

	tpl, diags, err := s.compiler.Compile(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.recordDropped(diags)

	mode := filter.Mode{Trace: input.ReturnData, EarlyExit: true}
	modeLabel := "fast"
	if mode.Trace {
		modeLabel = "trace"
	}

	start := time.Now()
	results, err := s.evaluator.EvaluateBatch(ctx, input.Queries, tpl, mode)
	if err != nil {
		s.logger.Error("template evaluation failed",
			logging.Int("queries", len(input.Queries)),
			logging.Err(err))
		return nil, err
	}

	passed, invalid := 0, 0
	for _, r := range results {
		if r.Result {
			passed++
		}
		if r.TemplateData != nil && !r.TemplateData.ValidInput {
			invalid++
		}
	}
	prometheus.RecordEvaluations(s.metrics, modeLabel, passed, len(results)-passed, invalid, time.Since(start))

	s.logger.Debug("template evaluated",
		logging.Int("queries", len(results)),
		logging.Int("passed", passed),
		logging.Int("filters", tpl.Len()))
	return results, nil
}

func (s *serviceImpl) Create(ctx context.Context, input *CreateInput) (*repository.TemplateRecord, error) {
	if input == nil {
		return nil, errors.NewValidationError("template_config", "request is required")
	}
	stripped, err := s.Strip(ctx, input.Config)
	if err != nil {
		return nil, err
	}

	rec := &repository.TemplateRecord{
		Name:   recordName(input.Name, stripped.Config),
		Config: stripped.Config,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("template created", logging.TemplateID(rec.ID), logging.String("name", rec.Name))
	return rec, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*repository.TemplateRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *serviceImpl) List(ctx context.Context, opts repository.ListOptions) ([]*repository.TemplateRecord, error) {
	return s.repo.List(ctx, opts.Normalize())
}

func (s *serviceImpl) Update(ctx context.Context, input *UpdateInput) (*repository.TemplateRecord, error) {
	if input == nil || input.ID == "" {
		return nil, errors.NewValidationError("id", "template id is required")
	}
	stripped, err := s.Strip(ctx, input.Config)
	if err != nil {
		return nil, err
	}

	rec := &repository.TemplateRecord{
		ID:      input.ID,
		Name:    recordName(input.Name, stripped.Config),
		Config:  stripped.Config,
		Version: input.Version,
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("template updated", logging.TemplateID(rec.ID), logging.Int("version", rec.Version))
	return rec, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("template deleted", logging.TemplateID(id))
	return nil
}

// ResolveTemplate always reads the stored document, so an update is visible
// to the next evaluation.
func (s *serviceImpl) ResolveTemplate(ctx context.Context, id string) (filter.TemplateConfig, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return filter.TemplateConfig{}, err
	}
	return rec.Config, nil
}

func (s *serviceImpl) ComputeProperties(ctx context.Context, inputs, names []string) ([]PropertyResult, error) {
	if len(inputs) == 0 {
		return nil, errors.NewValidationError("inputs", "at least one input is required")
	}
	if len(names) == 0 {
		names = s.compiler.Registry().KnownPropertyNames()
	}
	registry := s.compiler.Registry()

	out := make([]PropertyResult, len(inputs))
	err := s.forEachMolecule(ctx, inputs, func(ctx context.Context, i int, mol chem.Molecule, ok bool) error {
		res := PropertyResult{Input: inputs[i], Index: i, Valid: ok}
		if ok {
			res.Values = make(map[string]interface{}, len(names))
			for _, name := range names {
				if !registry.HasProperty(name) {
					res.Values[name] = PropertyNotFound
					continue
				}
				v, err := s.oracle.ComputeProperty(ctx, name, mol)
				if err != nil {
					return errors.OracleFailure(err, "compute_property")
				}
				res.Values[name] = v
			}
		}
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *serviceImpl) ComputeCatalogs(ctx context.Context, inputs, names []string) ([]CatalogResult, error) {
	if len(inputs) == 0 {
		return nil, errors.NewValidationError("inputs", "at least one input is required")
	}
	if len(names) == 0 {
		names = s.compiler.Registry().KnownCatalogNames()
	}
	registry := s.compiler.Registry()

	out := make([]CatalogResult, len(inputs))
	err := s.forEachMolecule(ctx, inputs, func(ctx context.Context, i int, mol chem.Molecule, ok bool) error {
		res := CatalogResult{Input: inputs[i], Index: i, Valid: ok}
		if ok {
			res.Values = make(map[string]interface{}, len(names))
			for _, name := range names {
				if !registry.HasCatalog(name) {
					res.Values[name] = CatalogNotFound
					continue
				}
				hit, err := s.oracle.CatalogHasMatch(ctx, name, mol)
				if err != nil {
					return errors.OracleFailure(err, "catalog_has_match")
				}
				res.Values[name] = hit
			}
		}
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEachMolecule validates every input concurrently and hands it to fn.
func (s *serviceImpl) forEachMolecule(ctx context.Context, inputs []string, fn func(ctx context.Context, i int, mol chem.Molecule, ok bool) error) error {
	if len(inputs) > s.maxBatch {
		return errors.NewValidationError("inputs", fmt.Sprintf("at most %d inputs per request", s.maxBatch))
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, raw := range inputs {
		i, raw := i, raw
		g.Go(func() error {
			mol, ok, err := s.oracle.Validate(gctx, raw)
			if err != nil {
				return errors.OracleFailure(err, "validate")
			}
			return fn(gctx, i, mol, ok)
		})
	}
	return g.Wait()
}

func (s *serviceImpl) recordDropped(diags []filter.Diagnostic) {
	for _, d := range diags {
		prometheus.RecordFilterDropped(s.metrics, d.Reason)
	}
	if len(diags) > 0 {
		s.logger.Debug("template entries dropped", logging.Int("count", len(diags)), logging.Any("dropped", diags))
	}
}

// recordName prefers an explicit name and falls back to the template's own.
func recordName(name string, cfg filter.TemplateConfig) string {
	if name != "" {
		return name
	}
	if cfg.TemplateName != nil {
		return *cfg.TemplateName
	}
	return ""
}

//Personal.AI order the ending
