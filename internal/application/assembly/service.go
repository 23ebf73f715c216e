// Package assembly provides the application service for building-block and
// fragment assembly: synthon lookup, preset schemas, custom and saved
// assembly schemas.
package assembly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	domainAsm "github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Service defines the assembly application operations.
type Service interface {
	ComputeSynthons(ctx context.Context, inputs []string) ([]SynthonResult, error)
	ReactionMechanisms(ctx context.Context) ([]chem.Mechanism, error)
	BuildingBlockDescription() domainAsm.Description
	FragmentDescription() domainAsm.Description

	BasePresetSchema(ctx context.Context, kind domainAsm.PresetKind) (domainAsm.PresetSchema, error)
	StripPresetSchema(ctx context.Context, schema domainAsm.PresetSchema) (domainAsm.PresetSchema, error)
	AssembleTwoBB(ctx context.Context, req domainAsm.TwoBBRequest) ([]domainAsm.Result, error)
	AssembleThreeBB(ctx context.Context, req domainAsm.ThreeBBRequest) ([]domainAsm.Result, error)
	AssembleCustom(ctx context.Context, family domainAsm.Family, req domainAsm.Request) ([]domainAsm.Result, error)

	CreateSchema(ctx context.Context, input *SchemaInput) (*repository.AssemblySchemaRecord, error)
	GetSchema(ctx context.Context, id string) (*repository.AssemblySchemaRecord, error)
	ListSchemas(ctx context.Context, opts repository.ListOptions) ([]*repository.AssemblySchemaRecord, error)
	UpdateSchema(ctx context.Context, input *SchemaInput) (*repository.AssemblySchemaRecord, error)
	DeleteSchema(ctx context.Context, id string) error
	AssembleSchema(ctx context.Context, id string, input *InputSchema) ([]domainAsm.Result, error)
}

// SynthonResult lists the synthons of one building block.
type SynthonResult struct {
	Input      string         `json:"input"`
	Index      int            `json:"index"`
	ValidInput bool           `json:"valid_input"`
	Synthons   []chem.Synthon `json:"synthons"`
}

// SchemaInput creates or replaces a saved assembly schema. ID and Version
// are only read by UpdateSchema.
type SchemaInput struct {
	ID           string
	Name         string
	AssemblyType domainAsm.Family
	Schema       json.RawMessage
	Version      int
}

// InputSchema carries the inputs of a run against a saved schema.
type InputSchema struct {
	Mapped   map[string][]domainAsm.InputItem
	Unmapped []domainAsm.InputItem
}

type serviceImpl struct {
	engine    *domainAsm.Engine
	templates *filter.Compiler
	oracle    chem.Oracle
	repo      repository.AssemblySchemaRepository
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService creates a new assembly application service. The engine's
// compiler should resolve template_id references through the template
// service so saved schemas can point at saved templates.
func NewService(engine *domainAsm.Engine, templates *filter.Compiler, oracle chem.Oracle, repo repository.AssemblySchemaRepository, metrics *prometheus.AppMetrics, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		engine:    engine,
		templates: templates,
		oracle:    oracle,
		repo:      repo,
		metrics:   metrics,
		logger:    logger.Named("assembly"),
	}
}

func (s *serviceImpl) ComputeSynthons(ctx context.Context, inputs []string) ([]SynthonResult, error) {
	if len(inputs) == 0 {
		return nil, errors.NewValidationError("inputs", "at least one input is required")
	}

	out := make([]SynthonResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(filter.DefaultConcurrency)
	for i, raw := range inputs {
		i, raw := i, raw
		g.Go(func() error {
			res := SynthonResult{Input: raw, Index: i, Synthons: []chem.Synthon{}}
			mol, ok, err := s.oracle.Validate(gctx, raw)
			if err != nil {
				return errors.OracleFailure(err, "validate")
			}
			if ok {
				res.ValidInput = true
				synthons, err := s.oracle.ComputeSynthons(gctx, mol)
				if err != nil {
					return errors.OracleFailure(err, "compute_synthons")
				}
				if synthons != nil {
					res.Synthons = synthons
				}
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *serviceImpl) ReactionMechanisms(ctx context.Context) ([]chem.Mechanism, error) {
	mechs, err := s.oracle.ReactionMechanisms(ctx)
	if err != nil {
		return nil, errors.OracleFailure(err, "reaction_mechanisms")
	}
	return mechs, nil
}

func (s *serviceImpl) BuildingBlockDescription() domainAsm.Description {
	return domainAsm.BuildingBlockDescription()
}

func (s *serviceImpl) FragmentDescription() domainAsm.Description {
	return domainAsm.FragmentDescription()
}

func (s *serviceImpl) BasePresetSchema(ctx context.Context, kind domainAsm.PresetKind) (domainAsm.PresetSchema, error) {
	if !kind.IsValid() {
		return nil, errors.NewValidationError("kind", fmt.Sprintf("unknown preset schema %q, expected 2bb or 3bb", kind))
	}
	mechs, err := s.ReactionMechanisms(ctx)
	if err != nil {
		return nil, err
	}
	return domainAsm.BasePresetSchema(kind, s.templates.Registry().BaseTemplate(), mechs)
}

func (s *serviceImpl) StripPresetSchema(ctx context.Context, schema domainAsm.PresetSchema) (domainAsm.PresetSchema, error) {
	if len(schema) == 0 {
		return nil, errors.NewValidationError("schema", "schema has no blocks")
	}
	return domainAsm.StripPresetSchema(ctx, s.templates, schema)
}

func (s *serviceImpl) AssembleTwoBB(ctx context.Context, req domainAsm.TwoBBRequest) ([]domainAsm.Result, error) {
	r, err := req.Request()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, domainAsm.FamilySynthon, r, "2bb")
}

func (s *serviceImpl) AssembleThreeBB(ctx context.Context, req domainAsm.ThreeBBRequest) ([]domainAsm.Result, error) {
	r, err := req.Request()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, domainAsm.FamilySynthon, r, "3bb")
}

func (s *serviceImpl) AssembleCustom(ctx context.Context, family domainAsm.Family, req domainAsm.Request) ([]domainAsm.Result, error) {
	if len(bytes.TrimSpace(req.Schema)) == 0 {
		return nil, errors.NewValidationError("assembly_schema", "assembly_schema is required")
	}
	return s.run(ctx, family, req, "custom")
}

func (s *serviceImpl) run(ctx context.Context, family domainAsm.Family, req domainAsm.Request, kind string) ([]domainAsm.Result, error) {
	results, err := s.engine.Assemble(ctx, family, req)
	prometheus.RecordAssembly(s.metrics, string(family), len(results), err)
	if err != nil {
		if !errors.IsMalformedSchema(err) && !errors.IsNotFound(err) && !errors.IsCode(err, errors.ErrCodeAssemblyTypeInvalid) {
			s.logger.Error("assembly failed", logging.String("kind", kind), logging.Err(err))
		}
		return nil, err
	}
	s.logger.Debug("assembly finished",
		logging.String("kind", kind),
		logging.String("family", string(family)),
		logging.Int("products", len(results)))
	return results, nil
}

func (s *serviceImpl) CreateSchema(ctx context.Context, input *SchemaInput) (*repository.AssemblySchemaRecord, error) {
	if input == nil {
		return nil, errors.NewValidationError("assembly_schema", "request is required")
	}
	if err := checkShape(input.AssemblyType, input.Schema); err != nil {
		return nil, err
	}
	rec := &repository.AssemblySchemaRecord{
		Name:         input.Name,
		AssemblyType: input.AssemblyType,
		Schema:       input.Schema,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("assembly schema created", logging.SchemaID(rec.ID), logging.String("type", string(rec.AssemblyType)))
	return rec, nil
}

func (s *serviceImpl) GetSchema(ctx context.Context, id string) (*repository.AssemblySchemaRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *serviceImpl) ListSchemas(ctx context.Context, opts repository.ListOptions) ([]*repository.AssemblySchemaRecord, error) {
	return s.repo.List(ctx, opts.Normalize())
}

func (s *serviceImpl) UpdateSchema(ctx context.Context, input *SchemaInput) (*repository.AssemblySchemaRecord, error) {
	if input == nil || input.ID == "" {
		return nil, errors.NewValidationError("id", "assembly schema id is required")
	}
	if err := checkShape(input.AssemblyType, input.Schema); err != nil {
		return nil, err
	}
	rec := &repository.AssemblySchemaRecord{
		ID:           input.ID,
		Name:         input.Name,
		AssemblyType: input.AssemblyType,
		Schema:       input.Schema,
		Version:      input.Version,
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("assembly schema updated", logging.SchemaID(rec.ID), logging.Int("version", rec.Version))
	return rec, nil
}

func (s *serviceImpl) DeleteSchema(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("assembly schema deleted", logging.SchemaID(id))
	return nil
}

// AssembleSchema compiles a saved schema now, so template_id references
// resolve against the templates stored at call time.
func (s *serviceImpl) AssembleSchema(ctx context.Context, id string, input *InputSchema) ([]domainAsm.Result, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req := domainAsm.Request{Schema: rec.Schema}
	if input != nil {
		req.Mapped = input.Mapped
		req.Unmapped = input.Unmapped
	}
	return s.run(ctx, rec.AssemblyType, req, "stateful")
}

// checkShape accepts any JSON object whose node_type belongs to family.
// Everything deeper is validated when the schema is compiled.
func checkShape(family domainAsm.Family, schema json.RawMessage) error {
	if !family.IsValid() {
		return errors.NewValidationError("assembly_type", fmt.Sprintf("assembly_type must be %q or %q", domainAsm.FamilySynthon, domainAsm.FamilyFragment))
	}
	var head struct {
		NodeType *domainAsm.NodeType `json:"node_type"`
	}
	if err := json.Unmarshal(schema, &head); err != nil {
		return errors.MalformedSchema("$", "assembly schema must be a JSON object")
	}
	if head.NodeType == nil {
		return errors.MalformedSchema("$", "missing node_type")
	}
	if head.NodeType.Family() != family {
		return errors.New(errors.ErrCodeAssemblyTypeInvalid,
			fmt.Sprintf("node_type %q does not belong to a %s assembly", *head.NodeType, family))
	}
	return nil
}

//Personal.AI order the ending
