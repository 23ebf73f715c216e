package templates

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/testutil"
	"github.com/turtacn/chemtemplates/internal/testutil/memrepo"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	oracle *testutil.FakeOracle
	repo   *memrepo.TemplateRepo
	log    *testutil.MockLogger
	svc    Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.oracle = testutil.NewFakeOracle()
	s.oracle.Invalid["c"] = true
	s.oracle.SetProperty("COC(=O)CCCNC(=O)Nc1cccc(Oc2ccccc2)c1", "Molecular Weight", 314.3)
	s.oracle.SetProperty("CCC", "Molecular Weight", 44.1)
	s.oracle.SetCatalogMatch("CCC", "PAINS", true)

	s.repo = memrepo.NewTemplateRepo()
	s.log = testutil.NewMockLogger()
	s.svc = s.newService()
}

func (s *ServiceTestSuite) newService(opts ...Option) Service {
	registry := filter.NewRegistry(s.oracle)
	compiler := filter.NewCompiler(registry, s.log)
	evaluator := filter.NewEvaluator(s.oracle, 4)
	return NewService(s.repo, compiler, evaluator, s.oracle, s.log, opts...)
}

func maxWeight(v float64) filter.TemplateConfig {
	return filter.TemplateConfig{
		PropertyFilters: filter.PropertyFilters{{Name: "Molecular Weight", MaxVal: filter.Float(v)}},
	}
}

func (s *ServiceTestSuite) TestDescriptionsAndBase() {
	d := s.svc.Descriptions()
	s.NotEmpty(d.PropertyFilters.Overview)
	s.NotEmpty(d.CatalogFilters.Descriptions)

	base := s.svc.BaseTemplate()
	s.NotEmpty(base.PropertyFilters)
	for _, c := range base.CatalogFilters {
		s.False(c.Include)
	}
}

func (s *ServiceTestSuite) TestStrip_DropsAndReports() {
	cfg := filter.TemplateConfig{
		PropertyFilters: filter.PropertyFilters{
			{Name: "Molecular Weight", MinVal: filter.Float(250), MaxVal: filter.Float(450)},
			{Name: "Rotatable Bonds"},
		},
		CatalogFilters: filter.CatalogFilters{
			{Name: "PAINS", Include: true},
			{Name: "invalid_catalog", Include: true},
		},
	}

	res, err := s.svc.Strip(s.ctx, cfg)
	s.Require().NoError(err)
	s.Len(res.Config.PropertyFilters, 1)
	s.Len(res.Config.CatalogFilters, 1)
	s.Len(res.Dropped, 2)

	again, err := s.svc.Strip(s.ctx, res.Config)
	s.Require().NoError(err)
	s.Equal(res.Config, again.Config)
	s.Empty(again.Dropped)
}

func (s *ServiceTestSuite) TestEvaluate_InclusiveBoundScenario() {
	cfg := maxWeight(100)
	results, err := s.svc.Evaluate(s.ctx, &EvaluateInput{
		Queries: []string{"COC(=O)CCCNC(=O)Nc1cccc(Oc2ccccc2)c1", "CCC", "c"},
		Config:  &cfg,
	})
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal([]bool{false, true, false}, []bool{results[0].Result, results[1].Result, results[2].Result})
	for i, r := range results {
		s.Equal(i, r.Index)
		s.Nil(r.TemplateData)
	}
}

func (s *ServiceTestSuite) TestEvaluate_ReturnData() {
	cfg := maxWeight(100)
	results, err := s.svc.Evaluate(s.ctx, &EvaluateInput{
		Queries:    []string{"CCC", "c"},
		Config:     &cfg,
		ReturnData: true,
	})
	s.Require().NoError(err)
	s.Require().NotNil(results[0].TemplateData)
	s.True(results[0].TemplateData.ValidInput)
	s.Len(results[0].TemplateData.PropertyFilters, 1)
	s.False(results[1].TemplateData.ValidInput)
}

func (s *ServiceTestSuite) TestEvaluate_Validation() {
	cfg := maxWeight(1)
	cases := map[string]*EvaluateInput{
		"nil":        nil,
		"no queries": {Config: &cfg},
		"both":       {Queries: []string{"C"}, Config: &cfg, TemplateID: "x"},
		"neither":    {Queries: []string{"C"}},
	}
	for name, in := range cases {
		_, err := s.svc.Evaluate(s.ctx, in)
		s.True(errors.IsValidation(err), name)
	}

	small := s.newService(WithMaxBatchSize(1))
	_, err := small.Evaluate(s.ctx, &EvaluateInput{Queries: []string{"C", "CC"}, Config: &cfg})
	s.True(errors.IsValidation(err))
}

func (s *ServiceTestSuite) TestEvaluate_ByIDReadsStoredTemplate() {
	rec, err := s.svc.Create(s.ctx, &CreateInput{Name: "light", Config: maxWeight(100)})
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		results, err := s.svc.Evaluate(s.ctx, &EvaluateInput{Queries: []string{"CCC"}, TemplateID: rec.ID})
		s.Require().NoError(err)
		s.True(results[0].Result)
	}
	s.Equal(3, s.repo.Gets)

	_, err = s.svc.Update(s.ctx, &UpdateInput{ID: rec.ID, Config: maxWeight(10)})
	s.Require().NoError(err)

	results, err := s.svc.Evaluate(s.ctx, &EvaluateInput{Queries: []string{"CCC"}, TemplateID: rec.ID})
	s.Require().NoError(err)
	s.False(results[0].Result)
}

// pausingRepo holds its first Get after the record has been read.
type pausingRepo struct {
	*memrepo.TemplateRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) Get(ctx context.Context, id string) (*repository.TemplateRecord, error) {
	rec, err := r.TemplateRepo.Get(ctx, id)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return rec, err
}

func (s *ServiceTestSuite) TestEvaluate_UpdateDuringInFlightLookup() {
	repo := &pausingRepo{TemplateRepo: s.repo, read: make(chan struct{}), release: make(chan struct{})}
	compiler := filter.NewCompiler(filter.NewRegistry(s.oracle), s.log)
	svc := NewService(repo, compiler, filter.NewEvaluator(s.oracle, 4), s.oracle, s.log)

	rec, err := svc.Create(s.ctx, &CreateInput{Name: "strict", Config: maxWeight(10)})
	s.Require().NoError(err)

	stale := make(chan filter.TemplateConfig, 1)
	go func() {
		cfg, _ := svc.ResolveTemplate(s.ctx, rec.ID)
		stale <- cfg
	}()
	<-repo.read

	_, err = svc.Update(s.ctx, &UpdateInput{ID: rec.ID, Config: maxWeight(100)})
	s.Require().NoError(err)
	close(repo.release)
	s.Equal(10.0, *(<-stale).PropertyFilters[0].MaxVal)

	results, err := svc.Evaluate(s.ctx, &EvaluateInput{Queries: []string{"CCC"}, TemplateID: rec.ID})
	s.Require().NoError(err)
	s.True(results[0].Result, "evaluation must use the stored max of 100")
}

func (s *ServiceTestSuite) TestEvaluate_UnknownTemplate() {
	_, err := s.svc.Evaluate(s.ctx, &EvaluateInput{Queries: []string{"CCC"}, TemplateID: "missing"})
	s.True(errors.IsCode(err, errors.ErrCodeTemplateNotFound))
}

func (s *ServiceTestSuite) TestEvaluate_OracleFailure() {
	cfg := maxWeight(100)
	s.oracle.Err = stderrors.New("connection refused")

	_, err := s.svc.Evaluate(s.ctx, &EvaluateInput{Queries: []string{"CCC"}, Config: &cfg})
	s.True(errors.IsCode(err, errors.ErrCodeOracleUnavailable))
	s.True(s.log.HasMessage("error", "template evaluation failed"))
}

func (s *ServiceTestSuite) TestCreate_StoresStrippedConfig() {
	name := "named"
	cfg := maxWeight(100)
	cfg.TemplateName = &name
	cfg.CatalogFilters = filter.CatalogFilters{{Name: "BRENK", Include: false}}

	rec, err := s.svc.Create(s.ctx, &CreateInput{Config: cfg})
	s.Require().NoError(err)
	s.Equal("named", rec.Name)
	s.Equal(1, rec.Version)

	stored, err := s.svc.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Empty(stored.Config.CatalogFilters)
	s.Len(stored.Config.PropertyFilters, 1)
}

func (s *ServiceTestSuite) TestUpdate_VersionConflict() {
	rec, err := s.svc.Create(s.ctx, &CreateInput{Name: "t", Config: maxWeight(100)})
	s.Require().NoError(err)

	updated, err := s.svc.Update(s.ctx, &UpdateInput{ID: rec.ID, Name: "t", Config: maxWeight(90), Version: 1})
	s.Require().NoError(err)
	s.Equal(2, updated.Version)

	_, err = s.svc.Update(s.ctx, &UpdateInput{ID: rec.ID, Name: "t", Config: maxWeight(80), Version: 1})
	s.True(errors.IsConflict(err))

	_, err = s.svc.Update(s.ctx, &UpdateInput{})
	s.True(errors.IsValidation(err))
}

func (s *ServiceTestSuite) TestListAndDelete() {
	for _, n := range []string{"a", "b", "c"} {
		_, err := s.svc.Create(s.ctx, &CreateInput{Name: n, Config: maxWeight(100)})
		s.Require().NoError(err)
	}
	all, err := s.svc.List(s.ctx, repository.ListOptions{})
	s.Require().NoError(err)
	s.Len(all, 3)

	paged, err := s.svc.List(s.ctx, repository.ListOptions{Skip: 1, Limit: 1})
	s.Require().NoError(err)
	s.Len(paged, 1)

	s.Require().NoError(s.svc.Delete(s.ctx, all[0].ID))
	s.True(errors.IsNotFound(s.svc.Delete(s.ctx, all[0].ID)))
	_, err = s.svc.ResolveTemplate(s.ctx, all[0].ID)
	s.True(errors.IsNotFound(err))
}

func (s *ServiceTestSuite) TestComputeProperties() {
	res, err := s.svc.ComputeProperties(s.ctx, []string{"CCC", "c"}, []string{"Molecular Weight", "Bogus"})
	s.Require().NoError(err)
	s.Require().Len(res, 2)

	s.True(res[0].Valid)
	s.Equal(44.1, res[0].Values["Molecular Weight"])
	s.Equal(PropertyNotFound, res[0].Values["Bogus"])

	s.False(res[1].Valid)
	s.Nil(res[1].Values)
	s.Equal(1, res[1].Index)

	_, err = s.svc.ComputeProperties(s.ctx, nil, nil)
	s.True(errors.IsValidation(err))
}

func (s *ServiceTestSuite) TestComputeProperties_DefaultsToAllNames() {
	res, err := s.svc.ComputeProperties(s.ctx, []string{"CCC"}, nil)
	s.Require().NoError(err)
	s.Len(res[0].Values, len(filter.NewRegistry(s.oracle).KnownPropertyNames()))
}

func (s *ServiceTestSuite) TestComputeCatalogs() {
	res, err := s.svc.ComputeCatalogs(s.ctx, []string{"CCC"}, []string{"PAINS", "BRENK", "nope"})
	s.Require().NoError(err)
	s.Equal(true, res[0].Values["PAINS"])
	s.Equal(false, res[0].Values["BRENK"])
	s.Equal(CatalogNotFound, res[0].Values["nope"])

	s.oracle.Err = stderrors.New("boom")
	_, err = s.svc.ComputeCatalogs(s.ctx, []string{"CCC"}, []string{"PAINS"})
	s.True(errors.IsCode(err, errors.ErrCodeOracleUnavailable))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

//Personal.AI order the ending
