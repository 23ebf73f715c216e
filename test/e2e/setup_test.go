// Package e2e_test drives the whole HTTP stack through the Go SDK. Services
// run in process over the fake chemistry oracle and in-memory storage; jobs
// travel through an in-memory bus to the same handler the worker uses.
package e2e_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appAsm "github.com/turtacn/chemtemplates/internal/application/assembly"
	"github.com/turtacn/chemtemplates/internal/application/jobs"
	"github.com/turtacn/chemtemplates/internal/application/templates"
	domainAsm "github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/chemtemplates/internal/interfaces/http"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/handlers"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/middleware"
	"github.com/turtacn/chemtemplates/internal/testutil"
	"github.com/turtacn/chemtemplates/internal/testutil/jobfake"
	"github.com/turtacn/chemtemplates/internal/testutil/memrepo"
	"github.com/turtacn/chemtemplates/pkg/client"
)

const topicPrefix = "e2e."

type stack struct {
	oracle *testutil.FakeOracle
	log    *testutil.MockLogger
	bus    *jobfake.Publisher
	client *client.Client
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{
		oracle: testutil.NewFakeOracle(),
		log:    testutil.NewMockLogger(),
		bus:    jobfake.NewPublisher(),
	}
	seedOracle(s.oracle)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "chemtpl_e2e"}, s.log)
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	compiler := filter.NewCompiler(filter.NewRegistry(s.oracle), s.log)
	tplSvc := templates.NewService(memrepo.NewTemplateRepo(), compiler, filter.NewEvaluator(s.oracle, 4), s.oracle, s.log,
		templates.WithMetrics(metrics))

	engine := domainAsm.NewEngine(
		domainAsm.NewCompiler(compiler, s.log, domainAsm.WithTemplateResolver(tplSvc)),
		domainAsm.NewPoolBuilder(s.oracle, 4, s.log),
		domainAsm.NewExecutor(s.oracle, chem.Limits{MaxProducts: 100}, s.log),
	)
	asmSvc := appAsm.NewService(engine, compiler, s.oracle, memrepo.NewAssemblySchemaRepo(), metrics, s.log)

	jobSvc := jobs.NewService(memrepo.NewJobRepo(), jobfake.NewPayloadStore(), s.bus, tplSvc,
		jobs.Config{TopicPrefix: topicPrefix, Source: "e2e"}, metrics, s.log)
	s.bus.Subscribe(kafka.TopicName(topicPrefix, kafka.TopicEvaluationRequested), jobSvc.HandleMessage)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		TemplateHandler:  handlers.NewTemplateHandler(tplSvc, s.log),
		MoleculeHandler:  handlers.NewMoleculeHandler(tplSvc, s.log),
		AssemblyHandler:  handlers.NewAssemblyHandler(asmSvc, s.log),
		SchemaHandler:    handlers.NewSchemaHandler(asmSvc, s.log),
		JobHandler:       handlers.NewJobHandler(jobSvc, s.log),
		HealthHandler:    handlers.NewHealthHandler("e2e", metrics),
		LoggingConfig:    middleware.DefaultLoggingConfig(),
		MaxBodySize:      1 << 20,
		Logger:           s.log,
		Metrics:          metrics,
		MetricsCollector: collector,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		s.bus.Wait()
		srv.Close()
	})

	s.client, err = client.NewClient(srv.URL,
		client.WithTimeout(10*time.Second),
		client.WithRetryMax(0))
	require.NoError(t, err)
	return s
}

// seedOracle loads a small, consistent chemistry fixture: three aliphatic
// chains with weights, one PAINS hit, an invalid SMILES, and an amide
// coupling between an acid and two amines.
func seedOracle(o *testutil.FakeOracle) {
	o.Invalid["C1CC"] = true
	o.SetProperty("CCO", "Molecular Weight", 46.07)
	o.SetProperty("CCCCCCCCCC", "Molecular Weight", 142.29)
	o.SetProperty("CC(=O)O", "Molecular Weight", 60.05)
	o.SetCatalogMatch("CCCCCCCCCC", "PAINS", true)

	o.Mechanisms = []chem.Mechanism{{Name: "Amide coupling"}, {Name: "Suzuki coupling"}}
	o.Synthons["CC(=O)O"] = []chem.Synthon{{Synthon: "CC(=O)*", ReactionTags: []string{"Amide coupling"}}}
	o.Synthons["NCC"] = []chem.Synthon{{Synthon: "*NCC", ReactionTags: []string{"Amide coupling"}}}
	o.Synthons["NCCC"] = []chem.Synthon{{Synthon: "*NCCC", ReactionTags: []string{"Amide coupling"}}}
	o.AssembleFunc = testutil.PairwiseAssembler(map[[2]string]string{
		{"CC(=O)*", "*NCC"}:  "CC(=O)NCC",
		{"CC(=O)*", "*NCCC"}: "CC(=O)NCCC",
	})
}

//Personal.AI order the ending
