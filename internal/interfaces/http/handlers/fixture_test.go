package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	appAsm "github.com/turtacn/chemtemplates/internal/application/assembly"
	"github.com/turtacn/chemtemplates/internal/application/templates"
	domainAsm "github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/testutil"
	"github.com/turtacn/chemtemplates/internal/testutil/memrepo"
)

// fixture wires real services over the fake oracle and in-memory repositories.
type fixture struct {
	oracle    *testutil.FakeOracle
	log       *testutil.MockLogger
	templates templates.Service
	assembly  appAsm.Service
	router    chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{oracle: testutil.NewFakeOracle(), log: testutil.NewMockLogger()}

	f.oracle.Invalid["c"] = true
	f.oracle.SetProperty("CCC", "Molecular Weight", 44.1)
	f.oracle.SetProperty("CCCCCCCCCC", "Molecular Weight", 142.3)
	f.oracle.SetCatalogMatch("CCC", "PAINS", true)
	f.oracle.Mechanisms = []chem.Mechanism{{Name: "Amide coupling"}}
	for _, in := range []string{"A", "B1"} {
		f.oracle.Synthons[in] = []chem.Synthon{{Synthon: in + "*", ReactionTags: []string{"Amide coupling"}}}
	}
	f.oracle.AssembleFunc = testutil.PairwiseAssembler(map[[2]string]string{{"A*", "B1*"}: "AB1"})

	compiler := filter.NewCompiler(filter.NewRegistry(f.oracle), f.log)
	f.templates = templates.NewService(memrepo.NewTemplateRepo(), compiler, filter.NewEvaluator(f.oracle, 2), f.oracle, f.log)
	engine := domainAsm.NewEngine(
		domainAsm.NewCompiler(compiler, f.log, domainAsm.WithTemplateResolver(f.templates)),
		domainAsm.NewPoolBuilder(f.oracle, 2, f.log),
		domainAsm.NewExecutor(f.oracle, chem.Limits{}, f.log),
	)
	f.assembly = appAsm.NewService(engine, compiler, f.oracle, memrepo.NewAssemblySchemaRepo(), nil, f.log)

	th := NewTemplateHandler(f.templates, f.log)
	mh := NewMoleculeHandler(f.templates, f.log)
	ah := NewAssemblyHandler(f.assembly, f.log)
	sh := NewSchemaHandler(f.assembly, f.log)

	r := chi.NewRouter()
	r.Get("/filters/descriptions", th.Descriptions)
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", th.List)
		r.Post("/", th.Create)
		r.Get("/base", th.Base)
		r.Post("/strip", th.Strip)
		r.Post("/evaluate", th.Evaluate)
		r.Get("/{id}", th.Get)
		r.Put("/{id}", th.Update)
		r.Delete("/{id}", th.Delete)
		r.Post("/{id}/evaluate", th.EvaluateSaved)
	})
	r.Post("/molecules/properties", mh.Properties)
	r.Post("/molecules/catalogs", mh.Catalogs)
	r.Route("/building-blocks", func(r chi.Router) {
		r.Get("/description", ah.BuildingBlockDescription)
		r.Get("/reaction-mechanisms", ah.ReactionMechanisms)
		r.Post("/synthons", ah.Synthons)
		r.Post("/schemas/strip", ah.StripPresetSchema)
		r.Get("/schemas/{kind}", ah.PresetSchema)
		r.Post("/assemble/2bb", ah.AssembleTwoBB)
		r.Post("/assemble/custom", ah.AssembleSynthons)
	})
	r.Get("/fragments/description", ah.FragmentDescription)
	r.Post("/fragments/assemble/custom", ah.AssembleFragments)
	r.Route("/assembly-schemas", func(r chi.Router) {
		r.Get("/", sh.List)
		r.Post("/", sh.Create)
		r.Get("/{id}", sh.Get)
		r.Put("/{id}", sh.Update)
		r.Delete("/{id}", sh.Delete)
		r.Post("/{id}/assemble", sh.Assemble)
	})
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	return serve(f.router, method, path, body)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return serveRequest(h, newJSONRequest(method, path, body))
}

func newJSONRequest(method, path, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serveRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// errorCode asserts the status and returns the error code of the body.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body ErrorResponse
	decodeBody(t, rec, &body)
	return body.Code
}

//Personal.AI order the ending
