package chemistry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/chemtemplates/internal/config"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/testutil"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

func newTestOracle(t *testing.T, h http.HandlerFunc) (*HTTPOracle, *testutil.MockLogger) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	log := testutil.NewMockLogger()
	o, err := NewHTTPOracle(config.ChemistryConfig{
		BaseURL:      srv.URL + "/",
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, log)
	require.NoError(t, err)
	return o, log
}

func decodeBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewHTTPOracle_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPOracle(config.ChemistryConfig{}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = NewHTTPOracle(config.ChemistryConfig{BaseURL: "ftp://chem"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestValidate_Valid(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/validate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		var req validateRequest
		decodeBody(t, r, &req)
		assert.Equal(t, "C(C)O", req.Smiles)
		writeJSON(w, map[string]interface{}{"valid": true, "canonical": "CCO"})
	})

	ctx := logging.ContextWithRequestID(context.Background(), "req-1")
	m, ok, err := o.Validate(ctx, "C(C)O")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, chem.Molecule{Input: "C(C)O", Canonical: "CCO"}, m)
}

func TestValidate_InvalidIsNotAnError(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"valid": false})
	})

	m, ok, err := o.Validate(context.Background(), "not a molecule")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, chem.Molecule{}, m)
}

func TestValidate_ValidWithoutCanonicalIsBadResponse(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"valid": true})
	})

	_, _, err := o.Validate(context.Background(), "C")
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
}

func TestComputeProperty(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/property", r.URL.Path)
		var req propertyRequest
		decodeBody(t, r, &req)
		assert.Equal(t, propertyRequest{Name: "LogP", Smiles: "CCO"}, req)
		writeJSON(w, map[string]interface{}{"value": -0.0014})
	})

	v, err := o.ComputeProperty(context.Background(), "LogP", chem.Molecule{Input: "OCC", Canonical: "CCO"})
	require.NoError(t, err)
	assert.InDelta(t, -0.0014, v, 1e-9)
}

func TestComputeProperty_MissingValue(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{})
	})

	_, err := o.ComputeProperty(context.Background(), "LogP", chem.Molecule{Canonical: "CCO"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
	assert.Contains(t, err.Error(), "operation=compute_property")
}

func TestCatalogSmartsAndClassify(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog":
			var req catalogRequest
			decodeBody(t, r, &req)
			assert.Equal(t, "PAINS", req.Catalog)
			writeJSON(w, map[string]interface{}{"has_match": true})
		case "/smarts/count":
			var req smartsRequest
			decodeBody(t, r, &req)
			assert.Equal(t, "[OH]", req.Pattern)
			assert.Equal(t, "CCO", req.Smiles)
			writeJSON(w, map[string]interface{}{"count": 1})
		case "/smarts/validate":
			writeJSON(w, map[string]interface{}{"valid": false})
		case "/classify":
			var req classifyRequest
			decodeBody(t, r, &req)
			assert.Equal(t, chem.RoleMappingIndices, req.Role.Kind)
			assert.Equal(t, []int{1, 2}, req.Role.Values)
			writeJSON(w, map[string]interface{}{"compatible": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()
	m := chem.Molecule{Input: "OCC", Canonical: "CCO"}

	hit, err := o.CatalogHasMatch(ctx, "PAINS", m)
	require.NoError(t, err)
	assert.True(t, hit)

	n, err := o.SmartsMatchCount(ctx, "[OH]", m)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	valid, err := o.IsValidSmarts(ctx, "[[")
	require.NoError(t, err)
	assert.False(t, valid)

	ok, err := o.ClassifyForRole(ctx, m, chem.NewRoleConstraint(chem.RoleMappingIndices, []int{2, 1}))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSynthonsAssembleAndMechanisms(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/synthons":
			writeJSON(w, map[string]interface{}{"synthons": []map[string]interface{}{
				{"synthon": "[*:1]CC", "reaction_tags": []string{"Amide coupling"}},
			}})
		case "/assemble":
			var req chem.AssembleRequest
			decodeBody(t, r, &req)
			assert.Equal(t, "synthon", req.Family)
			assert.Equal(t, []string{"a", "b", "p"}, req.ResolutionOrder)
			writeJSON(w, map[string]interface{}{"products": []map[string]interface{}{
				{"structure": "CC(=O)NC", "reaction_tags": []string{"Amide coupling"},
					"parents": []map[string]interface{}{{"input": map[string]interface{}{"input": "CC(=O)O", "canonical": "CC(=O)O"}}}},
			}})
		case "/mechanisms":
			assert.Equal(t, http.MethodGet, r.Method)
			writeJSON(w, map[string]interface{}{"mechanisms": []map[string]string{{"name": "Amide coupling"}}})
		}
	})
	ctx := context.Background()

	synthons, err := o.ComputeSynthons(ctx, chem.Molecule{Canonical: "CCN"})
	require.NoError(t, err)
	assert.Equal(t, []chem.Synthon{{Synthon: "[*:1]CC", ReactionTags: []string{"Amide coupling"}}}, synthons)

	products, err := o.CombinatorialAssemble(ctx, chem.AssembleRequest{Family: "synthon", ResolutionOrder: []string{"a", "b", "p"}})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "CC(=O)NC", products[0].Structure)
	require.Len(t, products[0].Parents, 1)
	assert.Equal(t, "CC(=O)O", products[0].Parents[0].Input.Input)

	mechs, err := o.ReactionMechanisms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []chem.Mechanism{{Name: "Amide coupling"}}, mechs)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]interface{}{"valid": true})
	})

	ok, err := o.IsValidSmarts(context.Background(), "[OH]")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetriesExhausted(t *testing.T) {
	var calls int32
	o, log := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, _, err := o.Validate(context.Background(), "C")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleUnavailable))
	assert.Contains(t, err.Error(), "operation=validate")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, log.HasMessage("warn", "chemistry call failed"))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"unknown property"}`, http.StatusUnprocessableEntity)
	})

	_, err := o.ComputeProperty(context.Background(), "Nope", chem.Molecule{Canonical: "C"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
	assert.Contains(t, err.Error(), "status 422")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUndecodableBody(t *testing.T) {
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	_, err := o.CatalogHasMatch(context.Background(), "PAINS", chem.Molecule{Canonical: "C"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleBadResponse))
}

func TestContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		cancel()
		http.Error(w, "down", http.StatusInternalServerError)
	})

	_, err := o.IsValidSmarts(ctx, "C")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHealthCheck(t *testing.T) {
	healthy := int32(1)
	o, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		if atomic.LoadInt32(&healthy) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, o.HealthCheck(context.Background()))

	atomic.StoreInt32(&healthy, 0)
	err := o.HealthCheck(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeOracleUnavailable))
}

func TestBackoffIsCapped(t *testing.T) {
	o := &HTTPOracle{retryBackoff: time.Second}
	assert.GreaterOrEqual(t, o.backoff(1), time.Second)
	assert.LessOrEqual(t, o.backoff(10), maxRetryWait+maxRetryWait/4)
}

//Personal.AI order the ending
