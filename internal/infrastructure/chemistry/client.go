// Package chemistry reaches the remote chemistry toolkit that implements
// chem.Oracle. The service speaks JSON over HTTP; every call is a POST of a
// small request object except the mechanism listing.
package chemistry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/chemtemplates/internal/config"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Operation names used in errors, logs and metrics.
const (
	OpValidate       = "validate"
	OpProperty       = "compute_property"
	OpCatalog        = "catalog_has_match"
	OpSmartsCount    = "smarts_match_count"
	OpSmartsValidate = "is_valid_smarts"
	OpClassify       = "classify_for_role"
	OpSynthons       = "compute_synthons"
	OpAssemble       = "combinatorial_assemble"
	OpMechanisms     = "reaction_mechanisms"
	OpHealth         = "health"
)

const (
	maxResponseBytes = 64 << 20
	maxRetryWait     = 5 * time.Second
)

// Option customizes an HTTPOracle.
type Option func(*HTTPOracle)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *HTTPOracle) { o.httpClient = c }
}

// WithMetrics records per-operation call counts and latencies.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(o *HTTPOracle) { o.metrics = m }
}

// HTTPOracle is the chem.Oracle backed by the chemistry service.
type HTTPOracle struct {
	baseURL      string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       logging.Logger
	metrics      *prometheus.AppMetrics
}

// NewHTTPOracle builds a client for cfg.BaseURL. Transport failures and 5xx
// answers are retried cfg.MaxRetries times with exponential backoff.
func NewHTTPOracle(cfg config.ChemistryConfig, logger logging.Logger, opts ...Option) (*HTTPOracle, error) {
	if cfg.BaseURL == "" {
		return nil, errors.InvalidParam("chemistry base_url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid chemistry base_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.InvalidParam("chemistry base_url scheme must be http or https")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	o := &HTTPOracle{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   retries,
		retryBackoff: backoff,
		logger:       logger.Named("chemistry"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type validateRequest struct {
	Smiles string `json:"smiles"`
}

type validateResponse struct {
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical"`
}

func (o *HTTPOracle) Validate(ctx context.Context, raw string) (chem.Molecule, bool, error) {
	var resp validateResponse
	if err := o.call(ctx, OpValidate, http.MethodPost, "/validate", validateRequest{Smiles: raw}, &resp); err != nil {
		return chem.Molecule{}, false, err
	}
	if !resp.Valid {
		return chem.Molecule{}, false, nil
	}
	if resp.Canonical == "" {
		return chem.Molecule{}, false, badResponse(OpValidate, "valid molecule without canonical form")
	}
	return chem.Molecule{Input: raw, Canonical: resp.Canonical}, true, nil
}

type propertyRequest struct {
	Name   string `json:"name"`
	Smiles string `json:"smiles"`
}

func (o *HTTPOracle) ComputeProperty(ctx context.Context, name string, m chem.Molecule) (float64, error) {
	var resp struct {
		Value *float64 `json:"value"`
	}
	if err := o.call(ctx, OpProperty, http.MethodPost, "/property", propertyRequest{Name: name, Smiles: m.Canonical}, &resp); err != nil {
		return 0, err
	}
	if resp.Value == nil {
		return 0, badResponse(OpProperty, "missing value for property "+name)
	}
	return *resp.Value, nil
}

type catalogRequest struct {
	Catalog string `json:"catalog"`
	Smiles  string `json:"smiles"`
}

func (o *HTTPOracle) CatalogHasMatch(ctx context.Context, catalog string, m chem.Molecule) (bool, error) {
	var resp struct {
		HasMatch bool `json:"has_match"`
	}
	err := o.call(ctx, OpCatalog, http.MethodPost, "/catalog", catalogRequest{Catalog: catalog, Smiles: m.Canonical}, &resp)
	return resp.HasMatch, err
}

type smartsRequest struct {
	Pattern string `json:"pattern"`
	Smiles  string `json:"smiles,omitempty"`
}

func (o *HTTPOracle) SmartsMatchCount(ctx context.Context, pattern string, m chem.Molecule) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	err := o.call(ctx, OpSmartsCount, http.MethodPost, "/smarts/count", smartsRequest{Pattern: pattern, Smiles: m.Canonical}, &resp)
	return resp.Count, err
}

func (o *HTTPOracle) IsValidSmarts(ctx context.Context, pattern string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := o.call(ctx, OpSmartsValidate, http.MethodPost, "/smarts/validate", smartsRequest{Pattern: pattern}, &resp)
	return resp.Valid, err
}

type classifyRequest struct {
	Smiles string              `json:"smiles"`
	Role   chem.RoleConstraint `json:"role"`
}

func (o *HTTPOracle) ClassifyForRole(ctx context.Context, m chem.Molecule, role chem.RoleConstraint) (bool, error) {
	var resp struct {
		Compatible bool `json:"compatible"`
	}
	err := o.call(ctx, OpClassify, http.MethodPost, "/classify", classifyRequest{Smiles: m.Canonical, Role: role}, &resp)
	return resp.Compatible, err
}

func (o *HTTPOracle) ComputeSynthons(ctx context.Context, m chem.Molecule) ([]chem.Synthon, error) {
	var resp struct {
		Synthons []chem.Synthon `json:"synthons"`
	}
	if err := o.call(ctx, OpSynthons, http.MethodPost, "/synthons", validateRequest{Smiles: m.Canonical}, &resp); err != nil {
		return nil, err
	}
	return resp.Synthons, nil
}

func (o *HTTPOracle) CombinatorialAssemble(ctx context.Context, req chem.AssembleRequest) ([]chem.RawProduct, error) {
	var resp struct {
		Products []chem.RawProduct `json:"products"`
	}
	if err := o.call(ctx, OpAssemble, http.MethodPost, "/assemble", req, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (o *HTTPOracle) ReactionMechanisms(ctx context.Context) ([]chem.Mechanism, error) {
	var resp struct {
		Mechanisms []chem.Mechanism `json:"mechanisms"`
	}
	if err := o.call(ctx, OpMechanisms, http.MethodGet, "/mechanisms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Mechanisms, nil
}

// HealthCheck calls the service once, without retries.
func (o *HTTPOracle) HealthCheck(ctx context.Context) error {
	err := o.attempt(ctx, OpHealth, http.MethodGet, "/healthz", nil, nil)
	if r, ok := err.(retryable); ok {
		return r.err
	}
	return err
}

func (o *HTTPOracle) call(ctx context.Context, op, method, path string, body, out interface{}) error {
	start := time.Now()
	err := o.do(ctx, op, method, path, body, out)
	prometheus.RecordOracleCall(o.metrics, op, time.Since(start), err)
	return err
}

// retryable marks failures worth another attempt.
type retryable struct{ err *errors.AppError }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

func (o *HTTPOracle) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode chemistry request")
		}
	}

	var lastErr *errors.AppError
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			wait := o.backoff(attempt)
			o.logger.Debug("retrying chemistry call",
				logging.String("operation", op),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", wait),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return unavailable(op, ctx.Err())
			}
		}

		err := o.attempt(ctx, op, method, path, payload, out)
		if err == nil {
			return nil
		}
		r, ok := err.(retryable)
		if !ok {
			return err
		}
		lastErr = r.err
		if ctx.Err() != nil {
			break
		}
	}

	o.logger.Warn("chemistry call failed",
		logging.String("operation", op),
		logging.Int("attempts", o.maxRetries+1),
		logging.Err(lastErr),
	)
	return lastErr
}

// attempt performs one request. Failures that may succeed on retry come back
// wrapped in retryable.
func (o *HTTPOracle) attempt(ctx context.Context, op, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, reader)
	if err != nil {
		return unavailable(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return retryable{unavailable(op, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return retryable{unavailable(op, err)}
	}

	switch {
	case resp.StatusCode >= 500:
		return retryable{unavailable(op, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data)))}
	case resp.StatusCode >= 400:
		return badResponse(op, fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return badResponse(op, "undecodable response body").WithCause(err)
		}
	}
	return nil
}

func (o *HTTPOracle) backoff(attempt int) time.Duration {
	wait := o.retryBackoff * time.Duration(1<<uint(attempt-1))
	if wait > maxRetryWait {
		wait = maxRetryWait
	}
	if quarter := int64(wait / 4); quarter > 0 {
		wait += time.Duration(rand.Int63n(quarter))
	}
	return wait
}

func unavailable(op string, cause error) *errors.AppError {
	return errors.New(errors.ErrCodeOracleUnavailable, "chemistry service call failed").
		WithDetail("operation=" + op).
		WithCause(cause)
}

func badResponse(op, msg string) *errors.AppError {
	return errors.New(errors.ErrCodeOracleBadResponse, msg).WithDetail("operation=" + op)
}

func snippet(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

var _ chem.Oracle = (*HTTPOracle)(nil)

//Personal.AI order the ending
