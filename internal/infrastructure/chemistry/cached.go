package chemistry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/redis"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
)

const cacheName = "oracle"

// CachedOracle memoizes the per-molecule oracle answers in the shared cache.
// Combinatorial assembly is never cached.
type CachedOracle struct {
	next    chem.Oracle
	cache   redis.Cache
	ttl     time.Duration
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewCachedOracle wraps next. A zero ttl uses the cache default.
func NewCachedOracle(next chem.Oracle, cache redis.Cache, ttl time.Duration, logger logging.Logger, metrics *prometheus.AppMetrics) *CachedOracle {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedOracle{next: next, cache: cache, ttl: ttl, logger: logger, metrics: metrics}
}

// cacheKey hashes the operation arguments so molecule strings of any length
// yield bounded keys.
func cacheKey(op string, args ...interface{}) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, a := range args {
		_ = enc.Encode(a)
	}
	return "oracle:" + op + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedOracle) fetch(ctx context.Context, key string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	loaded := false
	err := c.cache.GetOrSet(ctx, key, dest, c.ttl, func(ctx context.Context) (interface{}, error) {
		loaded = true
		return load(ctx)
	})
	if err == nil {
		prometheus.RecordCacheAccess(c.metrics, cacheName, !loaded)
	}
	return err
}

type cachedValidation struct {
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical"`
}

func (c *CachedOracle) Validate(ctx context.Context, raw string) (chem.Molecule, bool, error) {
	var v cachedValidation
	err := c.fetch(ctx, cacheKey(OpValidate, raw), &v, func(ctx context.Context) (interface{}, error) {
		m, ok, err := c.next.Validate(ctx, raw)
		if err != nil {
			return nil, err
		}
		return cachedValidation{Valid: ok, Canonical: m.Canonical}, nil
	})
	if err != nil || !v.Valid {
		return chem.Molecule{}, false, err
	}
	return chem.Molecule{Input: raw, Canonical: v.Canonical}, true, nil
}

func (c *CachedOracle) ComputeProperty(ctx context.Context, name string, m chem.Molecule) (float64, error) {
	var v float64
	err := c.fetch(ctx, cacheKey(OpProperty, name, m.Canonical), &v, func(ctx context.Context) (interface{}, error) {
		return c.next.ComputeProperty(ctx, name, m)
	})
	return v, err
}

func (c *CachedOracle) CatalogHasMatch(ctx context.Context, catalog string, m chem.Molecule) (bool, error) {
	var v bool
	err := c.fetch(ctx, cacheKey(OpCatalog, catalog, m.Canonical), &v, func(ctx context.Context) (interface{}, error) {
		return c.next.CatalogHasMatch(ctx, catalog, m)
	})
	return v, err
}

func (c *CachedOracle) SmartsMatchCount(ctx context.Context, pattern string, m chem.Molecule) (int, error) {
	var v int
	err := c.fetch(ctx, cacheKey(OpSmartsCount, pattern, m.Canonical), &v, func(ctx context.Context) (interface{}, error) {
		return c.next.SmartsMatchCount(ctx, pattern, m)
	})
	return v, err
}

func (c *CachedOracle) IsValidSmarts(ctx context.Context, pattern string) (bool, error) {
	var v bool
	err := c.fetch(ctx, cacheKey(OpSmartsValidate, pattern), &v, func(ctx context.Context) (interface{}, error) {
		return c.next.IsValidSmarts(ctx, pattern)
	})
	return v, err
}

func (c *CachedOracle) ClassifyForRole(ctx context.Context, m chem.Molecule, role chem.RoleConstraint) (bool, error) {
	var v bool
	err := c.fetch(ctx, cacheKey(OpClassify, m.Canonical, role), &v, func(ctx context.Context) (interface{}, error) {
		return c.next.ClassifyForRole(ctx, m, role)
	})
	return v, err
}

func (c *CachedOracle) ComputeSynthons(ctx context.Context, m chem.Molecule) ([]chem.Synthon, error) {
	var v []chem.Synthon
	err := c.fetch(ctx, cacheKey(OpSynthons, m.Canonical), &v, func(ctx context.Context) (interface{}, error) {
		s, err := c.next.ComputeSynthons(ctx, m)
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = []chem.Synthon{}
		}
		return s, nil
	})
	return v, err
}

func (c *CachedOracle) CombinatorialAssemble(ctx context.Context, req chem.AssembleRequest) ([]chem.RawProduct, error) {
	return c.next.CombinatorialAssemble(ctx, req)
}

func (c *CachedOracle) ReactionMechanisms(ctx context.Context) ([]chem.Mechanism, error) {
	var v []chem.Mechanism
	err := c.fetch(ctx, cacheKey(OpMechanisms), &v, func(ctx context.Context) (interface{}, error) {
		ms, err := c.next.ReactionMechanisms(ctx)
		if err != nil {
			return nil, err
		}
		if ms == nil {
			ms = []chem.Mechanism{}
		}
		return ms, nil
	})
	return v, err
}

var _ chem.Oracle = (*CachedOracle)(nil)

//Personal.AI order the ending
