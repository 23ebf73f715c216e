package filter

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// DefaultConcurrency bounds the number of queries evaluated at once by
// EvaluateBatch when the evaluator was built without an explicit limit.
const DefaultConcurrency = 8

// Mode selects how much work Evaluate does per query.
type Mode struct {
	// Trace populates TemplateData with every filter outcome.
	Trace bool
	// EarlyExit stops at the first failing filter. Ignored while tracing.
	EarlyExit bool
}

// Evaluator runs compiled templates against query strings.
type Evaluator struct {
	oracle      chem.Oracle
	concurrency int
}

// NewEvaluator returns an Evaluator. A concurrency below one falls back to
// DefaultConcurrency.
func NewEvaluator(oracle chem.Oracle, concurrency int) *Evaluator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Evaluator{oracle: oracle, concurrency: concurrency}
}

// Evaluate validates query and applies every filter of tpl. A query the oracle
// rejects is an ordinary failing result. The error is non-nil only when the
// oracle itself fails.
func (e *Evaluator) Evaluate(ctx context.Context, query string, tpl *Template, mode Mode) (EvalResult, error) {
	res := EvalResult{Input: query}

	mol, ok, err := e.oracle.Validate(ctx, query)
	if err != nil {
		return res, errors.OracleFailure(err, "validate")
	}
	if !ok {
		if mode.Trace {
			res.TemplateData = newTemplateData(tpl.Name(), false)
		}
		return res, nil
	}

	var data *TemplateData
	if mode.Trace {
		data = newTemplateData(tpl.Name(), true)
	}
	stopEarly := mode.EarlyExit && !mode.Trace

	passed := true
	for _, f := range tpl.Filters() {
		var pass bool
		switch f := f.(type) {
		case *PropertyFilter:
			p, out, err := f.apply(ctx, e.oracle, mol)
			if err != nil {
				return res, errors.OracleFailure(err, "compute_property")
			}
			pass = p
			if data != nil {
				data.PropertyFilters = append(data.PropertyFilters, *out)
			}
		case *CatalogFilter:
			p, out, err := f.apply(ctx, e.oracle, mol)
			if err != nil {
				return res, errors.OracleFailure(err, "catalog_has_match")
			}
			pass = p
			if data != nil {
				data.CatalogFilters = append(data.CatalogFilters, *out)
			}
		case *SmartsFilter:
			p, out, err := f.apply(ctx, e.oracle, mol)
			if err != nil {
				return res, errors.OracleFailure(err, "smarts_match_count")
			}
			pass = p
			if data != nil {
				data.SmartsFilters = append(data.SmartsFilters, *out)
			}
		}
		passed = passed && pass
		if !passed && stopEarly {
			break
		}
	}

	res.Result = passed
	res.TemplateData = data
	return res, nil
}

// EvaluateBatch evaluates queries concurrently and returns results in input
// order with Index set. The first oracle failure cancels the remaining work.
func (e *Evaluator) EvaluateBatch(ctx context.Context, queries []string, tpl *Template, mode Mode) ([]EvalResult, error) {
	results := make([]EvalResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.Evaluate(gctx, q, tpl, mode)
			if err != nil {
				return err
			}
			r.Index = i
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

//Personal.AI order the ending
