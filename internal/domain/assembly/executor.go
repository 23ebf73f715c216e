package assembly

import (
	"context"
	"sort"
	"time"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Executor runs a compiled tree through the combinatorial engine and shapes
// its output.
type Executor struct {
	oracle chem.Oracle
	limits chem.Limits
	logger logging.Logger
}

// NewExecutor returns an Executor. Zero limits fall back to
// chem.DefaultLimits.
func NewExecutor(oracle chem.Oracle, limits chem.Limits, logger logging.Logger) *Executor {
	def := chem.DefaultLimits()
	if limits.MaxPoolSize <= 0 {
		limits.MaxPoolSize = def.MaxPoolSize
	}
	if limits.MaxProducts <= 0 {
		limits.MaxProducts = def.MaxProducts
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Executor{oracle: oracle, limits: limits, logger: logger}
}

// Limits returns the bounds forwarded to the engine.
func (e *Executor) Limits() chem.Limits { return e.limits }

// Run assembles products for tree from pools. Products are deduplicated by
// structure, first occurrence winning, and returned in ascending structure
// order.
func (e *Executor) Run(ctx context.Context, tree Node, pools map[string]*Pool) ([]Result, error) {
	start := time.Now()

	wire, err := ToTree(tree)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode assembly tree")
	}
	family := FamilyOf(tree)
	order := ResolutionOrder(tree)

	req := chem.AssembleRequest{
		Family:          string(family),
		Tree:            wire,
		Pools:           make(map[string][]chem.PoolMember, len(pools)),
		Limits:          e.limits,
		ResolutionOrder: order,
	}
	for name, p := range pools {
		req.Pools[name] = p.members()
	}

	raw, err := e.oracle.CombinatorialAssemble(ctx, req)
	if err != nil {
		return nil, errors.OracleFailure(err, "combinatorial_assemble")
	}

	seen := make(map[string]struct{}, len(raw))
	unique := make([]chem.RawProduct, 0, len(raw))
	for _, p := range raw {
		if _, dup := seen[p.Structure]; dup {
			continue
		}
		seen[p.Structure] = struct{}{}
		unique = append(unique, p)
	}
	sort.SliceStable(unique, func(i, j int) bool { return unique[i].Structure < unique[j].Structure })

	results := make([]Result, 0, len(unique))
	for _, p := range unique {
		r, err := shape(p, family)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	logging.LogOperationDuration(e.logger, "assembly", start,
		logging.String("family", string(family)),
		logging.Strings("resolution_order", order),
		logging.Int("raw_products", len(raw)),
		logging.Int("products", len(results)),
	)
	return results, nil
}

func shape(p chem.RawProduct, family Family) (Result, error) {
	r := Result{
		Family:       family,
		Structure:    p.Structure,
		ReactionTags: p.ReactionTags,
		InputSmiles:  p.InputString,
		Parents:      make([]Result, 0, len(p.Parents)),
	}
	for _, parent := range p.Parents {
		switch {
		case parent.Input != nil:
			r.Parents = append(r.Parents, Result{
				Family:  family,
				IsInput: true,
				Input:   parent.Input.Input,
				Data:    parent.Input.Data,
			})
		case parent.Product != nil:
			nested, err := shape(*parent.Product, family)
			if err != nil {
				return Result{}, err
			}
			r.Parents = append(r.Parents, nested)
		default:
			return Result{}, errors.New(errors.ErrCodeOracleBadResponse, "assembly product parent carries neither input nor product").
				WithDetail("structure=" + p.Structure)
		}
	}
	return r, nil
}

//Personal.AI order the ending
