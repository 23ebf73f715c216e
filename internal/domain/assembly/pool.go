package assembly

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// InputItem is one caller-supplied structure with arbitrary metadata.
type InputItem struct {
	Input string                 `json:"input" validate:"required"`
	Data  map[string]interface{} `json:"data"`
}

// Candidate is a validated pool entry. For synthon trees Molecule.Canonical
// holds the synthon while Molecule.Input keeps the submitted building block.
type Candidate struct {
	Molecule     chem.Molecule
	Data         map[string]interface{}
	ReactionTags []string
}

// Pool is the deduplicated candidate list of one leaf slot.
type Pool struct {
	Name       string
	Candidates []Candidate
	seen       map[string]struct{}
}

// NewPool returns an empty pool for slot name.
func NewPool(name string) *Pool {
	return &Pool{Name: name, seen: make(map[string]struct{})}
}

// Add appends c unless a candidate with the same key is already present.
// It reports whether c was added.
func (p *Pool) Add(c Candidate) bool {
	if p.seen == nil {
		p.seen = make(map[string]struct{}, len(p.Candidates))
		for _, existing := range p.Candidates {
			p.seen[existing.Molecule.Key()] = struct{}{}
		}
	}
	key := c.Molecule.Key()
	if _, dup := p.seen[key]; dup {
		return false
	}
	p.seen[key] = struct{}{}
	p.Candidates = append(p.Candidates, c)
	return true
}

func (p *Pool) Len() int { return len(p.Candidates) }

// Keys returns the candidate keys in pool order.
func (p *Pool) Keys() []string {
	keys := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		keys[i] = c.Molecule.Key()
	}
	return keys
}

func (p *Pool) members() []chem.PoolMember {
	out := make([]chem.PoolMember, len(p.Candidates))
	for i, c := range p.Candidates {
		out[i] = chem.PoolMember{
			Input:        c.Molecule.Input,
			Canonical:    c.Molecule.Canonical,
			Data:         c.Data,
			ReactionTags: c.ReactionTags,
		}
	}
	return out
}

// PoolBuilder validates inputs and distributes them over the leaves of a tree.
type PoolBuilder struct {
	oracle      chem.Oracle
	concurrency int
	logger      logging.Logger
}

// NewPoolBuilder returns a PoolBuilder issuing at most concurrency oracle
// calls at a time.
func NewPoolBuilder(oracle chem.Oracle, concurrency int, logger logging.Logger) *PoolBuilder {
	if concurrency < 1 {
		concurrency = 8
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PoolBuilder{oracle: oracle, concurrency: concurrency, logger: logger}
}

// Build returns one pool per leaf of tree. Mapped inputs go to their named
// slot; unmapped inputs go to every leaf whose role they satisfy. Mapped
// candidates precede automatically assigned ones and duplicates keep their
// first position. Invalid structures are dropped.
func (b *PoolBuilder) Build(ctx context.Context, tree Node, mapped map[string][]InputItem, unmapped []InputItem) (map[string]*Pool, error) {
	leaves := Leaves(tree)
	byName := make(map[string]Node, len(leaves))
	for _, l := range leaves {
		byName[l.Name()] = l
	}

	slots := make([]string, 0, len(mapped))
	for slot := range mapped {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		if _, ok := byName[slot]; !ok {
			return nil, errors.MalformedSchema(slot, fmt.Sprintf("unknown input slot %q", slot))
		}
	}

	family := FamilyOf(tree)
	mappedPools := make(map[string][]Candidate, len(slots))
	for _, slot := range slots {
		cands, err := b.expand(ctx, family, mapped[slot])
		if err != nil {
			return nil, err
		}
		mappedPools[slot] = cands
	}

	autoPools, err := b.classify(ctx, family, leaves, unmapped)
	if err != nil {
		return nil, err
	}

	pools := make(map[string]*Pool, len(leaves))
	for _, l := range leaves {
		p := NewPool(l.Name())
		for _, c := range mappedPools[l.Name()] {
			p.Add(c)
		}
		for _, c := range autoPools[l.Name()] {
			p.Add(c)
		}
		pools[l.Name()] = p
		b.logger.Debug("input pool built",
			logging.String("slot", l.Name()),
			logging.Int("mapped", len(mappedPools[l.Name()])),
			logging.Int("auto", len(autoPools[l.Name()])),
			logging.Int("size", p.Len()),
		)
	}
	return pools, nil
}

// expand validates items and, for synthon trees, decomposes each molecule
// into its synthons. The result keeps input order.
func (b *PoolBuilder) expand(ctx context.Context, family Family, items []InputItem) ([]Candidate, error) {
	perItem := make([][]Candidate, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			mol, ok, err := b.oracle.Validate(gctx, item.Input)
			if err != nil {
				return errors.OracleFailure(err, "validate")
			}
			if !ok {
				return nil
			}
			if family != FamilySynthon {
				perItem[i] = []Candidate{{Molecule: mol, Data: item.Data}}
				return nil
			}
			synthons, err := b.oracle.ComputeSynthons(gctx, mol)
			if err != nil {
				return errors.OracleFailure(err, "compute_synthons")
			}
			cands := make([]Candidate, 0, len(synthons))
			for _, s := range synthons {
				cands = append(cands, Candidate{
					Molecule:     chem.Molecule{Input: item.Input, Canonical: s.Synthon},
					Data:         item.Data,
					ReactionTags: s.ReactionTags,
				})
			}
			perItem[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Candidate
	for _, cands := range perItem {
		out = append(out, cands...)
	}
	return out, nil
}

// classify assigns every unmapped candidate to each leaf whose role it fits.
func (b *PoolBuilder) classify(ctx context.Context, family Family, leaves []Node, unmapped []InputItem) (map[string][]Candidate, error) {
	if len(unmapped) == 0 {
		return nil, nil
	}
	cands, err := b.expand(ctx, family, unmapped)
	if err != nil {
		return nil, err
	}

	fits := make([][]bool, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for ci := range cands {
		fits[ci] = make([]bool, len(leaves))
		for li, leaf := range leaves {
			ci, li := ci, li
			role, _ := Role(leaf)
			g.Go(func() error {
				ok, err := b.oracle.ClassifyForRole(gctx, cands[ci].Molecule, role)
				if err != nil {
					return errors.OracleFailure(err, "classify_for_role")
				}
				fits[ci][li] = ok
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	auto := make(map[string][]Candidate, len(leaves))
	for ci, c := range cands {
		for li, leaf := range leaves {
			if fits[ci][li] {
				auto[leaf.Name()] = append(auto[leaf.Name()], c)
			}
		}
	}
	return auto, nil
}

//Personal.AI order the ending
