package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
)

// FakeOracle is a deterministic, table-driven chem.Oracle.
//
// Molecules are identified by canonical string. Validate rejects empty
// strings, strings listed in Invalid, and strings starting with "invalid";
// every other string is valid and canonicalized through Canonicals (or kept
// as-is). Lookups that miss a table return the zero value.
type FakeOracle struct {
	mu sync.Mutex

	Invalid       map[string]bool
	Canonicals    map[string]string
	Properties    map[string]map[string]float64
	Catalogs      map[string]map[string]bool
	Matches       map[string]map[string]int
	InvalidSmarts map[string]bool
	// Roles lists, per canonical string, the n_func counts or mapping indices
	// the molecule can satisfy.
	Roles      map[string][]int
	Synthons   map[string][]chem.Synthon
	Products   []chem.RawProduct
	Mechanisms []chem.Mechanism

	// AssembleFunc, when set, replaces Products.
	AssembleFunc func(req chem.AssembleRequest) ([]chem.RawProduct, error)
	// Err is returned by every call when set.
	Err error

	calls        map[string]int
	lastAssemble *chem.AssembleRequest
}

// NewFakeOracle returns a FakeOracle with empty tables.
func NewFakeOracle() *FakeOracle {
	return &FakeOracle{
		Invalid:       map[string]bool{},
		Canonicals:    map[string]string{},
		Properties:    map[string]map[string]float64{},
		Catalogs:      map[string]map[string]bool{},
		Matches:       map[string]map[string]int{},
		InvalidSmarts: map[string]bool{},
		Roles:         map[string][]int{},
		Synthons:      map[string][]chem.Synthon{},
		calls:         map[string]int{},
	}
}

// SetProperty records the value of property name for canonical.
func (f *FakeOracle) SetProperty(canonical, name string, v float64) *FakeOracle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Properties[canonical] == nil {
		f.Properties[canonical] = map[string]float64{}
	}
	f.Properties[canonical][name] = v
	return f
}

// SetCatalogMatch records whether canonical matches catalog.
func (f *FakeOracle) SetCatalogMatch(canonical, catalog string, hit bool) *FakeOracle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Catalogs[canonical] == nil {
		f.Catalogs[canonical] = map[string]bool{}
	}
	f.Catalogs[canonical][catalog] = hit
	return f
}

// SetMatchCount records the SMARTS match count of pattern in canonical.
func (f *FakeOracle) SetMatchCount(canonical, pattern string, n int) *FakeOracle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Matches[canonical] == nil {
		f.Matches[canonical] = map[string]int{}
	}
	f.Matches[canonical][pattern] = n
	return f
}

// Calls returns how many times op was invoked. Op names match the method
// names, e.g. "Validate" or "ComputeProperty".
func (f *FakeOracle) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// LastAssembleRequest returns the request of the most recent
// CombinatorialAssemble call.
func (f *FakeOracle) LastAssembleRequest() *chem.AssembleRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAssemble
}

func (f *FakeOracle) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.Err
}

func (f *FakeOracle) Validate(_ context.Context, raw string) (chem.Molecule, bool, error) {
	if err := f.enter("Validate"); err != nil {
		return chem.Molecule{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if raw == "" || f.Invalid[raw] || strings.HasPrefix(raw, "invalid") {
		return chem.Molecule{}, false, nil
	}
	canonical := raw
	if c, ok := f.Canonicals[raw]; ok {
		canonical = c
	}
	return chem.Molecule{Input: raw, Canonical: canonical}, true, nil
}

func (f *FakeOracle) ComputeProperty(_ context.Context, name string, m chem.Molecule) (float64, error) {
	if err := f.enter("ComputeProperty"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Properties[m.Canonical][name], nil
}

func (f *FakeOracle) CatalogHasMatch(_ context.Context, catalog string, m chem.Molecule) (bool, error) {
	if err := f.enter("CatalogHasMatch"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Catalogs[m.Canonical][catalog], nil
}

func (f *FakeOracle) SmartsMatchCount(_ context.Context, pattern string, m chem.Molecule) (int, error) {
	if err := f.enter("SmartsMatchCount"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Matches[m.Canonical][pattern], nil
}

func (f *FakeOracle) IsValidSmarts(_ context.Context, pattern string) (bool, error) {
	if err := f.enter("IsValidSmarts"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.InvalidSmarts[pattern] && !strings.HasPrefix(pattern, "invalid"), nil
}

func (f *FakeOracle) ClassifyForRole(_ context.Context, m chem.Molecule, role chem.RoleConstraint) (bool, error) {
	if err := f.enter("ClassifyForRole"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.Roles[m.Canonical] {
		if role.Contains(v) {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeOracle) ComputeSynthons(_ context.Context, m chem.Molecule) ([]chem.Synthon, error) {
	if err := f.enter("ComputeSynthons"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chem.Synthon(nil), f.Synthons[m.Canonical]...), nil
}

func (f *FakeOracle) CombinatorialAssemble(_ context.Context, req chem.AssembleRequest) ([]chem.RawProduct, error) {
	if err := f.enter("CombinatorialAssemble"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastAssemble = &req
	fn := f.AssembleFunc
	products := append([]chem.RawProduct(nil), f.Products...)
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return products, nil
}

func (f *FakeOracle) ReactionMechanisms(_ context.Context) ([]chem.Mechanism, error) {
	if err := f.enter("ReactionMechanisms"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chem.Mechanism(nil), f.Mechanisms...), nil
}

// PairwiseAssembler returns an AssembleFunc for single-step trees: every pair
// drawn from the pools of the root's first two children whose canonical
// strings appear in reactions yields the mapped product. Reaction trees are
// tagged with the root's mechanisms; fragment trees get "a.b" input strings.
func PairwiseAssembler(reactions map[[2]string]string) func(chem.AssembleRequest) ([]chem.RawProduct, error) {
	return func(req chem.AssembleRequest) ([]chem.RawProduct, error) {
		if req.Tree == nil {
			return nil, nil
		}
		var left, right *chem.TreeNode
		switch {
		case req.Tree.Incoming != nil && req.Tree.Next != nil:
			left, right = req.Tree.Incoming, req.Tree.Next
		case len(req.Tree.Children) >= 2:
			left, right = req.Tree.Children[0], req.Tree.Children[1]
		default:
			return nil, nil
		}

		var out []chem.RawProduct
		for _, a := range req.Pools[left.Name] {
			for _, b := range req.Pools[right.Name] {
				product, ok := reactions[[2]string{a.Canonical, b.Canonical}]
				if !ok {
					continue
				}
				a, b := a, b
				p := chem.RawProduct{
					Structure: product,
					Parents:   []chem.RawParent{{Input: &a}, {Input: &b}},
				}
				if req.Family == "fragment" {
					p.InputString = a.Input + "." + b.Input
				} else {
					p.ReactionTags = append([]string(nil), req.Tree.Mechanisms...)
				}
				out = append(out, p)
			}
		}
		return out, nil
	}
}

var _ chem.Oracle = (*FakeOracle)(nil)

//Personal.AI order the ending
