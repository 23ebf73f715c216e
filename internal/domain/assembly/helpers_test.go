package assembly

import (
	"testing"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/testutil"
)

type testStack struct {
	engine   *Engine
	compiler *Compiler
	pools    *PoolBuilder
	executor *Executor
	oracle   *testutil.FakeOracle
	logger   *testutil.MockLogger
}

func newTestStack(t *testing.T, opts ...CompilerOption) *testStack {
	t.Helper()
	oracle := testutil.NewFakeOracle()
	logger := testutil.NewMockLogger()
	templates := filter.NewCompiler(filter.NewRegistry(oracle), logger)
	s := &testStack{
		compiler: NewCompiler(templates, logger, opts...),
		pools:    NewPoolBuilder(oracle, 4, logger),
		executor: NewExecutor(oracle, chem.Limits{}, logger),
		oracle:   oracle,
		logger:   logger,
	}
	s.engine = NewEngine(s.compiler, s.pools, s.executor)
	return s
}

// synthonize registers each input as a building block with a single synthon
// named input+"*".
func synthonize(o *testutil.FakeOracle, tag string, inputs ...string) {
	for _, in := range inputs {
		o.Synthons[in] = []chem.Synthon{{Synthon: in + "*", ReactionTags: []string{tag}}}
	}
}

const twoSlotSchema = `{
	"name": "product",
	"node_type": "synthon_node",
	"n_func": [0],
	"reaction_mechanisms": {"Amide coupling": true, "Suzuki coupling": false},
	"incoming_node": {"name": "slot_a", "node_type": "synthon_leaf_node", "n_func": [1]},
	"next_node": {"name": "slot_b", "node_type": "synthon_leaf_node", "n_func": [1]}
}`

const fragmentSchema = `{
	"name": "fused",
	"node_type": "fragment_node",
	"children": [
		{"name": "core", "node_type": "fragment_leaf_node", "mapping_idxs": [1]},
		{"name": "arm", "node_type": "fragment_leaf_node", "mapping_idxs": [1]}
	]
}`

//Personal.AI order the ending
