package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	apperrors "github.com/turtacn/chemtemplates/pkg/errors"
)

func compileSchema(t *testing.T, s *testStack, schema string) Node {
	t.Helper()
	tree, err := s.compiler.Compile(context.Background(), json.RawMessage(schema))
	require.NoError(t, err)
	return tree
}

func TestPool_Add(t *testing.T) {
	p := NewPool("slot")

	assert.True(t, p.Add(Candidate{Molecule: chem.Molecule{Input: "OCC", Canonical: "CCO"}}))
	assert.False(t, p.Add(Candidate{Molecule: chem.Molecule{Input: "C(O)C", Canonical: "CCO"}}))
	assert.True(t, p.Add(Candidate{Molecule: chem.Molecule{Input: "c1ccccc1", Canonical: "c1ccccc1"}}))

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"CCO", "c1ccccc1"}, p.Keys())
	assert.Equal(t, "OCC", p.Candidates[0].Molecule.Input, "first occurrence wins")
}

func TestPool_AddOnLiteral(t *testing.T) {
	p := &Pool{Name: "slot", Candidates: []Candidate{{Molecule: chem.Molecule{Canonical: "C"}}}}
	assert.False(t, p.Add(Candidate{Molecule: chem.Molecule{Canonical: "C"}}))
	assert.True(t, p.Add(Candidate{Molecule: chem.Molecule{Canonical: "N"}}))
}

func TestPoolBuilder_MappedSynthons(t *testing.T) {
	s := newTestStack(t)
	synthonize(s.oracle, "Amide coupling", "A", "B1")
	tree := compileSchema(t, s, twoSlotSchema)

	pools, err := s.pools.Build(context.Background(), tree, map[string][]InputItem{
		"slot_a": {{Input: "A", Data: map[string]interface{}{"id": 1}}, {Input: "A"}, {Input: "invalid-smiles"}},
		"slot_b": {{Input: "B1"}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, pools, 2)
	assert.Equal(t, []string{"A*"}, pools["slot_a"].Keys())
	assert.Equal(t, []string{"B1*"}, pools["slot_b"].Keys())

	c := pools["slot_a"].Candidates[0]
	assert.Equal(t, "A", c.Molecule.Input)
	assert.Equal(t, map[string]interface{}{"id": 1}, c.Data)
	assert.Equal(t, []string{"Amide coupling"}, c.ReactionTags)
	assert.Equal(t, 0, s.oracle.Calls("ClassifyForRole"))
}

func TestPoolBuilder_EmptyLeafStillGetsPool(t *testing.T) {
	s := newTestStack(t)
	tree := compileSchema(t, s, twoSlotSchema)

	pools, err := s.pools.Build(context.Background(), tree, nil, nil)
	require.NoError(t, err)
	require.Contains(t, pools, "slot_a")
	require.Contains(t, pools, "slot_b")
	assert.Equal(t, 0, pools["slot_a"].Len())
}

func TestPoolBuilder_UnmappedGoesToEveryCompatibleLeaf(t *testing.T) {
	s := newTestStack(t)
	synthonize(s.oracle, "Amide coupling", "A", "B1", "U", "Z")
	s.oracle.Roles["U*"] = []int{1}
	s.oracle.Roles["Z*"] = []int{3}
	tree := compileSchema(t, s, twoSlotSchema)

	pools, err := s.pools.Build(context.Background(), tree, map[string][]InputItem{
		"slot_a": {{Input: "A"}},
		"slot_b": {{Input: "B1"}},
	}, []InputItem{{Input: "U"}, {Input: "Z"}, {Input: "invalid"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"A*", "U*"}, pools["slot_a"].Keys())
	assert.Equal(t, []string{"B1*", "U*"}, pools["slot_b"].Keys())
	assert.Equal(t, 4, s.oracle.Calls("ClassifyForRole"), "two candidates times two leaves")
}

func TestPoolBuilder_MappedWinsOverAutoDuplicate(t *testing.T) {
	s := newTestStack(t)
	synthonize(s.oracle, "Amide coupling", "A", "B1")
	s.oracle.Roles["A*"] = []int{1}
	tree := compileSchema(t, s, twoSlotSchema)

	pools, err := s.pools.Build(context.Background(), tree, map[string][]InputItem{
		"slot_a": {{Input: "B1"}, {Input: "A", Data: map[string]interface{}{"from": "mapped"}}},
	}, []InputItem{{Input: "A", Data: map[string]interface{}{"from": "auto"}}})
	require.NoError(t, err)

	assert.Equal(t, []string{"B1*", "A*"}, pools["slot_a"].Keys())
	assert.Equal(t, "mapped", pools["slot_a"].Candidates[1].Data["from"])
	assert.Equal(t, []string{"A*"}, pools["slot_b"].Keys())
}

func TestPoolBuilder_FragmentCanonicalDedup(t *testing.T) {
	s := newTestStack(t)
	s.oracle.Canonicals["C([*:1])O"] = "OC[*:1]"
	s.oracle.Roles["OC[*:1]"] = []int{1}
	tree := compileSchema(t, s, fragmentSchema)

	pools, err := s.pools.Build(context.Background(), tree, map[string][]InputItem{
		"core": {{Input: "OC[*:1]"}, {Input: "C([*:1])O"}},
	}, []InputItem{{Input: "C([*:1])O"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"OC[*:1]"}, pools["core"].Keys())
	assert.Equal(t, "OC[*:1]", pools["core"].Candidates[0].Molecule.Input)
	assert.Equal(t, []string{"OC[*:1]"}, pools["arm"].Keys())
	assert.Equal(t, 0, s.oracle.Calls("ComputeSynthons"))
}

func TestPoolBuilder_Deterministic(t *testing.T) {
	s := newTestStack(t)
	var inputs []InputItem
	for i := 0; i < 50; i++ {
		in := fmt.Sprintf("C%d", i)
		inputs = append(inputs, InputItem{Input: in})
		s.oracle.Roles[in] = []int{1}
	}
	tree := compileSchema(t, s, fragmentSchema)

	first, err := s.pools.Build(context.Background(), tree, nil, inputs)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.pools.Build(context.Background(), tree, nil, inputs)
		require.NoError(t, err)
		assert.Equal(t, first["core"].Keys(), again["core"].Keys())
		assert.Equal(t, first["arm"].Keys(), again["arm"].Keys())
	}
	assert.Equal(t, "C0", first["core"].Keys()[0])
	assert.Len(t, first["core"].Keys(), 50)
}

func TestPoolBuilder_UnknownSlot(t *testing.T) {
	s := newTestStack(t)
	tree := compileSchema(t, s, twoSlotSchema)

	_, err := s.pools.Build(context.Background(), tree, map[string][]InputItem{
		"slot_a": {{Input: "A"}},
		"slot_z": {{Input: "B"}},
	}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedSchema(err))
	assert.Contains(t, err.Error(), `unknown input slot "slot_z"`)
	assert.Equal(t, 0, s.oracle.Calls("Validate"))
}

func TestPoolBuilder_OracleFailure(t *testing.T) {
	s := newTestStack(t)
	tree := compileSchema(t, s, twoSlotSchema)
	s.oracle.Err = fmt.Errorf("connection refused")

	_, err := s.pools.Build(context.Background(), tree, map[string][]InputItem{"slot_a": {{Input: "A"}}}, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeOracleUnavailable, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "operation=validate")
}

//Personal.AI order the ending
