package assembly

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
)

func TestNodeType_Family(t *testing.T) {
	assert.Equal(t, FamilySynthon, NodeTypeSynthonLeaf.Family())
	assert.Equal(t, FamilySynthon, NodeTypeSynthon.Family())
	assert.Equal(t, FamilyFragment, NodeTypeFragmentLeaf.Family())
	assert.Equal(t, FamilyFragment, NodeTypeFragment.Family())
	assert.Equal(t, Family(""), NodeType("reaction_node").Family())
	assert.False(t, NodeType("reaction_node").IsValid())
	assert.True(t, NodeTypeFragmentLeaf.IsLeaf())
	assert.False(t, NodeTypeSynthon.IsLeaf())
}

func TestMechanismSet(t *testing.T) {
	set := NewMechanismSet(map[string]bool{"b": true, "a": true, "c": false})
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"a", "b"}, set.Names())
	assert.True(t, set.Contains("a"))
	assert.False(t, set.Contains("c"))

	var empty MechanismSet
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, NewMechanismSet(map[string]bool{"x": false}).Names())
}

func threeStepTree() Node {
	bb1 := NewSynthonLeafNode("bb1", []int{1}, nil)
	bb2 := NewSynthonLeafNode("bb2", []int{2}, nil)
	ip := NewReactionNode("ip", []int{1}, nil, NewMechanismSet(map[string]bool{"m": true}), bb1, bb2)
	bb3 := NewSynthonLeafNode("bb3", []int{1}, nil)
	return NewReactionNode("product", []int{0}, nil, MechanismSet{}, ip, bb3)
}

func TestTreeTraversal(t *testing.T) {
	tree := threeStepTree()

	assert.Equal(t, []string{"bb1", "bb2", "bb3"}, LeafNames(tree))
	assert.Equal(t, []string{"bb1", "bb2", "ip", "bb3", "product"}, ResolutionOrder(tree))
	assert.Equal(t, FamilySynthon, FamilyOf(tree))

	var visited []string
	require.NoError(t, Walk(tree, func(n Node) error {
		visited = append(visited, n.Name())
		return nil
	}))
	assert.Equal(t, []string{"product", "ip", "bb1", "bb2", "bb3"}, visited)
}

func TestRole(t *testing.T) {
	role, ok := Role(NewFragmentLeafNode("f", []int{3, 1}, nil))
	require.True(t, ok)
	assert.Equal(t, chem.RoleMappingIndices, role.Kind)
	assert.Equal(t, []int{1, 3}, role.Values)

	_, ok = Role(NewFusionNode("fused", nil))
	assert.False(t, ok)
}

func TestToTree(t *testing.T) {
	name := "light"
	tpl := filter.NewTemplate(&name, &filter.PropertyFilter{Name: "Molecular Weight", MaxVal: filter.Float(250)})
	leaf := NewSynthonLeafNode("bb1", []int{1}, tpl)
	root := NewReactionNode("product", []int{0}, nil, NewMechanismSet(map[string]bool{"m2": true, "m1": true}), leaf, NewSynthonLeafNode("bb2", []int{1}, nil))

	wire, err := ToTree(root)
	require.NoError(t, err)

	assert.Equal(t, "synthon_node", wire.NodeType)
	assert.Equal(t, []string{"m1", "m2"}, wire.Mechanisms)
	assert.Empty(t, wire.Template)
	require.NotNil(t, wire.Incoming)
	assert.Equal(t, []int{1}, wire.Incoming.Role.Values)
	assert.JSONEq(t,
		`{"template_name":"light","property_filters":{"Molecular Weight":{"min_val":null,"max_val":250}},"catalog_filters":{},"smarts_filters":{}}`,
		string(wire.Incoming.Template))

	raw, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"incoming_node":{"name":"bb1"`)
}

func TestToTree_Fragment(t *testing.T) {
	root := NewFusionNode("fused", nil,
		NewFragmentLeafNode("core", []int{1, 2}, nil),
		NewFragmentLeafNode("arm", []int{1}, nil),
	)
	wire, err := ToTree(root)
	require.NoError(t, err)
	require.Len(t, wire.Children, 2)
	assert.Equal(t, "arm", wire.Children[1].Name)
	assert.Equal(t, chem.RoleMappingIndices, wire.Children[0].Role.Kind)
}

//Personal.AI order the ending
