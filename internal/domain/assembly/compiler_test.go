package assembly

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemtemplates/internal/domain/filter"
	apperrors "github.com/turtacn/chemtemplates/pkg/errors"
)

type mapResolver map[string]filter.TemplateConfig

func (m mapResolver) ResolveTemplate(_ context.Context, id string) (filter.TemplateConfig, error) {
	cfg, ok := m[id]
	if !ok {
		return filter.TemplateConfig{}, apperrors.New(apperrors.ErrCodeTemplateNotFound, fmt.Sprintf("template %s not found", id))
	}
	return cfg, nil
}

func TestCompiler_Compile_TwoSlot(t *testing.T) {
	s := newTestStack(t)

	tree, err := s.compiler.Compile(context.Background(), json.RawMessage(twoSlotSchema))
	require.NoError(t, err)

	root, ok := tree.(*ReactionNode)
	require.True(t, ok)
	assert.Equal(t, "product", root.Name())
	assert.Equal(t, []int{0}, root.NFunc.Values)
	assert.Equal(t, []string{"Amide coupling"}, root.Mechanisms.Names())
	assert.Nil(t, root.Template())
	assert.Equal(t, []string{"slot_a", "slot_b"}, LeafNames(tree))
}

func TestCompiler_Compile_EmbeddedTemplateKeepsOrder(t *testing.T) {
	s := newTestStack(t)
	schema := `{
		"name": "core", "node_type": "fragment_leaf_node", "mapping_idxs": [2, 1, 2],
		"template_config": {
			"template_name": "small",
			"property_filters": {"TPSA": {"max_val": 90}, "LogP": {"max_val": 5}, "Boiling Point": {"max_val": 1}},
			"catalog_filters": {"PAINS": {"include": true}},
			"smarts_filters": {}
		}
	}`

	tree, err := s.compiler.Compile(context.Background(), json.RawMessage(schema))
	require.NoError(t, err)

	leaf, ok := tree.(*FragmentLeafNode)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, leaf.MappingIdxs.Values)

	spec := leaf.Template().Spec()
	require.Len(t, spec.PropertyFilters, 2)
	assert.Equal(t, "TPSA", spec.PropertyFilters[0].Name)
	assert.Equal(t, "LogP", spec.PropertyFilters[1].Name)
	assert.True(t, s.logger.HasMessage("warn", "bad filter spec detected"))
}

func TestCompiler_Compile_EmptyMechanismsAreValid(t *testing.T) {
	s := newTestStack(t)
	schema := strings.Replace(twoSlotSchema, `{"Amide coupling": true, "Suzuki coupling": false}`, `{"Suzuki coupling": false}`, 1)

	tree, err := s.compiler.Compile(context.Background(), json.RawMessage(schema))
	require.NoError(t, err)
	assert.Equal(t, 0, tree.(*ReactionNode).Mechanisms.Len())
}

func TestCompiler_Compile_Deterministic(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()

	first, err := s.compiler.Compile(ctx, json.RawMessage(fragmentSchema))
	require.NoError(t, err)
	second, err := s.compiler.Compile(ctx, json.RawMessage(fragmentSchema))
	require.NoError(t, err)

	a, err := ToTree(first)
	require.NoError(t, err)
	b, err := ToTree(second)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("compiled trees differ (-first +second):\n%s", diff)
	}
}

func TestCompiler_Compile_Malformed(t *testing.T) {
	leaf := func(name string) string {
		return fmt.Sprintf(`{"name": %q, "node_type": "synthon_leaf_node", "n_func": [1]}`, name)
	}
	deep := leaf("bottom")
	for i := 0; i < 70; i++ {
		deep = fmt.Sprintf(`{"name": "n%d", "node_type": "fragment_node", "children": [%s]}`, i,
			strings.Replace(deep, "synthon_leaf_node", "fragment_leaf_node", 1))
	}
	deep = strings.Replace(deep, `"n_func"`, `"mapping_idxs"`, 1)

	tests := []struct {
		name   string
		schema string
		path   string
		msg    string
	}{
		{"not an object", `[1, 2]`, "$", "must be a JSON object"},
		{"null document", `null`, "$", "must be a JSON object"},
		{"missing name", `{"node_type": "synthon_leaf_node", "n_func": [1]}`, "$", "missing name"},
		{"missing node type", `{"name": "a", "n_func": [1]}`, "a", "missing node_type"},
		{"unknown node type", `{"name": "a", "node_type": "reaction_node"}`, "a", `unknown node_type "reaction_node"`},
		{"missing n_func", `{"name": "a", "node_type": "synthon_leaf_node"}`, "a", "missing n_func"},
		{"bad n_func", `{"name": "a", "node_type": "synthon_leaf_node", "n_func": ["one"]}`, "a", "list of integers"},
		{"missing mapping idxs", `{"name": "a", "node_type": "fragment_leaf_node"}`, "a", "missing mapping_idxs"},
		{
			"missing next node",
			fmt.Sprintf(`{"name": "p", "node_type": "synthon_node", "n_func": [0], "incoming_node": %s}`, leaf("a")),
			"p", "missing next_node",
		},
		{
			"non-object child",
			fmt.Sprintf(`{"name": "p", "node_type": "synthon_node", "n_func": [0], "incoming_node": %s, "next_node": "b"}`, leaf("a")),
			"p.next_node", "must be a JSON object",
		},
		{"empty children", `{"name": "f", "node_type": "fragment_node", "children": []}`, "f", "must not be empty"},
		{"children not a list", `{"name": "f", "node_type": "fragment_node", "children": {}}`, "f", "list of nodes"},
		{
			"mixed families",
			`{"name": "f", "node_type": "fragment_node", "children": [{"name": "a", "node_type": "synthon_leaf_node", "n_func": [1]}]}`,
			"f.children[0]", "synthon node in a fragment tree",
		},
		{
			"duplicate names",
			fmt.Sprintf(`{"name": "p", "node_type": "synthon_node", "n_func": [0], "incoming_node": %s, "next_node": %s}`, leaf("a"), leaf("a")),
			"p.next_node", `duplicate node name "a", first declared at p.incoming_node`,
		},
		{
			"shared subtree",
			fmt.Sprintf(`{"name": "p", "node_type": "synthon_node", "n_func": [0], "incoming_node": %s, "next_node": %s}`, leaf("p"), leaf("b")),
			"p.incoming_node", `duplicate node name "p"`,
		},
		{
			"both template forms",
			`{"name": "a", "node_type": "synthon_leaf_node", "n_func": [1], "template_config": {}, "template_id": "t1"}`,
			"a", "mutually exclusive",
		},
		{"template id without store", `{"name": "a", "node_type": "synthon_leaf_node", "n_func": [1], "template_id": "t1"}`, "a", "not available"},
		{"bad template config", `{"name": "a", "node_type": "synthon_leaf_node", "n_func": [1], "template_config": {"property_filters": []}}`, "a", "invalid template_config"},
		{
			"bad mechanisms",
			fmt.Sprintf(`{"name": "p", "node_type": "synthon_node", "n_func": [0], "reaction_mechanisms": ["x"], "incoming_node": %s, "next_node": %s}`, leaf("a"), leaf("b")),
			"p", "reaction_mechanisms",
		},
		{"too deep", deep, "", "nesting exceeds 64 levels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStack(t)
			_, err := s.compiler.Compile(context.Background(), json.RawMessage(tt.schema))
			require.Error(t, err)
			assert.True(t, apperrors.IsMalformedSchema(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
			if tt.path != "" {
				assert.Contains(t, err.Error(), "node="+tt.path)
			}
			assert.Equal(t, 0, s.oracle.Calls("Validate"))
		})
	}
}

func TestCompiler_Compile_UnknownMechanism(t *testing.T) {
	s := newTestStack(t, WithKnownMechanisms([]string{"Suzuki coupling"}))

	_, err := s.compiler.Compile(context.Background(), json.RawMessage(twoSlotSchema))
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedSchema(err))
	assert.Contains(t, err.Error(), `unknown reaction mechanism "Amide coupling"`)

	s = newTestStack(t, WithKnownMechanisms([]string{"Amide coupling"}))
	_, err = s.compiler.Compile(context.Background(), json.RawMessage(twoSlotSchema))
	assert.NoError(t, err, "disabled mechanisms are not checked")
}

func TestCompiler_Compile_TemplateID(t *testing.T) {
	resolver := mapResolver{
		"tpl-1": {PropertyFilters: filter.PropertyFilters{{Name: "QED", MinVal: filter.Float(0.5)}}},
	}
	s := newTestStack(t, WithTemplateResolver(resolver))
	ctx := context.Background()

	tree, err := s.compiler.Compile(ctx, json.RawMessage(`{"name": "a", "node_type": "synthon_leaf_node", "n_func": [1], "template_id": "tpl-1"}`))
	require.NoError(t, err)
	require.Equal(t, 1, tree.Template().Len())
	assert.Equal(t, "QED", tree.Template().Filters()[0].Key())

	_, err = s.compiler.Compile(ctx, json.RawMessage(`{"name": "a", "node_type": "synthon_leaf_node", "n_func": [1], "template_id": "tpl-404"}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, apperrors.ErrCodeTemplateNotFound, apperrors.GetCode(err))
	var ae *apperrors.AppError
	require.True(t, stderrors.As(err, &ae))
	assert.Equal(t, "node=a name=a template_id=tpl-404", ae.Detail)
}

func TestCompiler_WithMaxDepth(t *testing.T) {
	s := newTestStack(t, WithMaxDepth(1))

	_, err := s.compiler.Compile(context.Background(), json.RawMessage(fragmentSchema))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting exceeds 1 levels")
}

//Personal.AI order the ending
