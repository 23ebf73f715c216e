package assembly

// FieldDescription documents one schema field.
type FieldDescription struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// NodeDescription documents one node type.
type NodeDescription struct {
	NodeType    NodeType           `json:"node_type"`
	Description string             `json:"description"`
	Fields      []FieldDescription `json:"fields"`
}

// Description documents an assembly family.
type Description struct {
	Overview  string            `json:"overview"`
	NodeTypes []NodeDescription `json:"node_types"`
	Example   *SchemaNode       `json:"example_schema"`
}

var (
	fieldName     = FieldDescription{"name", "unique node name; leaf names are the keys of `input_schema`"}
	fieldNodeType = FieldDescription{"node_type", "selects the node variant"}
	fieldTemplate = FieldDescription{"template_config", "optional filter template applied to the node's inputs or products"}
	fieldTplID    = FieldDescription{"template_id", "id of a saved template, used instead of `template_config`"}
)

const buildingBlockOverview = "Building block assembly decomposes each input into reactive synthons and " +
	"combines them pairwise through enabled reaction mechanisms. A schema is a binary tree: " +
	"`synthon_leaf_node` entries hold building blocks and each `synthon_node` reacts the products of its " +
	"`incoming_node` with those of its `next_node`. `n_func` lists the allowed number of remaining " +
	"functional groups, so a final product uses `[0]`. Inputs may be mapped to a leaf by name through " +
	"`input_schema` or passed as `unmapped_inputs`, in which case they are assigned to every leaf whose " +
	"`n_func` they satisfy. Results are deduplicated and sorted by product structure.\n"

const fragmentOverview = "Fragment assembly fuses fragments carrying numbered dummy atoms. " +
	"`fragment_leaf_node` entries hold fragments and list the dummy-atom `mapping_idxs` they must carry; " +
	"each `fragment_node` fuses the products of its `children` by matching mapping indices. " +
	"Inputs may be mapped to a leaf by name through `input_schema` or passed as `unmapped_inputs`, in which " +
	"case they are assigned to every leaf whose mapping indices they satisfy. Results are deduplicated and " +
	"sorted by product structure.\n"

// BuildingBlockDescription documents the synthon family.
func BuildingBlockDescription() Description {
	bb1 := &SchemaNode{Name: BlockBuildingBlock1, NodeType: NodeTypeSynthonLeaf, NFunc: []int{1}}
	bb2 := &SchemaNode{Name: BlockBuildingBlock2, NodeType: NodeTypeSynthonLeaf, NFunc: []int{1}}
	return Description{
		Overview: buildingBlockOverview,
		NodeTypes: []NodeDescription{
			{
				NodeType:    NodeTypeSynthonLeaf,
				Description: "a pool of building blocks",
				Fields: []FieldDescription{fieldName, fieldNodeType,
					{"n_func", "allowed functional group counts of the synthons placed in this slot"},
					fieldTemplate, fieldTplID},
			},
			{
				NodeType:    NodeTypeSynthon,
				Description: "a reaction step between two sub-trees",
				Fields: []FieldDescription{fieldName, fieldNodeType,
					{"n_func", "allowed functional group counts of the products of this step"},
					{"reaction_mechanisms", "map of mechanism name to enabled flag; only enabled mechanisms run"},
					{"incoming_node", "first reactant sub-tree"},
					{"next_node", "second reactant sub-tree"},
					fieldTemplate, fieldTplID},
			},
		},
		Example: &SchemaNode{
			Name:               BlockProduct,
			NodeType:           NodeTypeSynthon,
			NFunc:              []int{0},
			ReactionMechanisms: map[string]bool{"Amide coupling": true},
			IncomingNode:       bb1,
			NextNode:           bb2,
		},
	}
}

// FragmentDescription documents the fragment family.
func FragmentDescription() Description {
	return Description{
		Overview: fragmentOverview,
		NodeTypes: []NodeDescription{
			{
				NodeType:    NodeTypeFragmentLeaf,
				Description: "a pool of fragments",
				Fields: []FieldDescription{fieldName, fieldNodeType,
					{"mapping_idxs", "dummy-atom mapping indices fragments in this slot must carry"},
					fieldTemplate, fieldTplID},
			},
			{
				NodeType:    NodeTypeFragment,
				Description: "fuses the products of its children",
				Fields: []FieldDescription{fieldName, fieldNodeType,
					{"children", "ordered, non-empty list of child nodes"},
					fieldTemplate, fieldTplID},
			},
		},
		Example: &SchemaNode{
			Name:     "fused",
			NodeType: NodeTypeFragment,
			Children: []*SchemaNode{
				{Name: "core", NodeType: NodeTypeFragmentLeaf, MappingIdxs: []int{1, 2}},
				{Name: "left", NodeType: NodeTypeFragmentLeaf, MappingIdxs: []int{1}},
				{Name: "right", NodeType: NodeTypeFragmentLeaf, MappingIdxs: []int{2}},
			},
		},
	}
}

//Personal.AI order the ending
