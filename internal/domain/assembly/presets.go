package assembly

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Block names used by the preset building-block assemblies.
const (
	BlockBuildingBlock1 = "building_block_1"
	BlockBuildingBlock2 = "building_block_2"
	BlockBuildingBlock3 = "building_block_3"
	BlockIntermediate1  = "intermediate_product_1"
	BlockProduct        = "product"
)

// PresetKind selects a preset assembly layout.
type PresetKind string

const (
	Preset2BB PresetKind = "2bb"
	Preset3BB PresetKind = "3bb"
)

// IsValid reports whether k names a known preset.
func (k PresetKind) IsValid() bool { return k == Preset2BB || k == Preset3BB }

// SchemaNode is the declarative form of one assembly node.
type SchemaNode struct {
	Name               string                 `json:"name"`
	NodeType           NodeType               `json:"node_type"`
	NFunc              []int                  `json:"n_func,omitempty"`
	MappingIdxs        []int                  `json:"mapping_idxs,omitempty"`
	TemplateConfig     *filter.TemplateConfig `json:"template_config,omitempty"`
	TemplateID         string                 `json:"template_id,omitempty"`
	ReactionMechanisms map[string]bool        `json:"reaction_mechanisms,omitempty"`
	IncomingNode       *SchemaNode            `json:"incoming_node,omitempty"`
	NextNode           *SchemaNode            `json:"next_node,omitempty"`
	Children           []*SchemaNode          `json:"children,omitempty"`
}

// LeafBlockInputs configures a building-block slot of a preset.
type LeafBlockInputs struct {
	Inputs         []InputItem            `json:"inputs" validate:"dive"`
	TemplateConfig *filter.TemplateConfig `json:"template_config"`
	TemplateID     string                 `json:"template_id,omitempty"`
}

// ReactionBlockInputs configures a reaction step of a preset.
type ReactionBlockInputs struct {
	ReactionMechanisms map[string]bool        `json:"reaction_mechanisms"`
	TemplateConfig     *filter.TemplateConfig `json:"template_config"`
	TemplateID         string                 `json:"template_id,omitempty"`
}

// TwoBBRequest joins two building blocks in one reaction step.
type TwoBBRequest struct {
	BuildingBlock1 LeafBlockInputs     `json:"building_block_1"`
	BuildingBlock2 LeafBlockInputs     `json:"building_block_2"`
	Product        ReactionBlockInputs `json:"product"`
	UnmappedInputs []InputItem         `json:"unmapped_inputs" validate:"dive"`
}

// ThreeBBRequest joins three building blocks in two reaction steps.
type ThreeBBRequest struct {
	BuildingBlock1       LeafBlockInputs     `json:"building_block_1"`
	BuildingBlock2       LeafBlockInputs     `json:"building_block_2"`
	IntermediateProduct1 ReactionBlockInputs `json:"intermediate_product_1"`
	BuildingBlock3       LeafBlockInputs     `json:"building_block_3"`
	Product              ReactionBlockInputs `json:"product"`
	UnmappedInputs       []InputItem         `json:"unmapped_inputs" validate:"dive"`
}

func leafSchema(name string, nFunc int, b LeafBlockInputs) *SchemaNode {
	return &SchemaNode{
		Name:           name,
		NodeType:       NodeTypeSynthonLeaf,
		NFunc:          []int{nFunc},
		TemplateConfig: b.TemplateConfig,
		TemplateID:     b.TemplateID,
	}
}

func reactionSchema(name string, nFunc int, b ReactionBlockInputs, incoming, next *SchemaNode) *SchemaNode {
	return &SchemaNode{
		Name:               name,
		NodeType:           NodeTypeSynthon,
		NFunc:              []int{nFunc},
		TemplateConfig:     b.TemplateConfig,
		TemplateID:         b.TemplateID,
		ReactionMechanisms: b.ReactionMechanisms,
		IncomingNode:       incoming,
		NextNode:           next,
	}
}

// Request builds the assembly request equivalent to r.
func (r TwoBBRequest) Request() (Request, error) {
	bb1 := leafSchema(BlockBuildingBlock1, 1, r.BuildingBlock1)
	bb2 := leafSchema(BlockBuildingBlock2, 1, r.BuildingBlock2)
	product := reactionSchema(BlockProduct, 0, r.Product, bb1, bb2)

	return newPresetRequest(product, map[string][]InputItem{
		BlockBuildingBlock1: r.BuildingBlock1.Inputs,
		BlockBuildingBlock2: r.BuildingBlock2.Inputs,
	}, r.UnmappedInputs)
}

// Request builds the assembly request equivalent to r.
func (r ThreeBBRequest) Request() (Request, error) {
	bb1 := leafSchema(BlockBuildingBlock1, 1, r.BuildingBlock1)
	bb2 := leafSchema(BlockBuildingBlock2, 2, r.BuildingBlock2)
	ip1 := reactionSchema(BlockIntermediate1, 1, r.IntermediateProduct1, bb1, bb2)
	bb3 := leafSchema(BlockBuildingBlock3, 1, r.BuildingBlock3)
	product := reactionSchema(BlockProduct, 0, r.Product, ip1, bb3)

	return newPresetRequest(product, map[string][]InputItem{
		BlockBuildingBlock1: r.BuildingBlock1.Inputs,
		BlockBuildingBlock2: r.BuildingBlock2.Inputs,
		BlockBuildingBlock3: r.BuildingBlock3.Inputs,
	}, r.UnmappedInputs)
}

func newPresetRequest(root *SchemaNode, mapped map[string][]InputItem, unmapped []InputItem) (Request, error) {
	raw, err := json.Marshal(root)
	if err != nil {
		return Request{}, errors.Wrap(err, errors.ErrCodeSerialization, "encode preset schema")
	}
	return Request{Schema: raw, Mapped: mapped, Unmapped: unmapped}, nil
}

// PresetBlock is the template and mechanism configuration of one preset
// block. Leaf blocks carry no mechanisms.
type PresetBlock struct {
	TemplateConfig     *filter.TemplateConfig `json:"template_config"`
	ReactionMechanisms map[string]bool        `json:"reaction_mechanisms,omitempty"`
}

// PresetSchema maps block names to their configuration.
type PresetSchema map[string]PresetBlock

// PresetBlocks lists the block names of kind in assembly order, with
// whether each one is a reaction step.
func PresetBlocks(kind PresetKind) ([]string, map[string]bool) {
	switch kind {
	case Preset2BB:
		return []string{BlockBuildingBlock1, BlockBuildingBlock2, BlockProduct},
			map[string]bool{BlockProduct: true}
	case Preset3BB:
		return []string{BlockBuildingBlock1, BlockBuildingBlock2, BlockIntermediate1, BlockBuildingBlock3, BlockProduct},
			map[string]bool{BlockIntermediate1: true, BlockProduct: true}
	default:
		return nil, nil
	}
}

// BasePresetSchema returns the starting configuration of a preset: every
// block gets the base template and every reaction step enables all of
// mechanisms.
func BasePresetSchema(kind PresetKind, base filter.TemplateConfig, mechanisms []chem.Mechanism) (PresetSchema, error) {
	blocks, reactions := PresetBlocks(kind)
	if blocks == nil {
		return nil, errors.NewValidationError("kind", fmt.Sprintf("unknown preset schema %q, expected 2bb or 3bb", kind))
	}
	out := make(PresetSchema, len(blocks))
	for _, name := range blocks {
		cfg := base
		b := PresetBlock{TemplateConfig: &cfg}
		if reactions[name] {
			b.ReactionMechanisms = make(map[string]bool, len(mechanisms))
			for _, m := range mechanisms {
				b.ReactionMechanisms[m.Name] = true
			}
		}
		out[name] = b
	}
	return out, nil
}

// StripPresetSchema normalizes every block template and drops disabled
// mechanisms.
func StripPresetSchema(ctx context.Context, templates *filter.Compiler, schema PresetSchema) (PresetSchema, error) {
	out := make(PresetSchema, len(schema))
	for name, block := range schema {
		stripped := PresetBlock{}
		if block.TemplateConfig != nil {
			cfg, _, err := templates.Strip(ctx, *block.TemplateConfig)
			if err != nil {
				return nil, err
			}
			stripped.TemplateConfig = &cfg
		}
		if block.ReactionMechanisms != nil {
			stripped.ReactionMechanisms = make(map[string]bool, len(block.ReactionMechanisms))
			for m, on := range block.ReactionMechanisms {
				if on {
					stripped.ReactionMechanisms[m] = true
				}
			}
		}
		out[name] = stripped
	}
	return out, nil
}

//Personal.AI order the ending
