package chem

import (
	"encoding/json"
	"sort"
)

// Molecule is a structure that passed oracle validation.
type Molecule struct {
	// Input is the string the caller submitted.
	Input string `json:"input"`
	// Canonical is the oracle's normalized form; it is the dedup and sort key.
	Canonical string `json:"canonical"`
}

// Key returns the canonical key used for deduplication.
func (m Molecule) Key() string { return m.Canonical }

// RoleKind distinguishes the two role-constraint families.
type RoleKind string

const (
	// RoleFunctionalGroups constrains synthon leaves by functional-group count.
	RoleFunctionalGroups RoleKind = "n_func"
	// RoleMappingIndices constrains fragment leaves by dummy-atom mapping index.
	RoleMappingIndices RoleKind = "mapping_idxs"
)

// RoleConstraint is the set of allowed functional-group counts or mapping
// indices of a leaf. Values is sorted ascending without duplicates.
type RoleConstraint struct {
	Kind   RoleKind `json:"kind"`
	Values []int    `json:"values"`
}

// NewRoleConstraint normalizes values into a sorted set.
func NewRoleConstraint(kind RoleKind, values []int) RoleConstraint {
	set := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, dup := set[v]; dup {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return RoleConstraint{Kind: kind, Values: out}
}

// Contains reports whether v is a member of the constraint set.
func (r RoleConstraint) Contains(v int) bool {
	i := sort.SearchInts(r.Values, v)
	return i < len(r.Values) && r.Values[i] == v
}

// Synthon is a reactive fragment of a building block.
type Synthon struct {
	Synthon      string   `json:"synthon"`
	ReactionTags []string `json:"reaction_tags"`
}

// Mechanism is a reaction mechanism known to the assembly engine.
type Mechanism struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Limits bounds a combinatorial run. The core forwards them untouched.
type Limits struct {
	MaxPoolSize int `json:"max_pool_size"`
	MaxProducts int `json:"max_products"`
}

// DefaultLimits mirrors the bounds the assembly engine applies by default.
func DefaultLimits() Limits {
	return Limits{MaxPoolSize: 1000, MaxProducts: 1000000}
}

// TreeNode is the wire projection of a compiled assembly node. Template holds
// the normalized template configuration, or nothing when the node is
// unfiltered.
type TreeNode struct {
	Name       string          `json:"name"`
	NodeType   string          `json:"node_type"`
	Role       *RoleConstraint `json:"role,omitempty"`
	Template   json.RawMessage `json:"template_config,omitempty"`
	Mechanisms []string        `json:"reaction_mechanisms,omitempty"`
	Incoming   *TreeNode       `json:"incoming_node,omitempty"`
	Next       *TreeNode       `json:"next_node,omitempty"`
	Children   []*TreeNode     `json:"children,omitempty"`
}

// PoolMember is a validated candidate in a leaf pool.
type PoolMember struct {
	Input        string                 `json:"input"`
	Canonical    string                 `json:"canonical"`
	Data         map[string]interface{} `json:"data,omitempty"`
	ReactionTags []string               `json:"reaction_tags,omitempty"`
}

// AssembleRequest is the full input of one combinatorial run.
type AssembleRequest struct {
	Family          string                  `json:"family"`
	Tree            *TreeNode               `json:"tree"`
	Pools           map[string][]PoolMember `json:"pools"`
	Limits          Limits                  `json:"limits"`
	ResolutionOrder []string                `json:"resolution_order"`
}

// RawProduct is one structure produced by the assembly engine together with
// its immediate parents. Either ReactionTags (synthon family) or InputString
// (fragment family) is set.
type RawProduct struct {
	Structure    string      `json:"structure"`
	Parents      []RawParent `json:"parents"`
	ReactionTags []string    `json:"reaction_tags,omitempty"`
	InputString  string      `json:"input_string,omitempty"`
}

// RawParent is either a pool member consumed directly or an intermediate
// product from a lower node. Exactly one field is set.
type RawParent struct {
	Input   *PoolMember `json:"input,omitempty"`
	Product *RawProduct `json:"product,omitempty"`
}

//Personal.AI order the ending
