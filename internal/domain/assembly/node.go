// Package assembly compiles declarative assembly schemas into node trees,
// builds the per-leaf input pools and shapes the products returned by the
// combinatorial engine.
package assembly

import (
	"encoding/json"
	"sort"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
)

// NodeType is the wire tag that selects a node variant.
type NodeType string

const (
	NodeTypeSynthonLeaf  NodeType = "synthon_leaf_node"
	NodeTypeSynthon      NodeType = "synthon_node"
	NodeTypeFragmentLeaf NodeType = "fragment_leaf_node"
	NodeTypeFragment     NodeType = "fragment_node"
)

// Family groups node types that may appear in the same tree.
type Family string

const (
	FamilySynthon  Family = "synthon"
	FamilyFragment Family = "fragment"
)

// Family returns the family of t, or "" for an unknown type.
func (t NodeType) Family() Family {
	switch t {
	case NodeTypeSynthonLeaf, NodeTypeSynthon:
		return FamilySynthon
	case NodeTypeFragmentLeaf, NodeTypeFragment:
		return FamilyFragment
	default:
		return ""
	}
}

// IsLeaf reports whether t is a leaf variant.
func (t NodeType) IsLeaf() bool {
	return t == NodeTypeSynthonLeaf || t == NodeTypeFragmentLeaf
}

// IsValid reports whether t names a known variant.
func (t NodeType) IsValid() bool { return t.Family() != "" }

// IsValid reports whether f names a known family.
func (f Family) IsValid() bool { return f == FamilySynthon || f == FamilyFragment }

// RoleConstraint is the set of functional-group counts or mapping indices a
// leaf accepts.
type RoleConstraint = chem.RoleConstraint

// MechanismSet is the set of enabled reaction mechanisms of a reaction node.
// The zero value is a valid empty set.
type MechanismSet struct {
	names []string
}

// NewMechanismSet keeps the enabled entries of toggles.
func NewMechanismSet(toggles map[string]bool) MechanismSet {
	names := make([]string, 0, len(toggles))
	for name, on := range toggles {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return MechanismSet{names: names}
}

func (s MechanismSet) Len() int { return len(s.names) }

// Names returns the enabled mechanism names in sorted order.
func (s MechanismSet) Names() []string { return append([]string(nil), s.names...) }

// Contains reports whether name is enabled.
func (s MechanismSet) Contains(name string) bool {
	i := sort.SearchStrings(s.names, name)
	return i < len(s.names) && s.names[i] == name
}

// Node is a compiled assembly node. The implementations are *SynthonLeafNode,
// *ReactionNode, *FragmentLeafNode and *FusionNode.
type Node interface {
	Name() string
	Type() NodeType
	// Template is the filter applied to the node's pool or products; nil
	// means unfiltered.
	Template() *filter.Template
	// Children returns the direct children in declared order.
	Children() []Node
	isNode()
}

type nodeBase struct {
	name     string
	template *filter.Template
}

func (b *nodeBase) Name() string               { return b.name }
func (b *nodeBase) Template() *filter.Template { return b.template }
func (*nodeBase) isNode()                      {}

// SynthonLeafNode is a building-block slot constrained by functional-group
// count.
type SynthonLeafNode struct {
	nodeBase
	NFunc RoleConstraint
}

// ReactionNode combines the products of Incoming and Next through the enabled
// reaction mechanisms.
type ReactionNode struct {
	nodeBase
	NFunc      RoleConstraint
	Mechanisms MechanismSet
	Incoming   Node
	Next       Node
}

// FragmentLeafNode is a fragment slot constrained by dummy-atom mapping index.
type FragmentLeafNode struct {
	nodeBase
	MappingIdxs RoleConstraint
}

// FusionNode fuses the products of its children.
type FusionNode struct {
	nodeBase
	children []Node
}

func NewSynthonLeafNode(name string, nFunc []int, tpl *filter.Template) *SynthonLeafNode {
	return &SynthonLeafNode{
		nodeBase: nodeBase{name: name, template: tpl},
		NFunc:    chem.NewRoleConstraint(chem.RoleFunctionalGroups, nFunc),
	}
}

func NewReactionNode(name string, nFunc []int, tpl *filter.Template, mechanisms MechanismSet, incoming, next Node) *ReactionNode {
	return &ReactionNode{
		nodeBase:   nodeBase{name: name, template: tpl},
		NFunc:      chem.NewRoleConstraint(chem.RoleFunctionalGroups, nFunc),
		Mechanisms: mechanisms,
		Incoming:   incoming,
		Next:       next,
	}
}

func NewFragmentLeafNode(name string, mappingIdxs []int, tpl *filter.Template) *FragmentLeafNode {
	return &FragmentLeafNode{
		nodeBase:    nodeBase{name: name, template: tpl},
		MappingIdxs: chem.NewRoleConstraint(chem.RoleMappingIndices, mappingIdxs),
	}
}

func NewFusionNode(name string, tpl *filter.Template, children ...Node) *FusionNode {
	return &FusionNode{
		nodeBase: nodeBase{name: name, template: tpl},
		children: append([]Node(nil), children...),
	}
}

func (*SynthonLeafNode) Type() NodeType  { return NodeTypeSynthonLeaf }
func (*ReactionNode) Type() NodeType     { return NodeTypeSynthon }
func (*FragmentLeafNode) Type() NodeType { return NodeTypeFragmentLeaf }
func (*FusionNode) Type() NodeType       { return NodeTypeFragment }

func (*SynthonLeafNode) Children() []Node  { return nil }
func (n *ReactionNode) Children() []Node   { return []Node{n.Incoming, n.Next} }
func (*FragmentLeafNode) Children() []Node { return nil }
func (n *FusionNode) Children() []Node     { return append([]Node(nil), n.children...) }

// Role returns the role constraint of a leaf node.
func Role(n Node) (RoleConstraint, bool) {
	switch n := n.(type) {
	case *SynthonLeafNode:
		return n.NFunc, true
	case *FragmentLeafNode:
		return n.MappingIdxs, true
	default:
		return RoleConstraint{}, false
	}
}

// FamilyOf returns the family of the tree rooted at n.
func FamilyOf(n Node) Family {
	if n == nil {
		return ""
	}
	return n.Type().Family()
}

// Walk visits the tree rooted at n in pre-order. Returning an error from fn
// stops the walk.
func Walk(n Node, fn func(Node) error) error {
	if n == nil {
		return nil
	}
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Leaves returns the leaf nodes of the tree from left to right.
func Leaves(n Node) []Node {
	var out []Node
	_ = Walk(n, func(n Node) error {
		if n.Type().IsLeaf() {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// LeafNames returns the names of Leaves(n).
func LeafNames(n Node) []string {
	leaves := Leaves(n)
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.Name()
	}
	return names
}

// ResolutionOrder lists node names bottom-up: every node appears after all
// of its children.
func ResolutionOrder(n Node) []string {
	var out []string
	var visit func(Node)
	visit = func(n Node) {
		if n == nil {
			return
		}
		for _, c := range n.Children() {
			visit(c)
		}
		out = append(out, n.Name())
	}
	visit(n)
	return out
}

// ToTree projects n onto the wire shape sent to the assembly engine.
func ToTree(n Node) (*chem.TreeNode, error) {
	if n == nil {
		return nil, nil
	}
	t := &chem.TreeNode{Name: n.Name(), NodeType: string(n.Type())}
	if tpl := n.Template(); tpl != nil {
		raw, err := json.Marshal(tpl.Spec())
		if err != nil {
			return nil, err
		}
		t.Template = raw
	}

	switch n := n.(type) {
	case *SynthonLeafNode:
		role := n.NFunc
		t.Role = &role
	case *FragmentLeafNode:
		role := n.MappingIdxs
		t.Role = &role
	case *ReactionNode:
		role := n.NFunc
		t.Role = &role
		t.Mechanisms = n.Mechanisms.Names()
		var err error
		if t.Incoming, err = ToTree(n.Incoming); err != nil {
			return nil, err
		}
		if t.Next, err = ToTree(n.Next); err != nil {
			return nil, err
		}
	case *FusionNode:
		t.Children = make([]*chem.TreeNode, 0, len(n.children))
		for _, c := range n.children {
			ct, err := ToTree(c)
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, ct)
		}
	}
	return t, nil
}

//Personal.AI order the ending
