package assembly

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// DefaultMaxDepth bounds how deeply schema nodes may nest.
const DefaultMaxDepth = 64

// TemplateResolver looks up a saved template configuration by id. A missing
// template must be reported as a not-found AppError.
type TemplateResolver interface {
	ResolveTemplate(ctx context.Context, id string) (filter.TemplateConfig, error)
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithTemplateResolver enables template_id references.
func WithTemplateResolver(r TemplateResolver) CompilerOption {
	return func(c *Compiler) { c.resolver = r }
}

// WithKnownMechanisms rejects enabled mechanisms outside names.
func WithKnownMechanisms(names []string) CompilerOption {
	return func(c *Compiler) {
		c.known = make(map[string]bool, len(names))
		for _, n := range names {
			c.known[n] = true
		}
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) CompilerOption {
	return func(c *Compiler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// Compiler turns raw assembly schemas into node trees.
type Compiler struct {
	templates *filter.Compiler
	resolver  TemplateResolver
	known     map[string]bool
	maxDepth  int
	logger    logging.Logger
}

// NewCompiler returns a Compiler that compiles embedded templates with
// templates.
func NewCompiler(templates *filter.Compiler, logger logging.Logger, opts ...CompilerOption) *Compiler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Compiler{templates: templates, maxDepth: DefaultMaxDepth, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type compileState struct {
	family Family
	names  map[string]string
}

// Compile decodes and validates schema depth-first. Any structural problem
// aborts compilation with a MalformedSchema error naming the node path.
func (c *Compiler) Compile(ctx context.Context, schema json.RawMessage) (Node, error) {
	st := &compileState{names: make(map[string]string)}
	root, err := c.compileNode(ctx, schema, "", 1, st)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("assembly schema compiled",
		logging.String("root", root.Name()),
		logging.String("family", string(st.family)),
		logging.Int("nodes", len(st.names)),
	)
	return root, nil
}

func childPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func (c *Compiler) compileNode(ctx context.Context, raw json.RawMessage, path string, depth int, st *compileState) (Node, error) {
	where := path
	if where == "" {
		where = "$"
	}
	if depth > c.maxDepth {
		return nil, errors.MalformedSchema(where, fmt.Sprintf("schema nesting exceeds %d levels", c.maxDepth))
	}
	if isNull(raw) {
		return nil, errors.MalformedSchema(where, "node must be a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.MalformedSchema(where, "node must be a JSON object")
	}

	var name string
	if v, ok := fields["name"]; !ok || isNull(v) {
		return nil, errors.MalformedSchema(where, "missing name")
	} else if err := json.Unmarshal(v, &name); err != nil || name == "" {
		return nil, errors.MalformedSchema(where, "name must be a non-empty string")
	}
	if path == "" {
		path = name
	}

	var nodeType NodeType
	if v, ok := fields["node_type"]; !ok || isNull(v) {
		return nil, errors.MalformedSchema(path, "missing node_type")
	} else if err := json.Unmarshal(v, &nodeType); err != nil {
		return nil, errors.MalformedSchema(path, "node_type must be a string")
	}
	if !nodeType.IsValid() {
		return nil, errors.MalformedSchema(path, fmt.Sprintf("unknown node_type %q", nodeType))
	}

	if st.family == "" {
		st.family = nodeType.Family()
	} else if st.family != nodeType.Family() {
		return nil, errors.MalformedSchema(path, fmt.Sprintf("%s node in a %s tree", nodeType.Family(), st.family))
	}

	if first, dup := st.names[name]; dup {
		return nil, errors.MalformedSchema(path, fmt.Sprintf("duplicate node name %q, first declared at %s", name, first))
	}
	st.names[name] = path

	tpl, err := c.compileTemplate(ctx, fields, path, name)
	if err != nil {
		return nil, err
	}
	base := nodeBase{name: name, template: tpl}

	switch nodeType {
	case NodeTypeSynthonLeaf:
		nFunc, err := decodeRole(fields, "n_func", path)
		if err != nil {
			return nil, err
		}
		n := &SynthonLeafNode{nodeBase: base}
		n.NFunc = chem.NewRoleConstraint(chem.RoleFunctionalGroups, nFunc)
		return n, nil

	case NodeTypeFragmentLeaf:
		idxs, err := decodeRole(fields, "mapping_idxs", path)
		if err != nil {
			return nil, err
		}
		n := &FragmentLeafNode{nodeBase: base}
		n.MappingIdxs = chem.NewRoleConstraint(chem.RoleMappingIndices, idxs)
		return n, nil

	case NodeTypeSynthon:
		nFunc, err := decodeRole(fields, "n_func", path)
		if err != nil {
			return nil, err
		}
		mechs, err := c.compileMechanisms(fields, path)
		if err != nil {
			return nil, err
		}
		n := &ReactionNode{nodeBase: base, Mechanisms: mechs}
		n.NFunc = chem.NewRoleConstraint(chem.RoleFunctionalGroups, nFunc)
		if n.Incoming, err = c.compileRequiredChild(ctx, fields, "incoming_node", path, depth, st); err != nil {
			return nil, err
		}
		if n.Next, err = c.compileRequiredChild(ctx, fields, "next_node", path, depth, st); err != nil {
			return nil, err
		}
		return n, nil

	case NodeTypeFragment:
		v, ok := fields["children"]
		if !ok || isNull(v) {
			return nil, errors.MalformedSchema(path, "missing children")
		}
		var rawChildren []json.RawMessage
		if err := json.Unmarshal(v, &rawChildren); err != nil {
			return nil, errors.MalformedSchema(path, "children must be a list of nodes")
		}
		if len(rawChildren) == 0 {
			return nil, errors.MalformedSchema(path, "children must not be empty")
		}
		n := &FusionNode{nodeBase: base, children: make([]Node, 0, len(rawChildren))}
		for i, rc := range rawChildren {
			child, err := c.compileNode(ctx, rc, fmt.Sprintf("%s.children[%d]", path, i), depth+1, st)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
		return n, nil
	}

	return nil, errors.MalformedSchema(path, fmt.Sprintf("unknown node_type %q", nodeType))
}

func (c *Compiler) compileRequiredChild(ctx context.Context, fields map[string]json.RawMessage, field, path string, depth int, st *compileState) (Node, error) {
	v, ok := fields[field]
	if !ok || isNull(v) {
		return nil, errors.MalformedSchema(path, "missing "+field)
	}
	return c.compileNode(ctx, v, childPath(path, field), depth+1, st)
}

func (c *Compiler) compileTemplate(ctx context.Context, fields map[string]json.RawMessage, path, name string) (*filter.Template, error) {
	rawCfg, hasCfg := fields["template_config"]
	hasCfg = hasCfg && !isNull(rawCfg)
	rawID, hasID := fields["template_id"]
	hasID = hasID && !isNull(rawID)

	var cfg filter.TemplateConfig
	switch {
	case hasCfg && hasID:
		return nil, errors.MalformedSchema(path, "template_config and template_id are mutually exclusive")
	case hasCfg:
		if err := json.Unmarshal(rawCfg, &cfg); err != nil {
			return nil, errors.MalformedSchema(path, "invalid template_config: "+err.Error())
		}
	case hasID:
		var id string
		if err := json.Unmarshal(rawID, &id); err != nil || id == "" {
			return nil, errors.MalformedSchema(path, "template_id must be a non-empty string")
		}
		if c.resolver == nil {
			return nil, errors.MalformedSchema(path, "template_id references are not available")
		}
		resolved, err := c.resolver.ResolveTemplate(ctx, id)
		if err != nil {
			var ae *errors.AppError
			if stderrors.As(err, &ae) {
				return nil, ae.WithDetail(fmt.Sprintf("node=%s name=%s template_id=%s", path, name, id))
			}
			return nil, fmt.Errorf("node %s (%s) template_id %s: %w", path, name, id, err)
		}
		cfg = resolved
	default:
		return nil, nil
	}

	tpl, _, err := c.templates.Compile(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (c *Compiler) compileMechanisms(fields map[string]json.RawMessage, path string) (MechanismSet, error) {
	v, ok := fields["reaction_mechanisms"]
	if !ok || isNull(v) {
		return MechanismSet{}, nil
	}
	var toggles map[string]bool
	if err := json.Unmarshal(v, &toggles); err != nil {
		return MechanismSet{}, errors.MalformedSchema(path, "reaction_mechanisms must map names to booleans")
	}
	set := NewMechanismSet(toggles)
	if c.known != nil {
		for _, name := range set.Names() {
			if !c.known[name] {
				return MechanismSet{}, errors.MalformedSchema(path, fmt.Sprintf("unknown reaction mechanism %q", name))
			}
		}
	}
	return set, nil
}

func decodeRole(fields map[string]json.RawMessage, field, path string) ([]int, error) {
	v, ok := fields[field]
	if !ok || isNull(v) {
		return nil, errors.MalformedSchema(path, "missing "+field)
	}
	var values []int
	if err := json.Unmarshal(v, &values); err != nil {
		return nil, errors.MalformedSchema(path, field+" must be a list of integers")
	}
	return values, nil
}

//Personal.AI order the ending
