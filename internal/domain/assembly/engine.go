package assembly

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/turtacn/chemtemplates/pkg/errors"
)

// Request is a complete assembly run: a raw schema plus its inputs.
type Request struct {
	Schema   json.RawMessage        `json:"assembly_schema"`
	Mapped   map[string][]InputItem `json:"input_schema"`
	Unmapped []InputItem            `json:"unmapped_inputs"`
}

// Engine chains compilation, pool building and execution. The steps run
// strictly in sequence; compilation failures abort before any input is
// validated.
type Engine struct {
	compiler *Compiler
	pools    *PoolBuilder
	executor *Executor
}

func NewEngine(compiler *Compiler, pools *PoolBuilder, executor *Executor) *Engine {
	return &Engine{compiler: compiler, pools: pools, executor: executor}
}

// Compiler returns the schema compiler used by the engine.
func (e *Engine) Compiler() *Compiler { return e.compiler }

// Assemble compiles req.Schema and runs it. When family is non-empty the
// schema must belong to it.
func (e *Engine) Assemble(ctx context.Context, family Family, req Request) ([]Result, error) {
	tree, err := e.compiler.Compile(ctx, req.Schema)
	if err != nil {
		return nil, err
	}
	if family != "" && FamilyOf(tree) != family {
		return nil, errors.New(errors.ErrCodeAssemblyTypeInvalid,
			fmt.Sprintf("expected a %s assembly schema, got %s", family, FamilyOf(tree)))
	}
	return e.Run(ctx, tree, req.Mapped, req.Unmapped)
}

// Run builds pools for an already compiled tree and executes it.
func (e *Engine) Run(ctx context.Context, tree Node, mapped map[string][]InputItem, unmapped []InputItem) ([]Result, error) {
	pools, err := e.pools.Build(ctx, tree, mapped, unmapped)
	if err != nil {
		return nil, err
	}
	return e.executor.Run(ctx, tree, pools)
}

//Personal.AI order the ending
