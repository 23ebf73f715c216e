package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// AssemblyClient covers building-block and fragment assembly as well as
// saved assembly schemas.
type AssemblyClient struct {
	client *Client
}

// Synthons derives the synthons of each building block.
func (a *AssemblyClient) Synthons(ctx context.Context, inputs []string) ([]SynthonSet, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one input is required")
	}
	body := struct {
		Inputs []string `json:"inputs"`
	}{inputs}

	var out []SynthonSet
	if err := a.client.post(ctx, apiPrefix+"/building-blocks/synthons", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AssemblyClient) Mechanisms(ctx context.Context) ([]Mechanism, error) {
	var out []Mechanism
	if err := a.client.get(ctx, apiPrefix+"/building-blocks/reaction-mechanisms", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Description returns the schema documentation of family.
func (a *AssemblyClient) Description(ctx context.Context, family string) (json.RawMessage, error) {
	var path string
	switch family {
	case FamilySynthon:
		path = "/building-blocks/description"
	case FamilyFragment:
		path = "/fragments/description"
	default:
		return nil, fmt.Errorf("unknown assembly family %q", family)
	}
	var out json.RawMessage
	if err := a.client.get(ctx, apiPrefix+path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PresetSchema returns the blank "2bb" or "3bb" schema.
func (a *AssemblyClient) PresetSchema(ctx context.Context, kind string) (json.RawMessage, error) {
	if kind == "" {
		return nil, fmt.Errorf("preset kind is required")
	}
	var out json.RawMessage
	if err := a.client.get(ctx, apiPrefix+"/building-blocks/schemas/"+url.PathEscape(kind), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssemblePreset runs a "2bb" or "3bb" request body.
func (a *AssemblyClient) AssemblePreset(ctx context.Context, kind string, req json.RawMessage) ([]AssemblyResult, error) {
	if kind != "2bb" && kind != "3bb" {
		return nil, fmt.Errorf("unknown preset %q", kind)
	}
	var out []AssemblyResult
	if err := a.client.post(ctx, apiPrefix+"/building-blocks/assemble/"+kind, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Assemble runs an inline schema of family.
func (a *AssemblyClient) Assemble(ctx context.Context, family string, req *AssembleRequest) ([]AssemblyResult, error) {
	if req == nil || len(req.Schema) == 0 {
		return nil, fmt.Errorf("assembly schema is required")
	}
	var path string
	switch family {
	case FamilySynthon:
		path = "/building-blocks/assemble/custom"
	case FamilyFragment:
		path = "/fragments/assemble/custom"
	default:
		return nil, fmt.Errorf("unknown assembly family %q", family)
	}
	var out []AssemblyResult
	if err := a.client.post(ctx, apiPrefix+path, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AssemblyClient) CreateSchema(ctx context.Context, req *SchemaRequest) (*Schema, error) {
	if req == nil || len(req.Schema) == 0 {
		return nil, fmt.Errorf("assembly schema is required")
	}
	var out Schema
	if err := a.client.post(ctx, apiPrefix+"/assembly-schemas", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AssemblyClient) GetSchema(ctx context.Context, id string) (*Schema, error) {
	if id == "" {
		return nil, fmt.Errorf("schema id is required")
	}
	var out Schema
	if err := a.client.get(ctx, apiPrefix+"/assembly-schemas/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AssemblyClient) ListSchemas(ctx context.Context, opts *ListOptions) ([]Schema, error) {
	var out []Schema
	if err := a.client.get(ctx, apiPrefix+"/assembly-schemas"+listQuery(opts), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AssemblyClient) UpdateSchema(ctx context.Context, id string, req *SchemaRequest) (*Schema, error) {
	if id == "" {
		return nil, fmt.Errorf("schema id is required")
	}
	if req == nil || len(req.Schema) == 0 {
		return nil, fmt.Errorf("assembly schema is required")
	}
	var out Schema
	if err := a.client.put(ctx, apiPrefix+"/assembly-schemas/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AssemblyClient) DeleteSchema(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("schema id is required")
	}
	return a.client.delete(ctx, apiPrefix+"/assembly-schemas/"+url.PathEscape(id))
}

// RunSchema assembles the saved schema id with the given inputs.
func (a *AssemblyClient) RunSchema(ctx context.Context, id string, mapped map[string][]InputItem, unmapped []InputItem) ([]AssemblyResult, error) {
	if id == "" {
		return nil, fmt.Errorf("schema id is required")
	}
	body := struct {
		InputSchema    map[string][]InputItem `json:"input_schema,omitempty"`
		UnmappedInputs []InputItem            `json:"unmapped_inputs,omitempty"`
	}{mapped, unmapped}

	var out []AssemblyResult
	if err := a.client.post(ctx, apiPrefix+"/assembly-schemas/"+url.PathEscape(id)+"/assemble", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

//Personal.AI order the ending
