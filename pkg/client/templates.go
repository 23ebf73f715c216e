package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// TemplatesClient covers filter descriptions, template evaluation and saved
// templates.
type TemplatesClient struct {
	client *Client
}

// Descriptions returns the documentation of every filter category as sent
// by the server.
func (t *TemplatesClient) Descriptions(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := t.client.get(ctx, apiPrefix+"/filters/descriptions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Base returns the default template with every filter present and inactive.
func (t *TemplatesClient) Base(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := t.client.get(ctx, apiPrefix+"/templates/base", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Strip removes inactive filters from config.
func (t *TemplatesClient) Strip(ctx context.Context, config json.RawMessage) (*StripResult, error) {
	if len(config) == 0 {
		return nil, fmt.Errorf("template config is required")
	}
	var out StripResult
	if err := t.client.post(ctx, apiPrefix+"/templates/strip", config, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Evaluate runs queries against an inline template. With returnData false
// the per-filter data is omitted.
func (t *TemplatesClient) Evaluate(ctx context.Context, config json.RawMessage, queries []string, returnData bool) ([]FilterResult, error) {
	if len(config) == 0 {
		return nil, fmt.Errorf("template config is required")
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one query is required")
	}
	body := struct {
		Config  json.RawMessage `json:"template_config"`
		Queries []string        `json:"queries"`
	}{config, queries}

	var out []FilterResult
	path := apiPrefix + "/templates/evaluate" + returnDataQuery(returnData)
	if err := t.client.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateSaved runs queries against the saved template id.
func (t *TemplatesClient) EvaluateSaved(ctx context.Context, id string, queries []string, returnData bool) ([]FilterResult, error) {
	if id == "" {
		return nil, fmt.Errorf("template id is required")
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one query is required")
	}
	body := struct {
		Queries []string `json:"queries"`
	}{queries}

	var out []FilterResult
	path := apiPrefix + "/templates/" + url.PathEscape(id) + "/evaluate" + returnDataQuery(returnData)
	if err := t.client.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TemplatesClient) Create(ctx context.Context, req *TemplateRequest) (*Template, error) {
	if req == nil || len(req.Config) == 0 {
		return nil, fmt.Errorf("template config is required")
	}
	var out Template
	if err := t.client.post(ctx, apiPrefix+"/templates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TemplatesClient) Get(ctx context.Context, id string) (*Template, error) {
	if id == "" {
		return nil, fmt.Errorf("template id is required")
	}
	var out Template
	if err := t.client.get(ctx, apiPrefix+"/templates/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TemplatesClient) List(ctx context.Context, opts *ListOptions) ([]Template, error) {
	var out []Template
	if err := t.client.get(ctx, apiPrefix+"/templates"+listQuery(opts), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the saved template. A stale req.Version yields an
// APIError for which IsConflict is true.
func (t *TemplatesClient) Update(ctx context.Context, id string, req *TemplateRequest) (*Template, error) {
	if id == "" {
		return nil, fmt.Errorf("template id is required")
	}
	if req == nil || len(req.Config) == 0 {
		return nil, fmt.Errorf("template config is required")
	}
	var out Template
	if err := t.client.put(ctx, apiPrefix+"/templates/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TemplatesClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("template id is required")
	}
	return t.client.delete(ctx, apiPrefix+"/templates/"+url.PathEscape(id))
}

// Properties computes the named properties (all when names is empty).
func (t *TemplatesClient) Properties(ctx context.Context, inputs, names []string) ([]MoleculeValues, error) {
	return t.lookup(ctx, "/molecules/properties", inputs, names)
}

// Catalogs checks catalog membership for the named catalogs.
func (t *TemplatesClient) Catalogs(ctx context.Context, inputs, names []string) ([]MoleculeValues, error) {
	return t.lookup(ctx, "/molecules/catalogs", inputs, names)
}

func (t *TemplatesClient) lookup(ctx context.Context, path string, inputs, names []string) ([]MoleculeValues, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one input is required")
	}
	body := struct {
		Inputs []string `json:"inputs"`
		Names  []string `json:"names,omitempty"`
	}{inputs, names}

	var out []MoleculeValues
	if err := t.client.post(ctx, apiPrefix+path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func returnDataQuery(returnData bool) string {
	if returnData {
		return ""
	}
	return "?return_data=false"
}

//Personal.AI order the ending
