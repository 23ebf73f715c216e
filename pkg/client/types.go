package client

import (
	"encoding/json"
	"time"
)

// ListOptions pages through saved resources.
type ListOptions struct {
	Skip  int
	Limit int
}

// HealthStatus is the liveness answer of the server.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Template is a saved filter template. Config is kept raw so callers can
// build it with their own types.
type Template struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"template_config"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TemplateRequest creates or replaces a saved template. Version enables the
// optimistic check on update; zero skips it.
type TemplateRequest struct {
	Name    string          `json:"name,omitempty"`
	Config  json.RawMessage `json:"template_config"`
	Version int             `json:"version,omitempty"`
}

// StripResult is a template reduced to its active filters.
type StripResult struct {
	Config  json.RawMessage `json:"template_config"`
	Dropped []Diagnostic    `json:"dropped,omitempty"`
}

// Diagnostic names a filter removed while stripping and why.
type Diagnostic struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Reason   string `json:"reason"`
}

// FilterResult is the outcome of one query against a template.
type FilterResult struct {
	Input        string          `json:"input"`
	Index        int             `json:"index"`
	Result       bool            `json:"result"`
	TemplateData json.RawMessage `json:"template_data"`
}

// MoleculeValues holds computed properties or catalog memberships.
type MoleculeValues struct {
	Input  string                 `json:"input"`
	Index  int                    `json:"index"`
	Valid  bool                   `json:"valid"`
	Values map[string]interface{} `json:"values,omitempty"`
}

// InputItem is one building block or fragment with caller data.
type InputItem struct {
	Input string                 `json:"input"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// AssembleRequest is a one-shot run of an inline schema.
type AssembleRequest struct {
	Schema         json.RawMessage        `json:"assembly_schema"`
	InputSchema    map[string][]InputItem `json:"input_schema,omitempty"`
	UnmappedInputs []InputItem            `json:"unmapped_inputs,omitempty"`
}

// AssemblyResult is one assembled product with its provenance tree kept raw.
type AssemblyResult struct {
	Result       string          `json:"result"`
	IsInput      bool            `json:"is_input"`
	Input        string          `json:"input,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	AssemblyData json.RawMessage `json:"assembly_data"`
}

// SynthonSet lists the synthons derived from one building block.
type SynthonSet struct {
	Input      string    `json:"input"`
	Index      int       `json:"index"`
	ValidInput bool      `json:"valid_input"`
	Synthons   []Synthon `json:"synthons"`
}

type Synthon struct {
	Synthon      string   `json:"synthon"`
	ReactionTags []string `json:"reaction_tags"`
}

type Mechanism struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Schema is a saved assembly schema.
type Schema struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AssemblyType string          `json:"assembly_type"`
	Schema       json.RawMessage `json:"assembly_schema"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SchemaRequest creates or replaces a saved assembly schema.
type SchemaRequest struct {
	Name         string          `json:"name,omitempty"`
	AssemblyType string          `json:"assembly_type"`
	Schema       json.RawMessage `json:"assembly_schema"`
	Version      int             `json:"version,omitempty"`
}

// Assembly families accepted by SchemaRequest.AssemblyType.
const (
	FamilySynthon  = "synthon"
	FamilyFragment = "fragment"
)

// SubmitJobRequest queues an asynchronous evaluation. Exactly one of
// TemplateID and TemplateConfig must be set.
type SubmitJobRequest struct {
	TemplateID     string          `json:"template_id,omitempty"`
	TemplateConfig json.RawMessage `json:"template_config,omitempty"`
	Queries        []string        `json:"queries"`
	ReturnData     *bool           `json:"return_data,omitempty"`
}

// Job states reported by the server.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// Job is an evaluation job with a presigned result link once it succeeded.
type Job struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	TemplateID  string     `json:"template_id,omitempty"`
	Queries     int        `json:"queries"`
	Error       string     `json:"error,omitempty"`
	ResultURL   string     `json:"result_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

//Personal.AI order the ending
