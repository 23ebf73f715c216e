// Package repository defines the persistence contracts for saved templates,
// assembly schemas and evaluation jobs.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
)

// DefaultListLimit is used when ListOptions.Limit is not positive.
const DefaultListLimit = 100

// ListOptions pages a List call.
type ListOptions struct {
	Skip  int
	Limit int
}

// Normalize clamps negative offsets and applies DefaultListLimit.
func (o ListOptions) Normalize() ListOptions {
	if o.Skip < 0 {
		o.Skip = 0
	}
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	return o
}

// TemplateRecord is a saved filter template. Config is always stored in its
// stripped form.
type TemplateRecord struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Config    filter.TemplateConfig `json:"template_config"`
	Version   int                   `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// AssemblySchemaRecord is a saved assembly schema. Schema is kept as
// submitted and compiled when used.
type AssemblySchemaRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AssemblyType assembly.Family `json:"assembly_type"`
	Schema       json.RawMessage `json:"assembly_schema"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TemplateRepository persists TemplateRecords.
//
// Update and Delete return a not-found AppError (TPL_001) for unknown ids.
// Update compares Version when it is non-zero and returns a conflict AppError
// when the stored version differs; a zero Version overwrites unconditionally.
type TemplateRepository interface {
	Create(ctx context.Context, rec *TemplateRecord) error
	Get(ctx context.Context, id string) (*TemplateRecord, error)
	List(ctx context.Context, opts ListOptions) ([]*TemplateRecord, error)
	Update(ctx context.Context, rec *TemplateRecord) error
	Delete(ctx context.Context, id string) error
}

// AssemblySchemaRepository persists AssemblySchemaRecords with the same
// conventions as TemplateRepository (not-found code ASM_002).
type AssemblySchemaRepository interface {
	Create(ctx context.Context, rec *AssemblySchemaRecord) error
	Get(ctx context.Context, id string) (*AssemblySchemaRecord, error)
	List(ctx context.Context, opts ListOptions) ([]*AssemblySchemaRecord, error)
	Update(ctx context.Context, rec *AssemblySchemaRecord) error
	Delete(ctx context.Context, id string) error
}

//Personal.AI order the ending
