// Package memrepo provides in-memory repository implementations for tests.
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// TemplateRepo is an in-process repository.TemplateRepository with the
// same id, versioning and not-found rules as the postgres implementation.
type TemplateRepo struct {
	mu    sync.Mutex
	items map[string]repository.TemplateRecord
	// Err, when set, is returned by every call.
	Err error
	// Gets counts Get calls.
	Gets int
}

func NewTemplateRepo() *TemplateRepo {
	return &TemplateRepo{items: map[string]repository.TemplateRecord{}}
}

func templateNotFound(id string) error {
	return errors.New(errors.ErrCodeTemplateNotFound, fmt.Sprintf("template %s not found", id))
}

func (r *TemplateRepo) Create(_ context.Context, rec *repository.TemplateRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, dup := r.items[rec.ID]; dup {
		return errors.Conflict("template already exists")
	}
	now := time.Now().UTC()
	rec.Version, rec.CreatedAt, rec.UpdatedAt = 1, now, now
	r.items[rec.ID] = *rec
	return nil
}

func (r *TemplateRepo) Get(_ context.Context, id string) (*repository.TemplateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gets++
	if r.Err != nil {
		return nil, r.Err
	}
	rec, ok := r.items[id]
	if !ok {
		return nil, templateNotFound(id)
	}
	return &rec, nil
}

func (r *TemplateRepo) List(_ context.Context, opts repository.ListOptions) ([]*repository.TemplateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	all := make([]*repository.TemplateRecord, 0, len(r.items))
	for _, rec := range r.items {
		rec := rec
		all = append(all, &rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, opts), nil
}

func (r *TemplateRepo) Update(_ context.Context, rec *repository.TemplateRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cur, ok := r.items[rec.ID]
	if !ok {
		return templateNotFound(rec.ID)
	}
	if rec.Version > 0 && rec.Version != cur.Version {
		return errors.Conflict("version mismatch: the record was modified concurrently")
	}
	rec.Version = cur.Version + 1
	rec.CreatedAt = cur.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	r.items[rec.ID] = *rec
	return nil
}

func (r *TemplateRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.items[id]; !ok {
		return templateNotFound(id)
	}
	delete(r.items, id)
	return nil
}

// AssemblySchemaRepo is the assembly-schema counterpart of
// TemplateRepo.
type AssemblySchemaRepo struct {
	mu    sync.Mutex
	items map[string]repository.AssemblySchemaRecord
	Err   error
}

func NewAssemblySchemaRepo() *AssemblySchemaRepo {
	return &AssemblySchemaRepo{items: map[string]repository.AssemblySchemaRecord{}}
}

func schemaNotFound(id string) error {
	return errors.New(errors.ErrCodeAssemblySchemaNotFound, fmt.Sprintf("assembly schema %s not found", id))
}

func (r *AssemblySchemaRepo) Create(_ context.Context, rec *repository.AssemblySchemaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.Version, rec.CreatedAt, rec.UpdatedAt = 1, now, now
	r.items[rec.ID] = *rec
	return nil
}

func (r *AssemblySchemaRepo) Get(_ context.Context, id string) (*repository.AssemblySchemaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	rec, ok := r.items[id]
	if !ok {
		return nil, schemaNotFound(id)
	}
	return &rec, nil
}

func (r *AssemblySchemaRepo) List(_ context.Context, opts repository.ListOptions) ([]*repository.AssemblySchemaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	all := make([]*repository.AssemblySchemaRecord, 0, len(r.items))
	for _, rec := range r.items {
		rec := rec
		all = append(all, &rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, opts), nil
}

func (r *AssemblySchemaRepo) Update(_ context.Context, rec *repository.AssemblySchemaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cur, ok := r.items[rec.ID]
	if !ok {
		return schemaNotFound(rec.ID)
	}
	if rec.Version > 0 && rec.Version != cur.Version {
		return errors.Conflict("version mismatch: the record was modified concurrently")
	}
	rec.Version = cur.Version + 1
	rec.CreatedAt = cur.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	r.items[rec.ID] = *rec
	return nil
}

func (r *AssemblySchemaRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.items[id]; !ok {
		return schemaNotFound(id)
	}
	delete(r.items, id)
	return nil
}

// JobRepo is an in-process repository.JobRepository.
type JobRepo struct {
	mu    sync.Mutex
	items map[string]repository.EvaluationJob
	Err   error
	// Transitions records every status passed to UpdateStatus, per job.
	Transitions map[string][]repository.JobStatus
}

func NewJobRepo() *JobRepo {
	return &JobRepo{
		items:       map[string]repository.EvaluationJob{},
		Transitions: map[string][]repository.JobStatus{},
	}
}

func jobNotFound(id string) error {
	return errors.New(errors.ErrCodeJobNotFound, fmt.Sprintf("job %s not found", id))
}

func (r *JobRepo) Create(_ context.Context, job *repository.EvaluationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = repository.JobPending
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	r.items[job.ID] = *job
	return nil
}

func (r *JobRepo) Get(_ context.Context, id string) (*repository.EvaluationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	job, ok := r.items[id]
	if !ok {
		return nil, jobNotFound(id)
	}
	return &job, nil
}

func (r *JobRepo) UpdateStatus(_ context.Context, id string, status repository.JobStatus, resultKey, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	job, ok := r.items[id]
	if !ok {
		return jobNotFound(id)
	}
	now := time.Now().UTC()
	job.Status = status
	job.UpdatedAt = now
	if resultKey != "" {
		job.ResultKey = resultKey
	}
	job.Error = errMsg
	if status.IsTerminal() {
		job.CompletedAt = &now
	}
	r.items[id] = job
	r.Transitions[id] = append(r.Transitions[id], status)
	return nil
}

func page[T any](all []T, opts repository.ListOptions) []T {
	opts = opts.Normalize()
	if opts.Skip >= len(all) {
		return []T{}
	}
	end := opts.Skip + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[opts.Skip:end]
}

var (
	_ repository.TemplateRepository       = (*TemplateRepo)(nil)
	_ repository.AssemblySchemaRepository = (*AssemblySchemaRepo)(nil)
	_ repository.JobRepository            = (*JobRepo)(nil)
)

//Personal.AI order the ending
