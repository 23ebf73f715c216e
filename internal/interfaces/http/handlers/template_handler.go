package handlers

import (
	"net/http"

	"github.com/turtacn/chemtemplates/internal/application/templates"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
)

// EvaluateRequest evaluates queries against an inline template.
type EvaluateRequest struct {
	TemplateConfig *filter.TemplateConfig `json:"template_config" validate:"required"`
	Queries        []string               `json:"queries" validate:"required,min=1"`
}

// EvaluateSavedRequest evaluates queries against a saved template.
type EvaluateSavedRequest struct {
	Queries []string `json:"queries" validate:"required,min=1"`
}

// TemplateRequest creates or replaces a saved template.
type TemplateRequest struct {
	Name           string                 `json:"name" validate:"max=256"`
	TemplateConfig *filter.TemplateConfig `json:"template_config" validate:"required"`
	Version        int                    `json:"version" validate:"gte=0"`
}

// TemplateHandler serves filter descriptions, template stripping and
// evaluation, and saved-template CRUD.
type TemplateHandler struct {
	svc    templates.Service
	logger logging.Logger
}

func NewTemplateHandler(svc templates.Service, logger logging.Logger) *TemplateHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TemplateHandler{svc: svc, logger: logger}
}

// Descriptions handles GET /filters/descriptions.
func (h *TemplateHandler) Descriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Descriptions())
}

// Base handles GET /templates/base.
func (h *TemplateHandler) Base(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.BaseTemplate())
}

// Strip handles POST /templates/strip.
func (h *TemplateHandler) Strip(w http.ResponseWriter, r *http.Request) {
	var cfg filter.TemplateConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Strip(r.Context(), cfg)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Evaluate handles POST /templates/evaluate.
func (h *TemplateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	returnData, err := queryBoolDefault(r, "return_data", true)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	var req EvaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.evaluate(w, r, &templates.EvaluateInput{Queries: req.Queries, Config: req.TemplateConfig, ReturnData: returnData})
}

// EvaluateSaved handles POST /templates/{id}/evaluate.
func (h *TemplateHandler) EvaluateSaved(w http.ResponseWriter, r *http.Request) {
	returnData, err := queryBoolDefault(r, "return_data", true)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	var req EvaluateSavedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.evaluate(w, r, &templates.EvaluateInput{Queries: req.Queries, TemplateID: pathID(r), ReturnData: returnData})
}

func (h *TemplateHandler) evaluate(w http.ResponseWriter, r *http.Request, in *templates.EvaluateInput) {
	results, err := h.svc.Evaluate(r.Context(), in)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Create handles POST /templates.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), &templates.CreateInput{Name: req.Name, Config: *req.TemplateConfig})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// List handles GET /templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	recs, err := h.svc.List(r.Context(), opts)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Get handles GET /templates/{id}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Update handles PUT /templates/{id}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	version, err := versionParam(r, req.Version)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	rec, err := h.svc.Update(r.Context(), &templates.UpdateInput{
		ID:      pathID(r),
		Name:    req.Name,
		Config:  *req.TemplateConfig,
		Version: version,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /templates/{id}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), pathID(r)); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//Personal.AI order the ending
