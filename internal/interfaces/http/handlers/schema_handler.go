package handlers

import (
	"encoding/json"
	"net/http"

	appAsm "github.com/turtacn/chemtemplates/internal/application/assembly"
	domainAsm "github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
)

// SchemaRequest creates or replaces a saved assembly schema.
type SchemaRequest struct {
	Name           string           `json:"name" validate:"max=256"`
	AssemblyType   domainAsm.Family `json:"assembly_type" validate:"required,oneof=synthon fragment"`
	AssemblySchema json.RawMessage  `json:"assembly_schema" validate:"required"`
	Version        int              `json:"version" validate:"gte=0"`
}

// RunSchemaRequest carries the inputs of a run against a saved schema.
type RunSchemaRequest struct {
	InputSchema    map[string][]domainAsm.InputItem `json:"input_schema" validate:"omitempty,dive,dive"`
	UnmappedInputs []domainAsm.InputItem            `json:"unmapped_inputs" validate:"omitempty,dive"`
}

// SchemaHandler serves saved assembly schemas.
type SchemaHandler struct {
	svc    appAsm.Service
	logger logging.Logger
}

func NewSchemaHandler(svc appAsm.Service, logger logging.Logger) *SchemaHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SchemaHandler{svc: svc, logger: logger}
}

func (h *SchemaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SchemaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	rec, err := h.svc.CreateSchema(r.Context(), &appAsm.SchemaInput{
		Name:         req.Name,
		AssemblyType: req.AssemblyType,
		Schema:       req.AssemblySchema,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	recs, err := h.svc.ListSchemas(r.Context(), opts)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetSchema(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *SchemaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SchemaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	version, err := versionParam(r, req.Version)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	rec, err := h.svc.UpdateSchema(r.Context(), &appAsm.SchemaInput{
		ID:           pathID(r),
		Name:         req.Name,
		AssemblyType: req.AssemblyType,
		Schema:       req.AssemblySchema,
		Version:      version,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *SchemaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSchema(r.Context(), pathID(r)); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Assemble handles POST /assembly-schemas/{id}/assemble. An empty body runs
// the schema with no inputs.
func (h *SchemaHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	var req RunSchemaRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
	}
	results, err := h.svc.AssembleSchema(r.Context(), pathID(r), &appAsm.InputSchema{
		Mapped:   req.InputSchema,
		Unmapped: req.UnmappedInputs,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if results == nil {
		results = []domainAsm.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

//Personal.AI order the ending
