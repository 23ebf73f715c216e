package handlers

import (
	"net/http"

	"github.com/turtacn/chemtemplates/internal/application/templates"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
)

// LookupRequest asks for named properties or catalogs of each input. An
// empty Names list means every registered name.
type LookupRequest struct {
	Inputs []string `json:"inputs" validate:"required,min=1,max=10000"`
	Names  []string `json:"names"`
}

// MoleculeHandler serves per-molecule property and catalog lookups.
type MoleculeHandler struct {
	svc    templates.Service
	logger logging.Logger
}

func NewMoleculeHandler(svc templates.Service, logger logging.Logger) *MoleculeHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MoleculeHandler{svc: svc, logger: logger}
}

// Properties handles POST /molecules/properties.
func (h *MoleculeHandler) Properties(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ComputeProperties(r.Context(), req.Inputs, req.Names)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Catalogs handles POST /molecules/catalogs.
func (h *MoleculeHandler) Catalogs(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ComputeCatalogs(r.Context(), req.Inputs, req.Names)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

//Personal.AI order the ending
