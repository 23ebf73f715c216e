package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	appAsm "github.com/turtacn/chemtemplates/internal/application/assembly"
	domainAsm "github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
)

// SynthonsRequest lists building blocks to decompose.
type SynthonsRequest struct {
	Inputs []string `json:"inputs" validate:"required,min=1,max=10000"`
}

// AssembleRequest is a one-shot assembly with an inline schema.
type AssembleRequest struct {
	AssemblySchema json.RawMessage                  `json:"assembly_schema" validate:"required"`
	InputSchema    map[string][]domainAsm.InputItem `json:"input_schema" validate:"omitempty,dive,dive"`
	UnmappedInputs []domainAsm.InputItem            `json:"unmapped_inputs" validate:"omitempty,dive"`
}

func (a AssembleRequest) request() domainAsm.Request {
	return domainAsm.Request{Schema: a.AssemblySchema, Mapped: a.InputSchema, Unmapped: a.UnmappedInputs}
}

// AssemblyHandler serves the building-block and fragment endpoints.
type AssemblyHandler struct {
	svc    appAsm.Service
	logger logging.Logger
}

func NewAssemblyHandler(svc appAsm.Service, logger logging.Logger) *AssemblyHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AssemblyHandler{svc: svc, logger: logger}
}

// Synthons handles POST /building-blocks/synthons.
func (h *AssemblyHandler) Synthons(w http.ResponseWriter, r *http.Request) {
	var req SynthonsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ComputeSynthons(r.Context(), req.Inputs)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AssemblyHandler) BuildingBlockDescription(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.BuildingBlockDescription())
}

func (h *AssemblyHandler) FragmentDescription(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.FragmentDescription())
}

// ReactionMechanisms handles GET /building-blocks/reaction-mechanisms.
func (h *AssemblyHandler) ReactionMechanisms(w http.ResponseWriter, r *http.Request) {
	mechs, err := h.svc.ReactionMechanisms(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mechs)
}

// PresetSchema handles GET /building-blocks/schemas/{kind}.
func (h *AssemblyHandler) PresetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.BasePresetSchema(r.Context(), domainAsm.PresetKind(chi.URLParam(r, "kind")))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

// StripPresetSchema handles POST /building-blocks/schemas/strip.
func (h *AssemblyHandler) StripPresetSchema(w http.ResponseWriter, r *http.Request) {
	var schema domainAsm.PresetSchema
	if err := readJSON(r, &schema); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	out, err := h.svc.StripPresetSchema(r.Context(), schema)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AssembleTwoBB handles POST /building-blocks/assemble/2bb.
func (h *AssemblyHandler) AssembleTwoBB(w http.ResponseWriter, r *http.Request) {
	var req domainAsm.TwoBBRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.svc.AssembleTwoBB(r.Context(), req))
}

// AssembleThreeBB handles POST /building-blocks/assemble/3bb.
func (h *AssemblyHandler) AssembleThreeBB(w http.ResponseWriter, r *http.Request) {
	var req domainAsm.ThreeBBRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.svc.AssembleThreeBB(r.Context(), req))
}

// AssembleSynthons handles POST /building-blocks/assemble/custom.
func (h *AssemblyHandler) AssembleSynthons(w http.ResponseWriter, r *http.Request) {
	h.custom(w, r, domainAsm.FamilySynthon)
}

// AssembleFragments handles POST /fragments/assemble/custom.
func (h *AssemblyHandler) AssembleFragments(w http.ResponseWriter, r *http.Request) {
	h.custom(w, r, domainAsm.FamilyFragment)
}

func (h *AssemblyHandler) custom(w http.ResponseWriter, r *http.Request, family domainAsm.Family) {
	var req AssembleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.svc.AssembleCustom(r.Context(), family, req.request()))
}

func (h *AssemblyHandler) respond(w http.ResponseWriter, r *http.Request) func([]domainAsm.Result, error) {
	return func(results []domainAsm.Result, err error) {
		if err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		if results == nil {
			results = []domainAsm.Result{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

//Personal.AI order the ending
