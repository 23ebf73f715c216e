package handlers

import (
	"net/http"

	"github.com/turtacn/chemtemplates/internal/application/jobs"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
)

// SubmitJobRequest queues a batch evaluation. Exactly one of TemplateID and
// TemplateConfig must be set.
type SubmitJobRequest struct {
	TemplateID     string                 `json:"template_id" validate:"required_without=TemplateConfig,excluded_with=TemplateConfig"`
	TemplateConfig *filter.TemplateConfig `json:"template_config"`
	Queries        []string               `json:"queries" validate:"required,min=1"`
	ReturnData     *bool                  `json:"return_data"`
}

func (r SubmitJobRequest) returnData() bool {
	return r.ReturnData == nil || *r.ReturnData
}

// JobHandler serves asynchronous evaluation jobs.
type JobHandler struct {
	svc    jobs.Service
	logger logging.Logger
}

func NewJobHandler(svc jobs.Service, logger logging.Logger) *JobHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &JobHandler{svc: svc, logger: logger}
}

// Submit handles POST /jobs/evaluations and answers 202 with the pending job.
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	job, err := h.svc.Submit(r.Context(), &jobs.SubmitInput{
		TemplateID: req.TemplateID,
		Config:     req.TemplateConfig,
		Queries:    req.Queries,
		ReturnData: req.returnData(),
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// Get handles GET /jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

//Personal.AI order the ending
