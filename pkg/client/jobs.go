package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// JobsClient submits and polls asynchronous evaluation jobs.
type JobsClient struct {
	client *Client
}

func (j *JobsClient) Submit(ctx context.Context, req *SubmitJobRequest) (*Job, error) {
	if req == nil || len(req.Queries) == 0 {
		return nil, fmt.Errorf("at least one query is required")
	}
	if (req.TemplateID == "") == (len(req.TemplateConfig) == 0) {
		return nil, fmt.Errorf("exactly one of template id and template config is required")
	}
	var out Job
	if err := j.client.post(ctx, apiPrefix+"/jobs/evaluations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *JobsClient) Get(ctx context.Context, id string) (*Job, error) {
	if id == "" {
		return nil, fmt.Errorf("job id is required")
	}
	var out Job
	if err := j.client.get(ctx, apiPrefix+"/jobs/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wait polls the job every interval until it is done or ctx ends.
func (j *JobsClient) Wait(ctx context.Context, id string, interval time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := j.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Done() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

//Personal.AI order the ending
