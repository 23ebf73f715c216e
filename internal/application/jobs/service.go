// Package jobs runs template evaluations asynchronously. Submit stores the
// request in object storage and announces it on the message bus; the worker
// picks it up through HandleMessage, evaluates it and stores the result.
package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/chemtemplates/internal/application/templates"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/domain/repository"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/redis"
	"github.com/turtacn/chemtemplates/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// PayloadStore keeps request and result documents.
type PayloadStore interface {
	PutRequest(ctx context.Context, jobID string, v interface{}) (string, error)
	PutResult(ctx context.Context, jobID string, v interface{}) (string, error)
	Load(ctx context.Context, key string, dest interface{}) error
	URL(ctx context.Context, key string) (string, error)
}

// EventPublisher sends job events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// Evaluator is the part of the template service a job needs.
type Evaluator interface {
	Evaluate(ctx context.Context, input *templates.EvaluateInput) ([]filter.EvalResult, error)
	ResolveTemplate(ctx context.Context, id string) (filter.TemplateConfig, error)
}

// Service defines the evaluation job operations.
type Service interface {
	Submit(ctx context.Context, input *SubmitInput) (*repository.EvaluationJob, error)
	Get(ctx context.Context, id string) (*JobView, error)
	// HandleMessage is the consumer callback for evaluation requests.
	HandleMessage(ctx context.Context, msg *kafka.Message) error
	Process(ctx context.Context, req kafka.EvaluationRequestedPayload) error
}

// SubmitInput describes one batch evaluation.
type SubmitInput struct {
	TemplateID string
	Config     *filter.TemplateConfig
	Queries    []string
	ReturnData bool
}

// RequestDocument is the stored form of a submitted job.
type RequestDocument struct {
	TemplateID     string                 `json:"template_id,omitempty"`
	TemplateConfig *filter.TemplateConfig `json:"template_config,omitempty"`
	Queries        []string               `json:"queries"`
	ReturnData     bool                   `json:"return_data"`
}

// ResultDocument is the stored outcome of a finished job.
type ResultDocument struct {
	JobID       string              `json:"job_id"`
	Passed      int                 `json:"passed"`
	Failed      int                 `json:"failed"`
	Results     []filter.EvalResult `json:"results"`
	CompletedAt time.Time           `json:"completed_at"`
}

// JobView is a job plus a download link once the result exists.
type JobView struct {
	*repository.EvaluationJob
	ResultURL string `json:"result_url,omitempty"`
}

// Config names the topics and the event source.
type Config struct {
	TopicPrefix string
	Source      string
	MaxQueries  int
}

type serviceImpl struct {
	repo      repository.JobRepository
	store     PayloadStore
	publisher EventPublisher
	evaluator Evaluator
	config    Config
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	now       func() time.Time
	locks     redis.LockFactory
	leaseTTL  time.Duration
}

// DefaultLeaseTTL is how long a job lease outlives its holder. It stays
// below the consumer group session timeout, so a message redelivered after a
// crash finds the lease expired.
const DefaultLeaseTTL = 15 * time.Second

// Option configures the job service.
type Option func(*serviceImpl)

// WithLocks makes Process hold a per-job lease, renewed every ttl/3 while the
// job runs. A request for a job leased elsewhere fails with a retryable error.
func WithLocks(locks redis.LockFactory, ttl time.Duration) Option {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return func(s *serviceImpl) {
		s.locks = locks
		s.leaseTTL = ttl
	}
}

// NewService creates a new job service.
func NewService(repo repository.JobRepository, store PayloadStore, publisher EventPublisher, evaluator Evaluator, cfg Config, metrics *prometheus.AppMetrics, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Source == "" {
		cfg.Source = "chemtemplates"
	}
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = templates.DefaultMaxBatchSize
	}
	s := &serviceImpl{
		repo:      repo,
		store:     store,
		publisher: publisher,
		evaluator: evaluator,
		config:    cfg,
		metrics:   metrics,
		logger:    logger.Named("jobs"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) requestedTopic() string {
	return kafka.TopicName(s.config.TopicPrefix, kafka.TopicEvaluationRequested)
}

func (s *serviceImpl) completedTopic() string {
	return kafka.TopicName(s.config.TopicPrefix, kafka.TopicEvaluationCompleted)
}

func (s *serviceImpl) Submit(ctx context.Context, input *SubmitInput) (*repository.EvaluationJob, error) {
	if err := validateSubmit(input, s.config.MaxQueries); err != nil {
		return nil, err
	}
	if input.TemplateID != "" {
		if _, err := s.evaluator.ResolveTemplate(ctx, input.TemplateID); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	key, err := s.store.PutRequest(ctx, id, RequestDocument{
		TemplateID:     input.TemplateID,
		TemplateConfig: input.Config,
		Queries:        input.Queries,
		ReturnData:     input.ReturnData,
	})
	if err != nil {
		return nil, err
	}

	job := &repository.EvaluationJob{
		ID:         id,
		Status:     repository.JobPending,
		TemplateID: input.TemplateID,
		Queries:    len(input.Queries),
		RequestKey: key,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	env, err := kafka.NewEventEnvelope(kafka.EventEvaluationRequested, s.config.Source, kafka.EvaluationRequestedPayload{
		JobID:       id,
		RequestKey:  key,
		Queries:     job.Queries,
		SubmittedAt: job.CreatedAt,
	})
	if err == nil {
		err = s.publisher.PublishEvent(ctx, s.requestedTopic(), id, env)
	}
	if err != nil {
		s.logger.Error("failed to enqueue job", logging.JobID(id), logging.Err(err))
		if uerr := s.repo.UpdateStatus(ctx, id, repository.JobFailed, "", "failed to enqueue job"); uerr != nil {
			s.logger.Warn("failed to mark job failed", logging.JobID(id), logging.Err(uerr))
		}
		return nil, err
	}

	prometheus.RecordJob(s.metrics, "submitted", 0)
	s.logger.Info("job submitted", logging.JobID(id), logging.Int("queries", job.Queries))
	return job, nil
}

func validateSubmit(input *SubmitInput, max int) error {
	switch {
	case input == nil:
		return errors.NewValidationError("queries", "request is required")
	case len(input.Queries) == 0:
		return errors.NewValidationError("queries", "at least one query is required")
	case len(input.Queries) > max:
		return errors.NewValidationError("queries", "too many queries")
	case input.TemplateID != "" && input.Config != nil:
		return errors.NewValidationError("template_id", "template_id and template_config are mutually exclusive")
	case input.TemplateID == "" && input.Config == nil:
		return errors.NewValidationError("template_config", "template_id or template_config is required")
	}
	return nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*JobView, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &JobView{EvaluationJob: job}
	if job.Status == repository.JobSucceeded && job.ResultKey != "" {
		u, err := s.store.URL(ctx, job.ResultKey)
		if err != nil {
			return nil, err
		}
		view.ResultURL = u
	}
	return view, nil
}

func (s *serviceImpl) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventEvaluationRequested {
		s.logger.Warn("ignoring unexpected event", logging.String("event_type", env.EventType))
		return nil
	}
	var req kafka.EvaluationRequestedPayload
	if err := env.DecodePayload(&req); err != nil {
		return err
	}
	return s.Process(ctx, req)
}

// Process runs one job. Jobs already in a terminal state are skipped, so
// redelivered messages are harmless. Errors that a retry could fix are
// returned with the job left running; anything else fails the job.
func (s *serviceImpl) Process(ctx context.Context, req kafka.EvaluationRequestedPayload) error {
	if s.locks == nil {
		return s.process(ctx, req)
	}

	lease := s.locks.NewMutex("job:"+req.JobID, redis.WithLockTTL(s.leaseTTL))
	ok, err := lease.TryLock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("job is leased by another consumer", logging.JobID(req.JobID))
		return errors.New(errors.ErrCodeServiceUnavailable, fmt.Sprintf("job %s is leased by another consumer", req.JobID))
	}

	stop := s.renewLease(ctx, lease, req.JobID)
	defer func() {
		stop()
		if err := lease.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release job lease", logging.JobID(req.JobID), logging.Err(err))
		}
	}()
	return s.process(ctx, req)
}

// renewLease extends lease until the returned stop function is called.
func (s *serviceImpl) renewLease(ctx context.Context, lease redis.DistributedLock, jobID string) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.leaseTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := lease.Extend(ctx, s.leaseTTL)
				if err != nil || !held {
					s.logger.Warn("failed to renew job lease", logging.JobID(jobID), logging.Err(err))
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *serviceImpl) process(ctx context.Context, req kafka.EvaluationRequestedPayload) error {
	start := s.now()
	job, err := s.repo.Get(ctx, req.JobID)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("dropping request for unknown job", logging.JobID(req.JobID))
			return nil
		}
		return err
	}
	if job.Status.IsTerminal() {
		s.logger.Info("job already finished", logging.JobID(job.ID), logging.String("status", string(job.Status)))
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, job.ID, repository.JobRunning, "", ""); err != nil {
		return err
	}

	key := req.RequestKey
	if key == "" {
		key = job.RequestKey
	}
	var doc RequestDocument
	if err := s.store.Load(ctx, key, &doc); err != nil {
		return s.fail(ctx, job.ID, start, err)
	}

	results, err := s.evaluator.Evaluate(ctx, &templates.EvaluateInput{
		Queries:    doc.Queries,
		Config:     doc.TemplateConfig,
		TemplateID: doc.TemplateID,
		ReturnData: doc.ReturnData,
	})
	if err != nil {
		return s.fail(ctx, job.ID, start, err)
	}

	passed := 0
	for _, r := range results {
		if r.Result {
			passed++
		}
	}
	completedAt := s.now()
	resultKey, err := s.store.PutResult(ctx, job.ID, ResultDocument{
		JobID:       job.ID,
		Passed:      passed,
		Failed:      len(results) - passed,
		Results:     results,
		CompletedAt: completedAt,
	})
	if err != nil {
		return s.fail(ctx, job.ID, start, err)
	}
	if err := s.repo.UpdateStatus(ctx, job.ID, repository.JobSucceeded, resultKey, ""); err != nil {
		return err
	}

	prometheus.RecordJob(s.metrics, string(repository.JobSucceeded), completedAt.Sub(start))
	s.logger.Info("job succeeded",
		logging.JobID(job.ID),
		logging.Int("passed", passed),
		logging.Int("failed", len(results)-passed),
		logging.Duration("duration", completedAt.Sub(start)))

	s.announce(ctx, kafka.EvaluationCompletedPayload{
		JobID:       job.ID,
		Status:      string(repository.JobSucceeded),
		ResultKey:   resultKey,
		Passed:      passed,
		Failed:      len(results) - passed,
		CompletedAt: completedAt,
	})
	return nil
}

// fail returns retryable errors unchanged and records everything else as a
// failed job.
func (s *serviceImpl) fail(ctx context.Context, jobID string, start time.Time, cause error) error {
	if isRetryable(cause) {
		s.logger.Warn("job attempt failed", logging.JobID(jobID), logging.Err(cause))
		return cause
	}

	msg := cause.Error()
	if err := s.repo.UpdateStatus(ctx, jobID, repository.JobFailed, "", msg); err != nil {
		return err
	}
	completedAt := s.now()
	prometheus.RecordJob(s.metrics, string(repository.JobFailed), completedAt.Sub(start))
	s.logger.Error("job failed", logging.JobID(jobID), logging.Err(cause))

	s.announce(ctx, kafka.EvaluationCompletedPayload{
		JobID:       jobID,
		Status:      string(repository.JobFailed),
		Error:       msg,
		CompletedAt: completedAt,
	})
	return nil
}

func (s *serviceImpl) announce(ctx context.Context, payload kafka.EvaluationCompletedPayload) {
	env, err := kafka.NewEventEnvelope(kafka.EventEvaluationCompleted, s.config.Source, payload)
	if err == nil {
		err = s.publisher.PublishEvent(ctx, s.completedTopic(), payload.JobID, env)
	}
	if err != nil {
		s.logger.Warn("failed to publish job completion", logging.JobID(payload.JobID), logging.Err(err))
	}
}

func isRetryable(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeOracleUnavailable,
		errors.ErrCodeServiceUnavailable,
		errors.ErrCodeTimeout,
		errors.ErrCodeDatabaseError,
		errors.ErrCodeStorageError,
		errors.ErrCodeExternalService:
		return true
	}
	return false
}

//Personal.AI order the ending
