package minio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/turtacn/chemtemplates/internal/config"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// MinIOAPI is the subset of minio.Core used here. Core's GetObject returns a
// plain reader, which keeps downloads mockable.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucket, object string, data io.Reader, size int64, md5Base64, sha256Hex string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, http.Header, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

var (
	ErrMinIOClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")
	ErrBucketMissing     = errors.New(errors.ErrCodeStorageError, "bucket missing")
)

// Lifecycle expirations for job documents.
const (
	requestRetentionDays = 7
	resultRetentionDays  = 30
)

// Client owns the MinIO connection and the job bucket.
type Client struct {
	api    MinIOAPI
	config config.MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects, verifies the credentials with ListBuckets and makes
// sure the job bucket exists with its lifecycle rules.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}

	core, err := minio.NewCore(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := core.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	c := NewClientWithAPI(core, cfg, log)
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	c.SetupLifecycleRules(ctx)

	log.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.JobBucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API implementation without any network
// round trip.
func NewClientWithAPI(api MinIOAPI, cfg config.MinIOConfig, log logging.Logger) *Client {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{api: api, config: cfg, logger: log.Named("minio")}
}

func applyDefaults(cfg *config.MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.JobBucket == "" {
		cfg.JobBucket = config.DefaultMinIOJobBucket
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = time.Hour
	}
}

// EnsureBucket creates the job bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	bucket := c.config.JobBucket
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket "+bucket)
	}
	c.logger.Info("created bucket", logging.String("bucket", bucket))
	return nil
}

// SetupLifecycleRules expires request documents after a week and results
// after a month. Failures are logged; some S3 backends reject lifecycle
// configuration.
func (c *Client) SetupLifecycleRules(ctx context.Context) {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:         "job-requests-expiry",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: RequestPrefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(requestRetentionDays)},
		},
		{
			ID:         "job-results-expiry",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: ResultPrefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(resultRetentionDays)},
		},
	}
	if err := c.api.SetBucketLifecycle(ctx, c.config.JobBucket, cfg); err != nil {
		c.logger.Warn("failed to set bucket lifecycle",
			logging.String("bucket", c.config.JobBucket),
			logging.Err(err))
	}
}

func (c *Client) GetClient() MinIOAPI { return c.api }

// Bucket returns the job bucket name.
func (c *Client) Bucket() string { return c.config.JobBucket }

// PresignExpiry returns the default lifetime of presigned URLs.
func (c *Client) PresignExpiry() time.Duration { return c.config.PresignExpiry }

// HealthCheck fails when the server is unreachable or the job bucket is gone.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.isClosed() {
		return ErrMinIOClientClosed
	}
	exists, err := c.api.BucketExists(ctx, c.config.JobBucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio health check failed")
	}
	if !exists {
		return ErrBucketMissing.WithDetail("bucket=" + c.config.JobBucket)
	}
	return nil
}

// GeneratePresignedGetURL signs a download URL. A zero expiry uses the
// configured default.
func (c *Client) GeneratePresignedGetURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = c.config.PresignExpiry
	}
	u, err := c.api.PresignedGetObject(ctx, bucketName, objectName, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign object")
	}
	return u.String(), nil
}

// Close marks the client closed. minio-go holds no long-lived connections
// that need releasing.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

//Personal.AI order the ending
