package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// Object key prefixes inside the job bucket.
const (
	RequestPrefix = "requests/"
	ResultPrefix  = "results/"
)

const contentTypeJSON = "application/json"

type ObjectStorageRepository interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Download(ctx context.Context, bucket, objectKey string) (*DownloadResult, error)
	Delete(ctx context.Context, bucket, objectKey string) error
	Exists(ctx context.Context, bucket, objectKey string) (bool, error)
	GetPresignedDownloadURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error)
}

type UploadRequest struct {
	Bucket      string
	ObjectKey   string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type DownloadResult struct {
	Data         []byte
	ContentType  string
	Size         int64
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

type minioRepository struct {
	client *Client
	logger logging.Logger
}

func NewMinIORepository(client *Client, log logging.Logger) ObjectStorageRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &minioRepository{client: client, logger: log}
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

func (r *minioRepository) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req == nil || req.Bucket == "" || req.ObjectKey == "" {
		return nil, ErrInvalidRequest
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{
		ContentType:  req.ContentType,
		UserMetadata: req.Metadata,
	}
	info, err := r.client.GetClient().PutObject(ctx, req.Bucket, req.ObjectKey, bytes.NewReader(req.Data), int64(len(req.Data)), "", "", opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail("key=" + req.ObjectKey)
	}

	r.logger.Debug("object uploaded",
		logging.String("bucket", req.Bucket),
		logging.String("key", req.ObjectKey),
		logging.Int("size", len(req.Data)))

	return &UploadResult{
		Bucket:     req.Bucket,
		ObjectKey:  req.ObjectKey,
		ETag:       info.ETag,
		Size:       int64(len(req.Data)),
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (r *minioRepository) Download(ctx context.Context, bucket, objectKey string) (*DownloadResult, error) {
	body, info, _, err := r.client.GetClient().GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail("key=" + objectKey)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed")
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to read object")
	}

	return &DownloadResult{
		Data:         data,
		ContentType:  info.ContentType,
		Size:         int64(len(data)),
		ETag:         info.ETag,
		Metadata:     info.UserMetadata,
		LastModified: info.LastModified,
	}, nil
}

func (r *minioRepository) Delete(ctx context.Context, bucket, objectKey string) error {
	if err := r.client.GetClient().RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete failed")
	}
	return nil
}

func (r *minioRepository) Exists(ctx context.Context, bucket, objectKey string) (bool, error) {
	_, err := r.client.GetClient().StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	return true, nil
}

func (r *minioRepository) GetPresignedDownloadURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	return r.client.GeneratePresignedGetURL(ctx, bucket, objectKey, expiry)
}

// JobPayloadStore keeps evaluation job documents as JSON in the job bucket:
// requests under RequestPrefix and results under ResultPrefix, both named
// after the job id.
type JobPayloadStore struct {
	repo   ObjectStorageRepository
	bucket string
	expiry time.Duration
}

func NewJobPayloadStore(client *Client, repo ObjectStorageRepository) *JobPayloadStore {
	return &JobPayloadStore{repo: repo, bucket: client.Bucket(), expiry: client.PresignExpiry()}
}

func RequestKey(jobID string) string { return RequestPrefix + jobID + ".json" }
func ResultKey(jobID string) string  { return ResultPrefix + jobID + ".json" }

// PutRequest stores v as the request document of jobID and returns its key.
func (s *JobPayloadStore) PutRequest(ctx context.Context, jobID string, v interface{}) (string, error) {
	return s.putJSON(ctx, RequestKey(jobID), jobID, v)
}

// PutResult stores v as the result document of jobID and returns its key.
func (s *JobPayloadStore) PutResult(ctx context.Context, jobID string, v interface{}) (string, error) {
	return s.putJSON(ctx, ResultKey(jobID), jobID, v)
}

// Load decodes the document at key into dest.
func (s *JobPayloadStore) Load(ctx context.Context, key string, dest interface{}) error {
	res, err := s.repo.Download(ctx, s.bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode job document").WithDetail("key=" + key)
	}
	return nil
}

// URL presigns a download link for key.
func (s *JobPayloadStore) URL(ctx context.Context, key string) (string, error) {
	return s.repo.GetPresignedDownloadURL(ctx, s.bucket, key, s.expiry)
}

func (s *JobPayloadStore) putJSON(ctx context.Context, key, jobID string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode job document")
	}
	_, err = s.repo.Upload(ctx, &UploadRequest{
		Bucket:      s.bucket,
		ObjectKey:   key,
		Data:        data,
		ContentType: contentTypeJSON,
		Metadata:    map[string]string{"job-id": jobID},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

//Personal.AI order the ending
