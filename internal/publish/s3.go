package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"git.home.luguber.info/inful/adocs/internal/config"
)

// S3Publisher uploads a generated set to a bucket.
type S3Publisher struct {
	client   *minio.Client
	bucket   string
	prefix   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Publisher validates cfg and creates the client.
func NewS3Publisher(cfg *config.PublishConfig) (*S3Publisher, error) {
	if cfg == nil {
		return nil, errors.New("publish config is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Publisher{client: client, bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/"), region: region}, nil
}

func (s *S3Publisher) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Publish uploads files (relative to dir) twice: under the run id and
// under "latest", so consumers can follow the newest set.
func (s *S3Publisher) Publish(ctx context.Context, runID, dir string, files []string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	for _, rel := range files {
		// #nosec G304 -- rel comes from the generated manifest.
		data, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		for _, scope := range []string{runID, "latest"} {
			key := ObjectKey(s.prefix, scope, rel)
			if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
				ContentType: contentType(rel),
			}); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
	}
	return nil
}

// ObjectKey joins prefix, scope and a relative file path with slashes.
func ObjectKey(prefix, scope, rel string) string {
	return strings.TrimPrefix(path.Join(prefix, scope, filepath.ToSlash(rel)), "/")
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
