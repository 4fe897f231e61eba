package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
)

// Store archives analysis reports in a MinIO / S3 bucket
type Store struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

// New connects to MinIO and makes sure the bucket exists
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey, prefix string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create minio client", goerr.V("endpoint", endpoint))
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check bucket", goerr.V("bucket", bucket))
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, goerr.Wrap(err, "failed to create bucket", goerr.V("bucket", bucket))
		}
	}

	return &Store{client: cli, bucketName: bucket, prefix: prefix}, nil
}

// ReportKey is <prefix>/<user>/<analysis id>.json. Segments that would climb
// out of the user's folder are rejected.
func ReportKey(prefix, userID, id string) (string, error) {
	for _, seg := range []string{userID, id} {
		if strings.Trim(seg, ".") == "" || strings.ContainsAny(seg, "/\\") {
			return "", goerr.New("invalid object key segment", goerr.V("segment", seg))
		}
	}
	return path.Join(prefix, userID, id+".json"), nil
}

// Store uploads the report as JSON and returns its object URL
func (s *Store) Store(ctx context.Context, userID, id string, report analysis.Report) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode report")
	}
	key, err := ReportKey(s.prefix, userID, id)
	if err != nil {
		return "", err
	}
	return s.Put(ctx, key, data, "application/json")
}

// Put uploads data under key
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", goerr.Wrap(err, "failed to upload object", goerr.V("key", key))
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	url := fmt.Sprintf("%s://%s/%s/%s", s.client.EndpointURL().Scheme, s.client.EndpointURL().Host, s.bucketName, key)
	return url, nil
}

// Check reports whether the bucket is reachable
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return goerr.Wrap(err, "failed to reach bucket", goerr.V("bucket", s.bucketName))
	}
	if !ok {
		return goerr.New("bucket does not exist", goerr.V("bucket", s.bucketName))
	}
	return nil
}
