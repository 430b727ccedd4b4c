package storage

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// KeyPrefix is the folder under which all rental images live in the bucket.
const KeyPrefix = "rentalsBucket/"

// ObjectStore holds uploaded property images. Upload returns the public
// location of the stored object.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3Store is an ObjectStore backed by any S3-compatible endpoint.
type S3Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// KeyFromLocation derives the object key from a stored public location by
// stripping the public-URL prefix. It returns false when the location does
// not point into our bucket.
func KeyFromLocation(location, publicURL string) (string, bool) {
	prefix := strings.TrimSuffix(publicURL, "/") + "/"
	if location == "" || !strings.HasPrefix(location, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(location, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// MemStore keeps objects in memory. Used by tests and for local development
// without S3 credentials.
type MemStore struct {
	Objects map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{Objects: make(map[string][]byte)}
}

func (m *MemStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	m.Objects[key] = buf.Bytes()
	return "mem://" + key, nil
}

func (m *MemStore) Delete(ctx context.Context, key string) error {
	delete(m.Objects, key)
	return nil
}
