// Package storage keeps payment receipt images in S3-compatible
// object storage.  Receipts are uploaded during checkout submission
// and later viewed by staff through short-lived signed URLs; the
// database only holds the object path.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReceiptStore wraps a MinIO client bound to the receipts bucket.
type ReceiptStore struct {
	client *minio.Client
	bucket string
}

// Config carries the object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewReceiptStore connects to the object store and ensures the
// receipts bucket exists.
func NewReceiptStore(ctx context.Context, cfg Config) (*ReceiptStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connect: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("bucket create: %w", err)
		}
	}
	return &ReceiptStore{client: client, bucket: cfg.Bucket}, nil
}

// UploadReceipt stores a receipt image and returns its object path.
// The path partitions by day so the bucket stays listable.  MIME and
// size limits are enforced by the checkout flow before this point.
func (s *ReceiptStore) UploadReceipt(ctx context.Context, contentType string, size int64, body io.Reader) (string, error) {
	path := fmt.Sprintf("recibos/%s/%d%s",
		time.Now().UTC().Format("2006-01-02"),
		time.Now().UTC().UnixNano(),
		extFor(contentType))
	_, err := s.client.PutObject(ctx, s.bucket, path, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put receipt: %w", err)
	}
	return path, nil
}

// SignedURL returns a presigned GET link for staff to view a receipt.
func (s *ReceiptStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign receipt: %w", err)
	}
	return u.String(), nil
}

// extFor maps the upload content type to a file extension; unknown
// image types fall back to .bin.
func extFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".bin"
}
