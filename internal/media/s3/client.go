// Package s3 is the media.Host adapter for any S3-compatible object store
// (AWS S3, MinIO, ...).
package s3

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/filevault/filevault/internal/media"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool

	// PublicBaseURL is the externally reachable base for object URLs.
	// Defaults to the endpoint when empty.
	PublicBaseURL string
}

type Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewClient builds the S3 client and verifies the bucket is reachable,
// creating it when missing.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true // MinIO needs path-style addressing
	})

	headCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.HeadBucket(headCtx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		if _, createErr := client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(cfg.Bucket),
		}); createErr != nil {
			return nil, fmt.Errorf("s3: bucket %q unavailable: %w", cfg.Bucket, createErr)
		}
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = endpointURL
	}

	return &Client{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload stores the asset under a fresh date-partitioned key and returns
// the descriptor. The object key doubles as the public id.
func (c *Client) Upload(ctx context.Context, a media.Asset) (media.Object, error) {
	key := newObjectKey()

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        a.Content,
		ContentType: aws.String(a.ContentType),
	})
	if err != nil {
		return media.Object{}, fmt.Errorf("s3: failed to upload %q: %w", a.Name, err)
	}

	return media.Object{
		PublicID:     key,
		URL:          fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, key),
		Format:       formatOf(a),
		Bytes:        a.Size,
		OriginalName: a.Name,
	}, nil
}

// Delete removes the object from the bucket.
func (c *Client) Delete(ctx context.Context, publicID string) (bool, error) {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return false, fmt.Errorf("s3: failed to delete %q: %w", publicID, err)
	}
	return true, nil
}

// newObjectKey produces a date-partitioned random key, e.g.
// files/2026/08/31/7b0c....
func newObjectKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("files/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.New())
}

// formatOf derives the descriptor's type from the file extension, falling
// back to the declared content type.
func formatOf(a media.Asset) string {
	if ext := strings.TrimPrefix(path.Ext(a.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return a.ContentType
}
