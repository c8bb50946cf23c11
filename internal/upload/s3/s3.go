// Package s3 stores finished reports in S3-compatible object storage.
//
// Objects are keyed by the artifact's content digest, so uploading the same
// bytes twice writes the same object and returns the same identifier.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/roach88/medreport/internal/cas"
)

// Options configure the uploader.
type Options struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Key      string `yaml:"key"`
	Secret   string `yaml:"secret"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
}

// Uploader puts artifacts into one bucket.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an uploader with static credentials and path-style addressing.
func New(opts Options) (*Uploader, error) {
	if opts.Key == "" || opts.Secret == "" {
		return nil, fmt.Errorf("key and secret are required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "auto"
	}

	s3opts := s3.Options{
		Region:                     opts.Region,
		Credentials:                credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, ""),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if opts.Endpoint != "" {
		endpoint := strings.TrimSuffix(opts.Endpoint, "/"+opts.Bucket)
		s3opts.BaseEndpoint = aws.String(endpoint)
	}

	return &Uploader{
		client: s3.New(s3opts),
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

// Key returns the object key for a content identifier.
func (u *Uploader) Key(contentID string) string {
	return path.Join(u.prefix, contentID+".pdf")
}

// Upload stores data and returns its content identifier.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	contentID := cas.ContentID(data)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(u.bucket),
		Key:                aws.String(u.Key(contentID)),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String("application/pdf"),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
		Metadata:           map[string]string{"filename": filename},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	return contentID, nil
}
