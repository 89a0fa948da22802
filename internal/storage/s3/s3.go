// Package s3 stores avatars in an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/utafrali/contactsbook/internal/storage"
)

// PutObjectAPI is the part of *s3.Client the store uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config configures the bucket and how its objects are addressed.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Storage implements storage.Storage on S3. S3 serves originals only, so
// BuildURL carries the transform as query parameters for a resizing proxy
// or CDN in front of the bucket.
type Storage struct {
	api       PutObjectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

var _ storage.Storage = (*Storage)(nil)

// New loads AWS configuration and creates an S3-backed store. Static
// credentials are used when both keys are set; otherwise the default chain
// applies.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewWithAPI(client, cfg), nil
}

// NewWithAPI creates a store over an existing client.
func NewWithAPI(api PutObjectAPI, cfg Config) *Storage {
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &Storage{
		api:       api,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Upload puts the object, replacing any previous one under the same key.
// The version is the bucket's VersionId when versioning is on, otherwise
// the upload time in unix seconds.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(input.Key),
		Body:         input.Data,
		ContentType:  aws.String(input.ContentType),
		CacheControl: aws.String("public, max-age=31536000"),
	}
	if input.Size > 0 {
		params.ContentLength = aws.Int64(input.Size)
	}

	out, err := s.api.PutObject(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", input.Key, err)
	}

	version := strconv.FormatInt(s.now().Unix(), 10)
	if out.VersionId != nil && *out.VersionId != "" {
		version = *out.VersionId
	}

	return &storage.UploadResult{
		Key:     input.Key,
		Version: version,
		URL:     s.publicURL + "/" + input.Key,
	}, nil
}

// BuildURL returns the public object URL with t as query parameters.
func (s *Storage) BuildURL(key string, t storage.Transform) string {
	q := url.Values{}
	if t.Width > 0 {
		q.Set("w", strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		q.Set("h", strconv.Itoa(t.Height))
	}
	if t.Crop != "" {
		q.Set("fit", t.Crop)
	}
	if t.Version != "" {
		q.Set("v", t.Version)
	}

	u := s.publicURL + "/" + key
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
