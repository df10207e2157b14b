package documents

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	presignExpires       = 15 * time.Minute
	defaultRegion        = "us-east-1"
	defaultUploadsPrefix = "documents/"
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"image/jpeg": {},
	"image/png":  {},
}

// AllowedContentType reports whether presigned uploads accept contentType.
func AllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[contentType]
	return ok
}

// URLPresigner hands out short-lived upload URLs.
type URLPresigner interface {
	PresignPut(ctx context.Context, key, contentType string) (url string, expires time.Duration, err error)
	KeyFor(ownerID, fileName string) string
}

// S3Presigner presigns PUTs into the uploads bucket.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewS3Presigner builds a presigner for bucket using the default AWS
// credential chain.
func NewS3Presigner(ctx context.Context, region, bucket, prefix string) (*S3Presigner, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultRegion
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("uploads bucket is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultUploadsPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Presigner{
		presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:  bucket,
		prefix:  prefix,
	}, nil
}

// KeyFor builds an object key inside ownerID's namespace.
func (p *S3Presigner) KeyFor(ownerID, fileName string) string {
	return path.Join(p.prefix, ownerID, uuid.NewString(), uuid.NewString()+"-"+fileName)
}

// PresignPut implements URLPresigner.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	out, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		return "", 0, err
	}
	return out.URL, presignExpires, nil
}
