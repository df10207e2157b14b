package documents

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func newStaticPresigner() *S3Presigner {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	return &S3Presigner{
		presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:  "probate-uploads",
		prefix:  "documents/",
	}
}

func TestS3PresignerKeyForStaysInOwnerNamespace(t *testing.T) {
	p := newStaticPresigner()
	key := p.KeyFor("user-1", "will.pdf")
	if !strings.HasPrefix(key, "documents/user-1/") {
		t.Fatalf("unexpected key %q", key)
	}
	if !strings.HasSuffix(key, "-will.pdf") {
		t.Fatalf("expected file name suffix, got %q", key)
	}
	if p.KeyFor("user-1", "will.pdf") == key {
		t.Fatalf("expected unique keys")
	}
}

func TestS3PresignerSignsPut(t *testing.T) {
	p := newStaticPresigner()
	raw, expires, err := p.PresignPut(context.Background(), "documents/user-1/doc/file.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if expires != presignExpires {
		t.Fatalf("unexpected expiry %s", expires)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.Contains(parsed.Host+parsed.Path, "probate-uploads") {
		t.Fatalf("expected bucket in url %q", raw)
	}
	if got := parsed.Query().Get("X-Amz-Expires"); got != "900" {
		t.Fatalf("expected 900s expiry, got %q", got)
	}
	if signed := parsed.Query().Get("X-Amz-SignedHeaders"); !strings.Contains(signed, "host") {
		t.Fatalf("expected host in signed headers: %s", signed)
	}
}

func TestAllowedContentType(t *testing.T) {
	if !AllowedContentType("application/pdf") || !AllowedContentType("image/png") {
		t.Fatalf("expected pdf and png to be allowed")
	}
	if AllowedContentType("application/zip") {
		t.Fatalf("zip must be rejected")
	}
}
