package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage defines the object storage operations the upload pipeline needs.
type FileStorage interface {
	// Put uploads body under key. Success means the object is committed.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL of key. It is a pure function of key and
	// configuration.
	URL(key string) string

	// KeyFromURL reverses URL. ok is false for URLs this storage did not produce.
	KeyFromURL(url string) (key string, ok bool)
}

// PublicURLs builds public object URLs from a base endpoint.
type PublicURLs struct {
	base string
}

// NewPublicURLs uses endpoint as the base (a distribution host such as
// "https://d111.cloudfront.net"); when it is empty the virtual-hosted S3 URL
// of bucket in region is used. A scheme-less endpoint gets https.
func NewPublicURLs(endpoint, bucket, region string) PublicURLs {
	base := strings.TrimRight(endpoint, "/")
	switch {
	case base == "":
		base = "https://" + bucket + ".s3." + region + ".amazonaws.com"
	case !strings.Contains(base, "://"):
		base = "https://" + base
	}
	return PublicURLs{base: base}
}

func (p PublicURLs) URL(key string) string {
	return p.base + "/" + strings.TrimLeft(key, "/")
}

func (p PublicURLs) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, p.base+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
