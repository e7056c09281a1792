package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint   string // host:port
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string // defaults to the endpoint
	// LinkTTL > 0 returns presigned links instead of PublicBase URLs.
	LinkTTL time.Duration
}

type MinIO struct {
	client     *minio.Client
	bucket     string
	publicBase string
	linkTTL    time.Duration
}

// NewMinIO connects and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg Config) (*MinIO, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	base := cfg.PublicBase
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}

	return &MinIO{
		client:     c,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(base, "/"),
		linkTTL:    cfg.LinkTTL,
	}, nil
}

var (
	nonSafe    = regexp.MustCompile(`[^a-z0-9\-_.]+`)
	dashRepeat = regexp.MustCompile(`-{2,}`)
)

// sanitizeFileName keeps only [a-z0-9-_.].
func sanitizeFileName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = nonSafe.ReplaceAllString(name, "-")
	name = dashRepeat.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-_")
	if name == "" {
		name = "file"
	}
	return name
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func objectKey(prefix, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s-%s%s", sanitizeFileName(prefix), randomHex(4), ext)
}

func publicURL(base, bucket, key string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u.Path = path.Join(u.Path, bucket, key)
	return u.String()
}

// Upload stores data under a unique key derived from prefix and returns the key and a link to it.
func (m *MinIO) Upload(ctx context.Context, prefix, ext, contentType string, data []byte) (key string, link string, err error) {
	key = objectKey(prefix, ext)
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", key, err)
	}

	if m.linkTTL > 0 {
		u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.linkTTL, nil)
		if err != nil {
			return key, "", fmt.Errorf("presign %s: %w", key, err)
		}
		return key, u.String(), nil
	}
	return key, publicURL(m.publicBase, m.bucket, key), nil
}
