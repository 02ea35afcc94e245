// Package storage resolves avatar references stored on user records into
// URLs a browser can fetch. Absolute URLs pass through unchanged; anything
// else is treated as an object key and signed against the configured bucket.
package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Options carries the object-storage settings taken from server config.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	Expires      time.Duration
}

// AvatarResolver signs avatar object keys. The presign client is built
// lazily on first use and reused afterwards.
type AvatarResolver struct {
	opts S3Options

	mu     sync.Mutex
	client *s3.PresignClient
}

func NewAvatarResolver(opts S3Options) *AvatarResolver {
	if opts.Expires <= 0 {
		opts.Expires = 15 * time.Minute
	}
	return &AvatarResolver{opts: opts}
}

func (r *AvatarResolver) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(r.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			r.opts.AccessKey,
			r.opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(r.opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	r.client = newS3PresignClient(client)
	return r.client, nil
}

// Resolve returns a fetchable URL for ref. Empty refs resolve to "".
func (r *AvatarResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || IsAbsoluteURL(ref) {
		return ref, nil
	}

	pc, err := r.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := r.opts.Bucket
	key := strings.TrimPrefix(ref, "/")

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(r.opts.Expires))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
