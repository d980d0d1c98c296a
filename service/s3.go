package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by Open when the stored object no longer exists.
var ErrObjectNotFound = errors.New("object not found")

// UploadRequest describes one file handed to the media sink. Raw objects are stored
// byte for byte; a positive MaxEdge asks the sink to shrink an image so its longest
// edge fits, keeping the aspect ratio and never upscaling.
type UploadRequest struct {
	Folder      string
	Prefix      string
	Filename    string
	ContentType string
	Data        []byte
	Raw         bool
	MaxEdge     int
}

// MediaSink stores binaries and hands back stable public URLs.
type MediaSink interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
	Open(ctx context.Context, url string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, url string) error
}

type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PublicBaseURL   string
}

type S3Service struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Service(ctx context.Context, o S3Options) (*S3Service, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return &S3Service{
		client:  client,
		bucket:  o.Bucket,
		baseURL: strings.TrimRight(o.PublicBaseURL, "/"),
	}, nil
}

// Upload stores the file under Folder as "<prefix>-<uuid><ext>" and returns its public URL.
func (s *S3Service) Upload(ctx context.Context, req UploadRequest) (string, error) {
	body, contentType := req.Data, req.ContentType
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !req.Raw && req.MaxEdge > 0 {
		fitted, err := FitImage(req.Data, req.MaxEdge)
		if err != nil {
			return "", fmt.Errorf("resize image: %w", err)
		}
		body, contentType, ext = fitted.Data, fitted.ContentType, fitted.Ext
	}
	key := objectKey(req.Folder, req.Prefix, ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

// Open streams a previously uploaded object. Caller must close the returned reader.
func (s *S3Service) Open(ctx context.Context, url string) (io.ReadCloser, string, error) {
	key, err := s.keyFromURL(url)
	if err != nil {
		return nil, "", err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	return out.Body, aws.ToString(out.ContentType), nil
}

func (s *S3Service) Delete(ctx context.Context, url string) error {
	key, err := s.keyFromURL(url)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Service) keyFromURL(url string) (string, error) {
	return keyFromURL(s.baseURL, url)
}

func keyFromURL(baseURL, url string) (string, error) {
	key := strings.TrimPrefix(url, baseURL+"/")
	if key == url || key == "" {
		return "", fmt.Errorf("url %q is not served by this bucket", url)
	}
	return key, nil
}

func objectKey(folder, prefix, ext string) string {
	name := uuid.New().String() + ext
	if prefix != "" {
		name = prefix + "-" + name
	}
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}

// ErrSinkDisabled is returned by DisabledSink for every call.
var ErrSinkDisabled = errors.New("media storage not configured (missing AWS_S3_BUCKET)")

// DisabledSink stands in when no bucket is configured, so reads keep working and
// uploads fail cleanly.
type DisabledSink struct{}

func (DisabledSink) Upload(context.Context, UploadRequest) (string, error) {
	return "", ErrSinkDisabled
}

func (DisabledSink) Open(context.Context, string) (io.ReadCloser, string, error) {
	return nil, "", ErrSinkDisabled
}

func (DisabledSink) Delete(context.Context, string) error { return ErrSinkDisabled }
