package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ObjectAPI is the part of *s3.Client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// PublicURL is where /<UploadDir>/<name> requests are redirected.
	PublicURL string
	UploadDir string
}

type S3Store struct {
	client    ObjectAPI
	bucket    string
	publicURL string
	uploadDir string
	Now       func() time.Time

	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewS3Store(client ObjectAPI, bucket, publicURL, uploadDir string) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		uploadDir: uploadDir,
		Now:       time.Now,
		reserved:  make(map[string]struct{}),
	}
}

// URL maps a stored path such as /uploads/1700000000123.png to the object's
// public address. It returns "" when no public URL is configured.
func (s *S3Store) URL(storedPath string) string {
	if s.publicURL == "" {
		return ""
	}
	return s.publicURL + storedPath
}

// NewS3StoreFromOptions builds the S3 client the same way the avatar
// presigner does: static credentials and an optional custom endpoint
// (MinIO, R2 and friends).
func NewS3StoreFromOptions(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewS3Store(client, opts.Bucket, opts.PublicURL, opts.UploadDir), nil
}

func (s *S3Store) Stage(ctx context.Context, filename string, content io.Reader) (Staged, error) {
	ext := filepath.Ext(filepath.Base(filename))
	stagingKey := "staging/" + uuid.NewString() + ext

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(stagingKey),
		Body:   content,
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put staging object: %w", err)
	}

	finalKey, err := s.reserve(ctx, filename)
	if err != nil {
		s.dropStaging(ctx, stagingKey)
		return nil, err
	}
	return &s3Staged{
		store:      s,
		stagingKey: stagingKey,
		finalKey:   finalKey,
		public:     "/" + finalKey,
	}, nil
}

// reserve picks a final key that no stored object and no other staged upload
// of this process holds, bumping the timestamp a millisecond at a time.
func (s *S3Store) reserve(ctx context.Context, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserved == nil {
		s.reserved = make(map[string]struct{})
	}

	now := s.Now()
	for {
		key := path.Join(s.uploadDir, finalName(now, filename))
		if _, held := s.reserved[key]; !held {
			exists, err := s.exists(ctx, key)
			if err != nil {
				return "", err
			}
			if !exists {
				s.reserved[key] = struct{}{}
				return key, nil
			}
		}
		now = now.Add(time.Millisecond)
	}
}

func (s *S3Store) release(key string) {
	s.mu.Lock()
	delete(s.reserved, key)
	s.mu.Unlock()
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("head object %s: %w", key, err)
}

func (s *S3Store) dropStaging(ctx context.Context, key string) {
	if err := s.deleteKey(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("staging object left behind")
	}
}

type s3Staged struct {
	store      *S3Store
	stagingKey string
	finalKey   string
	public     string
	done       bool
}

func (s *s3Staged) Path() string { return s.public }

func (s *s3Staged) Commit(ctx context.Context) error {
	if s.done {
		return ErrFinalized
	}
	_, err := s.store.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.store.bucket),
		CopySource: aws.String(s.store.bucket + "/" + s.stagingKey),
		Key:        aws.String(s.finalKey),
	})
	if err != nil {
		return fmt.Errorf("copy staged object: %w", err)
	}
	s.done = true
	s.store.release(s.finalKey)

	// the final object exists; a leftover staging key is only garbage
	s.store.dropStaging(ctx, s.stagingKey)
	return nil
}

func (s *s3Staged) Discard(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	s.store.release(s.finalKey)
	return s.store.deleteKey(ctx, s.stagingKey)
}

func (s *S3Store) deleteKey(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
