package aws

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	log "github.com/sirupsen/logrus"
)

const (
	// defaultS3Region is used when no region is configured.
	defaultS3Region = "us-east-1"

	// maxS3Keys is the maximum amount of keys to be returned by a single S3
	// list objects API response
	maxS3Keys = 200
)

// SessionConfig configures the AWS session shared by the S3, Glue and Athena
// clients.
type SessionConfig struct {
	Region string
	// Endpoint overrides the service endpoint, for S3 compatible stores such
	// as MinIO or LocalStack.
	Endpoint       string
	ForcePathStyle bool
}

// NewSession creates an AWS session. Credentials come from the default
// provider chain (environment, shared config, instance role).
func NewSession(cfg SessionConfig) (*session.Session, error) {
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	awsCfg := aws.NewConfig().WithRegion(region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create AWS session: %v", err)
	}
	return sess, nil
}

// ObjectStore reads and writes whole objects in a bucket.
type ObjectStore interface {
	GetObject(ctx aws.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx aws.Context, bucket, key, contentType string, body []byte) error
	ListKeys(ctx aws.Context, bucket, prefix string) ([]string, error)
}

// S3Store is an ObjectStore backed by S3.
type S3Store struct {
	s3API  s3iface.S3API
	logger log.FieldLogger
}

func NewS3Store(s3API s3iface.S3API, logger log.FieldLogger) *S3Store {
	return &S3Store{
		s3API:  s3API,
		logger: logger.WithField("component", "s3"),
	}
}

// NewS3StoreFromSession creates an S3Store using a client for sess.
func NewS3StoreFromSession(sess *session.Session, logger log.FieldLogger) *S3Store {
	return NewS3Store(s3.New(sess), logger)
}

// GetObject returns the body of the object. The caller must close it.
func (s *S3Store) GetObject(ctx aws.Context, bucket, key string) (io.ReadCloser, error) {
	s.logger.Debugf("getting s3://%s/%s", bucket, key)
	obj, err := s.s3API.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("can't get object from bucket '%s' with key '%s': %v", bucket, key, err)
	}
	return obj.Body, nil
}

// PutObject uploads body, replacing any existing object at key.
func (s *S3Store) PutObject(ctx aws.Context, bucket, key, contentType string, body []byte) error {
	s.logger.Debugf("putting %d bytes to s3://%s/%s", len(body), bucket, key)
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.s3API.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("can't put object to bucket '%s' with key '%s': %v", bucket, key, err)
	}
	return nil
}

// ListKeys returns every key under prefix.
func (s *S3Store) ListKeys(ctx aws.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	pageFn := func(out *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range out.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	}
	err := s.s3API.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(maxS3Keys),
	}, pageFn)
	if err != nil {
		return nil, fmt.Errorf("could not list keys in bucket '%s' with prefix '%s': %v", bucket, prefix, err)
	}
	return keys, nil
}

// URI returns the s3:// URI of a key.
func URI(bucket, key string) string {
	return "s3://" + bucket + "/" + strings.TrimPrefix(key, "/")
}
