// Package upload publishes generated datasets to an S3-compatible object store.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/rshade/synthsales/internal/awsutil"
)

// ErrObjectExists is returned by UploadFile when ifNotExists is set and the key is taken.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore is the subset of object storage operations the uploader needs.
type ObjectStore interface {
	// GetOrCreateBucket ensures the bucket exists, creating it when missing.
	GetOrCreateBucket(ctx context.Context, name string) error
	// UploadFile stores the file at path under key.
	UploadFile(ctx context.Context, bucket, key, path string, ifNotExists bool) error
}

// S3Store is an ObjectStore backed by the AWS SDK.
type S3Store struct {
	client       *s3.S3
	uploader     *s3manager.Uploader
	region       string
	storageClass string
}

// NewS3Store creates a store from an AWS session. An empty storageClass uses the
// bucket default.
func NewS3Store(sess *session.Session, storageClass string) *S3Store {
	client := s3.New(sess)
	return &S3Store{
		client:       client,
		uploader:     s3manager.NewUploaderWithClient(client),
		region:       aws.StringValue(sess.Config.Region),
		storageClass: storageClass,
	}
}

// GetOrCreateBucket implements ObjectStore.
func (s *S3Store) GetOrCreateBucket(ctx context.Context, name string) error {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return nil
	}
	if !awsutil.IsNotFound(err) {
		return fmt.Errorf("checking bucket %s: %w", name, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	// us-east-1 rejects an explicit location constraint.
	if s.region != "" && s.region != awsutil.DefaultRegion {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(s.region),
		}
	}
	if _, err = s.client.CreateBucketWithContext(ctx, input); err != nil && !awsutil.IsAlreadyOwned(err) {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return nil
}

// UploadFile implements ObjectStore. With ifNotExists the key is checked first, so
// a concurrent writer can still race the upload.
func (s *S3Store) UploadFile(ctx context.Context, bucket, key, path string, ifNotExists bool) error {
	if ifNotExists {
		_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return fmt.Errorf("%w: s3://%s/%s", ErrObjectExists, bucket, key)
		}
		if !awsutil.IsNotFound(err) {
			return fmt.Errorf("checking s3://%s/%s: %w", bucket, key, err)
		}
	}

	f, err := os.Open(path) //nolint:gosec // path comes from walking the operator's directory
	if err != nil {
		return err
	}
	defer f.Close()

	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if s.storageClass != "" {
		input.StorageClass = aws.String(s.storageClass)
	}
	if _, err = s.uploader.UploadWithContext(ctx, input); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
