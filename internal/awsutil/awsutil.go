// Package awsutil provides shared AWS helpers for the S3 object store.
package awsutil

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const (
	// arnMinSegments is the minimum number of colon-separated segments in a valid ARN.
	arnMinSegments = 6
	// arnResourceIndex is the zero-based index of the resource segment in an ARN.
	arnResourceIndex = 5
)

// DefaultRegion is used when neither flags, config nor the environment name a region.
const DefaultRegion = "us-east-1"

// SessionOptions configures NewSession.
type SessionOptions struct {
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint       string
	ForcePathStyle bool
}

// NewSession creates an AWS session that honours the shared config files and the
// standard AWS_* environment variables.
func NewSession(opts SessionOptions) (*session.Session, error) {
	cfg := aws.Config{}
	if opts.Region != "" {
		cfg.Region = aws.String(opts.Region)
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}
	if opts.ForcePathStyle {
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	if aws.StringValue(sess.Config.Region) == "" {
		sess.Config.Region = aws.String(DefaultRegion)
	}
	return sess, nil
}

// BucketName accepts a bare bucket name or an S3 bucket ARN
// (arn:aws:s3:::bucket) and returns the bucket name.
func BucketName(nameOrARN string) string {
	if !strings.HasPrefix(nameOrARN, "arn:") {
		return nameOrARN
	}
	// ARN format: arn:partition:service:region:account:resource
	parts := strings.SplitN(nameOrARN, ":", arnMinSegments)
	if len(parts) < arnMinSegments || parts[2] != "s3" {
		return nameOrARN
	}
	return parts[arnResourceIndex]
}

// IsNotFound reports whether err is an S3 "not found" response for a bucket or key.
func IsNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case "NotFound", s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey:
		return true
	}
	var reqErr awserr.RequestFailure
	return errors.As(err, &reqErr) && reqErr.StatusCode() == 404
}

// IsAlreadyOwned reports whether a CreateBucket error means the caller already owns
// the bucket.
func IsAlreadyOwned(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou
}
