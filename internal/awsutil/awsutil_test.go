package awsutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare name", in: "sales-data", want: "sales-data"},
		{name: "bucket ARN", in: "arn:aws:s3:::sales-data", want: "sales-data"},
		{name: "china partition", in: "arn:aws-cn:s3:::ventas", want: "ventas"},
		{name: "non-s3 ARN unchanged", in: "arn:aws:ec2:us-east-1:123456789012:instance/i-1", want: "arn:aws:ec2:us-east-1:123456789012:instance/i-1"},
		{name: "too few segments", in: "arn:aws:s3", want: "arn:aws:s3"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketName(tt.in))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "head not found", err: awserr.New("NotFound", "Not Found", nil), want: true},
		{name: "no such bucket", err: awserr.New(s3.ErrCodeNoSuchBucket, "gone", nil), want: true},
		{name: "wrapped", err: fmt.Errorf("head: %w", awserr.New(s3.ErrCodeNoSuchKey, "gone", nil)), want: true},
		{name: "404 status", err: awserr.NewRequestFailure(awserr.New("BadRequest", "x", nil), 404, "req"), want: true},
		{name: "forbidden", err: awserr.NewRequestFailure(awserr.New("Forbidden", "x", nil), 403, "req"), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsAlreadyOwned(t *testing.T) {
	assert.True(t, IsAlreadyOwned(awserr.New(s3.ErrCodeBucketAlreadyOwnedByYou, "mine", nil)))
	assert.False(t, IsAlreadyOwned(awserr.New(s3.ErrCodeBucketAlreadyExists, "theirs", nil)))
}

func TestNewSession(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	sess, err := NewSession(SessionOptions{Endpoint: "http://localhost:9000", ForcePathStyle: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, *sess.Config.Region)
	assert.Equal(t, "http://localhost:9000", *sess.Config.Endpoint)
	assert.True(t, *sess.Config.S3ForcePathStyle)

	sess, err = NewSession(SessionOptions{Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", *sess.Config.Region)
}
