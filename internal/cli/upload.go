package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/awsutil"
	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/upload"
)

// uploadParams holds the flags of the upload command.
type uploadParams struct {
	directory string
	bucket    string
	blobName  string
	workers   int
	region    string
	endpoint  string
}

// newObjectStore builds the S3 store used by upload. Tests replace it.
//
//nolint:gochecknoglobals // test seam
var newObjectStore = func(opts awsutil.SessionOptions, storageClass string) (upload.ObjectStore, error) {
	sess, err := awsutil.NewSession(opts)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return upload.NewS3Store(sess, storageClass), nil
}

// NewUploadCmd creates the upload command, which publishes a dataset directory to
// an S3 bucket, creating the bucket when needed.
func NewUploadCmd() *cobra.Command {
	var params uploadParams

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a dataset directory to S3",
		Long: `Upload a dataset directory to an S3 bucket, creating the bucket if it does not exist.

A directory holding a single file uploads it under --blob-name (its file name by
default) and refuses to overwrite an existing object. Otherwise every .parquet file
is uploaded concurrently, keyed by its path relative to the directory.

Credentials come from the standard AWS environment variables and shared config
files. The bucket may be given as a name or an S3 ARN.`,
		Example: uploadExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeUpload(cmd, params)
		},
	}

	cmd.Flags().StringVarP(&params.directory, "directory", "d", "", "dataset directory to upload (required)")
	cmd.Flags().StringVarP(&params.bucket, "bucket-name", "n", "", "bucket name or ARN (default from config)")
	cmd.Flags().StringVar(&params.blobName, "blob-name", "", "object key when the directory holds a single file")
	cmd.Flags().IntVarP(&params.workers, "workers", "w", 0, "concurrent uploads (default from config)")
	cmd.Flags().StringVar(&params.region, "region", "", "AWS region (default from config or environment)")
	cmd.Flags().StringVar(&params.endpoint, "endpoint", "", "custom S3 endpoint, e.g. MinIO")
	_ = cmd.MarkFlagRequired("directory")

	return cmd
}

const uploadExample = `  # Upload a Parquet dataset
  synthsales upload -d dataset_parquet -n sales-bucket

  # Upload a single file under a chosen key
  synthsales upload -d export --blob-name sales/2024.parquet -n sales-bucket

  # Local MinIO
  synthsales upload -d dataset_parquet -n sales --endpoint http://localhost:9000`

// executeUpload resolves bucket and session settings and uploads the directory.
// Per-file failures are reported and turned into exit status 1.
func executeUpload(cmd *cobra.Command, params uploadParams) error {
	ctx := cmd.Context()
	uc := config.FromContext(ctx).Upload
	record := newRunRecord("upload")

	bucket := params.bucket
	if bucket == "" {
		bucket = uc.Bucket
	}
	if bucket == "" {
		err := errors.New("no bucket given: use --bucket-name or set upload.bucket in the config")
		record.finish(ctx, "", err)
		return err
	}
	bucket = awsutil.BucketName(bucket)

	opts := awsutil.SessionOptions{
		Region:         firstNonEmpty(params.region, uc.Region),
		Endpoint:       firstNonEmpty(params.endpoint, uc.Endpoint),
		ForcePathStyle: uc.ForcePathStyle || params.endpoint != "",
	}
	store, err := newObjectStore(opts, uc.StorageClass)
	if err != nil {
		record.finish(ctx, "", err)
		return err
	}

	workers := params.workers
	if workers == 0 {
		workers = uc.Workers
	}
	uploader := upload.NewUploader(store, bucket).WithBlobName(params.blobName).WithWorkers(workers)

	summary, err := uploader.UploadDirectory(ctx, params.directory)
	if err != nil {
		record.finish(ctx, "", err)
		return fmt.Errorf("uploading %s: %w", params.directory, err)
	}

	for _, r := range summary.Results {
		if r.Err != nil {
			cmd.PrintErrf("  failed %s: %v\n", r.Name, r.Err)
		}
	}

	failed := summary.Failed()
	total := len(summary.Results)
	if failed > 0 {
		reason := fmt.Sprintf("%d/%d files failed to upload to %s", failed, total, bucket)
		record.finish(ctx, reason, errors.New(reason))
		return &ExitError{Code: 1, Reason: reason}
	}

	detail := fmt.Sprintf("%d files to %s", total, bucket)
	record.finish(ctx, detail, nil)
	cmd.Printf("Uploaded %s\n", detail)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
