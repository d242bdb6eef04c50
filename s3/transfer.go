package s3

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path/filepath"
	"time"

	s3errors "github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/internal/operations/download"
	"github.com/lflfm/pys3b/s3/internal/operations/upload"
	"github.com/lflfm/pys3b/s3/internal/validation"
	"github.com/lflfm/pys3b/s3/s3types"
)

// uploadMetadataKey marks objects uploaded through this client so they can
// be distinguished from objects written by other tools.
const (
	uploadMetadataKey   = "s3b-upload"
	uploadMetadataValue = "true"
)

// Upload uploads data from an io.Reader to S3.
// It automatically switches to multipart upload above the configured
// threshold. Progress tracking and other options can be configured via
// UploadOption parameters. Cancelling the context surfaces
// ErrTransferCancelled.
//
// Returns:
//   - *UploadResult: Contains the uploaded object's metadata including ETag and duration
//   - error: Returns an error if the upload fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid or reader is nil
//   - ErrTransferCancelled: If the context is cancelled mid-transfer
//   - ErrAccessDenied: If the credentials lack permission to upload
//   - Network errors or AWS SDK errors wrapped in Error type
//
// Example:
//
//	result, err := client.Upload(ctx, "my-bucket", "data.txt", reader,
//	    s3.WithContentType("text/plain"),
//	    s3.WithProgress(tracker),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %s in %v\n", result.Key, result.Duration)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if reader == nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("reader cannot be nil")
	}

	config := c.newUploadConfig(opts)
	if config.ContentType == "" {
		config.ContentType = detectContentTypeFromExtension(key)
	}
	if err := validation.ValidateMetadata(config.Metadata); err != nil {
		return nil, s3errors.NewError("upload", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	startTime := time.Now()

	uploader := upload.New(c.s3Client)
	result, err := uploader.Upload(ctx, bucket, key, reader, config, startTime)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UploadFile uploads a file from the local filesystem to S3.
// Content type is detected by sniffing the file content, falling back to
// the file extension. Files at or above the multipart threshold are
// uploaded in concurrent parts. Cancelling the context surfaces
// ErrTransferCancelled.
//
// Returns:
//   - *UploadResult: Contains the uploaded object's metadata including ETag and duration
//   - error: Returns an error if the upload fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid, or path is empty or a directory
//   - ErrTransferCancelled: If the context is cancelled mid-transfer
//   - File system errors if the file cannot be read
//   - Network errors or AWS SDK errors wrapped in Error type
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "docs/report.pdf", "/path/to/report.pdf",
//	    s3.WithProgress(tracker),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %d bytes in %v\n", result.Size, result.Duration)
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if path == "" {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path cannot be empty")
	}

	fs := c.getFS()

	info, err := fs.Stat(path)
	if err != nil {
		return nil, s3errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	if info.IsDir() {
		return nil, s3errors.NewError("uploadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path points to a directory, not a file")
	}

	config := c.newUploadConfig(opts)
	if config.ContentType == "" {
		config.ContentType = c.detectContentType(path)
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, s3errors.NewError("uploadFile", err).WithBucket(bucket).WithKey(key)
	}
	defer file.Close()

	startTime := time.Now()

	uploader := upload.New(c.s3Client)
	result, err := uploader.UploadSized(ctx, bucket, key, file, info.Size(), config, startTime)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Put uploads byte data to S3.
// This is a convenience method for small amounts of data that fit in memory.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...s3types.UploadOption) error {
	_, err := c.Upload(ctx, bucket, key, bytes.NewReader(data), opts...)
	return err
}

// Download downloads an object from S3 and writes it to an io.Writer.
// The object streams directly to the writer, so memory use stays flat for
// large files. Cancelling the context surfaces ErrTransferCancelled.
//
// Returns:
//   - *DownloadResult: Contains the downloaded object's metadata and duration
//   - error: Returns an error if the download fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid or writer is nil
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrTransferCancelled: If the context is cancelled mid-transfer
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	opts ...s3types.DownloadOption,
) (*s3types.DownloadResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("download", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("download", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if writer == nil {
		return nil, s3errors.NewError("download", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("writer cannot be nil")
	}

	config := &s3types.DownloadConfig{}
	for _, opt := range opts {
		opt(config)
	}

	startTime := time.Now()

	downloader := download.New(c.s3Client)
	result, err := downloader.Download(ctx, bucket, key, writer, config, startTime)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DownloadFile downloads an object from S3 to a local file.
// The file is created if it doesn't exist, or truncated if it does.
// A failed or cancelled download removes the partial file.
//
// Returns:
//   - *DownloadResult: Contains the downloaded object's metadata and duration
//   - error: Returns an error if the download fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid or path is empty
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrTransferCancelled: If the context is cancelled mid-transfer
//   - File system errors if the file cannot be created or written
//   - Network errors or AWS SDK errors wrapped in Error type
//
// Example:
//
//	result, err := client.DownloadFile(ctx, "my-bucket", "docs/report.pdf", "/tmp/report.pdf",
//	    s3.WithDownloadProgress(tracker),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Downloaded %d bytes in %v\n", result.Size, result.Duration)
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.DownloadOption,
) (*s3types.DownloadResult, error) {
	if path == "" {
		return nil, s3errors.NewError("downloadFile", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("path cannot be empty")
	}

	fs := c.getFS()

	file, err := fs.Create(path)
	if err != nil {
		return nil, s3errors.NewError("downloadFile", err).WithBucket(bucket).WithKey(key)
	}

	result, err := c.Download(ctx, bucket, key, file, opts...)
	closeErr := file.Close()
	if err != nil {
		// Remove the partial file; the error from the transfer wins.
		_ = fs.Remove(path)
		return nil, err
	}
	if closeErr != nil {
		return nil, s3errors.NewError("downloadFile", closeErr).WithBucket(bucket).WithKey(key)
	}

	return result, nil
}

// Get downloads an entire object from S3 and returns it as a byte slice.
// This is a convenience method for small objects that fit in memory.
// For large objects, use Download or DownloadFile instead.
func (c *Client) Get(ctx context.Context, bucket, key string, opts ...s3types.DownloadOption) ([]byte, error) {
	var buf bytes.Buffer
	_, err := c.Download(ctx, bucket, key, &buf, opts...)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newUploadConfig builds the effective upload configuration from client
// defaults and per-call options. Every upload is tagged with the browser's
// marker metadata and a SHA256 checksum request.
func (c *Client) newUploadConfig(opts []s3types.UploadOption) *s3types.UploadConfig {
	clientCfg := c.getClientConfig()

	config := &s3types.UploadConfig{
		Metadata:           map[string]string{uploadMetadataKey: uploadMetadataValue},
		PartSize:           clientCfg.PartSize,
		Concurrency:        clientCfg.Concurrency,
		MultipartThreshold: clientCfg.MultipartSize,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Metadata == nil {
		config.Metadata = map[string]string{}
	}
	config.Metadata[uploadMetadataKey] = uploadMetadataValue

	return config
}

// detectContentTypeFromExtension looks up the content type by file extension.
func detectContentTypeFromExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return DefaultContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}
