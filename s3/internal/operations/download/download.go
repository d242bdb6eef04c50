// Package download handles S3 object download operations.
// This includes stream-based downloads, file downloads, and range requests.
//
// The package provides memory-efficient streaming for large files and
// supports progress tracking and cancellation during download operations.
package download

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/internal/s3api"
	"github.com/lflfm/pys3b/s3/s3types"
)

// Downloader handles S3 download operations with progress tracking support.
type Downloader struct {
	s3Client s3api.S3API
}

// New creates a new Downloader instance.
func New(s3Client s3api.S3API) *Downloader {
	return &Downloader{
		s3Client: s3Client,
	}
}

// Download downloads an object from S3 and writes it to an io.Writer.
// This provides stream-based downloading with memory-efficient handling of large files.
func (d *Downloader) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	config *s3types.DownloadConfig,
	startTime time.Time,
) (*s3types.DownloadResult, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if config.RangeSpec != "" {
		input.Range = aws.String(config.RangeSpec)
	}

	output, err := d.s3Client.GetObject(ctx, input)
	if err != nil {
		if isObjectNotFound(err) {
			return nil, errors.NewObjectError("download", bucket, key, errors.ErrObjectNotFound)
		}
		return nil, wrapTransferErr("download", bucket, key, err)
	}
	defer output.Body.Close()

	size := int64(0)
	if output.ContentLength != nil {
		size = *output.ContentLength
	}

	// Wrap the body so each read observes cancellation and reports progress.
	reader := &progressReader{
		ctx:             ctx,
		reader:          output.Body,
		progressTracker: config.ProgressTracker,
		total:           size,
	}

	bytesWritten, err := io.Copy(writer, reader)
	if err != nil {
		wrapped := wrapTransferErr("download", bucket, key, err)
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(wrapped)
		}
		return nil, wrapped
	}

	if size == 0 {
		size = bytesWritten
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(bytesWritten, size)
		config.ProgressTracker.Complete()
	}

	result := &s3types.DownloadResult{
		Key:      key,
		Size:     size,
		ETag:     aws.ToString(output.ETag),
		Duration: time.Since(startTime),
	}

	return result, nil
}

// progressReader wraps an io.Reader to track progress and honor cancellation.
type progressReader struct {
	ctx             context.Context
	reader          io.Reader
	progressTracker s3types.ProgressTracker
	total           int64
	bytesRead       int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	if err := pr.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.bytesRead += int64(n)
		if pr.progressTracker != nil {
			pr.progressTracker.Update(pr.bytesRead, pr.total)
		}
	}
	//nolint:wrapcheck // io.Reader interface contract - error comes from underlying reader
	return n, err
}

// wrapTransferErr wraps an error in operation context, mapping context
// cancellation to ErrTransferCancelled.
func wrapTransferErr(op, bucket, key string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewObjectError(op, bucket, key, errors.ErrTransferCancelled)
	}
	return errors.NewError(op, err).WithBucket(bucket).WithKey(key)
}

// isObjectNotFound checks if an error indicates that an object was not found.
func isObjectNotFound(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") || strings.Contains(errStr, "NotFound")
}
