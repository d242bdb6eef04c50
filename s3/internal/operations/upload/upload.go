// Package upload handles S3 object upload operations.
// This includes simple uploads and multipart uploads with concurrent part transfer.
//
// The package automatically detects when to use multipart upload based on
// size thresholds and handles concurrent part uploads for optimal performance.
package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/internal/s3api"
	"github.com/lflfm/pys3b/s3/s3types"
)

const (
	// DefaultPartSize is the part size used when none is configured.
	DefaultPartSize = 8 * 1024 * 1024

	// DefaultMultipartThreshold is the size above which multipart upload is used.
	DefaultMultipartThreshold = 100 * 1024 * 1024

	// DefaultConcurrency is the number of parts uploaded in parallel.
	DefaultConcurrency = 4

	// MinPartSize is the S3 minimum part size for all parts except the last.
	MinPartSize = 5 * 1024 * 1024
)

// Uploader handles S3 upload operations with automatic multipart detection.
type Uploader struct {
	s3Client s3api.S3API
}

// New creates a new Uploader instance.
func New(s3Client s3api.S3API) *Uploader {
	return &Uploader{
		s3Client: s3Client,
	}
}

// Upload uploads data from an io.Reader to S3.
// It automatically detects when to use multipart upload based on size thresholds.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	config *s3types.UploadConfig,
	startTime time.Time,
) (*s3types.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewError("upload", err).WithBucket(bucket).WithKey(key)
	}

	return u.UploadSized(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), config, startTime)
}

// UploadSized uploads data of a known size, choosing between a simple PUT and
// a multipart upload based on the configured threshold.
func (u *Uploader) UploadSized(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	config *s3types.UploadConfig,
	startTime time.Time,
) (*s3types.UploadResult, error) {
	threshold := config.MultipartThreshold
	if threshold <= 0 {
		threshold = DefaultMultipartThreshold
	}

	if size >= threshold {
		return u.uploadMultipart(ctx, bucket, key, reader, size, config, startTime)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, wrapTransferErr("upload", bucket, key, err)
	}

	return u.uploadSimple(ctx, bucket, key, data, config, startTime)
}

// uploadSimple performs a simple (non-multipart) S3 upload.
func (u *Uploader) uploadSimple(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *s3types.UploadConfig,
	startTime time.Time,
) (*s3types.UploadResult, error) {
	size := int64(len(data))

	input := &s3.PutObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(data),
		ContentLength:     aws.Int64(size),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmSha256,
	}

	if config.ContentType != "" {
		input.ContentType = aws.String(config.ContentType)
	}

	if len(config.Metadata) > 0 {
		input.Metadata = config.Metadata
	}

	output, err := u.s3Client.PutObject(ctx, input)
	if err != nil {
		return nil, wrapTransferErr("uploadSimple", bucket, key, err)
	}

	result := &s3types.UploadResult{
		Key:      key,
		Size:     size,
		ETag:     aws.ToString(output.ETag),
		Duration: time.Since(startTime),
	}
	if output.VersionId != nil {
		result.VersionID = *output.VersionId
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return result, nil
}

// completedPart pairs an uploaded part's number with its ETag.
type completedPart struct {
	number int32
	etag   *string
}

// uploadMultipart performs a multipart S3 upload for large files.
// Parts are read sequentially and uploaded by a bounded pool of workers.
func (u *Uploader) uploadMultipart(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	config *s3types.UploadConfig,
	startTime time.Time,
) (*s3types.UploadResult, error) {
	partSize := config.PartSize
	if partSize < MinPartSize {
		partSize = DefaultPartSize
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	createInput := &s3.CreateMultipartUploadInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmSha256,
	}
	if config.ContentType != "" {
		createInput.ContentType = aws.String(config.ContentType)
	}
	if len(config.Metadata) > 0 {
		createInput.Metadata = config.Metadata
	}

	createOutput, err := u.s3Client.CreateMultipartUpload(ctx, createInput)
	if err != nil {
		return nil, wrapTransferErr("uploadMultipart", bucket, key, err)
	}
	uploadID := aws.ToString(createOutput.UploadId)

	parts, err := u.uploadParts(ctx, bucket, key, uploadID, reader, size, partSize, concurrency, config)
	if err != nil {
		u.abortMultipartUpload(bucket, key, uploadID)
		if config.ProgressTracker != nil {
			config.ProgressTracker.Error(err)
		}
		return nil, err
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].number < parts[j].number })
	completed := make([]awstypes.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       p.etag,
			PartNumber: aws.Int32(p.number),
		}
	}

	completeInput := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	}

	completeOutput, err := u.s3Client.CompleteMultipartUpload(ctx, completeInput)
	if err != nil {
		u.abortMultipartUpload(bucket, key, uploadID)
		return nil, wrapTransferErr("uploadMultipart", bucket, key, err)
	}

	result := &s3types.UploadResult{
		Key:      key,
		Size:     size,
		ETag:     aws.ToString(completeOutput.ETag),
		Duration: time.Since(startTime),
	}
	if completeOutput.VersionId != nil {
		result.VersionID = *completeOutput.VersionId
	}

	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return result, nil
}

// uploadParts reads the input sequentially and uploads parts concurrently.
func (u *Uploader) uploadParts(
	ctx context.Context,
	bucket, key, uploadID string,
	reader io.Reader,
	size, partSize int64,
	concurrency int,
	config *s3types.UploadConfig,
) ([]completedPart, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		parts    []completedPart
		firstErr error
		uploaded atomic.Int64
	)

	sem := make(chan struct{}, concurrency)
	partNumber := int32(0)

	for {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, errors.NewObjectError("uploadMultipart", bucket, key, errors.ErrTransferCancelled)
		}

		mu.Lock()
		failed := firstErr
		mu.Unlock()
		if failed != nil {
			break
		}

		buf := make([]byte, partSize)
		n, readErr := io.ReadFull(reader, buf)
		if readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			wg.Wait()
			return nil, errors.NewObjectError("uploadMultipart", bucket, key, readErr)
		}

		partNumber++
		num := partNumber
		body := buf[:n]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			output, err := u.s3Client.UploadPart(ctx, &s3.UploadPartInput{
				Bucket:     aws.String(bucket),
				Key:        aws.String(key),
				UploadId:   aws.String(uploadID),
				PartNumber: aws.Int32(num),
				Body:       bytes.NewReader(body),
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = wrapTransferErr("uploadMultipart", bucket, key, err)
				}
				return
			}
			parts = append(parts, completedPart{number: num, etag: output.ETag})
			done := uploaded.Add(int64(len(body)))
			if config.ProgressTracker != nil {
				config.ProgressTracker.Update(done, size)
			}
		}()

		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return parts, nil
}

// abortMultipartUpload cleans up a failed multipart upload.
// A fresh context is used so cleanup still runs after cancellation.
func (u *Uploader) abortMultipartUpload(bucket, key, uploadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, _ = u.s3Client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
}

// wrapTransferErr wraps an error in operation context, mapping context
// cancellation to ErrTransferCancelled.
func wrapTransferErr(op, bucket, key string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewObjectError(op, bucket, key, errors.ErrTransferCancelled)
	}
	return errors.NewError(op, err).WithBucket(bucket).WithKey(key)
}
