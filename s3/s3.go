// Package s3 provides the main S3 client and core operations.
package s3

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	s3errors "github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/internal/validation"
	"github.com/lflfm/pys3b/s3/s3types"
)

const (
	// DefaultContentType is the default content type used when content type detection fails
	DefaultContentType = "application/octet-stream"

	// maxBatchDeleteSize is the S3 limit on keys per DeleteObjects request
	maxBatchDeleteSize = 1000
)

// ListBuckets lists the buckets owned by the authenticated caller.
// This doubles as a connectivity check: it is the cheapest request that
// verifies both the endpoint and the credentials.
//
// Returns:
//   - []Bucket: The caller's buckets with names and creation dates
//   - error: Returns an error if the request fails
//
// Errors:
//   - ErrAccessDenied: If the credentials lack permission to list buckets
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) ListBuckets(ctx context.Context) ([]s3types.Bucket, error) {
	output, err := c.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, s3errors.NewError("listBuckets", err)
	}

	buckets := make([]s3types.Bucket, 0, len(output.Buckets))
	for _, b := range output.Buckets {
		bucket := s3types.Bucket{
			Name: aws.ToString(b.Name),
		}
		if b.CreationDate != nil {
			bucket.CreationDate = *b.CreationDate
		}
		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

// List lists objects in an S3 bucket, returning a single page of results.
// Use opts to specify a delimiter, max keys, and pagination tokens.
//
// Delimiter-based listing groups keys into common prefixes, which is how
// browsers present folder-like navigation. When the result is truncated,
// pass NextContinuationToken back via WithContinuationToken for the next page.
//
// Returns:
//   - *ListResult: Contains the objects, common prefixes, and pagination state
//   - error: Returns an error if the listing fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrAccessDenied: If the credentials lack permission to list
//   - ErrBucketNotFound: If the specified bucket doesn't exist
//   - Network errors or AWS SDK errors wrapped in Error type
//
// Example:
//
//	result, err := client.List(ctx, "my-bucket", "photos/",
//	    s3.WithDelimiter("/"),
//	    s3.WithMaxKeys(50),
//	)
//	if err != nil {
//	    return err
//	}
//	for _, obj := range result.Objects {
//	    fmt.Printf("Object: %s, Size: %d\n", obj.Key, obj.Size)
//	}
func (c *Client) List(
	ctx context.Context,
	bucket, prefix string,
	opts ...s3types.ListOption,
) (*s3types.ListResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("list", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(err.Error())
	}

	config := &s3types.ListConfig{}
	for _, opt := range opts {
		opt(config)
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if config.Delimiter != "" {
		input.Delimiter = aws.String(config.Delimiter)
	}
	if config.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(config.MaxKeys)
	}
	if config.ContinuationToken != "" {
		input.ContinuationToken = aws.String(config.ContinuationToken)
	}
	if config.StartAfter != "" {
		input.StartAfter = aws.String(config.StartAfter)
	}

	startTime := time.Now()

	output, err := c.s3Client.ListObjectsV2(ctx, input)
	if err != nil {
		if isNoSuchBucket(err) {
			return nil, s3errors.NewError("list", s3errors.ErrBucketNotFound).WithBucket(bucket)
		}
		return nil, s3errors.NewError("list", err).WithBucket(bucket)
	}

	result := &s3types.ListResult{
		Objects:  make([]s3types.Object, 0, len(output.Contents)),
		Duration: time.Since(startTime),
	}

	for _, obj := range output.Contents {
		object := s3types.Object{
			Key:          aws.ToString(obj.Key),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		}
		if obj.Size != nil {
			object.Size = *obj.Size
		}
		if obj.LastModified != nil {
			object.LastModified = *obj.LastModified
		}
		result.Objects = append(result.Objects, object)
	}

	for _, cp := range output.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, aws.ToString(cp.Prefix))
	}

	if output.IsTruncated != nil {
		result.IsTruncated = *output.IsTruncated
	}
	result.NextContinuationToken = aws.ToString(output.NextContinuationToken)

	return result, nil
}

// GetObjectDetails retrieves detailed metadata about an object via a HEAD
// request with checksum mode enabled. Checksums are reported only for the
// algorithms the object actually carries.
//
// Returns:
//   - *ObjectDetails: Size, timestamps, content type, user metadata, and checksums
//   - error: Returns an error if the request fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid
//   - ErrObjectNotFound: If the specified object doesn't exist
//   - ErrAccessDenied: If the credentials lack permission
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) GetObjectDetails(ctx context.Context, bucket, key string) (*s3types.ObjectDetails, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("getObjectDetails", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, s3errors.NewError("getObjectDetails", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	output, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		ChecksumMode: awstypes.ChecksumModeEnabled,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, s3errors.NewObjectError("getObjectDetails", bucket, key, s3errors.ErrObjectNotFound)
		}
		return nil, s3errors.NewError("getObjectDetails", err).WithBucket(bucket).WithKey(key)
	}

	details := &s3types.ObjectDetails{
		Bucket:       bucket,
		Key:          key,
		ETag:         aws.ToString(output.ETag),
		ContentType:  aws.ToString(output.ContentType),
		StorageClass: string(output.StorageClass),
		Metadata:     output.Metadata,
		Checksums:    make(map[string]string),
	}
	if output.ContentLength != nil {
		details.Size = *output.ContentLength
	}
	if output.LastModified != nil {
		details.LastModified = *output.LastModified
	}

	// Only the algorithm the object was uploaded with is populated.
	checksums := map[string]*string{
		"CRC32":  output.ChecksumCRC32,
		"CRC32C": output.ChecksumCRC32C,
		"SHA1":   output.ChecksumSHA1,
		"SHA256": output.ChecksumSHA256,
	}
	for algo, value := range checksums {
		if value != nil && *value != "" {
			details.Checksums[algo] = *value
		}
	}

	return details, nil
}

// Exists checks whether an object exists in the bucket.
//
// Returns:
//   - bool: true if the object exists
//   - error: Returns an error for failures other than the object being absent
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return false, s3errors.NewError("exists", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return false, s3errors.NewError("exists", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, s3errors.NewError("exists", err).WithBucket(bucket).WithKey(key)
	}

	return true, nil
}

// Delete removes a single object from the bucket.
// Deleting a key that does not exist is not an error; S3 delete is idempotent.
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If the key is invalid
//   - ErrAccessDenied: If the credentials lack permission to delete
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return s3errors.NewError("delete", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return s3errors.NewError("delete", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(err.Error())
	}

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s3errors.NewError("delete", err).WithBucket(bucket).WithKey(key)
	}

	return nil
}

// DeleteMany removes up to 1000 objects from the bucket in a single batch
// request. Per-key failures are reported in the result rather than as an
// error so partial success is visible to the caller.
//
// Returns:
//   - *DeleteResult: Successfully deleted keys and per-key failures
//   - error: Returns an error if the batch request itself fails
//
// Errors:
//   - ErrInvalidBucketName: If the bucket name is invalid
//   - ErrInvalidInput: If keys is empty, a key is invalid, or the batch exceeds 1000 keys
//   - ErrAccessDenied: If the credentials lack permission to delete
//   - Network errors or AWS SDK errors wrapped in Error type
func (c *Client) DeleteMany(ctx context.Context, bucket string, keys []string) (*s3types.DeleteResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(err.Error())
	}
	if len(keys) == 0 {
		return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("keys cannot be empty")
	}
	if len(keys) > maxBatchDeleteSize {
		return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
			WithBucket(bucket).
			WithMessage("cannot delete more than 1000 keys in a single batch")
	}

	objects := make([]awstypes.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		if err := validation.ValidateObjectKey(key); err != nil {
			return nil, s3errors.NewError("deleteMany", s3errors.ErrInvalidInput).
				WithBucket(bucket).
				WithKey(key).
				WithMessage(err.Error())
		}
		objects = append(objects, awstypes.ObjectIdentifier{Key: aws.String(key)})
	}

	startTime := time.Now()

	output, err := c.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &awstypes.Delete{
			Objects: objects,
			Quiet:   aws.Bool(false),
		},
	})
	if err != nil {
		return nil, s3errors.NewError("deleteMany", err).WithBucket(bucket)
	}

	result := &s3types.DeleteResult{
		Duration: time.Since(startTime),
	}
	for _, deleted := range output.Deleted {
		result.Deleted = append(result.Deleted, s3types.Object{
			Key: aws.ToString(deleted.Key),
		})
	}
	for _, delErr := range output.Errors {
		result.Errors = append(result.Errors, s3types.DeleteError{
			Key:     aws.ToString(delErr.Key),
			Code:    aws.ToString(delErr.Code),
			Message: aws.ToString(delErr.Message),
		})
	}

	return result, nil
}

// detectContentType determines the content type using mimetype where possible,
// falling back to extension-based lookup when the path is not a local file.
func (c *Client) detectContentType(path string) string {
	fs := c.getFS()

	info, err := fs.Stat(path)
	if err != nil || info.IsDir() {
		return detectContentTypeFromExtension(path)
	}

	file, err := fs.Open(path)
	if err != nil {
		return detectContentTypeFromExtension(path)
	}
	defer file.Close()

	// Read first 512 bytes for content detection
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}

	return detectContentTypeFromExtension(path)
}

// isNotFound checks if an error indicates that an object was not found.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *awstypes.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *awstypes.NoSuchKey
	return errors.As(err, &noSuchKey)
}

// isNoSuchBucket checks if an error indicates that a bucket was not found.
func isNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	var noSuchBucket *awstypes.NoSuchBucket
	return errors.As(err, &noSuchBucket)
}
