// Package s3 provides functional options for configuring S3 client behavior.
// These options follow the functional options pattern for clean, composable configuration.
package s3

import (
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/lflfm/pys3b/s3/s3types"
)

// WithRegion sets the AWS region for S3 operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is how clients address S3-compatible services such as MinIO or
// LocalStack. Setting an endpoint also switches to path-style addressing.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithCredentials sets static credentials for the client.
// If not specified, the default AWS credential chain is used.
func WithCredentials(accessKey, secretKey string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed operations.
// Default is 3 retries. Set to 0 to disable retries.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual S3 operations.
// Default is no timeout (0). Values should be positive durations.
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the maximum number of concurrent part uploads.
// Default is 4 concurrent operations.
func WithConcurrency(concurrency int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithPartSize sets the part size for multipart uploads.
// Default is 8MB. Must be at least 5MB for S3 multipart uploads.
func WithPartSize(partSize int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithMultipartThreshold sets the object size above which uploads switch
// to multipart. Default is 100MB.
func WithMultipartThreshold(threshold int64) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if threshold > 0 {
			c.MultipartSize = threshold
		}
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
// Default is false (uses virtual-hosted style), unless an endpoint is set.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts and proxies.
func WithHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithFilesystem sets a custom filesystem implementation for file operations.
// This allows using in-memory filesystems for testing or virtual filesystems.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithContentType sets the content type for upload operations,
// bypassing automatic detection.
func WithContentType(contentType string) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata for upload operations.
func WithMetadata(metadata map[string]string) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithProgress sets a progress tracker for upload operations.
func WithProgress(tracker s3types.ProgressTracker) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		c.ProgressTracker = tracker
	}
}

// WithUploadPartSize sets the part size for a specific multipart upload.
// This overrides the client-level default.
func WithUploadPartSize(partSize int64) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithUploadConcurrency sets the part concurrency for a specific upload.
// This overrides the client-level default.
func WithUploadConcurrency(concurrency int) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithUploadMultipartThreshold sets the multipart threshold for a specific upload.
func WithUploadMultipartThreshold(threshold int64) s3types.UploadOption {
	return func(c *s3types.UploadConfig) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}

// WithDownloadProgress sets a progress tracker for download operations.
func WithDownloadProgress(tracker s3types.ProgressTracker) s3types.DownloadOption {
	return func(c *s3types.DownloadConfig) {
		c.ProgressTracker = tracker
	}
}

// WithRange sets an HTTP range specification for download operations,
// e.g. "bytes=0-1023".
func WithRange(rangeSpec string) s3types.DownloadOption {
	return func(c *s3types.DownloadConfig) {
		c.RangeSpec = rangeSpec
	}
}

// WithPrefix limits a list operation to keys beginning with the prefix.
func WithPrefix(prefix string) s3types.ListOption {
	return func(c *s3types.ListConfig) {
		c.Prefix = prefix
	}
}

// WithDelimiter groups listed keys by the delimiter into common prefixes.
// Browsers typically pass "/" to get folder-like navigation.
func WithDelimiter(delimiter string) s3types.ListOption {
	return func(c *s3types.ListConfig) {
		c.Delimiter = delimiter
	}
}

// WithMaxKeys caps the number of keys returned in a single list page.
func WithMaxKeys(maxKeys int32) s3types.ListOption {
	return func(c *s3types.ListConfig) {
		if maxKeys > 0 {
			c.MaxKeys = maxKeys
		}
	}
}

// WithContinuationToken resumes a list operation from a previous page.
func WithContinuationToken(token string) s3types.ListOption {
	return func(c *s3types.ListConfig) {
		c.ContinuationToken = token
	}
}

// WithStartAfter starts a list operation after the given key.
func WithStartAfter(startAfter string) s3types.ListOption {
	return func(c *s3types.ListConfig) {
		c.StartAfter = startAfter
	}
}

// WithExpiry sets the lifetime of a presigned URL or POST policy.
func WithExpiry(expires time.Duration) s3types.PresignOption {
	return func(c *s3types.PresignConfig) {
		c.Expires = expires
	}
}

// WithPresignContentType constrains the content type of a presigned request.
// For GET it sets the response content type; for PUT and POST it constrains
// what the uploader may send.
func WithPresignContentType(contentType string) s3types.PresignOption {
	return func(c *s3types.PresignConfig) {
		c.ContentType = contentType
	}
}

// WithContentDisposition sets the content disposition of a presigned request.
func WithContentDisposition(disposition string) s3types.PresignOption {
	return func(c *s3types.PresignConfig) {
		c.ContentDisposition = disposition
	}
}

// WithPostKeyMode selects how a presigned POST policy treats the object key:
// PostKeySingle uses it verbatim, PostKeyPrefix lets the uploader choose the
// file name under the prefix.
func WithPostKeyMode(mode s3types.PostKeyMode) s3types.PresignOption {
	return func(c *s3types.PresignConfig) {
		c.KeyMode = mode
	}
}

// WithPostMaxSize caps the size of uploads accepted by a presigned POST policy.
func WithPostMaxSize(maxSize int64) s3types.PresignOption {
	return func(c *s3types.PresignConfig) {
		c.MaxSize = maxSize
	}
}
