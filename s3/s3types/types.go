// Package s3types provides shared type definitions for the S3 module.
package s3types

import (
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"
)

// Object represents an S3 object with its basic metadata.
type Object struct {
	// Key is the S3 object key (path)
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the S3 entity tag for the object
	ETag string

	// StorageClass is the S3 storage class
	StorageClass string
}

// Bucket represents an S3 bucket.
type Bucket struct {
	// Name is the bucket name
	Name string

	// CreationDate is when the bucket was created
	CreationDate time.Time
}

// ObjectDetails contains detailed metadata about a single S3 object,
// retrieved via a HEAD request with checksum mode enabled.
type ObjectDetails struct {
	// Bucket is the bucket holding the object
	Bucket string

	// Key is the S3 object key
	Key string

	// Size is the size of the object in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// StorageClass is the S3 storage class
	StorageClass string

	// ETag is the S3 entity tag for the object
	ETag string

	// ContentType is the MIME type of the object
	ContentType string

	// Metadata contains user-defined metadata
	Metadata map[string]string

	// Checksums maps algorithm name (CRC32, CRC32C, SHA1, SHA256) to the
	// checksum value. Only algorithms the object actually carries appear.
	Checksums map[string]string
}

// ListResult contains a single page of a list operation.
type ListResult struct {
	// Objects contains the listed objects
	Objects []Object

	// CommonPrefixes contains the prefixes grouped by the delimiter
	CommonPrefixes []string

	// IsTruncated indicates if the results were truncated
	IsTruncated bool

	// NextContinuationToken is the token for the next page of results
	NextContinuationToken string

	// Duration is how long the operation took
	Duration time.Duration
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called periodically with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the S3 object key that was uploaded
	Key string

	// Size is the size of the uploaded object in bytes
	Size int64

	// ETag is the S3 entity tag for the uploaded object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Key is the S3 object key that was downloaded
	Key string

	// Size is the size of the downloaded object in bytes
	Size int64

	// ETag is the S3 entity tag for the downloaded object
	ETag string

	// Duration is how long the download took
	Duration time.Duration
}

// DeleteResult contains the result of a batch delete operation.
type DeleteResult struct {
	// Deleted contains successfully deleted objects
	Deleted []Object

	// Errors contains any errors that occurred during deletion
	Errors []DeleteError

	// Duration is how long the operation took
	Duration time.Duration
}

// DeleteError represents an error that occurred during a delete operation.
type DeleteError struct {
	// Key is the S3 object key that failed to delete
	Key string

	// Code is the error code
	Code string

	// Message is the error message
	Message string
}

// PresignMethod selects the HTTP method a presigned URL is generated for.
type PresignMethod string

// Supported presign methods.
const (
	PresignGet  PresignMethod = "get"
	PresignPut  PresignMethod = "put"
	PresignPost PresignMethod = "post"
)

// PostKeyMode controls how the object key of a presigned POST policy is built.
type PostKeyMode string

const (
	// PostKeySingle uses the key exactly as provided
	PostKeySingle PostKeyMode = "single"

	// PostKeyPrefix treats the key as a prefix; the browser substitutes the
	// uploaded file name via the S3 ${filename} template
	PostKeyPrefix PostKeyMode = "prefix"
)

// PresignResult contains a presigned URL and, for POST policies, the form
// fields the client must submit alongside the file.
type PresignResult struct {
	// URL is the presigned URL
	URL string

	// Fields contains the POST form fields (nil for GET and PUT)
	Fields map[string]string
}

// Configuration types for functional options

// ClientConfig holds configuration for the S3 client.
type ClientConfig struct {
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	MaxRetries     int
	Timeout        time.Duration
	Concurrency    int
	PartSize       int64
	MultipartSize  int64 // threshold above which multipart upload is used
	ForcePathStyle bool
	HTTPClient     *http.Client
	Filesystem     billy.Filesystem // filesystem abstraction for file operations
}

// UploadConfig holds configuration for upload operations.
type UploadConfig struct {
	ContentType        string
	Metadata           map[string]string
	ProgressTracker    ProgressTracker
	PartSize           int64
	Concurrency        int
	MultipartThreshold int64
}

// DownloadConfig holds configuration for download operations.
type DownloadConfig struct {
	ProgressTracker ProgressTracker
	RangeSpec       string
}

// ListConfig holds configuration for list operations via functional options.
type ListConfig struct {
	Prefix            string
	Delimiter         string
	MaxKeys           int32
	ContinuationToken string
	StartAfter        string
}

// PresignConfig holds configuration for presign operations via functional options.
type PresignConfig struct {
	Expires            time.Duration
	ContentType        string
	ContentDisposition string
	KeyMode            PostKeyMode
	MaxSize            int64
}

// Option is a functional option for configuring the S3 client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring S3 upload operations.
	UploadOption func(*UploadConfig)
	// DownloadOption is a functional option for configuring S3 download operations.
	DownloadOption func(*DownloadConfig)
	// ListOption is a functional option for configuring S3 list operations.
	ListOption func(*ListConfig)
	// PresignOption is a functional option for configuring presign operations.
	PresignOption func(*PresignConfig)
)
