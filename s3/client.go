// Package s3 provides client initialization and configuration.
//
// The Client provides a high-level interface for browsing S3-compatible
// object storage services, supporting operations like list, upload,
// download, delete, and presigned URL generation with configurable
// options for performance tuning and error handling.
package s3

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/lflfm/pys3b/s3/errors"
	"github.com/lflfm/pys3b/s3/internal/s3api"
	"github.com/lflfm/pys3b/s3/s3types"
)

// Client represents an S3 client bound to a single storage endpoint.
// It provides thread-safe access to S3 operations with built-in
// retry logic, concurrency control, and progress tracking.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// presignClient generates presigned URLs and POST policies
	presignClient s3api.PresignAPI

	// clientConfig holds the resolved client configuration
	clientConfig s3types.ClientConfig

	// mu protects concurrent access to client configuration
	mu sync.RWMutex

	// fs is the filesystem abstraction for file operations
	fs billy.Filesystem
}

// New creates a new S3 client with the provided options.
// Credentials come from WithCredentials when set; otherwise the default
// AWS credential chain is used. S3-compatible services behind a custom
// endpoint (WithEndpoint) are addressed with path-style URLs.
//
// Example:
//
//	client, err := s3.New(
//	    s3.WithEndpoint("https://minio.example.com:9000"),
//	    s3.WithCredentials("AKIA...", "secret"),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	clientCfg := s3types.ClientConfig{
		MaxRetries:     3,
		Timeout:        0,
		Concurrency:    4,
		PartSize:       8 * 1024 * 1024,
		MultipartSize:  100 * 1024 * 1024,
		ForcePathStyle: false,
	}

	for _, opt := range opts {
		opt(&clientCfg)
	}

	var cfg aws.Config
	var err error

	if clientCfg.AccessKey != "" {
		cfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(clientCfg.AccessKey, clientCfg.SecretKey, ""),
			),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
	}
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1" // AWS default region
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			// Custom endpoints rarely support virtual-hosted bucket addressing
			o.UsePathStyle = true
		})
	}

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.HTTPClient != nil {
		httpClient := clientCfg.HTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	} else if clientCfg.Timeout > 0 {
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	s3Client := s3.NewFromConfig(cfg, s3Opts...)

	var filesystem billy.Filesystem
	if clientCfg.Filesystem != nil {
		filesystem = clientCfg.Filesystem
	} else {
		filesystem = osfs.New("/")
	}

	client := &Client{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		clientConfig:  clientCfg,
		fs:            filesystem,
	}

	return client, nil
}

// NewWithClient creates a new S3 client with custom API implementations.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, presignClient s3api.PresignAPI) *Client {
	return &Client{
		s3Client:      s3Client,
		presignClient: presignClient,
		clientConfig: s3types.ClientConfig{
			Concurrency:   4,
			PartSize:      8 * 1024 * 1024,
			MultipartSize: 100 * 1024 * 1024,
		},
		fs: osfs.New("/"),
	}
}

// SetFilesystem sets the filesystem implementation for the client.
// This is useful for testing or when the filesystem needs to be changed after creation.
func (c *Client) SetFilesystem(filesystem billy.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

// getClientConfig returns a copy of the resolved client configuration.
func (c *Client) getClientConfig() s3types.ClientConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientConfig
}

// getFS returns the client's filesystem abstraction.
func (c *Client) getFS() billy.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}
