// Package browser coordinates connection profiles, the active S3 connection,
// and the listing and transfer operations a view drives. It is UI-agnostic:
// a desktop shell, a TUI, or the bundled CLI can all sit on top of it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lflfm/pys3b/profile"
	"github.com/lflfm/pys3b/s3"
	"github.com/lflfm/pys3b/s3/s3types"
)

// ErrNotConnected is returned when an object operation is attempted before
// a connection has been established.
var ErrNotConnected = errors.New("browser: not connected")

// Service is the slice of the S3 client the browser uses. It exists so
// tests can substitute a fake connection.
type Service interface {
	ListBuckets(ctx context.Context) ([]s3types.Bucket, error)
	List(ctx context.Context, bucket, prefix string, opts ...s3types.ListOption) (*s3types.ListResult, error)
	GetObjectDetails(ctx context.Context, bucket, key string) (*s3types.ObjectDetails, error)
	UploadFile(ctx context.Context, bucket, key, path string, opts ...s3types.UploadOption) (*s3types.UploadResult, error)
	DownloadFile(ctx context.Context, bucket, key, path string, opts ...s3types.DownloadOption) (*s3types.DownloadResult, error)
	Delete(ctx context.Context, bucket, key string) error
	Presign(
		ctx context.Context,
		method s3types.PresignMethod,
		bucket, key string,
		opts ...s3types.PresignOption,
	) (*s3types.PresignResult, error)
}

// The real client satisfies the browser's view of it.
var _ Service = (*s3.Client)(nil)

// ClientFactory builds a Service for the given connection parameters.
type ClientFactory func(endpointURL, accessKey, secretKey string) (Service, error)

// defaultClientFactory builds a real S3 client.
func defaultClientFactory(endpointURL, accessKey, secretKey string) (Service, error) {
	return s3.New(
		s3.WithEndpoint(endpointURL),
		s3.WithCredentials(accessKey, secretKey),
	)
}

// Session holds the loaded profiles and the active connection.
// All methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	store    *profile.Store
	factory  ClientFactory
	profiles []profile.Profile
	selected string
	conn     Service
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClientFactory overrides how connections are built. Used by tests and
// by callers that need custom client tuning.
func WithClientFactory(factory ClientFactory) SessionOption {
	return func(s *Session) {
		s.factory = factory
	}
}

// NewSession creates a session over the given profile store and loads its
// profiles. The session starts disconnected.
func NewSession(store *profile.Store, opts ...SessionOption) (*Session, error) {
	s := &Session{
		store:   store,
		factory: defaultClientFactory,
	}
	for _, opt := range opts {
		opt(s)
	}

	profiles, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	s.profiles = profiles

	return s, nil
}

// IsConnected reports whether a connection has been established.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// SelectedProfile returns the name of the profile used to connect, or ""
// when connected ad hoc or not at all.
func (s *Session) SelectedProfile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Profiles returns a copy of the loaded profiles.
func (s *Session) Profiles() []profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]profile.Profile(nil), s.profiles...)
}

// Profile returns the named profile.
func (s *Session) Profile(name string) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findProfile(name)
}

// SaveProfile inserts or updates a profile and persists the set. When
// originalName differs from the profile's name, the old entry is removed
// first; its keychain entry goes with it on save.
func (s *Session) SaveProfile(p profile.Profile, originalName string) error {
	if p.Name == "" {
		return errors.New("browser: profile name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if originalName != "" && originalName != p.Name {
		s.removeProfile(originalName)
	}
	s.upsertProfile(p)

	return s.store.Save(s.profiles)
}

// DeleteProfile removes the named profile and persists the set.
// Deleting an unknown profile is an error. If the deleted profile was the
// selected one, the selection is cleared.
func (s *Session) DeleteProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeProfile(name) {
		return fmt.Errorf("browser: profile %q does not exist", name)
	}
	if s.selected == name {
		s.selected = ""
	}

	return s.store.Save(s.profiles)
}

// ConnectProfile connects using the named profile's parameters.
func (s *Session) ConnectProfile(ctx context.Context, name string) ([]s3types.Bucket, error) {
	s.mu.Lock()
	p, err := s.findProfile(name)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.selected = name
	s.mu.Unlock()

	return s.Connect(ctx, p.EndpointURL, p.AccessKey, p.SecretKey)
}

// Connect establishes a connection with explicit parameters and verifies it
// by listing buckets. The connection is retained only when the verification
// succeeds.
func (s *Session) Connect(ctx context.Context, endpointURL, accessKey, secretKey string) ([]s3types.Bucket, error) {
	conn, err := s.factory(endpointURL, accessKey, secretKey)
	if err != nil {
		return nil, err
	}

	buckets, err := conn.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	return buckets, nil
}

// Disconnect drops the active connection and clears the selection.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = nil
	s.selected = ""
}

// RefreshBuckets re-lists the buckets over the active connection.
func (s *Session) RefreshBuckets(ctx context.Context) ([]s3types.Bucket, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	return conn.ListBuckets(ctx)
}

// ObjectDetails fetches metadata about a single object.
func (s *Session) ObjectDetails(ctx context.Context, bucket, key string) (*s3types.ObjectDetails, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	return conn.GetObjectDetails(ctx, bucket, key)
}

// Upload uploads a local file to the bucket.
func (s *Session) Upload(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.UploadOption,
) (*s3types.UploadResult, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	return conn.UploadFile(ctx, bucket, key, path, opts...)
}

// Download downloads an object to a local file.
func (s *Session) Download(
	ctx context.Context,
	bucket, key, path string,
	opts ...s3types.DownloadOption,
) (*s3types.DownloadResult, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	return conn.DownloadFile(ctx, bucket, key, path, opts...)
}

// DeleteObject removes an object from the bucket.
func (s *Session) DeleteObject(ctx context.Context, bucket, key string) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	return conn.Delete(ctx, bucket, key)
}

// PresignURL generates a presigned URL or POST policy for an object.
func (s *Session) PresignURL(
	ctx context.Context,
	method s3types.PresignMethod,
	bucket, key string,
	opts ...s3types.PresignOption,
) (*s3types.PresignResult, error) {
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	return conn.Presign(ctx, method, bucket, key, opts...)
}

// connection returns the active connection or ErrNotConnected.
func (s *Session) connection() (Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn, nil
}

// findProfile looks up a profile by name. Callers hold the lock.
func (s *Session) findProfile(name string) (profile.Profile, error) {
	for _, p := range s.profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return profile.Profile{}, fmt.Errorf("browser: profile %q does not exist", name)
}

// upsertProfile replaces a profile in place or appends it. Callers hold the lock.
func (s *Session) upsertProfile(p profile.Profile) {
	for i, existing := range s.profiles {
		if existing.Name == p.Name {
			s.profiles[i] = p
			return
		}
	}
	s.profiles = append(s.profiles, p)
}

// removeProfile deletes a profile by name, reporting whether it existed.
// Callers hold the lock.
func (s *Session) removeProfile(name string) bool {
	for i, existing := range s.profiles {
		if existing.Name == name {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			return true
		}
	}
	return false
}
