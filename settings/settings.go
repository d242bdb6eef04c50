// Package settings persists application settings as JSON under the user's
// home directory. Loading is forgiving: a missing or corrupt file and
// invalid individual values all fall back to defaults, so the application
// never fails to start over a bad settings file.
package settings

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Default values applied when a setting is missing or invalid.
const (
	DefaultFetchLimit         = 10
	DefaultPostMaxSize        = 100 * 1024 * 1024
	DefaultMultipartThreshold = 100 * 1024 * 1024
	DefaultUploadChunkSize    = 8 * 1024 * 1024
	DefaultUploadConcurrency  = 4
)

// Settings holds the persistent application settings.
type Settings struct {
	// FetchLimit is the maximum number of keys fetched per listing request
	FetchLimit int `json:"fetch_limit"`

	// DefaultPostMaxSize is the default size cap for presigned POST policies, in bytes
	DefaultPostMaxSize int64 `json:"default_post_max_size"`

	// UploadMultipartThreshold is the size above which uploads switch to multipart, in bytes
	UploadMultipartThreshold int64 `json:"upload_multipart_threshold"`

	// UploadChunkSize is the multipart part size, in bytes
	UploadChunkSize int64 `json:"upload_chunk_size"`

	// UploadMaxConcurrency is the number of parts uploaded in parallel
	UploadMaxConcurrency int `json:"upload_max_concurrency"`

	// RememberLastBucket re-selects the last bucket and connection on startup
	RememberLastBucket bool `json:"remember_last_bucket"`

	// LastBucket is the most recently browsed bucket
	LastBucket string `json:"last_bucket"`

	// LastConnection is the most recently used profile name
	LastConnection string `json:"last_connection"`
}

// Defaults returns settings with all fields at their default values.
func Defaults() Settings {
	return Settings{
		FetchLimit:               DefaultFetchLimit,
		DefaultPostMaxSize:       DefaultPostMaxSize,
		UploadMultipartThreshold: DefaultMultipartThreshold,
		UploadChunkSize:          DefaultUploadChunkSize,
		UploadMaxConcurrency:     DefaultUploadConcurrency,
	}
}

// Store is JSON-backed persistence for Settings.
type Store struct {
	fs   billy.Filesystem
	path string
}

// NewStore creates a settings store over the given filesystem.
func NewStore(fs billy.Filesystem, path string) *Store {
	return &Store{
		fs:   fs,
		path: path,
	}
}

// DefaultStore creates a store at the default location (~/.s3b/settings.json)
// backed by the OS filesystem.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStore(osfs.New("/"), filepath.Join(home, ".s3b", "settings.json")), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads settings from disk. A missing or corrupt file yields defaults;
// individually invalid values fall back to their defaults as well.
func (s *Store) Load() Settings {
	result := Defaults()

	f, err := s.fs.Open(s.path)
	if err != nil {
		return result
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return result
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return result
	}

	if v, ok := positiveInt(raw["fetch_limit"]); ok {
		result.FetchLimit = int(v)
	}
	if v, ok := positiveInt(raw["default_post_max_size"]); ok {
		result.DefaultPostMaxSize = v
	}
	if v, ok := positiveInt(raw["upload_multipart_threshold"]); ok {
		result.UploadMultipartThreshold = v
	}
	if v, ok := positiveInt(raw["upload_chunk_size"]); ok {
		result.UploadChunkSize = v
	}
	if v, ok := positiveInt(raw["upload_max_concurrency"]); ok {
		result.UploadMaxConcurrency = int(v)
	}
	if v, ok := raw["remember_last_bucket"].(bool); ok {
		result.RememberLastBucket = v
	}
	if v, ok := raw["last_bucket"].(string); ok {
		result.LastBucket = v
	}
	if v, ok := raw["last_connection"].(string); ok {
		result.LastConnection = v
	}

	return result
}

// Save persists settings, clamping all numeric values to at least 1.
// Persistence is best effort; filesystem errors are swallowed so a
// read-only home directory does not break the application.
func (s *Store) Save(settings Settings) {
	payload := settings
	payload.FetchLimit = clampMin(payload.FetchLimit)
	payload.DefaultPostMaxSize = clampMin64(payload.DefaultPostMaxSize)
	payload.UploadMultipartThreshold = clampMin64(payload.UploadMultipartThreshold)
	payload.UploadChunkSize = clampMin64(payload.UploadChunkSize)
	payload.UploadMaxConcurrency = clampMin(payload.UploadMaxConcurrency)

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return
		}
	}

	_ = util.WriteFile(s.fs, s.path, data, 0o600)
}

// positiveInt extracts a positive integer from a decoded JSON value.
// JSON numbers decode as float64; anything else, and any value below 1,
// is rejected.
func positiveInt(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	n := int64(f)
	if n <= 0 {
		return 0, false
	}
	return n, true
}

func clampMin(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

func clampMin64(v int64) int64 {
	if v < 1 {
		return 1
	}
	return v
}
