// Package profile manages named connection profiles for S3-compatible
// endpoints. Profiles persist to a JSON file under the user's home
// directory; secret keys never touch the file and are held in the OS
// keychain instead. Legacy files that still carry plaintext secrets are
// migrated into the keychain and rewritten on first load.
package profile

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/lflfm/pys3b/keychain"
)

// Profile describes a connection to an S3-compatible endpoint.
// SecretKey is hydrated from the keychain and is never written to disk.
type Profile struct {
	Name        string `json:"name"`
	EndpointURL string `json:"endpoint_url"`
	AccessKey   string `json:"access_key"`
	SecretKey   string `json:"-"`
}

// diskProfile is the on-disk representation. Pointer fields distinguish
// absent required fields from empty ones so incomplete entries can be
// skipped on load. The secret_key field exists only to read legacy files
// that predate keychain storage; it is never populated when writing.
type diskProfile struct {
	Name        *string `json:"name"`
	EndpointURL *string `json:"endpoint_url"`
	AccessKey   *string `json:"access_key"`
	SecretKey   string  `json:"secret_key,omitempty"`
}

// complete reports whether the entry carries every required field.
func (d diskProfile) complete() bool {
	return d.Name != nil && *d.Name != "" && d.EndpointURL != nil && d.AccessKey != nil
}

// Store persists connection profiles, splitting them between a JSON file
// and a keychain.
type Store struct {
	fs   billy.Filesystem
	path string
	keys keychain.Store
}

// NewStore creates a profile store over the given filesystem and keychain.
func NewStore(fs billy.Filesystem, path string, keys keychain.Store) *Store {
	return &Store{
		fs:   fs,
		path: path,
		keys: keys,
	}
}

// DefaultStore creates a store at the default location (~/.s3b/connections.json)
// backed by the OS filesystem and the system keychain.
func DefaultStore() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewStore(osfs.New("/"), path, keychain.System()), nil
}

// DefaultPath returns the default profile file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".s3b", "connections.json"), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads profiles from disk and hydrates their secrets from the keychain.
//
// A missing or unreadable file yields an empty list. Entries missing any of
// name, endpoint_url, or access_key are skipped. Entries carrying a plaintext
// secret_key are migrated into the keychain; when at least one was migrated,
// the file is rewritten without secrets. Profiles whose keychain entry is
// missing get an empty secret.
func (s *Store) Load() ([]Profile, error) {
	entries, err := s.readFile()
	if err != nil {
		return []Profile{}, nil
	}

	profiles := make([]Profile, 0, len(entries))
	migrated := false

	for _, entry := range entries {
		if !entry.complete() {
			continue
		}

		p := Profile{
			Name:        *entry.Name,
			EndpointURL: *entry.EndpointURL,
			AccessKey:   *entry.AccessKey,
		}

		if entry.SecretKey != "" {
			// Legacy plaintext secret: move it into the keychain.
			p.SecretKey = entry.SecretKey
			if err := s.keys.Set(p.Name, p.SecretKey); err == nil {
				migrated = true
			}
		} else {
			secret, err := s.keys.Get(p.Name)
			if err == nil {
				p.SecretKey = secret
			}
		}

		profiles = append(profiles, p)
	}

	if migrated {
		// Rewrite so plaintext secrets do not linger on disk.
		_ = s.writeFile(profiles)
	}

	return profiles, nil
}

// Save persists the given profiles. Secrets go to the keychain, the
// sanitized remainder to disk. Keychain entries for profiles that existed
// on disk but are absent from the new set are deleted, as are entries for
// profiles saved with an empty secret.
func (s *Store) Save(profiles []Profile) error {
	previous := s.existingNames()

	kept := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if p.Name == "" {
			continue
		}
		kept[p.Name] = true

		if p.SecretKey != "" {
			// Best effort: a failed keychain write must not lose the profile.
			_ = s.keys.Set(p.Name, p.SecretKey)
		} else {
			_ = s.keys.Delete(p.Name)
		}
	}

	for _, name := range previous {
		if !kept[name] {
			_ = s.keys.Delete(name)
		}
	}

	return s.writeFile(profiles)
}

// readFile parses the profile file into its raw on-disk entries.
func (s *Store) readFile() ([]diskProfile, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var entries []diskProfile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// writeFile persists sanitized profiles, creating parent directories as needed.
func (s *Store) writeFile(profiles []Profile) error {
	entries := make([]diskProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.Name == "" {
			continue
		}
		entries = append(entries, diskProfile{
			Name:        &p.Name,
			EndpointURL: &p.EndpointURL,
			AccessKey:   &p.AccessKey,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	return util.WriteFile(s.fs, s.path, data, 0o600)
}

// existingNames returns the profile names currently on disk.
func (s *Store) existingNames() []string {
	entries, err := s.readFile()
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name != nil && *entry.Name != "" {
			names = append(names, *entry.Name)
		}
	}
	return names
}
