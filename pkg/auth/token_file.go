package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persister stores a credential between process runs. Implementations can use
// a file, a keychain, or any other backend; the library only needs load/save.
type Persister interface {
	// Load returns the stored credential, or (nil, nil) when none exists yet.
	Load() (*Credential, error)

	// Save stores the credential, replacing any previous one.
	Save(Credential) error
}

// FileStore persists the credential as a plain JSON document
// {access_token, refresh_token, expires_at} at a fixed path.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load implements Persister. A missing file is not an error: it simply means
// the user has not authenticated yet.
func (f *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file %s: %w", f.Path, err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", f.Path, err)
	}
	return &cred, nil
}

// Save implements Persister. The file is written with 0600 permissions since
// it holds live credentials.
func (f *FileStore) Save(cred Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", f.Path, err)
	}
	return nil
}
