// Package credstore holds CredentialStore implementations used by the CLI and
// by long-running services that need refresh tokens to survive restarts.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// FileStore keeps credentials in a YAML file readable only by its owner.
type FileStore struct {
	path  string
	mutex sync.Mutex
}

// NewFileStore creates a store backed by path. The file is created on the
// first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns nil when the file does not exist yet.
func (s *FileStore) Get(ctx context.Context) (*qbo.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds qbo.Credentials

	err = yaml.Unmarshal(data, &creds)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", s.path, err)
	}

	return &creds, nil
}

// Set replaces the stored credentials with a temp file and rename.
func (s *FileStore) Set(ctx context.Context, creds qbo.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	dir := filepath.Dir(s.path)

	err = os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	err = os.Chmod(tmp.Name(), constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to set credentials file permissions: %w", err)
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	return nil
}

var _ qbo.CredentialStore = (*FileStore)(nil)
