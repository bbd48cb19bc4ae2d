// Package config owns the on-disk key-value configuration for bgforge:
// provider API keys and the last-used service.
//
// The store is an explicit dependency handed to the resolver and workflow,
// not ambient state. Its lifecycle is visible: Open reads the file once,
// mutating setters write it back immediately. Every write enforces
// owner-only permissions because the file holds credentials.
//
// Concurrent invocations from multiple processes are not coordinated; the
// last writer wins, which is acceptable for a single-user interactive tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"bgforge/core"
)

// filePerm is owner-only: the file stores API keys.
const filePerm = 0o600

// dirPerm for the config directory.
const dirPerm = 0o700

// fileFormat is the YAML shape of the config file.
type fileFormat struct {
	APIKeys         map[string]string `yaml:"api_keys"`
	LastUsedService string            `yaml:"last_used_service,omitempty"`
}

// Store is the key-value configuration store.
// Safe for concurrent use within one process.
type Store struct {
	path string

	mu   sync.Mutex
	data fileFormat
}

// DefaultPath returns the standard location of the config file:
// <user config dir>/bgforge/config.yaml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", &core.ConfigError{
			Message: fmt.Sprintf("cannot determine the user config directory: %v", err),
			Action:  "Set HOME (or XDG_CONFIG_HOME) or pass -config with an explicit path",
		}
	}
	return filepath.Join(base, "bgforge", "config.yaml"), nil
}

// Open reads the config file at path. A missing file is not an error: the
// store starts empty and the file is created on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, &core.ConfigError{Message: "config path is empty"}
	}

	s := &Store{
		path: path,
		data: fileFormat{APIKeys: map[string]string{}},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, &core.ConfigError{
			Message: fmt.Sprintf("cannot read config file %s: %v", path, err),
			Action:  "Check the file permissions or remove the file to start fresh",
		}
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, &core.ConfigError{
			Message: fmt.Sprintf("config file %s is not valid YAML: %v", path, err),
			Action:  "Fix the file by hand or remove it to start fresh",
		}
	}
	if s.data.APIKeys == nil {
		s.data.APIKeys = map[string]string{}
	}
	return s, nil
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}

// APIKey returns the stored key for a service, if one is configured.
func (s *Store) APIKey(service string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.data.APIKeys[service]
	return key, ok && key != ""
}

// SetAPIKey stores the key for a service and writes the file.
func (s *Store) SetAPIKey(service, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.APIKeys[service] = key
	return s.save()
}

// LastUsedService returns the remembered service name, or "" if none.
func (s *Store) LastUsedService() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastUsedService
}

// SetLastUsedService remembers the service and writes the file.
func (s *Store) SetLastUsedService(service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LastUsedService = service
	return s.save()
}

// save serializes the store and writes it with owner-only permissions via a
// temp file and rename, so a crash mid-write cannot corrupt stored keys.
// Caller must hold s.mu.
func (s *Store) save() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("config: failed to serialize: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &core.FilesystemError{
			Op:     "mkdir",
			Path:   dir,
			Action: "Check permissions on the parent directory",
			Err:    err,
		}
	}

	tmp, err := os.CreateTemp(dir, "config_*.yaml")
	if err != nil {
		return &core.FilesystemError{
			Op:     "create",
			Path:   dir,
			Action: "Check permissions on the config directory",
			Err:    err,
		}
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, raw); err != nil {
		os.Remove(tmpName)
		return &core.FilesystemError{Op: "write", Path: tmpName, Err: err}
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return &core.FilesystemError{Op: "chmod", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &core.FilesystemError{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
