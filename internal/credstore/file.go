package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileStore persists credentials as a JSON file named after its namespace.
// The tenant and platform scopes therefore write to distinct files and can
// never clobber each other.
type FileStore struct {
	dir       string
	namespace string
	mu        sync.Mutex
}

// NewFileStore returns a store writing <dir>/<namespace>-credentials.json.
func NewFileStore(dir, namespace string) *FileStore {
	return &FileStore{dir: dir, namespace: namespace}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, s.namespace+"-credentials.json")
}

func (s *FileStore) Get() (Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("namespace", s.namespace).Msg("reading credentials file")
		}
		return Credentials{}, false
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		log.Warn().Err(err).Str("namespace", s.namespace).Msg("corrupt credentials file, ignoring")
		return Credentials{}, false
	}
	if !creds.HasToken() && creds.RefreshToken == "" {
		return Credentials{}, false
	}
	return creds, true
}

func (s *FileStore) Set(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		log.Error().Err(err).Str("namespace", s.namespace).Msg("creating credentials dir")
		return
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		log.Error().Err(err).Str("namespace", s.namespace).Msg("encoding credentials")
		return
	}
	// Write-then-rename so a crash mid-write cannot leave a torn file.
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		log.Error().Err(err).Str("namespace", s.namespace).Msg("writing credentials file")
		return
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		log.Error().Err(err).Str("namespace", s.namespace).Msg("replacing credentials file")
	}
}

func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("namespace", s.namespace).Msg("removing credentials file")
	}
}

var _ Store = (*FileStore)(nil)
