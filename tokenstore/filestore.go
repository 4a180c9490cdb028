package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

const stateFileName = "unrot/session.json"

type fileSession struct {
	AccessToken string    `json:"access_token"`
	SavedAt     time.Time `json:"saved_at"`
}

// Persists the token to a JSON state file, readable only by the current user.
type FileStore struct {
	Path string

	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

// Creates a FileStore at the XDG state location ($XDG_STATE_HOME/unrot/session.json), creating parent directories as needed.
func NewFileStore() (*FileStore, error) {
	fPath, err := xdg.StateFile(stateFileName)
	if err != nil {
		return nil, err
	}
	return &FileStore{Path: fPath}, nil
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fBytes, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	} else if err != nil {
		return "", err
	}

	var sess fileSession
	if err := json.Unmarshal(fBytes, &sess); err != nil {
		return "", fmt.Errorf("parsing session file: %w", err)
	}
	if sess.AccessToken == "" {
		return "", ErrNoToken
	}
	if expired(sess.AccessToken, time.Now()) {
		if err := s.clear(); err != nil {
			return "", err
		}
		return "", ErrNoToken
	}
	return sess.AccessToken, nil
}

func (s *FileStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("refusing to store empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.MarshalIndent(fileSession{AccessToken: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	_, err = f.Write(b)
	return err
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear()
}

func (s *FileStore) clear() error {
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
