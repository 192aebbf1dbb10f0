// Package authen verifies requesting-party credentials against a
// newline-delimited uid:password file and keeps the loaded snapshot
// fresh while the file changes underneath.
package authen

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	// ErrUnknownUser means the uid has no record in the store.
	ErrUnknownUser = errors.New("user id may not exists.")
	// ErrInvalidPassword means the uid exists but the password does not
	// match.
	ErrInvalidPassword = errors.New("user id or password is invalid.")
)

// Store holds an in-memory snapshot of the credential file. Reload
// builds a fresh snapshot and swaps it in whole; readers never see a
// partially loaded file.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	creds map[string]string
}

// NewStore loads the credential file at path. The file must exist at
// startup; later reload failures keep the previous snapshot.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload reads the file and swaps the snapshot. Lines without a colon
// separator are skipped, not fatal.
func (s *Store) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open credential file: %w", err)
	}
	defer f.Close()

	creds := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		uid, password, ok := strings.Cut(line, ":")
		if !ok || uid == "" {
			s.logger.Warn("skipping malformed credential line", "line", lineNo)
			continue
		}
		creds[uid] = password
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read credential file: %w", err)
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	s.logger.Info("credential store loaded", "path", s.path, "users", len(creds))
	return nil
}

// Verify checks a uid/password pair against the current snapshot.
func (s *Store) Verify(uid, password string) error {
	s.mu.RLock()
	stored, ok := s.creds[uid]
	s.mu.RUnlock()

	if !ok {
		return ErrUnknownUser
	}
	if password != stored {
		return ErrInvalidPassword
	}
	return nil
}

// Len reports the number of loaded records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}
