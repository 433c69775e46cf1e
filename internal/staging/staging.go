package staging

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// idBytes is the amount of randomness in a staged file name.
const idBytes = 32

// ErrTooLarge is returned by Stage when the source exceeds the limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// StagedFile is a temporary file owned by a Session.
type StagedFile struct {
	ID   string
	Path string
	Size int64
}

// Manager allocates temporary files for uploads under one directory.
type Manager struct {
	dir    string
	logger zerolog.Logger

	// OnReleaseFailure, if set, is called once per path that could not be removed.
	OnReleaseFailure func(path string, err error)
}

// NewManager creates dir if needed. An empty dir means os.TempDir()/tubely.
func NewManager(dir string, logger zerolog.Logger) (*Manager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "tubely")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Manager{dir: dir, logger: logger.With().Str("component", "staging").Logger()}, nil
}

// Dir returns the staging directory.
func (m *Manager) Dir() string {
	return m.dir
}

// NewID returns a hex identifier drawn from crypto/rand.
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate identifier: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ReleaseAll removes every path, continuing past failures. Paths that no
// longer exist are not failures. The returned error joins every failure.
func (m *Manager) ReleaseAll(paths []string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := os.Remove(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		m.logger.Error().Err(err).Str("path", p).Msg("failed to remove staged file")
		if m.OnReleaseFailure != nil {
			m.OnReleaseFailure(p, err)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewSession starts tracking the files of one upload.
func (m *Manager) NewSession() *Session {
	return &Session{m: m}
}

// Session tracks every path created for a single upload so they can all be
// released together.
type Session struct {
	m     *Manager
	mu    sync.Mutex
	paths []string
}

// Stage writes r to a new file named <random id>.<ext>. At most limit bytes
// are accepted; a larger source yields ErrTooLarge and no file is left behind.
// A limit <= 0 disables the check.
func (s *Session) Stage(r io.Reader, ext string, limit int64) (*StagedFile, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}

	name := id
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	path := filepath.Join(s.m.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	s.Track(path)

	src := r
	if limit > 0 {
		// One byte past the limit is enough to know it was exceeded.
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.m.ReleaseAll([]string{path})
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	return &StagedFile{ID: id, Path: path, Size: n}, nil
}

// Track registers a path produced outside Stage, typically before the tool
// that writes it runs.
func (s *Session) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

// Paths returns the tracked paths.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Release removes every tracked path. It is safe to call more than once.
func (s *Session) Release() error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()
	return s.m.ReleaseAll(paths)
}
