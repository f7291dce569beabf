package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const stagingDir = ".staging"

// LocalStore keeps uploads under PublicDir/UploadDir, served as /UploadDir/<name>.
type LocalStore struct {
	PublicDir string
	UploadDir string
	Now       func() time.Time

	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewLocalStore(publicDir, uploadDir string) *LocalStore {
	return &LocalStore{
		PublicDir: publicDir,
		UploadDir: uploadDir,
		Now:       time.Now,
		reserved:  make(map[string]struct{}),
	}
}

func (s *LocalStore) dir() string {
	return filepath.Join(s.PublicDir, filepath.FromSlash(s.UploadDir))
}

func (s *LocalStore) Stage(ctx context.Context, filename string, content io.Reader) (Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.dir()
	if err := os.MkdirAll(filepath.Join(dir, stagingDir), 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(filepath.Base(filename))
	tmp := filepath.Join(dir, stagingDir, uuid.NewString()+ext)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	name := s.reserve(dir, filename)
	return &localStaged{
		store:  s,
		name:   name,
		tmp:    tmp,
		final:  filepath.Join(dir, name),
		public: "/" + path.Join(s.UploadDir, name),
	}, nil
}

// reserve bumps the timestamp past every committed file and every name held
// by another staged upload. The name stays held until Commit or Discard.
func (s *LocalStore) reserve(dir, filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserved == nil {
		s.reserved = make(map[string]struct{})
	}

	now := s.Now()
	for {
		name := finalName(now, filename)
		if _, held := s.reserved[name]; !held {
			if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
				s.reserved[name] = struct{}{}
				return name
			}
		}
		now = now.Add(time.Millisecond)
	}
}

func (s *LocalStore) release(name string) {
	s.mu.Lock()
	delete(s.reserved, name)
	s.mu.Unlock()
}

type localStaged struct {
	store  *LocalStore
	name   string
	tmp    string
	final  string
	public string
	done   bool
}

func (s *localStaged) Path() string { return s.public }

// Commit links the staged file under its public name. A file already at
// that name is never replaced.
func (s *localStaged) Commit(ctx context.Context) error {
	if s.done {
		return ErrFinalized
	}
	if err := os.Link(s.tmp, s.final); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}
	s.done = true
	s.store.release(s.name)

	// the public file exists; a leftover staging file is only garbage
	if err := os.Remove(s.tmp); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).WithField("file", s.tmp).Warn("staging file left behind")
	}
	return nil
}

func (s *localStaged) Discard(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	s.store.release(s.name)
	if err := os.Remove(s.tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard upload: %w", err)
	}
	return nil
}
