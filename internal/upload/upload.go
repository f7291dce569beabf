// Package upload stores profile pictures in two phases: a file is first
// staged, then either committed under its public name or discarded. A
// record only ever references a committed file.
package upload

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"time"
)

var ErrFinalized = errors.New("upload: staged file already finalized")

// Store stages uploaded content.
type Store interface {
	Stage(ctx context.Context, filename string, content io.Reader) (Staged, error)
}

// Staged is an upload that is not yet visible under its public path.
// Discard after a successful Commit is a no-op.
type Staged interface {
	// Path is the reference a record stores, known before Commit.
	Path() string
	Commit(ctx context.Context) error
	Discard(ctx context.Context) error
}

// finalName builds "<unix millis><ext>" from the client filename.
func finalName(now time.Time, filename string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + filepath.Ext(filepath.Base(filename))
}
