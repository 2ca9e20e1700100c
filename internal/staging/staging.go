// Package staging materializes request-supplied binary inputs (reference
// audio) as files the engine can open, and removes what it created.
package staging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ttsd/internal/apperr"
	"ttsd/internal/common/fsutil"
)

// Input is either inline base64 data or a reference to an existing file.
type Input struct {
	Field  string
	inline bool
	data   string
	path   string
}

// Inline wraps base64 text received in the named request field.
func Inline(field, b64 string) Input { return Input{Field: field, inline: true, data: b64} }

// Path wraps a caller-provided file path received in the named field.
func Path(field, path string) Input { return Input{Field: field, path: path} }

// IsInline reports whether the input carries inline data.
func (in Input) IsInline() bool { return in.inline }

// Resource is a staged file. Owned resources were written by the stager
// and must be removed by it.
type Resource struct {
	Field string
	Path  string
	Owned bool
}

// Stager writes inline payloads into a scratch directory.
type Stager struct {
	dir string
	log zerolog.Logger
}

// New returns a stager rooted at dir. The directory is created on demand.
func New(dir string, log *zerolog.Logger) *Stager {
	s := &Stager{dir: dir, log: zerolog.Nop()}
	if log != nil {
		s.log = log.With().Str("component", "staging").Logger()
	}
	return s
}

// Dir returns the scratch directory.
func (s *Stager) Dir() string { return s.dir }

// Stage materializes one input.
//
// A path input is checked for existence and returned unowned. An inline
// input is strictly base64-decoded and written to <dir>/<uuid>.wav with mode
// 0600.
func (s *Stager) Stage(in Input) (Resource, error) {
	if !in.inline {
		if in.path == "" {
			return Resource{}, apperr.Validation(in.Field, "%s must not be empty", in.Field)
		}
		if err := fsutil.RegularFile(in.path); err != nil {
			if errors.Is(err, fsutil.ErrIsDir) {
				return Resource{}, apperr.Validation(in.Field, "%s is a directory: %s", in.Field, in.path)
			}
			return Resource{}, apperr.Validation(in.Field, "%s not found: %s", in.Field, in.path)
		}
		return Resource{Field: in.Field, Path: in.path}, nil
	}

	data, err := base64.StdEncoding.Strict().DecodeString(in.data)
	if err != nil {
		return Resource{}, apperr.InvalidPayload(in.Field, err)
	}
	if err := fsutil.EnsureDir(s.dir); err != nil {
		return Resource{}, apperr.Internal("prepare scratch directory", err)
	}
	path := filepath.Join(s.dir, uuid.NewString()+".wav")
	if err := writeExclusive(path, data); err != nil {
		_ = os.Remove(path)
		return Resource{}, apperr.Internal("stage "+in.Field, err)
	}
	s.log.Debug().Str("field", in.Field).Str("path", path).Int("bytes", len(data)).Msg("staged inline payload")
	return Resource{Field: in.Field, Path: path, Owned: true}, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Release removes r if it is owned. Missing files are not an error.
func (s *Stager) Release(r Resource) error {
	if !r.Owned {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("path", r.Path).Msg("remove staged file")
		return err
	}
	return nil
}

// Batch collects the resources staged for one request.
type Batch struct {
	s       *Stager
	mu      sync.Mutex
	res     []Resource
	cleaned bool
}

// NewBatch starts an empty batch.
func (s *Stager) NewBatch() *Batch { return &Batch{s: s} }

// Stage stages in as part of the batch. If staging fails, everything the
// batch already holds is released before the error is returned.
func (b *Batch) Stage(in Input) (Resource, error) {
	b.mu.Lock()
	if b.cleaned {
		b.mu.Unlock()
		return Resource{}, apperr.Internal("stage "+in.Field, errors.New("batch already cleaned up"))
	}
	b.mu.Unlock()

	r, err := b.s.Stage(in)
	if err != nil {
		_ = b.Cleanup()
		return Resource{}, err
	}
	b.mu.Lock()
	b.res = append(b.res, r)
	b.mu.Unlock()
	return r, nil
}

// StageAll stages inputs in order and returns their resources.
func (b *Batch) StageAll(ins ...Input) ([]Resource, error) {
	out := make([]Resource, 0, len(ins))
	for _, in := range ins {
		r, err := b.Stage(in)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Resources returns a copy of the resources staged so far.
func (b *Batch) Resources() []Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Resource(nil), b.res...)
}

// Cleanup releases every owned resource. Calling it again is a no-op.
func (b *Batch) Cleanup() error {
	b.mu.Lock()
	if b.cleaned {
		b.mu.Unlock()
		return nil
	}
	b.cleaned = true
	res := b.res
	b.res = nil
	b.mu.Unlock()

	var errs []error
	for _, r := range res {
		if err := b.s.Release(r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup staged files: %w", errors.Join(errs...))
	}
	return nil
}
