// Package flatfile keeps a set of typed records in a pipe-delimited text file:
// one header line followed by one record per line.
//
// Writes replace the whole file through a temp file and a rename, so readers see
// either the old or the new content. Read-modify-write cycles are serialized by a
// mutex per Store; two processes sharing a file are not coordinated and the last
// writer wins.
package flatfile

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/pkg/metrics"
	"go.uber.org/zap"
)

const maxLineSize = 16 * 1024 * 1024

// Store reads and rewrites one file of T records. T must be a struct whose csv tags,
// in field order, equal header.
type Store[T any] struct {
	path    string
	header  []string
	aliases []string
	mu      sync.RWMutex
}

// New binds a store to path. Nothing is touched on disk until the first call.
func New[T any](path string, header ...string) *Store[T] {
	return &Store[T]{path: path, header: header}
}

// WithHeaderAlias accepts another header line with the same column count on read.
// Rows are still mapped by position onto header, and the next write restores it.
func (s *Store[T]) WithHeaderAlias(columns ...string) *Store[T] {
	if len(columns) == len(s.header) {
		s.aliases = append(s.aliases, strings.Join(columns, Delimiter))
	}
	return s
}

func (s *Store[T]) acceptsHeader(line string) bool {
	line = strings.TrimSpace(line)
	if line == s.Header() {
		return true
	}
	for _, alias := range s.aliases {
		if line == alias {
			return true
		}
	}
	return false
}

func (s *Store[T]) Path() string {
	return s.path
}

func (s *Store[T]) Header() string {
	return strings.Join(s.header, Delimiter)
}

// EnsureFile creates the parent directory and a header-only file when missing.
func (s *Store[T]) EnsureFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return domain.NewStorageError("stat", s.path, err)
	}
	if err := s.writeAll(nil); err != nil {
		return err
	}
	zap.L().Info("created data file", zap.String("path", s.path), zap.String("header", s.Header()))
	return nil
}

// ReadAll returns every record in file order. A missing file reads as empty.
// Any malformed line fails the whole read with a *domain.StorageError.
func (s *Store[T]) ReadAll() ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readAll()
}

// WriteAll replaces the file content with header + records.
func (s *Store[T]) WriteAll(records []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAll(records)
}

// Update runs fn on the current records and writes back what it returns, holding the
// store lock for the whole cycle. When fn fails nothing is written.
func (s *Store[T]) Update(fn func(records []T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readAll()
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return s.writeAll(next)
}

func (s *Store[T]) readAll() ([]T, error) {
	start := time.Now()
	defer metrics.ObserveSince(metrics.StorageReadMs, start, metrics.Label("file", filepath.Base(s.path)))

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []T{}, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("read", s.path, errors.Wrap(err, "open"))
	}
	defer f.Close()

	var (
		lines      []numberedLine
		lineNo     int
		headerSeen bool
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r")
		if !headerSeen {
			if !s.acceptsHeader(text) {
				return nil, domain.NewStorageError("read", s.path,
					errors.Errorf("unexpected header %q, want %q", text, s.Header()))
			}
			headerSeen = true
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, numberedLine{number: lineNo, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.NewStorageError("read", s.path, errors.Wrap(err, "scan"))
	}
	if len(lines) == 0 {
		return []T{}, nil
	}

	reader, err := newPipeReader(s.header, lines)
	if err != nil {
		return nil, domain.NewStorageError("parse", s.path, err)
	}
	records := make([]T, 0, len(lines))
	if err := gocsv.UnmarshalCSV(reader, &records); err != nil {
		return nil, domain.NewStorageError("parse", s.path, errors.Wrap(err, "decode records"))
	}
	return records, nil
}

func (s *Store[T]) writeAll(records []T) error {
	start := time.Now()
	defer metrics.ObserveSince(metrics.StorageWriteMs, start, metrics.Label("file", filepath.Base(s.path)))

	var buf bytes.Buffer
	pw := newPipeWriter(&buf)
	if len(records) == 0 {
		_ = pw.Write(s.header)
		pw.Flush()
	} else if err := gocsv.MarshalCSV(records, pw); err != nil {
		return domain.NewStorageError("encode", s.path, errors.Wrap(err, "encode records"))
	}
	if err := pw.Error(); err != nil {
		return domain.NewStorageError("encode", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewStorageError("write", s.path, errors.Wrap(err, "create dir"))
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return domain.NewStorageError("write", s.path, errors.Wrap(err, "create temp file"))
	}
	tmpName := tmp.Name()
	cleanup := func(cause error, msg string) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.NewStorageError("write", s.path, errors.Wrap(cause, msg))
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return cleanup(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewStorageError("write", s.path, errors.Wrap(err, "close temp file"))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewStorageError("write", s.path, errors.Wrap(err, "chmod temp file"))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewStorageError("write", s.path, errors.Wrap(err, "replace file"))
	}
	zap.L().Debug("data file written",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
