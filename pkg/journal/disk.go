package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStore persists entries to an append-only JSONL file, one JSON
// object per line. The file survives restarts; reopening the same
// path continues appending where the previous process stopped.
type DiskStore struct {
	path string

	mu     sync.Mutex
	f      *os.File
	enc    *json.Encoder
	closed bool
}

// NewDiskStore opens (or creates) the journal file at path. Parent
// directories are created as needed.
func NewDiskStore(path string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &DiskStore{
		path: path,
		f:    f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Append writes one entry as a JSON line.
func (s *DiskStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.enc.Encode(e)
}

// Tail reads the log back and returns the most recent n entries,
// oldest first. n <= 0 returns everything.
func (s *DiskStore) Tail(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readEntries(s.path)
	if err != nil {
		return nil, err
	}

	start := 0
	if n > 0 && n < len(entries) {
		start = len(entries) - n
	}
	return entries[start:], nil
}

// Prune rewrites the log keeping only entries newer than maxAge.
func (s *DiskStore) Prune(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	entries, err := readEntries(s.path)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		if err := enc.Encode(e); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// Rename first so a failure leaves the old log intact.
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	s.f.Close()

	nf, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.closed = true
		return err
	}
	s.f = nf
	s.enc = json.NewEncoder(nf)
	return nil
}

// Close flushes and closes the underlying file.
func (s *DiskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// readEntries decodes every line of the JSONL file at path. A missing
// file reads as empty. A torn final line from an interrupted write is
// skipped rather than treated as corruption.
func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
