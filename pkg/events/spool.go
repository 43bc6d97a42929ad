package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// spoolMaxSize caps the active spool file; on crossing it the file is
// rotated to a single .1 generation.
const spoolMaxSize = 40 * 1024 * 1024

// Spool appends consumed events as JSON lines under the events state dir.
// It is the default queue consumer wired by the app.
type Spool struct {
	mu   sync.Mutex
	f    *os.File
	path string
	size int64
}

// NewSpool opens (creating if needed) the activity spool in dir.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cannot create events dir: %w", err)
	}
	path := filepath.Join(dir, "activity.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("cannot open activity spool: %w", err)
	}
	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}
	return &Spool{f: f, path: path, size: size}, nil
}

// Handle writes one event as a JSON line. It is safe for use as a
// RunWorker handler; the payload is read before Item.Done releases it.
func (s *Spool) Handle(ev *Event) error {
	rec := map[string]interface{}{
		"seq":     ev.EnqSeq,
		"type":    ev.Type,
		"actor":   ev.Actor,
		"subject": ev.Subject,
		"ts":      ev.TS,
	}
	if len(ev.Payload) > 0 {
		rec["payload"] = json.RawMessage(ev.Payload)
	}
	if len(ev.Extras) > 0 {
		rec["extras"] = ev.Extras
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.f.Write(b)
	s.size += int64(n)
	if err != nil {
		return err
	}
	if s.size > spoolMaxSize {
		return s.rotateLocked()
	}
	return nil
}

// rotateLocked swaps the active file to the .1 generation and reopens a
// fresh one. Caller holds mu.
func (s *Spool) rotateLocked() error {
	_ = s.f.Sync()
	_ = s.f.Close()
	if err := os.Rename(s.path, s.path+".1"); err != nil {
		// reopen in place; worst case the file keeps growing
		f, oerr := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if oerr != nil {
			return oerr
		}
		s.f = f
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	s.f = f
	s.size = 0
	return nil
}

// Close syncs and closes the spool file.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.f.Sync()
	return s.f.Close()
}
