package events

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// Journal is a Sink writing one JSON object per line.
type Journal struct {
	mu  sync.Mutex
	enc *json.Encoder
	fp  *os.File
}

// NewJournal writes events to w.
func NewJournal(w io.Writer) *Journal {
	return &Journal{enc: json.NewEncoder(w)}
}

// OpenJournal appends events to the file at path, creating it if needed.
func OpenJournal(path string) (*Journal, error) {
	fp, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open event journal %s", path)
	}
	j := NewJournal(fp)
	j.fp = fp
	return j, nil
}

func (j *Journal) Handle(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(e)
}

// Close closes the journal file. It is a no-op for journals over a writer.
func (j *Journal) Close() error {
	if j.fp == nil {
		return nil
	}
	return j.fp.Close()
}
