// Package history keeps an append-only JSONL journal of sweep and restore
// operations for after-the-fact auditing.
package history

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is one journal line.
type Entry struct {
	Time     time.Time `json:"time"`
	Op       string    `json:"op"`
	Rule     string    `json:"rule,omitempty"`
	Pattern  string    `json:"pattern,omitempty"`
	Closed   []string  `json:"closed,omitempty"`
	Restored []string  `json:"restored,omitempty"`
	Count    int       `json:"count"`
}

// Journal writes entries to a size-rotated JSONL file. Recording never fails
// the operation that produced the entry; write errors are logged and dropped.
type Journal struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
}

// NewJournal opens (or creates) the journal at the given path.
func NewJournal(path string, maxSizeMB int) *Journal {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &Journal{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   false,
			LocalTime:  false,
		},
	}
}

// Record appends one entry. The timestamp is filled in when zero.
func (j *Journal) Record(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("journal marshal failed", "op", e.Op, "error", err)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.logger.Write(append(data, '\n')); err != nil {
		slog.Error("journal write failed", "op", e.Op, "error", err)
	}
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.logger.Close()
}
