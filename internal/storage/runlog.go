package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/seongsu-hq/popup-harvester/internal/domain"
)

const runLogFile = "runs.jsonl"

// RunLog appends one JSON line per completed run to a file alongside the
// dedup database. The file is append-only and meant for operator eyes.
type RunLog struct {
	mu   sync.Mutex
	path string
}

// NewRunLog prepares the run log inside dir, creating dir if needed.
func NewRunLog(dir string) (*RunLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("run log directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &RunLog{path: filepath.Join(dir, runLogFile)}, nil
}

// Append writes one summary record as a JSON line.
func (l *RunLog) Append(summary domain.RunSummary) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(summary); err != nil {
		return fmt.Errorf("append run summary: %w", err)
	}
	return nil
}

// Path returns the run log file location.
func (l *RunLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
