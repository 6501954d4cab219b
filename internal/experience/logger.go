// Package experience maintains the append-only, reward-labeled experience
// log consumed by offline policy learning. The logger serializes state and
// info losslessly and never interprets their contents.
package experience

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one (state, action, reward) tuple. Timestamp is unix seconds;
// State and Info are opaque JSON payloads.
type Record struct {
	Timestamp float64         `json:"timestamp"`
	State     json.RawMessage `json:"state"`
	Action    string          `json:"action"`
	Reward    float64         `json:"reward"`
	Info      json.RawMessage `json:"info"`
}

// Logger appends records to a single JSONL file. Single-writer by design;
// the mutex only guards against the HTTP read surface racing an append.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLogger creates a Logger writing to the given file path.
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// Log appends one experience record with a fresh timestamp and returns it.
func (l *Logger) Log(state any, action string, reward float64, info any) (*Record, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshalling state: %w", err)
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshalling info: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec := &Record{
		Timestamp: float64(l.now().UnixNano()) / 1e9,
		State:     stateJSON,
		Action:    action,
		Reward:    reward,
		Info:      infoJSON,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshalling experience record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating experience log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("appending to %s: %w", l.path, err)
	}
	return rec, nil
}

// ReadAll returns the log in file order, which is also timestamp order under
// single-writer appends. A positive limit returns only the last limit
// records; a missing log yields an empty slice.
func (l *Logger) ReadAll(limit int) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", l.path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", l.path, err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
