package memory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Kind distinguishes the two record types.
type Kind string

const (
	KindConfirm    Kind = "confirm"
	KindCorrection Kind = "correction"
)

// Record is one append-only memory fact. Timestamp is unix seconds.
type Record struct {
	Kind       Kind    `json:"kind"`
	DamageType string  `json:"damage_type"`
	Image      string  `json:"image,omitempty"`
	Timestamp  float64 `json:"timestamp"`
}

// Penalty step table: the penalty for a damage class steps up with the
// number of recorded corrections for it and never comes back down.
const (
	penaltyHigh   = 0.5
	penaltyMedium = 0.3
	penaltyLow    = 0.15
)

// Store keeps two append-only JSONL logs, confirmations and corrections.
// They are the sole persistent state of the bias memory: the penalty is
// recomputed from the correction log on every lookup, so there is no cached
// counter that can desynchronize from the log. The mutex serializes appends
// from the HTTP feedback surface with reads from the decision loop.
type Store struct {
	mu          sync.Mutex
	confirmPath string
	correctPath string
	now         func() time.Time
}

// NewStore creates a Store rooted at the given directory.
func NewStore(dir string) *Store {
	return &Store{
		confirmPath: filepath.Join(dir, "confirmations.jsonl"),
		correctPath: filepath.Join(dir, "corrections.jsonl"),
		now:         time.Now,
	}
}

// RecordConfirmation appends a confirm record for the damage type. A storage
// failure is returned to the caller, never suppressed.
func (s *Store) RecordConfirmation(damageType, image string) error {
	return s.append(s.confirmPath, KindConfirm, damageType, image)
}

// RecordCorrection appends a correction record for the damage type. This is
// the event that later raises the bias penalty for that class.
func (s *Store) RecordCorrection(damageType, image string) error {
	return s.append(s.correctPath, KindCorrection, damageType, image)
}

func (s *Store) append(path string, kind Kind, damageType, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		Kind:       kind,
		DamageType: damageType,
		Image:      image,
		Timestamp:  float64(s.now().UnixNano()) / 1e9,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling memory record: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// BiasPenalty scans the correction log and maps the number of corrections
// recorded for the damage type (exact, case-sensitive match) to a penalty in
// [0.0, 0.5]. A missing correction log means no penalty.
func (s *Store) BiasPenalty(damageType string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readLog(s.correctPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0.0, nil
		}
		return 0.0, err
	}

	count := 0
	for _, r := range records {
		if r.DamageType == damageType {
			count++
		}
	}

	switch {
	case count >= 20:
		return penaltyHigh, nil
	case count >= 10:
		return penaltyMedium, nil
	case count >= 5:
		return penaltyLow, nil
	default:
		return 0.0, nil
	}
}

// ReadMemory returns up to limit most recent records from each log,
// confirmations first. Diagnostics only; not on the decision hot path.
func (s *Store) ReadMemory(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 200
	}

	var out []Record
	for _, path := range []string{s.confirmPath, s.correctPath} {
		records, err := readLog(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if len(records) > limit {
			records = records[len(records)-limit:]
		}
		out = append(out, records...)
	}
	return out, nil
}

// readLog reads every parseable record in a JSONL file. Lines that fail to
// parse are skipped so one bad line cannot poison the whole log.
func readLog(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}
