package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/12Rushikesh/damage-agent/internal/agent"
	"github.com/12Rushikesh/damage-agent/internal/thinker"
)

// Audit is the per-image audit record: the human-readable trail of one
// pipeline run, one write-once file per image stem. Reprocessing the same
// stem overwrites the previous record.
type Audit struct {
	Image        string              `json:"image"`
	Action       agent.Action        `json:"action"`
	YoloDecision agent.YoloDecision  `json:"yolo_decision"`
	AgentOut     agent.Decision      `json:"agent_out"`
	Thinker      *thinker.Suggestion `json:"thinker,omitempty"`
	FailureRisk  float64             `json:"failure_risk"`
	Explanation  string              `json:"explanation"`
	Time         float64             `json:"time"`
}

func (s *Service) writeAudit(a *Audit) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling audit record: %w", err)
	}
	stem := strings.TrimSuffix(a.Image, filepath.Ext(a.Image))
	path := filepath.Join(s.cfg.AuditDir, stem+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// ReadRecentAudits returns up to n audit records from the directory, newest
// first by modification time. Unreadable files are skipped.
func ReadRecentAudits(dir string, n int) ([]Audit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit directory: %w", err)
	}

	type candidate struct {
		name string
		mod  int64
	}
	var files []candidate
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{e.Name(), info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod > files[j].mod })
	if n > 0 && len(files) > n {
		files = files[:n]
	}

	var audits []Audit
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			continue
		}
		var a Audit
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}
		audits = append(audits, a)
	}
	return audits, nil
}
