// Package feedback archives per-image class feedback (the taken action
// versus the detector's opinion) and derives aggregate accuracy statistics
// from the archived metadata.
package feedback

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/12Rushikesh/damage-agent/internal/config"
)

// Meta is the metadata stored alongside each archived feedback image.
type Meta struct {
	Image      string  `json:"image"`
	UserLabel  string  `json:"user_label"`
	ModelLabel string  `json:"model_label"`
	Confidence float64 `json:"confidence"`
	Time       string  `json:"time"`
}

// Stats summarizes the archived feedback.
type Stats struct {
	Total             int            `json:"total"`
	Accuracy          float64        `json:"accuracy"`
	ClassDistribution map[string]int `json:"class_distribution"`
}

// Archive stores feedback images grouped by label plus a meta JSON per image.
type Archive struct {
	dir       string
	metaDir   string
	errorsDir string
}

// NewArchive creates an Archive over the configured directories.
func NewArchive(cfg config.FeedbackConfig) *Archive {
	return &Archive{
		dir:       cfg.Dir,
		metaDir:   cfg.MetaDir,
		errorsDir: cfg.ErrorsDir,
	}
}

// SaveClassFeedback copies the image under the user label's directory and
// writes its metadata file.
func (a *Archive) SaveClassFeedback(imagePath, userLabel, modelLabel string, confidence float64) error {
	labelDir := filepath.Join(a.dir, userLabel)
	if err := os.MkdirAll(labelDir, 0o755); err != nil {
		return fmt.Errorf("creating feedback directory: %w", err)
	}
	if err := os.MkdirAll(a.metaDir, 0o755); err != nil {
		return fmt.Errorf("creating feedback meta directory: %w", err)
	}

	name := filepath.Base(imagePath)
	if err := copyFile(imagePath, filepath.Join(labelDir, name)); err != nil {
		return fmt.Errorf("archiving feedback image: %w", err)
	}

	meta := Meta{
		Image:      name,
		UserLabel:  userLabel,
		ModelLabel: modelLabel,
		Confidence: confidence,
		Time:       time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling feedback meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.metaDir, name+".json"), data, 0o644); err != nil {
		return fmt.Errorf("writing feedback meta: %w", err)
	}
	return nil
}

// LogError copies the image into the mismatch directory when the model and
// user labels disagree. Agreement is a no-op.
func (a *Archive) LogError(imagePath, modelLabel, userLabel string) error {
	if modelLabel == userLabel {
		return nil
	}
	dir := filepath.Join(a.errorsDir, "mismatch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating mismatch directory: %w", err)
	}
	if err := copyFile(imagePath, filepath.Join(dir, filepath.Base(imagePath))); err != nil {
		return fmt.Errorf("archiving mismatch image: %w", err)
	}
	return nil
}

// Stats folds the archived metadata into aggregate accuracy numbers.
func (a *Archive) Stats() (*Stats, error) {
	stats := &Stats{ClassDistribution: map[string]int{}}

	entries, err := os.ReadDir(a.metaDir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, fmt.Errorf("reading feedback meta directory: %w", err)
	}

	correct := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.metaDir, e.Name()))
		if err != nil {
			continue
		}
		var m Meta
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		stats.Total++
		stats.ClassDistribution[m.UserLabel]++
		if m.UserLabel == m.ModelLabel {
			correct++
		}
	}
	if stats.Total > 0 {
		stats.Accuracy = math.Round(float64(correct)/float64(stats.Total)*1000) / 1000
	}
	return stats, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
