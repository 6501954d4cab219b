package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/12Rushikesh/damage-agent/internal/config"
	"github.com/12Rushikesh/damage-agent/internal/detector"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DatasetConfig{
		ImagesDir: filepath.Join(dir, "images", "train"),
		LabelsDir: filepath.Join(dir, "labels", "train"),
	}
	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(cfg.LabelsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return NewWriter(cfg, []string{"dent", "hole", "rust", "not_damaged"})
}

func testImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSaveWritesNormalizedLabels(t *testing.T) {
	w := testWriter(t)
	img := testImage(t, "crate42_0019.jpg")

	boxes := []detector.Detection{
		{Label: "dent", Confidence: 0.9, BBox: [4]float64{100, 100, 300, 200}},
		{Label: "rust", Confidence: 0.7, BBox: [4]float64{0, 0, 640, 480}},
		{Label: "scratch", Confidence: 0.8, BBox: [4]float64{1, 1, 2, 2}}, // not in class list
	}
	if err := w.Save(img, boxes, 640, 480); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(w.imagesDir, "crate42_0019.jpg")); err != nil {
		t.Errorf("image not copied: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.labelsDir, "crate42_0019.txt"))
	if err != nil {
		t.Fatalf("reading label file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 label lines (unknown class dropped), got %d: %q", len(lines), string(data))
	}
	// dent: class 0, center (200,150) of 640x480 -> 0.3125 0.3125, size 200x100 -> 0.3125 0.208333
	if want := "0 0.312500 0.312500 0.312500 0.208333"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	// rust: class 2, full frame -> centered, full size
	if want := "2 0.500000 0.500000 1.000000 1.000000"; lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}
}

func TestSaveRejectsUnknownDimensions(t *testing.T) {
	w := testWriter(t)
	img := testImage(t, "a.jpg")
	if err := w.Save(img, nil, 0, 480); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestCount(t *testing.T) {
	w := testWriter(t)
	if w.Count() != 0 {
		t.Errorf("fresh dataset count = %d", w.Count())
	}
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if err := w.Save(testImage(t, name), nil, 100, 100); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	if w.Count() != 3 {
		t.Errorf("count = %d, want 3", w.Count())
	}
}

func TestRetrainerThreshold(t *testing.T) {
	w := testWriter(t)
	// "true" exits immediately; fire-and-forget semantics only need Start to succeed.
	r := NewRetrainer(2, []string{"true"}, w)

	if r.MaybeTrigger() {
		t.Error("should not trigger below threshold")
	}
	w.Save(testImage(t, "a.jpg"), nil, 10, 10)
	w.Save(testImage(t, "b.jpg"), nil, 10, 10)

	if !r.MaybeTrigger() {
		t.Error("should trigger at threshold")
	}
	if r.MaybeTrigger() {
		t.Error("should trigger at most once per crossing")
	}
}

func TestRetrainerDisabled(t *testing.T) {
	w := testWriter(t)
	if NewRetrainer(0, []string{"true"}, w).MaybeTrigger() {
		t.Error("zero threshold must disable triggering")
	}
	if NewRetrainer(1, nil, w).MaybeTrigger() {
		t.Error("empty command must disable triggering")
	}
}
