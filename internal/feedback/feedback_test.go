package feedback

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/12Rushikesh/damage-agent/internal/config"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	dir := t.TempDir()
	return NewArchive(config.FeedbackConfig{
		Dir:       filepath.Join(dir, "feedback"),
		MetaDir:   filepath.Join(dir, "feedback_meta"),
		ErrorsDir: filepath.Join(dir, "errors"),
	})
}

func testImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSaveClassFeedback(t *testing.T) {
	a := testArchive(t)
	img := testImage(t, "crate_1.jpg")

	if err := a.SaveClassFeedback(img, "AUTO_ACCEPT", "dent", 0.9); err != nil {
		t.Fatalf("SaveClassFeedback: %v", err)
	}

	if _, err := os.Stat(filepath.Join(a.dir, "AUTO_ACCEPT", "crate_1.jpg")); err != nil {
		t.Errorf("image not archived: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(a.metaDir, "crate_1.jpg.json"))
	if err != nil {
		t.Fatalf("meta not written: %v", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.UserLabel != "AUTO_ACCEPT" || m.ModelLabel != "dent" || m.Confidence != 0.9 {
		t.Errorf("unexpected meta: %+v", m)
	}
}

func TestLogErrorOnlyOnMismatch(t *testing.T) {
	a := testArchive(t)
	img := testImage(t, "crate_2.jpg")

	if err := a.LogError(img, "dent", "dent"); err != nil {
		t.Fatalf("LogError (match): %v", err)
	}
	if _, err := os.Stat(filepath.Join(a.errorsDir, "mismatch", "crate_2.jpg")); !os.IsNotExist(err) {
		t.Error("matching labels should not be archived as errors")
	}

	if err := a.LogError(img, "dent", "rust"); err != nil {
		t.Fatalf("LogError (mismatch): %v", err)
	}
	if _, err := os.Stat(filepath.Join(a.errorsDir, "mismatch", "crate_2.jpg")); err != nil {
		t.Errorf("mismatch not archived: %v", err)
	}
}

func TestStats(t *testing.T) {
	a := testArchive(t)

	a.SaveClassFeedback(testImage(t, "a.jpg"), "dent", "dent", 0.9)
	a.SaveClassFeedback(testImage(t, "b.jpg"), "dent", "rust", 0.5)
	a.SaveClassFeedback(testImage(t, "c.jpg"), "rust", "rust", 0.8)

	stats, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.Accuracy != 0.667 {
		t.Errorf("accuracy = %v, want 0.667", stats.Accuracy)
	}
	if stats.ClassDistribution["dent"] != 2 || stats.ClassDistribution["rust"] != 1 {
		t.Errorf("distribution = %v", stats.ClassDistribution)
	}
}

func TestStatsEmpty(t *testing.T) {
	a := testArchive(t)
	stats, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 0 || stats.Accuracy != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestStatsRoute(t *testing.T) {
	a := testArchive(t)
	a.SaveClassFeedback(testImage(t, "a.jpg"), "dent", "dent", 0.9)

	r := chi.NewRouter()
	RegisterRoutes(r, a)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Accuracy != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
