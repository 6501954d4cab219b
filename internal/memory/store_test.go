package memory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestBiasPenaltyStepTable(t *testing.T) {
	store := NewStore(t.TempDir())

	cases := []struct {
		corrections int
		want        float64
	}{
		{0, 0.0},
		{4, 0.0},
		{5, 0.15},
		{9, 0.15},
		{10, 0.3},
		{19, 0.3},
		{20, 0.5},
		{21, 0.5},
	}

	recorded := 0
	for _, tc := range cases {
		for recorded < tc.corrections {
			if err := store.RecordCorrection("rust", ""); err != nil {
				t.Fatalf("RecordCorrection: %v", err)
			}
			recorded++
		}
		got, err := store.BiasPenalty("rust")
		if err != nil {
			t.Fatalf("BiasPenalty: %v", err)
		}
		if got != tc.want {
			t.Errorf("penalty after %d corrections = %v, want %v", tc.corrections, got, tc.want)
		}
	}
}

func TestBiasPenaltyMonotone(t *testing.T) {
	store := NewStore(t.TempDir())

	prev := 0.0
	for i := 0; i < 25; i++ {
		if err := store.RecordCorrection("dent", ""); err != nil {
			t.Fatalf("RecordCorrection: %v", err)
		}
		p, err := store.BiasPenalty("dent")
		if err != nil {
			t.Fatalf("BiasPenalty: %v", err)
		}
		if p < prev {
			t.Fatalf("penalty decreased from %v to %v after %d corrections", prev, p, i+1)
		}
		prev = p
	}
}

func TestBiasPenaltyExactMatchOnly(t *testing.T) {
	store := NewStore(t.TempDir())
	for i := 0; i < 6; i++ {
		if err := store.RecordCorrection("Rust", ""); err != nil {
			t.Fatal(err)
		}
	}
	// Case-sensitive: "rust" has no corrections.
	p, err := store.BiasPenalty("rust")
	if err != nil {
		t.Fatal(err)
	}
	if p != 0.0 {
		t.Errorf("penalty for unmatched type = %v, want 0", p)
	}
}

func TestBiasPenaltyMissingLog(t *testing.T) {
	store := NewStore(t.TempDir())
	p, err := store.BiasPenalty("rust")
	if err != nil {
		t.Fatalf("BiasPenalty on fresh store: %v", err)
	}
	if p != 0.0 {
		t.Errorf("penalty = %v, want 0 for missing log", p)
	}
}

func TestConfirmationsDoNotAffectPenalty(t *testing.T) {
	store := NewStore(t.TempDir())
	for i := 0; i < 30; i++ {
		if err := store.RecordConfirmation("rust", "img.jpg"); err != nil {
			t.Fatal(err)
		}
	}
	p, err := store.BiasPenalty("rust")
	if err != nil {
		t.Fatal(err)
	}
	if p != 0.0 {
		t.Errorf("confirmations raised the penalty to %v", p)
	}
}

func TestReadMemoryOrderAndLimit(t *testing.T) {
	store := NewStore(t.TempDir())
	for i := 0; i < 5; i++ {
		if err := store.RecordConfirmation("dent", ""); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 5; i++ {
		if err := store.RecordCorrection("rust", ""); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.ReadMemory(3)
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected 3+3 records, got %d", len(records))
	}
	for i := 0; i < 3; i++ {
		if records[i].Kind != KindConfirm {
			t.Errorf("record %d kind = %q, want confirm first", i, records[i].Kind)
		}
	}
	for i := 3; i < 6; i++ {
		if records[i].Kind != KindCorrection {
			t.Errorf("record %d kind = %q, want correction", i, records[i].Kind)
		}
	}
}

func TestReadLogSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.RecordCorrection("rust", ""); err != nil {
		t.Fatal(err)
	}

	// Corrupt the log with a partial line.
	f, err := os.OpenFile(filepath.Join(dir, "corrections.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{broken json\n")
	f.Close()

	if err := store.RecordCorrection("rust", ""); err != nil {
		t.Fatal(err)
	}

	records, err := store.ReadMemory(10)
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 parseable records, got %d", len(records))
	}
}

func TestFeedbackRoutes(t *testing.T) {
	store := NewStore(t.TempDir())
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	body, _ := json.Marshal(map[string]string{"damage_type": "rust", "image": "a.jpg"})
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/feedback/correct", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("correct: status %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/memory/penalty/rust", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("penalty: status %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["penalty"] != 0.15 {
		t.Errorf("penalty = %v, want 0.15", resp["penalty"])
	}

	req = httptest.NewRequest(http.MethodPost, "/api/feedback/confirm", bytes.NewReader([]byte(`{}`)))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing damage_type: status %d, want 400", rec.Code)
	}
}
