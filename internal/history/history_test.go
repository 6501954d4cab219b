package history

import (
	"context"
	"testing"

	"github.com/12Rushikesh/damage-agent/internal/detector"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndForAsset(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	dets := []detector.Detection{
		{Label: "rust", Confidence: 0.8},
		{Label: "dent", Confidence: 0.6},
	}
	if err := store.Append(ctx, "crate42", dets, 7); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := store.ForAsset(ctx, "crate42")
	if err != nil {
		t.Fatalf("ForAsset: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Label != "rust" || records[0].AgeYears != 7 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
}

func TestForAssetUnknown(t *testing.T) {
	store := setupTestStore(t)
	records, err := store.ForAsset(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ForAsset: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Append(context.Background(), "crate42", nil, 0); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
}

func TestAssetID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"crate42_0019.jpg", "crate42"},
		{"/data/incoming/crate42_0019.jpg", "crate42"},
		{"container.png", "container"},
		{"_leading.jpg", "_leading"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := AssetID(tc.in); got != tc.want {
			t.Errorf("AssetID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
