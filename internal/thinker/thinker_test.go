package thinker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/llm"
)

func TestSuggestParsesAction(t *testing.T) {
	mock := llm.NewMockProvider("thinker")
	mock.Response.Content = `{"action": "REJECT", "reason": "low detector agreement"}`

	th := New(mock, "test-thinker", 0.2)
	s := th.Suggest(context.Background(), detector.Summary{"dent": 0.3}, map[string]any{"confidence": "low"})
	if s.Action != "REJECT" {
		t.Errorf("Action = %q, want REJECT", s.Action)
	}
	if s.Reason != "low detector agreement" {
		t.Errorf("Reason = %q", s.Reason)
	}
}

func TestSuggestFallbackOnTransportError(t *testing.T) {
	mock := llm.NewMockProvider("thinker")
	mock.Err = errors.New("dial tcp: connection refused")

	th := New(mock, "test-thinker", 0.2)
	s := th.Suggest(context.Background(), nil, nil)
	if s.Action != "ASK_HUMAN" {
		t.Errorf("Action = %q, want ASK_HUMAN fallback", s.Action)
	}
	if s.Confidence != "low" {
		t.Errorf("Confidence = %q, want low", s.Confidence)
	}
	if !strings.Contains(s.Reason, "connection refused") {
		t.Errorf("Reason should carry the transport error, got %q", s.Reason)
	}
}

func TestSuggestFallbackOnMalformedResponse(t *testing.T) {
	mock := llm.NewMockProvider("thinker")
	mock.Response.Content = "I think a human should look at this."

	th := New(mock, "test-thinker", 0.2)
	s := th.Suggest(context.Background(), nil, nil)
	if s.Action != "ASK_HUMAN" {
		t.Errorf("Action = %q, want ASK_HUMAN fallback", s.Action)
	}
}
