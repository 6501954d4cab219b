package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/12Rushikesh/damage-agent/internal/service"
)

const reportAuditLimit = 50

var reportRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// handleReport renders a human-readable inspection report: the most recent
// audit records plus the accumulated feedback statistics.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	audits, err := service.ReadRecentAudits(s.deps.AuditDir, reportAuditLimit)
	if err != nil {
		log.Printf("server: reading audits: %v", err)
		http.Error(w, "failed to read audit records", http.StatusInternalServerError)
		return
	}

	md := buildReportMarkdown(audits, s.deps)

	var buf bytes.Buffer
	if err := reportRenderer.Convert([]byte(md), &buf); err != nil {
		log.Printf("server: rendering report: %v", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func buildReportMarkdown(audits []service.Audit, deps Deps) string {
	var b strings.Builder

	b.WriteString("# Inspection Report\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", time.Now().Format(time.RFC1123))

	if stats, err := deps.Feedback.Stats(); err == nil && stats.Total > 0 {
		b.WriteString("## Feedback\n\n")
		fmt.Fprintf(&b, "- Samples: %d\n", stats.Total)
		fmt.Fprintf(&b, "- Model accuracy: %.1f%%\n", stats.Accuracy*100)
		for class, n := range stats.ClassDistribution {
			fmt.Fprintf(&b, "- %s: %d\n", class, n)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recent Inspections\n\n")
	if len(audits) == 0 {
		b.WriteString("No images processed yet.\n")
		return b.String()
	}

	b.WriteString("| Image | Action | Damage | Score | Risk |\n")
	b.WriteString("|-------|--------|--------|-------|------|\n")
	for _, a := range audits {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %.2f |\n",
			a.Image, a.Action, a.AgentOut.DamageType, a.AgentOut.ConfidenceScore, a.FailureRisk)
	}

	return b.String()
}
