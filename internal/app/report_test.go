package app

import (
	"errors"
	"strings"
	"testing"

	"newswatch/internal/domain"
	"newswatch/internal/pipeline"
)

func TestFormatReport(t *testing.T) {
	t.Parallel()

	report := pipeline.Report{Keywords: 2, Discovered: 12, Appended: 3, Enriched: 5, Analyzed: 4}

	msg := formatReport(report, nil)
	if !strings.Contains(msg, "appended: 3") || !strings.Contains(msg, "analyzed: 4") {
		t.Fatalf("counts missing: %q", msg)
	}
	if !strings.Contains(msg, "completed") {
		t.Fatalf("success marker missing: %q", msg)
	}

	report.Aborted = true
	msg = formatReport(report, domain.ErrQuotaExhausted)
	if !strings.Contains(msg, "quota") {
		t.Fatalf("abort marker missing: %q", msg)
	}

	report.Aborted = false
	msg = formatReport(report, errors.New("search failed"))
	if !strings.Contains(msg, "failed: search failed") {
		t.Fatalf("failure marker missing: %q", msg)
	}
}
