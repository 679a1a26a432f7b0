package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"newswatch/internal/domain"
	"newswatch/internal/retry"
)

type stubClassifier struct {
	labels   domain.Labels
	errs     []error
	received []string
	calls    int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (domain.Labels, error) {
	s.received = append(s.received, text)
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return domain.Labels{}, err
		}
	}
	return s.labels, nil
}

func fastRetry(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:   attempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1,
		JitterFactor:  0,
	}
}

func goodLabels() domain.Labels {
	return domain.Labels{Sentiment: "ニュートラル", Category: "技術", Relevance: "70"}
}

func TestAnalyzeEmptyBodySkipsClassifier(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{labels: goodLabels()}
	a := NewAnalyzer(c, fastRetry(3), 100, discard())

	labels, err := a.Analyze(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if labels != domain.NoBodyLabels() {
		t.Fatalf("expected no-body triple, got %+v", labels)
	}
	if c.calls != 0 {
		t.Fatalf("classifier called %d times for an empty body", c.calls)
	}
}

func TestAnalyzeTruncatesOnRunes(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{labels: goodLabels()}
	a := NewAnalyzer(c, fastRetry(1), 10, discard())

	body := strings.Repeat("あ", 25)
	if _, err := a.Analyze(context.Background(), body); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	got := c.received[0]
	if want := strings.Repeat("あ", 10); got != want {
		t.Fatalf("expected 10-rune prefix, got %d runes", len([]rune(got)))
	}
}

func TestAnalyzeRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{
		labels: goodLabels(),
		errs:   []error{errors.New("503"), errors.New("timeout"), nil},
	}
	a := NewAnalyzer(c, fastRetry(3), 100, discard())

	labels, err := a.Analyze(context.Background(), "本文")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if labels != goodLabels() {
		t.Fatalf("unexpected labels %+v", labels)
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", c.calls)
	}
}

func TestAnalyzeQuotaErrorNeverRetries(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{errs: []error{domain.ErrQuotaExhausted}}
	a := NewAnalyzer(c, fastRetry(5), 100, discard())

	_, err := a.Analyze(context.Background(), "本文")
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("quota error retried: %d calls", c.calls)
	}
}

func TestAnalyzeRejectsPartialLabels(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{labels: domain.Labels{Sentiment: "ポジティブ"}}
	a := NewAnalyzer(c, fastRetry(1), 100, discard())

	if _, err := a.Analyze(context.Background(), "本文"); err == nil {
		t.Fatal("partial labels must be an error")
	}
}
