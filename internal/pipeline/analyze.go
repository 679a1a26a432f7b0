package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"newswatch/internal/domain"
	"newswatch/internal/ports"
	"newswatch/internal/retry"
)

// Analyzer runs the classification step under its asymmetric failure policy:
// transient errors retry with backoff, quota exhaustion aborts immediately.
type Analyzer struct {
	classifier ports.Classifier
	retrier    *retry.Retrier
	maxChars   int
	logger     *slog.Logger
}

// NewAnalyzer wires the classifier with a transient-only retry policy and
// the input character budget.
func NewAnalyzer(classifier ports.Classifier, retryConfig retry.Config, maxChars int, logger *slog.Logger) *Analyzer {
	if maxChars <= 0 {
		maxChars = 15000
	}
	transientOnly := func(err error) bool {
		return !errors.Is(err, domain.ErrQuotaExhausted)
	}
	return &Analyzer{
		classifier: classifier,
		retrier:    retry.New(retryConfig, transientOnly, logger),
		maxChars:   maxChars,
		logger:     logger,
	}
}

// Analyze classifies one body text into a complete label triple. An empty
// body never reaches the LLM and yields the fixed no-body triple.
func (a *Analyzer) Analyze(ctx context.Context, body string) (domain.Labels, error) {
	if strings.TrimSpace(body) == "" {
		return domain.NoBodyLabels(), nil
	}

	text := truncate(body, a.maxChars)

	var labels domain.Labels
	err := a.retrier.Do(ctx, func() error {
		var callErr error
		labels, callErr = a.classifier.Classify(ctx, text)
		return callErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExhausted) {
			return domain.Labels{}, err
		}
		return domain.Labels{}, fmt.Errorf("classify: %w", err)
	}

	if !labels.Complete() {
		return domain.Labels{}, fmt.Errorf("classifier returned partial labels %+v", labels)
	}

	return labels, nil
}

// truncate is a hard prefix cut on runes, not bytes; the body is Japanese
// text and a byte cut could split a character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
