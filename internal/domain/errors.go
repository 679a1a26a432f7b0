package domain

import "errors"

// ErrQuotaExhausted marks an LLM quota or rate-limit failure. It is fatal to
// the run: never retried, and everything committed so far stays committed.
var ErrQuotaExhausted = errors.New("llm quota exhausted")
