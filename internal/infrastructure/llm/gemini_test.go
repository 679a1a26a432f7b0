package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newswatch/internal/domain"
)

func testClient(t *testing.T, server *httptest.Server) *GeminiClient {
	t.Helper()

	cfg := writePrompts(t, map[string]string{
		"role.txt":  "あなたは{KEYWORD}の分析者です。",
		"rules.txt": "指示に従ってください。",
	})
	cfg.Endpoint = server.URL
	cfg.Model = "gemini-2.5-flash"
	cfg.APIKey = "test-key"

	tmpl, err := LoadPromptTemplate(cfg)
	if err != nil {
		t.Fatalf("LoadPromptTemplate error: %v", err)
	}

	client := NewGeminiClient(cfg, "トヨタ", tmpl)
	client.httpClient = server.Client()
	return client
}

func candidatePayload(text string) string {
	encoded, _ := json.Marshal(text)
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%s}]}}]}`, encoded)
}

func TestClassifyParsesStructuredLabels(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("api key header missing")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("structured output not requested")
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "トヨタ") || !strings.Contains(prompt, "記事テキスト") {
			t.Errorf("prompt not rendered: %q", prompt)
		}

		fmt.Fprint(w, candidatePayload(`{"sentiment":"ポジティブ","category":"企業","relevance":85}`))
	}))
	defer server.Close()

	labels, err := testClient(t, server).Classify(context.Background(), "記事テキスト")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}

	want := domain.Labels{Sentiment: "ポジティブ", Category: "企業", Relevance: "85"}
	if labels != want {
		t.Fatalf("unexpected labels %+v", labels)
	}
}

func TestClassifyRateLimitIsQuotaError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(t, server).Classify(context.Background(), "記事テキスト")
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestClassifyResourceExhaustedIsQuotaError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"status":"RESOURCE_EXHAUSTED","message":"quota"}}`)
	}))
	defer server.Close()

	_, err := testClient(t, server).Classify(context.Background(), "記事テキスト")
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestClassifyRejectsIncompleteTriple(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidatePayload(`{"sentiment":"ポジティブ","category":"","relevance":10}`))
	}))
	defer server.Close()

	if _, err := testClient(t, server).Classify(context.Background(), "記事テキスト"); err == nil {
		t.Fatal("incomplete triple must be an error")
	}
}

func TestClassifyServerErrorIsNotQuota(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(t, server).Classify(context.Background(), "記事テキスト")
	if err == nil || errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected a transient error, got %v", err)
	}
}
