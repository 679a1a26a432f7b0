package sheets

import (
	"testing"

	"newswatch/internal/domain"
)

func TestEncodeDecodeKeepsSentinelStates(t *testing.T) {
	t.Parallel()

	row := domain.Row{
		URL:      "https://news.yahoo.co.jp/articles/abc",
		Title:    "タイトル",
		PostedAt: "25/10/20 15:30",
		Source:   "共同通信",
		Body:     domain.UnavailableText(),
		Comments: domain.CountOf(0),
		Labels:   domain.Labels{Sentiment: "ポジティブ", Category: "企業", Relevance: "85"},
	}

	decoded := decodeRow(encodeRow(row))

	if !decoded.Body.IsUnavailable() {
		t.Fatalf("unavailable body became %+v", decoded.Body)
	}
	if !decoded.Comments.Set() || decoded.Comments.Value() != 0 {
		t.Fatalf("genuine zero count lost: %+v", decoded.Comments)
	}
	if decoded != row {
		t.Fatalf("round trip drifted: %+v != %+v", decoded, row)
	}
}

func TestDecodeDistinguishesEmptyFromUnavailable(t *testing.T) {
	t.Parallel()

	fresh := decodeRow([]interface{}{"u", "t", "", "", "", ""})
	if !fresh.Body.Unknown() {
		t.Fatalf("empty body cell must stay unknown: %+v", fresh.Body)
	}
	if fresh.Comments.Set() {
		t.Fatalf("empty counter cell must stay unset: %+v", fresh.Comments)
	}

	gone := decodeRow([]interface{}{"u", "t", "", "", domain.Unavailable, ""})
	if !gone.Body.IsUnavailable() {
		t.Fatalf("marker cell must decode as unavailable: %+v", gone.Body)
	}
}

func TestDecodeRaggedRow(t *testing.T) {
	t.Parallel()

	// The API trims trailing empty cells; a freshly appended row comes back
	// short.
	row := decodeRow([]interface{}{"https://news.yahoo.co.jp/articles/abc", "タイトル"})

	if row.URL == "" || row.Title == "" {
		t.Fatalf("leading cells lost: %+v", row)
	}
	if !row.Body.Unknown() || row.Comments.Set() || !row.Labels.Empty() {
		t.Fatalf("missing cells must decode as unknown: %+v", row)
	}
}

func TestHeaderMatchesColumnCount(t *testing.T) {
	t.Parallel()

	if len(headerCells) != columnCount {
		t.Fatalf("header has %d cells, want %d", len(headerCells), columnCount)
	}
	if got := len(encodeRow(domain.Row{})); got != columnCount {
		t.Fatalf("encoded row has %d cells, want %d", got, columnCount)
	}
}
