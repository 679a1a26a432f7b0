package sheets

import (
	"strconv"
	"strings"

	"newswatch/internal/domain"
)

// columnCount is the width of one record: URL through relevance, A to I.
const columnCount = 9

// headerCells is the fixed header row. ListRows assumes this layout.
var headerCells = []interface{}{
	"URL", "タイトル", "投稿日時", "ソース", "本文", "コメント数", "ポジネガ分類", "カテゴリ分類", "関連度",
}

// encodeRow turns a Row into one spreadsheet record. An Unknown body and an
// Unset comment count both become empty cells; Unavailable keeps its marker
// so the distinction survives a round trip.
func encodeRow(row domain.Row) []interface{} {
	return []interface{}{
		row.URL,
		row.Title,
		row.PostedAt,
		row.Source,
		encodeText(row.Body),
		encodeCount(row.Comments),
		row.Labels.Sentiment,
		row.Labels.Category,
		row.Labels.Relevance,
	}
}

// decodeRow rebuilds a Row from one record. Ragged rows (trailing empty cells
// trimmed by the API) decode as if the missing cells were empty.
func decodeRow(cells []interface{}) domain.Row {
	return domain.Row{
		URL:      cellString(cells, 0),
		Title:    cellString(cells, 1),
		PostedAt: cellString(cells, 2),
		Source:   cellString(cells, 3),
		Body:     decodeText(cellString(cells, 4)),
		Comments: decodeCount(cellString(cells, 5)),
		Labels: domain.Labels{
			Sentiment: cellString(cells, 6),
			Category:  cellString(cells, 7),
			Relevance: cellString(cells, 8),
		},
	}
}

func encodeText(t domain.Text) string {
	if t.IsUnavailable() {
		return domain.Unavailable
	}
	return t.Value()
}

func decodeText(cell string) domain.Text {
	if cell == domain.Unavailable {
		return domain.UnavailableText()
	}
	return domain.TextOf(cell)
}

func encodeCount(c domain.Count) string {
	if !c.Set() {
		return ""
	}
	return strconv.Itoa(c.Value())
}

func decodeCount(cell string) domain.Count {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return domain.Count{}
	}
	return domain.CountOf(n)
}

func cellString(cells []interface{}, i int) string {
	if i >= len(cells) {
		return ""
	}
	s, ok := cells[i].(string)
	if !ok {
		return ""
	}
	return s
}
