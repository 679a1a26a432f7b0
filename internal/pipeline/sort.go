package pipeline

import (
	"sort"
	"time"

	"newswatch/internal/datetext"
	"newswatch/internal/domain"
)

// Direction selects the sort order of the dataset.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps a config string onto a Direction, defaulting to
// ascending (oldest first), which is what the sheet historically used.
func ParseDirection(value string) Direction {
	if value == string(Descending) {
		return Descending
	}
	return Ascending
}

// SortRows orders the full working set by normalized post date. Rows whose
// date fails to parse always sink to the tail, in either direction, so
// data-quality gaps never interleave with well-dated rows. The sort is
// stable: ties and unparseable rows keep their stored relative order, which
// keeps run-over-run diffs minimal.
func SortRows(rows []domain.Row, direction Direction, now time.Time) {
	type keyed struct {
		row     domain.Row
		instant time.Time
		ok      bool
	}

	items := make([]keyed, len(rows))
	for i, row := range rows {
		t, ok := datetext.Parse(row.PostedAt, now)
		items[i] = keyed{row: row, instant: t, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		if direction == Descending {
			return a.instant.After(b.instant)
		}
		return a.instant.Before(b.instant)
	})

	for i := range items {
		rows[i] = items[i].row
	}
}
