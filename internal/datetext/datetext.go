// Package datetext normalizes the heterogeneous timestamp strings the portal
// emits into JST instants, and owns the single on-disk text representation.
package datetext

import (
	"regexp"
	"strings"
	"time"

	"newswatch/internal/domain"
)

// JST is the portal's home zone; every parsed and formatted instant uses it.
var JST = time.FixedZone("JST", 9*60*60)

// StoredLayout is the canonical textual form written to the store. Parse
// accepts it first, so values produced by Format always round-trip.
const StoredLayout = "06/01/02 15:04"

// futureTolerance bounds how far into the reference's future a year-less
// timestamp may land before the year is rolled back by one.
const futureTolerance = 31 * 24 * time.Hour

var (
	weekdayExpr    = regexp.MustCompile(`\([月火水木金土日]\)\s*$`)
	deliverySuffix = "配信"
)

// layouts are tried most specific first. The last entry has no year and
// triggers reference-year substitution.
var layouts = []struct {
	pattern string
	hasYear bool
}{
	{"2006/1/2 15:04:05", true},
	{"2006/1/2 15:04", true},
	{"06/1/2 15:04", true},
	{"1/2 15:04", false},
}

// Clean strips the decorative trailing weekday token and delivery suffix.
// These never carry meaning; stripping keeps unparseable fragments stable.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, deliverySuffix)
	s = strings.TrimSpace(s)
	s = weekdayExpr.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse converts a raw timestamp string into a JST instant. The second
// return is false when the input is empty, the unavailable marker, or matches
// no known layout; callers treat that as "unknown", never as an error.
//
// Layouts without a year take the reference instant's year; if that puts the
// result more than ~31 days into the reference's future the year is
// decremented, so late back-fills of December articles parsed in January do
// not jump a year ahead.
func Parse(raw string, ref time.Time) (time.Time, bool) {
	s := Clean(raw)
	if s == "" || s == domain.Unavailable {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout.pattern, s, JST)
		if err != nil {
			continue
		}

		if !layout.hasYear {
			t = time.Date(ref.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, JST)
			if t.Sub(ref) > futureTolerance {
				t = t.AddDate(-1, 0, 0)
			}
		}

		return t, true
	}

	return time.Time{}, false
}

// Format renders an instant in the canonical stored form. All writers must
// go through it so that re-parsing stored values is lossless.
func Format(t time.Time) string {
	return t.In(JST).Format(StoredLayout)
}
