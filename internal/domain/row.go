package domain

// Unavailable is the marker stored when a fetch was attempted and the value
// is permanently gone (deleted article, missing markup). It is distinct from
// an empty cell, which means the value was never successfully obtained.
const Unavailable = "取得不可"

// NoBodySentiment, NoBodyCategory and NoBodyRelevance make up the fixed label
// triple written for rows whose body could not be obtained at all.
const (
	NoBodySentiment = "N/A(No Body)"
	NoBodyCategory  = "N/A"
	NoBodyRelevance = "0"
)

type textState int

const (
	textUnknown textState = iota
	textUnavailable
	textFilled
)

// Text is a row field that is either not yet fetched, permanently
// unavailable, or carries a real value. The three states never collide with
// literal data because the state tag, not string matching, drives decisions.
type Text struct {
	state textState
	value string
}

// TextOf wraps a fetched value. An empty string stays Unknown so a failed
// extraction cannot masquerade as content.
func TextOf(value string) Text {
	if value == "" {
		return Text{}
	}
	return Text{state: textFilled, value: value}
}

// UnavailableText marks a field as attempted-and-gone.
func UnavailableText() Text {
	return Text{state: textUnavailable}
}

// Filled reports whether the field holds real content.
func (t Text) Filled() bool { return t.state == textFilled }

// IsUnavailable reports whether a prior attempt failed permanently.
func (t Text) IsUnavailable() bool { return t.state == textUnavailable }

// Unknown reports whether the field was never successfully obtained.
func (t Text) Unknown() bool { return t.state == textUnknown }

// Value returns the content, empty unless Filled.
func (t Text) Value() string { return t.value }

// Count is a non-negative counter that distinguishes a genuine zero from
// "never fetched". The zero Count is Unset.
type Count struct {
	set bool
	n   int
}

// CountOf wraps a fetched counter value. Negative input stays Unset, matching
// the fetcher's -1 not-found convention.
func CountOf(n int) Count {
	if n < 0 {
		return Count{}
	}
	return Count{set: true, n: n}
}

// Set reports whether a real value, possibly zero, was recorded.
func (c Count) Set() bool { return c.set }

// Value returns the recorded counter, zero unless Set.
func (c Count) Value() int { return c.n }

// Labels is the classification triple produced by one analysis call.
// It is written all-or-nothing; a partially filled triple never exists.
type Labels struct {
	Sentiment string
	Category  string
	Relevance string
}

// Complete reports whether every sub-label is present.
func (l Labels) Complete() bool {
	return l.Sentiment != "" && l.Category != "" && l.Relevance != ""
}

// Empty reports whether analysis has not produced anything yet.
func (l Labels) Empty() bool {
	return l.Sentiment == "" && l.Category == "" && l.Relevance == ""
}

// NoBodyLabels is the fixed triple for rows with no analyzable body.
func NoBodyLabels() Labels {
	return Labels{Sentiment: NoBodySentiment, Category: NoBodyCategory, Relevance: NoBodyRelevance}
}

// Row is one article record. URL is the identity key; everything else
// converges toward fully filled across runs and is never deleted.
type Row struct {
	URL      string
	Title    string
	PostedAt string // canonical timestamp, raw fragment, Unavailable, or empty
	Source   string
	Body     Text
	Comments Count
	Labels   Labels
}

// PostedAtMissing reports whether the post date still needs backfilling.
func (r Row) PostedAtMissing() bool {
	return r.PostedAt == "" || r.PostedAt == Unavailable
}

// Listing is one candidate row discovered by the search scrape.
type Listing struct {
	URL          string
	Title        string
	RawPostedAt  string
	RawSource    string
}

// FetchResult carries everything a single article-page fetch can yield.
// CommentCount is -1 when no counter was found; ExtractedDateRaw is the
// "MM/DD HH:MM" fragment pulled from the lead paragraph, empty when absent.
type FetchResult struct {
	Body             string
	CommentCount     int
	ExtractedDateRaw string
}
