package digest

import "time"

// Candidate is a link eligible for selection and delivery. Identity is the
// URL string itself; no normalization is applied, so two differently
// formatted URLs for the same resource are distinct candidates.
type Candidate struct {
	URL   string
	Title string
}

// HistoryEntry is one append-only delivery record. For failed attempts the
// Title field carries a failure label instead of an article title.
type HistoryEntry struct {
	URL    string    `json:"url"`
	Title  string    `json:"title"`
	Failed bool      `json:"failed,omitempty"`
	Date   time.Time `json:"date"`
}

// TrackerRecord is the persisted tracking state: the set of delivered URLs
// plus the chronological delivery history. Both are cleared together on
// reset and never allowed to diverge.
type TrackerRecord struct {
	SentURLs []string       `json:"sent_links"`
	History  []HistoryEntry `json:"history"`
}

// Clone returns a deep copy so stores can persist a snapshot without
// aliasing the tracker's in-memory slices.
func (r TrackerRecord) Clone() TrackerRecord {
	out := TrackerRecord{
		SentURLs: append([]string(nil), r.SentURLs...),
		History:  append([]HistoryEntry(nil), r.History...),
	}
	return out
}

// Article is the readable content extracted from a candidate URL.
type Article struct {
	URL   string
	Title string
	Text  string
}

// Message is the payload handed to a Notifier. Body is plain text; HTML
// rendering, if any, is the notifier's concern.
type Message struct {
	To      string
	Subject string
	Title   string
	URL     string
	Body    string
}

// ReplyNote is a user-authored summary captured from an inbox reply,
// destined for the compiled-summaries archive.
type ReplyNote struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Note       string    `json:"note"`
	ReceivedAt time.Time `json:"received_at"`
}

// TrackerStats summarizes tracker state for operator output.
type TrackerStats struct {
	TotalSent int
	LastSent  *HistoryEntry
}
