package digest

import (
	"context"
	"time"
)

// LinkSource returns the full candidate URL list from the backing document.
// An unreadable source fails with an error wrapping ErrSourceUnavailable.
type LinkSource interface {
	Fetch(ctx context.Context) ([]string, error)
}

// Extractor fetches a URL and returns its readable text. Network and parse
// errors wrap ErrExtractionFailed; length policy is the caller's concern.
type Extractor interface {
	Extract(ctx context.Context, url string) (Article, error)
}

// Summarizer produces a short natural-language summary of an article.
// Failures wrap ErrSummarizationFailed.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

// Notifier delivers a formatted message to a human. Transport or auth
// failures wrap ErrDeliveryFailed.
type Notifier interface {
	Deliver(ctx context.Context, msg Message) error
}

// TrackerStore persists the TrackerRecord. Load returns an empty record,
// not an error, when no state has been persisted yet. Save rewrites the
// full record; there is no incremental append.
type TrackerStore interface {
	Load(ctx context.Context) (TrackerRecord, error)
	Save(ctx context.Context, rec TrackerRecord) error
}

// Archive accumulates user-authored summaries, keyed by candidate ID.
type Archive interface {
	Has(ctx context.Context, id string) (bool, error)
	Append(ctx context.Context, note ReplyNote) error
}

// Inbox searches the user's mailbox for a reply carrying the given
// correlation token and returns its plain-text body. The second return is
// false when no reply has arrived yet.
type Inbox interface {
	FindReply(ctx context.Context, token string) (string, bool, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}
