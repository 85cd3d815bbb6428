// Package feed reads candidate links from an RSS or Atom feed.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dailydigest/digestd/internal/digest"
)

// Config controls the feed source.
type Config struct {
	FeedURL string
	Timeout time.Duration
}

// Source implements digest.LinkSource over an RSS/Atom feed.
type Source struct {
	url    string
	parser *gofeed.Parser
}

// New builds a feed source.
func New(cfg Config) (*Source, error) {
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("feed URL is required")
	}
	p := gofeed.NewParser()
	return &Source{url: cfg.FeedURL, parser: p}, nil
}

// Fetch parses the feed and returns item links in feed order, duplicates
// removed.
func (s *Source) Fetch(ctx context.Context) ([]string, error) {
	f, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %v: %w", s.url, err, digest.ErrSourceUnavailable)
	}
	seen := make(map[string]struct{}, len(f.Items))
	var out []string
	for _, item := range f.Items {
		if item == nil || item.Link == "" {
			continue
		}
		if _, dup := seen[item.Link]; dup {
			continue
		}
		seen[item.Link] = struct{}{}
		out = append(out, item.Link)
	}
	return out, nil
}
