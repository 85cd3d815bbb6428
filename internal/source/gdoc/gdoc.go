// Package gdoc reads candidate links from a publicly shared Google Doc
// via its plain-text export endpoint.
package gdoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dailydigest/digestd/internal/digest"
)

const defaultBaseURL = "https://docs.google.com"

var (
	docIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
)

// Config controls the doc source. BaseURL overrides the docs.google.com
// endpoint in tests.
type Config struct {
	DocURL  string
	Timeout time.Duration
	BaseURL string
}

// Source implements digest.LinkSource over a Google Doc reading list.
type Source struct {
	docID   string
	baseURL string
	client  *http.Client
}

// New builds a Source from a Google Docs URL.
func New(cfg Config) (*Source, error) {
	id, err := extractDocID(cfg.DocURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Source{
		docID:   id,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Fetch downloads the doc as plain text and returns every URL found in it,
// first occurrence order, duplicates removed.
func (s *Source) Fetch(ctx context.Context) ([]string, error) {
	exportURL := fmt.Sprintf("%s/document/d/%s/export?format=txt", s.baseURL, s.docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build doc request: %v: %w", err, digest.ErrSourceUnavailable)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch doc %s: %v: %w", s.docID, err, digest.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch doc %s: status %d: %w", s.docID, resp.StatusCode, digest.ErrSourceUnavailable)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read doc %s: %v: %w", s.docID, err, digest.ErrSourceUnavailable)
	}
	return ExtractLinks(string(body)), nil
}

// ExtractLinks pulls http(s) URLs out of free-form text, trimming trailing
// punctuation the doc's prose tends to attach.
func ExtractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		u := strings.TrimRight(m, ".,;:!?)")
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func extractDocID(docURL string) (string, error) {
	m := docIDPattern.FindStringSubmatch(docURL)
	if len(m) < 2 {
		return "", fmt.Errorf("no document ID in URL %q", docURL)
	}
	return m[1], nil
}
