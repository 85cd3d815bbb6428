// Package extract fetches candidate URLs and distills them to readable
// article text. A fast colly probe handles most pages; responses that look
// JS-rendered are promoted to a headless chromedp pass before parsing.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/digest"
)

// Config controls fetching and promotion behavior.
type Config struct {
	UserAgent          string
	Timeout            time.Duration
	NavTimeout         time.Duration
	HeadlessEnabled    bool
	PromotionThreshold int
}

type pageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Extractor implements digest.Extractor.
type Extractor struct {
	cfg      Config
	fetcher  *collyFetcher
	renderer pageRenderer
	detector *detector
	closeFn  func()
	logger   *zap.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRenderer swaps the headless renderer, mainly for tests.
func WithRenderer(r pageRenderer) Option {
	return func(e *Extractor) {
		e.renderer = r
		e.closeFn = nil
	}
}

// New builds an Extractor. When headless promotion is enabled a chromedp
// renderer is constructed; otherwise the probe result is always used.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Extractor{
		cfg:      cfg,
		fetcher:  newCollyFetcher(cfg),
		detector: newDetector(cfg.PromotionThreshold),
		logger:   logger,
	}
	if cfg.HeadlessEnabled {
		r := NewRenderer(cfg)
		e.renderer = r
		e.closeFn = r.Close
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases the headless browser, if one was started.
func (e *Extractor) Close() {
	if e.closeFn != nil {
		e.closeFn()
	}
}

// Extract fetches url and returns its title and readable text. Length
// policy is enforced by the caller; network and parse errors wrap
// digest.ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (digest.Article, error) {
	res, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return digest.Article{}, fmt.Errorf("%w: %v", digest.ErrExtractionFailed, err)
	}

	body := res.Body
	if e.renderer != nil && e.detector.shouldPromote(res) {
		e.logger.Debug("promoting to headless render", zap.String("url", rawURL))
		html, rerr := e.renderer.Render(ctx, rawURL)
		if rerr != nil {
			e.logger.Warn("headless render failed, using probe body",
				zap.String("url", rawURL), zap.Error(rerr))
		} else {
			body = []byte(html)
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return digest.Article{}, fmt.Errorf("%w: parse url %s: %v", digest.ErrExtractionFailed, rawURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		e.logger.Debug("readability parse failed, falling back to paragraph scrape",
			zap.String("url", rawURL), zap.Error(err))
		return e.fallbackExtract(parsed, body)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = fallbackTitle(parsed, body)
	}
	return digest.Article{
		URL:   rawURL,
		Title: title,
		Text:  strings.TrimSpace(article.TextContent),
	}, nil
}

// fallbackExtract joins substantial <p> texts when readability cannot make
// sense of the document.
func (e *Extractor) fallbackExtract(pageURL *url.URL, body []byte) (digest.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return digest.Article{}, fmt.Errorf("%w: parse html for %s: %v", digest.ErrExtractionFailed, pageURL, err)
	}
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 20 {
			parts = append(parts, text)
		}
	})
	return digest.Article{
		URL:   pageURL.String(),
		Title: fallbackTitle(pageURL, body),
		Text:  strings.Join(parts, "\n\n"),
	}, nil
}

// fallbackTitle prefers the first <h1>, then <title>, then the host name.
func fallbackTitle(pageURL *url.URL, body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
			return h1
		}
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			return title
		}
	}
	return pageURL.Host
}
