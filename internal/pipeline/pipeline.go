// Package pipeline orchestrates the digest jobs: the morning auto-summary
// run, the noon reminder, and the reply poller. Each job is a single
// sequential pass over the collaborators; the tracker is the only stateful
// participant.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/digest"
	"github.com/dailydigest/digestd/internal/hash/sha256"
	"github.com/dailydigest/digestd/internal/metrics"
	"github.com/dailydigest/digestd/internal/tracker"
)

// fallbackMarker labels degraded deliveries when summarization fails.
const fallbackMarker = "[AI summary unavailable, article excerpt below]"

// Config controls pipeline policy.
type Config struct {
	Recipient     string
	MinTextLength int // extracted text below this is a failure
	MaxAttempts   int // retry-then-advance bound
	ExcerptLength int // fallback body size
	PollLookback  int // history entries scanned for pending replies
}

func (c *Config) applyDefaults() {
	if c.MinTextLength == 0 {
		c.MinTextLength = 100
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.ExcerptLength == 0 {
		c.ExcerptLength = 1500
	}
	if c.PollLookback == 0 {
		c.PollLookback = 10
	}
}

// Pipeline wires the collaborators for one digest installation.
type Pipeline struct {
	source     digest.LinkSource
	tracker    *tracker.Tracker
	extractor  digest.Extractor
	summarizer digest.Summarizer
	notifier   digest.Notifier
	archive    digest.Archive
	inbox      digest.Inbox
	hasher     *sha256.Hasher
	clock      digest.Clock
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Pipeline. Archive and inbox may be nil when the reply
// cycle is not configured; Noon and PollReplies then refuse to run.
func New(
	source digest.LinkSource,
	trk *tracker.Tracker,
	extractor digest.Extractor,
	summarizer digest.Summarizer,
	notifier digest.Notifier,
	archive digest.Archive,
	inbox digest.Inbox,
	clock digest.Clock,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:     source,
		tracker:    trk,
		extractor:  extractor,
		summarizer: summarizer,
		notifier:   notifier,
		archive:    archive,
		inbox:      inbox,
		hasher:     sha256.New(),
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Morning runs the full digest cycle: select an unseen candidate, extract,
// summarize (with fallback), deliver, record. Extraction failures retire
// the candidate and advance to another, bounded by MaxAttempts.
func (p *Pipeline) Morning(ctx context.Context) error {
	start := time.Now()
	logger := p.logger.With(zap.String("run_id", uuid.NewString()))
	defer func() {
		metrics.ObserveRunDuration("morning", time.Since(start).Seconds())
	}()

	links, err := p.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch link source: %w", err)
	}
	if len(links) == 0 {
		return fmt.Errorf("%w: document contains no links", digest.ErrSourceUnavailable)
	}
	logger.Info("fetched candidate links", zap.Int("count", len(links)))

	pool := append([]string(nil), links...)
	attempts := p.cfg.MaxAttempts
	if len(pool) < attempts {
		attempts = len(pool)
	}

	for attempt := 1; attempt <= attempts && len(pool) > 0; attempt++ {
		if len(p.tracker.Unsent(pool)) == 0 {
			metrics.TrackerReset()
		}
		url, err := p.tracker.Select(ctx, pool)
		if err != nil {
			return fmt.Errorf("select candidate: %w", err)
		}
		logger.Info("selected candidate",
			zap.String("url", url), zap.Int("attempt", attempt))

		article, err := p.extractCandidate(ctx, url)
		if err != nil {
			reason := failureLabel(err)
			logger.Warn("extraction failed, retiring candidate",
				zap.String("url", url), zap.String("stage", "extract"), zap.Error(err))
			metrics.ExtractionFailed()
			if rerr := p.tracker.RecordOutcome(ctx, url, reason, false); rerr != nil {
				return rerr
			}
			pool = remove(pool, url)
			continue
		}
		return p.deliver(ctx, logger, article)
	}
	return fmt.Errorf("%w after %d attempts", digest.ErrNoViableCandidate, attempts)
}

func (p *Pipeline) extractCandidate(ctx context.Context, url string) (digest.Article, error) {
	article, err := p.extractor.Extract(ctx, url)
	if err != nil {
		return digest.Article{}, err
	}
	if len(article.Text) < p.cfg.MinTextLength {
		return digest.Article{}, fmt.Errorf("%w: text too short (%d chars, need %d)",
			digest.ErrExtractionFailed, len(article.Text), p.cfg.MinTextLength)
	}
	return article, nil
}

func (p *Pipeline) deliver(ctx context.Context, logger *zap.Logger, article digest.Article) error {
	body, summaryLabel := p.summarize(ctx, logger, article)

	msg := digest.Message{
		To:      p.cfg.Recipient,
		Subject: fmt.Sprintf("\U0001F4DA Daily Reading: %s", article.Title),
		Title:   article.Title,
		URL:     article.URL,
		Body:    body,
	}
	if err := p.notifier.Deliver(ctx, msg); err != nil {
		logger.Error("delivery failed",
			zap.String("url", article.URL), zap.String("stage", "notify"), zap.Error(err))
		return err
	}
	if err := p.tracker.RecordOutcome(ctx, article.URL, article.Title, true); err != nil {
		return err
	}
	metrics.ArticleDelivered(summaryLabel)

	stats := p.tracker.Stats()
	logger.Info("digest delivered",
		zap.String("url", article.URL),
		zap.String("title", article.Title),
		zap.String("summary", summaryLabel),
		zap.Int("total_sent", stats.TotalSent))
	return nil
}

// summarize returns the email body and a label for metrics. A summarizer
// failure degrades to a labeled excerpt; a scraped article is always
// delivered.
func (p *Pipeline) summarize(ctx context.Context, logger *zap.Logger, article digest.Article) (string, string) {
	summary, err := p.summarizer.Summarize(ctx, article.Title, article.Text)
	if err == nil {
		return summary, "ok"
	}
	logger.Warn("summarization failed, using excerpt fallback",
		zap.String("url", article.URL), zap.String("stage", "summarize"), zap.Error(err))
	metrics.SummaryFallback()
	return fallbackMarker + "\n\n" + excerpt(article.Text, p.cfg.ExcerptLength), "fallback"
}

// Noon sends the reminder asking the reader to reply with their own
// summary of today's article. Skipped when nothing was delivered today.
func (p *Pipeline) Noon(ctx context.Context) error {
	entry, ok := p.tracker.LastDelivered()
	if !ok {
		p.logger.Info("no delivered article on record, skipping reminder")
		return nil
	}
	if !sameDay(entry.Date, p.clock.Now()) {
		p.logger.Info("last delivery is not from today, skipping reminder",
			zap.Time("delivered_at", entry.Date))
		return nil
	}

	token := p.replyToken(entry.URL)
	body := fmt.Sprintf(
		"Hi, this is a friendly reminder to reply to this email with your key points "+
			"or a short summary for today's article:\n\n%s\n\n"+
			"Reply to this message with your notes and they will be saved to your "+
			"compiled summaries document.", entry.URL)
	msg := digest.Message{
		To:      p.cfg.Recipient,
		Subject: fmt.Sprintf("Your Key Points for Today's Article: %s %s", entry.Title, token),
		Title:   entry.Title,
		URL:     entry.URL,
		Body:    body,
	}
	if err := p.notifier.Deliver(ctx, msg); err != nil {
		p.logger.Error("reminder delivery failed",
			zap.String("url", entry.URL), zap.String("stage", "notify"), zap.Error(err))
		return err
	}
	p.logger.Info("noon reminder sent", zap.String("url", entry.URL), zap.String("token", token))
	return nil
}

// PollReplies scans recent deliveries for user replies and archives any it
// finds. Lookup errors are logged per candidate and do not stop the scan.
func (p *Pipeline) PollReplies(ctx context.Context) error {
	if p.inbox == nil || p.archive == nil {
		return fmt.Errorf("reply capture is not configured")
	}

	var firstErr error
	for _, entry := range p.tracker.History(p.cfg.PollLookback) {
		if entry.Failed {
			continue
		}
		id := p.hasher.CandidateID(entry.URL)
		archived, err := p.archive.Has(ctx, id)
		if err != nil {
			return fmt.Errorf("check archive for %s: %w", entry.URL, err)
		}
		if archived {
			continue
		}

		text, found, err := p.inbox.FindReply(ctx, p.replyToken(entry.URL))
		if err != nil {
			p.logger.Error("inbox lookup failed",
				zap.String("url", entry.URL), zap.String("stage", "poll"), zap.Error(err))
			metrics.PollCycle("error")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !found {
			metrics.PollCycle("miss")
			continue
		}

		note := digest.ReplyNote{
			ID:         id,
			URL:        entry.URL,
			Title:      entry.Title,
			Note:       text,
			ReceivedAt: p.clock.Now(),
		}
		if err := p.archive.Append(ctx, note); err != nil {
			return fmt.Errorf("archive note for %s: %w", entry.URL, err)
		}
		metrics.PollCycle("hit")
		p.logger.Info("archived reader summary", zap.String("url", entry.URL), zap.String("id", id))
	}
	return firstErr
}

// LinkReport describes one reading-list candidate's scrapeability.
type LinkReport struct {
	URL    string `json:"url"`
	OK     bool   `json:"ok"`
	Title  string `json:"title,omitempty"`
	Chars  int    `json:"chars,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ValidateLinks probes every reading-list candidate against the same
// extraction policy the morning run applies, without touching tracker
// state. Per-link failures land in the report, not the error.
func (p *Pipeline) ValidateLinks(ctx context.Context) ([]LinkReport, error) {
	links, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch link source: %w", err)
	}

	reports := make([]LinkReport, 0, len(links))
	for _, u := range links {
		article, err := p.extractCandidate(ctx, u)
		if err != nil {
			p.logger.Warn("link failed validation", zap.String("url", u), zap.Error(err))
			reports = append(reports, LinkReport{URL: u, Reason: err.Error()})
			continue
		}
		reports = append(reports, LinkReport{
			URL:   u,
			OK:    true,
			Title: article.Title,
			Chars: len(article.Text),
		})
	}
	return reports, nil
}

func (p *Pipeline) replyToken(url string) string {
	return "[REF:" + p.hasher.CandidateID(url) + "]"
}

func remove(pool []string, url string) []string {
	out := pool[:0]
	for _, u := range pool {
		if u != url {
			out = append(out, u)
		}
	}
	return out
}

func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func failureLabel(err error) string {
	if errors.Is(err, digest.ErrExtractionFailed) {
		return err.Error()
	}
	return "extraction failed: " + err.Error()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
