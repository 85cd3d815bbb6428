package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	filearchive "github.com/dailydigest/digestd/internal/archive/file"
	"github.com/dailydigest/digestd/internal/clock/system"
	"github.com/dailydigest/digestd/internal/config"
	"github.com/dailydigest/digestd/internal/digest"
	"github.com/dailydigest/digestd/internal/extract"
	imapinbox "github.com/dailydigest/digestd/internal/inbox/imap"
	"github.com/dailydigest/digestd/internal/logging"
	"github.com/dailydigest/digestd/internal/notify/mail"
	"github.com/dailydigest/digestd/internal/notify/telegram"
	"github.com/dailydigest/digestd/internal/pipeline"
	"github.com/dailydigest/digestd/internal/source/feed"
	"github.com/dailydigest/digestd/internal/source/gdoc"
	filestore "github.com/dailydigest/digestd/internal/storage/file"
	pgstore "github.com/dailydigest/digestd/internal/storage/postgres"
	"github.com/dailydigest/digestd/internal/summarize/openai"
	"github.com/dailydigest/digestd/internal/tracker"
	"github.com/dailydigest/digestd/internal/umbrella"
)

// runtime holds the wired collaborators for one command invocation.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	clock   digest.Clock
	tracker *tracker.Tracker
	pipe    *pipeline.Pipeline
	checker *umbrella.Checker

	pools   map[string]*pgxpool.Pool
	closers []func()
}

// buildRuntime loads config and wires every collaborator the commands
// need. Callers must invoke close when done.
func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
		pools:  make(map[string]*pgxpool.Pool),
	}

	store, err := rt.buildTrackerStore(ctx)
	if err != nil {
		rt.close()
		return nil, err
	}
	trk, err := tracker.New(ctx, store, rt.clock, logger)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.tracker = trk

	source, err := buildSource(cfg)
	if err != nil {
		rt.close()
		return nil, err
	}
	notifier, err := buildNotifier(cfg, rt.clock)
	if err != nil {
		rt.close()
		return nil, err
	}

	extractor := extract.New(extract.Config{
		UserAgent:          cfg.Extractor.UserAgent,
		Timeout:            cfg.ExtractTimeout(),
		NavTimeout:         cfg.NavTimeout(),
		HeadlessEnabled:    cfg.Extractor.HeadlessEnabled,
		PromotionThreshold: cfg.Extractor.PromotionThreshold,
	}, logger)
	rt.closers = append(rt.closers, extractor.Close)

	summarizer, err := buildSummarizer(cfg)
	if err != nil {
		rt.close()
		return nil, err
	}

	archive, err := rt.buildArchive(ctx)
	if err != nil {
		rt.close()
		return nil, err
	}

	var inbox digest.Inbox
	if cfg.Inbox.Host != "" {
		in, err := imapinbox.New(imapinbox.Config{
			Host:     cfg.Inbox.Host,
			Port:     cfg.Inbox.Port,
			Username: cfg.Inbox.Username,
			Password: cfg.Inbox.Password,
			Mailbox:  cfg.Inbox.Mailbox,
		}, logger)
		if err != nil {
			rt.close()
			return nil, err
		}
		inbox = in
	}

	rt.pipe = pipeline.New(source, trk, extractor, summarizer, notifier, archive, inbox,
		rt.clock, pipeline.Config{
			Recipient:     cfg.Recipient,
			MinTextLength: cfg.Pipeline.MinTextLength,
			MaxAttempts:   cfg.Pipeline.MaxAttempts,
			ExcerptLength: cfg.Pipeline.ExcerptLength,
			PollLookback:  cfg.Pipeline.PollLookback,
		}, logger)

	if cfg.Umbrella.Enabled {
		loc, err := cfg.UmbrellaLocation()
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("resolve umbrella timezone: %w", err)
		}
		ucfg := umbrella.Config{
			APIKey:      cfg.Umbrella.APIKey,
			Lat:         cfg.Umbrella.Lat,
			Lon:         cfg.Umbrella.Lon,
			ThresholdMM: cfg.Umbrella.ThresholdMM,
			Recipient:   cfg.Recipient,
			RunHour:     cfg.Umbrella.RunHour,
			Location:    loc,
		}
		rt.checker = umbrella.NewChecker(
			umbrella.NewClient(ucfg, nil, logger), notifier, rt.clock, ucfg, logger)
	}

	return rt, nil
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	for _, pool := range rt.pools {
		pool.Close()
	}
	_ = rt.logger.Sync()
}

func (rt *runtime) pgPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if pool, ok := rt.pools[dsn]; ok {
		return pool, nil
	}
	pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	rt.pools[dsn] = pool
	return pool, nil
}

func (rt *runtime) buildTrackerStore(ctx context.Context) (digest.TrackerStore, error) {
	switch rt.cfg.Tracker.Provider {
	case "postgres":
		pool, err := rt.pgPool(ctx, rt.cfg.Tracker.DSN)
		if err != nil {
			return nil, err
		}
		return pgstore.NewTrackerStore(pool, rt.cfg.Tracker.Table)
	default:
		return filestore.NewTrackerStore(rt.cfg.Tracker.Path)
	}
}

func (rt *runtime) buildArchive(ctx context.Context) (digest.Archive, error) {
	switch rt.cfg.Archive.Provider {
	case "postgres":
		pool, err := rt.pgPool(ctx, rt.cfg.Archive.DSN)
		if err != nil {
			return nil, err
		}
		return pgstore.NewArchive(pool, rt.cfg.Archive.Table)
	default:
		return filearchive.New(rt.cfg.Archive.Path)
	}
}

func buildSource(cfg config.Config) (digest.LinkSource, error) {
	switch cfg.Source.Provider {
	case "feed":
		return feed.New(feed.Config{FeedURL: cfg.Source.FeedURL, Timeout: cfg.ExtractTimeout()})
	default:
		return gdoc.New(gdoc.Config{DocURL: cfg.Source.DocURL, Timeout: cfg.ExtractTimeout()})
	}
}

func buildNotifier(cfg config.Config, clock digest.Clock) (digest.Notifier, error) {
	switch cfg.Notifier.Provider {
	case "telegram":
		return telegram.New(telegram.Config{
			Token:  cfg.Notifier.Telegram.Token,
			ChatID: cfg.Notifier.Telegram.ChatID,
		})
	default:
		return mail.New(mail.Config{
			Host:     cfg.Notifier.SMTP.Host,
			Port:     cfg.Notifier.SMTP.Port,
			Username: cfg.Notifier.SMTP.Username,
			Password: cfg.Notifier.SMTP.Password,
			From:     cfg.Notifier.SMTP.From,
		}, clock)
	}
}

func buildSummarizer(cfg config.Config) (digest.Summarizer, error) {
	if cfg.Summarizer.APIKey == "" {
		// Without credentials the pipeline still runs; every delivery
		// falls back to the article excerpt.
		return noSummarizer{}, nil
	}
	return openai.New(openai.Config{
		APIKey:      cfg.Summarizer.APIKey,
		Model:       cfg.Summarizer.Model,
		MaxChars:    cfg.Summarizer.MaxChars,
		MaxTokens:   int64(cfg.Summarizer.MaxTokens),
		Temperature: cfg.Summarizer.Temperature,
	})
}

type noSummarizer struct{}

func (noSummarizer) Summarize(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: summarizer not configured", digest.ErrSummarizationFailed)
}
