// Package umbrella implements the daily weather check: it pulls the
// OpenWeather One Call forecast for a fixed location and emails a heads-up
// when the day looks wet enough to warrant an umbrella.
package umbrella

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dailydigest/digestd/internal/digest"
)

const (
	defaultBaseURL = "https://api.openweathermap.org"
	onecallPath    = "/data/3.0/onecall"

	// probThreshold is the precipitation probability above which a slot
	// counts as wet regardless of accumulation.
	probThreshold = 0.5

	// hourlyWindow bounds how far ahead the hourly scan looks.
	hourlyWindow = 12
)

// Config holds location, credentials and decision policy.
type Config struct {
	APIKey      string
	Lat         float64
	Lon         float64
	ThresholdMM float64 // daily accumulation that triggers the alert
	Recipient   string
	RunHour     int            // local hour the scheduled check is allowed to run
	Location    *time.Location // zone for the run-hour gate; nil means host-local
	BaseURL     string         // override for tests
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.ThresholdMM == 0 {
		c.ThresholdMM = 1.0
	}
	if c.RunHour == 0 {
		c.RunHour = 7
	}
	if c.Location == nil {
		c.Location = time.Local
	}
}

// Forecast is the subset of the One Call response the decision needs.
type Forecast struct {
	Daily  []DailyEntry  `json:"daily"`
	Hourly []HourlyEntry `json:"hourly"`
}

// DailyEntry is one day of forecast. Rain and Snow are accumulations in mm.
type DailyEntry struct {
	Dt      int64    `json:"dt"`
	Pop     float64  `json:"pop"`
	Rain    float64  `json:"rain"`
	Snow    float64  `json:"snow"`
	Summary string   `json:"summary"`
	Temp    DayTemps `json:"temp"`
}

// DayTemps carries the daily extremes for the notification body.
type DayTemps struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// HourlyEntry is one hour of forecast. Accumulations arrive nested under a
// "1h" key.
type HourlyEntry struct {
	Dt   int64        `json:"dt"`
	Pop  float64      `json:"pop"`
	Rain Accumulation `json:"rain"`
	Snow Accumulation `json:"snow"`
}

// Accumulation unwraps OpenWeather's {"1h": mm} objects.
type Accumulation struct {
	OneHour float64 `json:"1h"`
}

// Decision is the outcome of a forecast evaluation.
type Decision struct {
	NeedUmbrella bool
	Reasons      []string
	Summary      string
	TempMin      float64
	TempMax      float64
}

// Client fetches forecasts from the OpenWeather One Call API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds an API client. A nil httpClient falls back to a client
// with a 15s timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Fetch retrieves the current forecast for the configured coordinates.
func (c *Client) Fetch(ctx context.Context) (Forecast, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%g", c.cfg.Lat))
	q.Set("lon", fmt.Sprintf("%g", c.cfg.Lon))
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", "metric")
	q.Set("exclude", "minutely,alerts")
	endpoint := c.cfg.BaseURL + onecallPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("build forecast request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Forecast{}, fmt.Errorf("fetch forecast: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var fc Forecast
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}
	if len(fc.Daily) == 0 {
		return Forecast{}, fmt.Errorf("decode forecast: no daily entries")
	}
	return fc, nil
}

// Decide evaluates today's daily entry plus the next hourlyWindow hours
// against the accumulation threshold.
func Decide(fc Forecast, thresholdMM float64) Decision {
	d := Decision{}
	if len(fc.Daily) == 0 {
		return d
	}
	today := fc.Daily[0]
	d.Summary = today.Summary
	d.TempMin = today.Temp.Min
	d.TempMax = today.Temp.Max

	if today.Pop >= probThreshold {
		d.Reasons = append(d.Reasons,
			fmt.Sprintf("%.0f%% chance of precipitation today", today.Pop*100))
	}
	if accum := today.Rain + today.Snow; accum >= thresholdMM {
		d.Reasons = append(d.Reasons,
			fmt.Sprintf("%.1f mm of precipitation expected today", accum))
	}

	hours := fc.Hourly
	if len(hours) > hourlyWindow {
		hours = hours[:hourlyWindow]
	}
	for i, h := range hours {
		if h.Pop >= probThreshold || h.Rain.OneHour > 0 || h.Snow.OneHour > 0 {
			d.Reasons = append(d.Reasons,
				fmt.Sprintf("wet spell expected within the next %d hours", i+1))
			break
		}
	}

	d.NeedUmbrella = len(d.Reasons) > 0
	return d
}

// Checker runs the scheduled umbrella job.
type Checker struct {
	client   *Client
	notifier digest.Notifier
	clock    digest.Clock
	cfg      Config
	logger   *zap.Logger
}

// NewChecker wires a Checker from its collaborators.
func NewChecker(client *Client, notifier digest.Notifier, clock digest.Clock, cfg Config, logger *zap.Logger) *Checker {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{client: client, notifier: notifier, clock: clock, cfg: cfg, logger: logger}
}

// Run performs one check. Outside the configured run hour it is a no-op
// unless force is set, so a retried scheduler tick cannot double-send.
func (c *Checker) Run(ctx context.Context, force bool) error {
	// The gate compares the hour in the configured zone, not the clock's
	// own zone: the wired clock reports UTC while cron fires in local time.
	now := c.clock.Now().In(c.cfg.Location)
	if !force && now.Hour() != c.cfg.RunHour {
		c.logger.Info("outside umbrella check window, skipping",
			zap.Int("hour", now.Hour()), zap.Int("run_hour", c.cfg.RunHour))
		return nil
	}

	fc, err := c.client.Fetch(ctx)
	if err != nil {
		return err
	}
	decision := Decide(fc, c.cfg.ThresholdMM)
	if !decision.NeedUmbrella {
		c.logger.Info("dry day ahead, no umbrella email",
			zap.String("summary", decision.Summary))
		return nil
	}

	msg := digest.Message{
		To:      c.cfg.Recipient,
		Subject: "☔ Umbrella Alert: rain expected today",
		Title:   "Umbrella Alert",
		Body:    buildBody(decision),
	}
	if err := c.notifier.Deliver(ctx, msg); err != nil {
		c.logger.Error("umbrella alert delivery failed", zap.Error(err))
		return err
	}
	c.logger.Info("umbrella alert sent", zap.Strings("reasons", decision.Reasons))
	return nil
}

func buildBody(d Decision) string {
	var b strings.Builder
	b.WriteString("Take an umbrella with you today.\n\n")
	for _, r := range d.Reasons {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	if d.Summary != "" {
		fmt.Fprintf(&b, "\nForecast: %s\n", d.Summary)
	}
	fmt.Fprintf(&b, "Temperature: %.0f to %.0f C\n", d.TempMin, d.TempMax)
	return b.String()
}
