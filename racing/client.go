package racing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/arvindsc/entain-assessment/core/sanitizer"
)

const nextRacesPath = "/rest/v1/racing/"

// ClientConfig holds upstream API configuration with environment variable
// support.
type ClientConfig struct {
	BaseURL       string        `env:"RACING_API_URL" envDefault:"https://api.neds.com.au"`
	Timeout       time.Duration `env:"RACING_API_TIMEOUT" envDefault:"10s"`
	RetryCount    int           `env:"RACING_API_RETRY_COUNT" envDefault:"2"`
	RetryWaitTime time.Duration `env:"RACING_API_RETRY_WAIT" envDefault:"250ms"`
}

// Client fetches races from the upstream racing API.
type Client struct {
	http     *resty.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger for skipped-summary diagnostics.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an upstream API client. Transport errors and 5xx
// responses are retried per the configured retry policy.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	c := &Client{
		http:     httpClient,
		validate: validator.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextRaces fetches up to count races in next-to-go order. Summaries that
// fail to decode or validate are skipped and logged rather than failing the
// whole fetch.
func (c *Client) NextRaces(ctx context.Context, count int) ([]Race, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"method": "nextraces",
			"count":  strconv.Itoa(count),
		}).
		Get(nextRacesPath)
	if err != nil {
		return nil, fmt.Errorf("fetch next races: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode())
	}

	return c.parseRaces(resp.Body())
}

func (c *Client) parseRaces(body []byte) ([]Race, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, fmt.Errorf("%w: missing data envelope", ErrMalformedResponse)
	}

	ids := data.Get("next_to_go_ids").Array()
	summaries := data.Get("race_summaries")

	races := make([]Race, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		summary := summaries.Get(id.String())
		if !summary.Exists() {
			skipped++
			continue
		}

		race, err := c.decodeSummary(summary)
		if err != nil {
			skipped++
			c.logger.Warn("skipping race summary",
				"race_id", id.String(),
				"error", err,
			)
			continue
		}
		races = append(races, race)
	}

	if skipped > 0 {
		c.logger.Warn("incomplete upstream payload", "skipped", skipped, "parsed", len(races))
	}
	return races, nil
}

func (c *Client) decodeSummary(summary gjson.Result) (Race, error) {
	raceID, err := uuid.Parse(summary.Get("race_id").String())
	if err != nil {
		return Race{}, fmt.Errorf("race_id: %w", err)
	}
	meetingID, err := uuid.Parse(summary.Get("meeting_id").String())
	if err != nil {
		return Race{}, fmt.Errorf("meeting_id: %w", err)
	}
	categoryID, err := uuid.Parse(summary.Get("category_id").String())
	if err != nil {
		return Race{}, fmt.Errorf("category_id: %w", err)
	}

	race := Race{
		ID:              raceID,
		Name:            sanitizer.CleanName(summary.Get("race_name").String()),
		Number:          int(summary.Get("race_number").Int()),
		MeetingID:       meetingID,
		MeetingName:     sanitizer.CleanName(summary.Get("meeting_name").String()),
		CategoryID:      categoryID,
		AdvertisedStart: time.Unix(summary.Get("advertised_start.seconds").Int(), 0).UTC(),
	}

	if err := c.validate.Struct(race); err != nil {
		return Race{}, fmt.Errorf("invalid summary: %w", err)
	}
	return race, nil
}
