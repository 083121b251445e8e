// Package nationalrail quotes cheapest fares by reading the National Rail journey
// planner results page.
package nationalrail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"github.com/aretw0/railchat/internal/logging"
	"github.com/aretw0/railchat/pkg/domain"
)

// DefaultBaseURL is the journey planner search endpoint.
const DefaultBaseURL = "https://ojp.nationalrail.co.uk/service/timesandfares"

// DefaultUserAgent identifies the client to the journey planner.
const DefaultUserAgent = "railchat (+https://github.com/aretw0/railchat)"

// maxPage bounds the size of a results page.
const maxPage = 4 << 20

// bookingWindow matches the eleven weeks the planner sells tickets for.
const bookingWindow = 11 * 7 * 24 * time.Hour

// Client implements ports.FareFinder.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	clock     func() time.Time
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another planner, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient replaces the HTTP client (default: 15s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithClock replaces time.Now for booking window checks.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a fare client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		http:      &http.Client{Timeout: 15 * time.Second},
		clock:     time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Single quotes the cheapest single ticket.
func (c *Client) Single(ctx context.Context, q domain.SingleQuery) (domain.SingleQuote, error) {
	leg, err := c.leg(q.Date, q.Time)
	if err != nil {
		return domain.SingleQuote{}, err
	}
	u := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, q.From, q.To, leg)

	doc, err := c.fetch(ctx, u)
	if err != nil {
		return domain.SingleQuote{}, err
	}
	price, departs, ok := cheapestSingle(doc)
	if !ok {
		return domain.SingleQuote{}, formatChanged()
	}
	return domain.SingleQuote{Price: price, Departs: departs, URL: u}, nil
}

// Return quotes the cheapest return ticket.
func (c *Client) Return(ctx context.Context, q domain.ReturnQuery) (domain.ReturnQuote, error) {
	out, err := c.leg(q.OutDate, q.OutTime)
	if err != nil {
		return domain.ReturnQuote{}, err
	}
	back, err := c.leg(q.RetDate, q.RetTime)
	if err != nil {
		return domain.ReturnQuote{}, err
	}
	u := fmt.Sprintf("%s/%s/%s/%s/%s", c.baseURL, q.From, q.To, out, back)

	doc, err := c.fetch(ctx, u)
	if err != nil {
		return domain.ReturnQuote{}, err
	}
	price, outDeparts, retDeparts, ok := cheapestReturn(doc)
	if !ok {
		return domain.ReturnQuote{}, formatChanged()
	}
	return domain.ReturnQuote{Price: price, OutDeparts: outDeparts, ReturnDeparts: retDeparts, URL: u}, nil
}

// leg validates one journey leg and renders it as DDMMYY/HHMM/dep.
func (c *Client) leg(date, clock string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", &domain.LookupError{Service: "fares", Reason: fmt.Sprintf("%q is not a valid date", date)}
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return "", &domain.LookupError{Service: "fares", Reason: fmt.Sprintf("%q is not a valid time", clock)}
	}

	now := c.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case d.Before(today):
		return "", &domain.LookupError{Service: "fares", Reason: "the date can not be earlier than today"}
	case d.After(today.Add(bookingWindow)):
		return "", &domain.LookupError{Service: "fares", Reason: "the date can not be more than 11 weeks in the future"}
	}
	return d.Format("020106") + "/" + t.Format("1504") + "/dep", nil
}

func (c *Client) fetch(ctx context.Context, u string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building fare request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching fares: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("fare page fetched", "url", u, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("fetching fares: unexpected status %s", resp.Status)
	}
	doc, err := html.Parse(io.LimitReader(resp.Body, maxPage))
	if err != nil {
		return nil, fmt.Errorf("parsing fare page: %w", err)
	}
	if err := checkTitle(doc); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.LookupError{Service: "fares", Reason: "the journey planner did not return results (" + resp.Status + ")"}
	}
	return doc, nil
}

func formatChanged() error {
	return &domain.LookupError{Service: "fares", Reason: "the fare page format has changed"}
}
