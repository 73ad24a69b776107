package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
)

var ErrUnavailable = errors.New("insight service unavailable")

const DefaultTimeout = 10 * time.Second

// Client talks to the external driver analysis service.
type Client struct {
	baseURL string
	hc      *http.Client
	l       *log.Logger
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.hc.Timeout = timeout
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

func WithClientLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.l = l
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	ret := &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: DefaultTimeout},
		l:       log.Default().Named("insight"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// envelope is the response shape of the analysis service. On success
// the insights field is set; otherwise error (2xx) or detail (non-2xx)
// explains the failure.
type envelope struct {
	Success  bool                       `json:"success"`
	Insights *model.DriverInsightReport `json:"insights"`
	Error    string                     `json:"error"`
	Detail   string                     `json:"detail"`
}

// Fetch requests the analysis report for one driver. The driver name
// is URL-encoded into the request path.
func (c *Client) Fetch(ctx context.Context, driverName string) (
	*model.DriverInsightReport, error,
) {
	reqURL := fmt.Sprintf("%s/api/driver-insight/%s",
		c.baseURL, url.PathEscape(driverName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.l.Debug("fetching driver insight", log.String("driver", driverName))
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading insight response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing insight response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if env.Detail != "" {
			return nil, fmt.Errorf("insight request failed: %s", env.Detail)
		}
		return nil, fmt.Errorf("insight request failed with status %d", resp.StatusCode)
	}
	if !env.Success || env.Insights == nil {
		if env.Error != "" {
			return nil, fmt.Errorf("insight request failed: %s", env.Error)
		}
		return nil, errors.New("insight request failed")
	}
	return env.Insights, nil
}
