package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/platform/obs"
	"biketour-planner/internal/ports"

	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL = "https://api.pirateweather.net"
	DefaultUnits   = "si"

	// Response header carrying the number of calls made with the key today.
	UsageHeader = "X-Forecast-API-Calls"
)

// Client implements WeatherProvider against a Dark Sky compatible
// forecast API (Pirate Weather and similar).
//
// Each Fetch is exactly one HTTP request and failures are not retried.
// After consecutive failures the circuit breaker rejects calls without
// touching the network until its timeout elapses.
type Client struct {
	session *http.Client
	apiKey  string
	baseURL string
	circuit *gobreaker.CircuitBreaker
}

var _ ports.WeatherProvider = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.session = h }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("weather api key is empty")
	}

	c := &Client{
		session: &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return c, nil
}

type dataBlock struct {
	Data []ports.DataPoint `json:"data"`
}

type forecastPayload struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Hourly    *dataBlock `json:"hourly"`
	Daily     *dataBlock `json:"daily"`
}

func (c *Client) endpoint(req ports.FetchRequest) string {
	loc := req.Coordinates.String()
	if req.Time != nil {
		loc += "," + strconv.FormatInt(req.Time.Unix(), 10)
	}

	units := req.Units
	if units == "" {
		units = DefaultUnits
	}

	q := url.Values{}
	q.Set("units", units)

	return fmt.Sprintf("%s/forecast/%s/%s?%s", c.baseURL, url.PathEscape(c.apiKey), loc, q.Encode())
}

// Fetch asks for the forecast at req.Coordinates, or for the recorded day
// around req.Time when it is set.
func (c *Client) Fetch(ctx context.Context, req ports.FetchRequest) (_ *ports.ForecastResponse, err error) {
	defer obs.Time(ctx, "weatherapi.Fetch")(&err)

	httpReq, err := c.newRequest(ctx, http.MethodGet, c.endpoint(req))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", req.Coordinates, domain.ErrProvider, err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", req.Coordinates, domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch %s: %w: decode response: %w", req.Coordinates, domain.ErrProvider, err)
	}

	out := &ports.ForecastResponse{}
	if payload.Hourly != nil {
		out.Hourly = payload.Hourly.Data
	}
	if payload.Daily != nil {
		out.Daily = payload.Daily.Data
	}

	if v := strings.TrimSpace(resp.Header.Get(UsageHeader)); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			out.UsageCount = &n
		}
	}

	return out, nil
}
