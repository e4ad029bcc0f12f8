package weatherapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

const forecastBody = `{
	"latitude": 52.52,
	"longitude": 13.405,
	"timezone": "Europe/Berlin",
	"hourly": {"data": [
		{"time": 1780286400, "summary": "Clear", "temperature": 14.5, "pressure": 1013.2, "windSpeed": 3.1, "windBearing": 270},
		{"time": 1780290000, "temperature": 15.0}
	]},
	"daily": {"data": [
		{"time": 1780264800, "temperatureHigh": 21.3, "sunriseTime": 1780282000}
	]}
}`

func TestFetchForecast(t *testing.T) {
	var gotPath, gotUnits string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUnits = r.URL.Query().Get("units")
		w.Header().Set(UsageHeader, "42")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	c, err := NewClient("secret", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Fetch(context.Background(), ports.FetchRequest{
		Coordinates: domain.Coordinates{Lat: 52.52, Lon: 13.405},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/forecast/secret/52.52,13.405" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotUnits != "si" {
		t.Fatalf("units = %q, want si", gotUnits)
	}

	if len(resp.Hourly) != 2 || len(resp.Daily) != 1 {
		t.Fatalf("hourly=%d daily=%d", len(resp.Hourly), len(resp.Daily))
	}

	h := resp.Hourly[0]
	if h.Time != 1780286400 {
		t.Fatalf("time = %d", h.Time)
	}
	if h.Temperature == nil || *h.Temperature != 14.5 {
		t.Fatalf("temperature = %v", h.Temperature)
	}
	if h.Summary == nil || *h.Summary != "Clear" {
		t.Fatalf("summary = %v", h.Summary)
	}
	if resp.Hourly[1].Pressure != nil {
		t.Fatalf("absent pressure must stay nil, got %v", *resp.Hourly[1].Pressure)
	}

	d := resp.Daily[0]
	if d.SunriseTime == nil || *d.SunriseTime != 1780282000 {
		t.Fatalf("sunrise = %v", d.SunriseTime)
	}

	if resp.UsageCount == nil || *resp.UsageCount != 42 {
		t.Fatalf("usage = %v, want 42", resp.UsageCount)
	}
}

func TestFetchHistoricalAddsTime(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"hourly": {"data": []}}`))
	}))
	defer srv.Close()

	c, err := NewClient("k", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := time.Unix(1750000000, 0)
	resp, err := c.Fetch(context.Background(), ports.FetchRequest{
		Coordinates: domain.Coordinates{Lat: 48.1, Lon: 11.5},
		Time:        &at,
		Units:       "si",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/forecast/k/48.1,11.5,1750000000" {
		t.Fatalf("path = %q", gotPath)
	}
	if resp.UsageCount != nil {
		t.Fatalf("usage must be nil without header, got %d", *resp.UsageCount)
	}
}

func TestFetchDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient("k", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Fetch(context.Background(), ports.FetchRequest{Coordinates: domain.Coordinates{Lat: 1, Lon: 2}})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}

	var he *httpStatusError
	if !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status error 503, got %v", err)
	}

	if n := calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient("k", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := ports.FetchRequest{Coordinates: domain.Coordinates{Lat: 1, Lon: 2}}
	for i := 0; i < 5; i++ {
		if _, err := c.Fetch(context.Background(), req); !errors.Is(err, domain.ErrProvider) {
			t.Fatalf("call %d: expected provider error, got %v", i, err)
		}
	}

	if n := calls.Load(); n != 3 {
		t.Fatalf("server calls = %d, want 3 before the breaker opens", n)
	}
}

func TestFetchRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": `))
	}))
	defer srv.Close()

	c, err := NewClient("k", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Fetch(context.Background(), ports.FetchRequest{Coordinates: domain.Coordinates{Lat: 1, Lon: 2}})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty key")
	}
}
