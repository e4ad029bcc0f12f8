package weatherapi

import (
	"context"
	"fmt"
	"sync"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

// MockProvider answers Fetch from canned responses keyed by coordinate and
// records every call it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses map[string]*ports.ForecastResponse
	errs      map[string]error
	calls     []ports.FetchRequest
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		responses: make(map[string]*ports.ForecastResponse),
		errs:      make(map[string]error),
	}
}

func (p *MockProvider) SetResponse(c domain.Coordinates, resp *ports.ForecastResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[c.String()] = resp
}

// SetError makes every Fetch for c fail with err. A nil err clears it.
func (p *MockProvider) SetError(c domain.Coordinates, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.errs, c.String())
		return
	}
	p.errs[c.String()] = err
}

func (p *MockProvider) Calls() []ports.FetchRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.FetchRequest(nil), p.calls...)
}

func (p *MockProvider) Fetch(ctx context.Context, req ports.FetchRequest) (*ports.ForecastResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)

	key := req.Coordinates.String()
	if err, ok := p.errs[key]; ok {
		return nil, fmt.Errorf("mock fetch %s: %w: %w", key, domain.ErrProvider, err)
	}

	r, ok := p.responses[key]
	if !ok {
		return &ports.ForecastResponse{}, nil
	}
	return r, nil
}
