package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"biketour-planner/internal/domain"
)

// Quota counts weather provider calls against a daily limit. Every
// AcquisitionManager calling the provider with the same API key must share
// one Quota so the limit holds for the whole process.
//
// The window is one UTC day: the counter resets once the last update falls
// on an earlier day.
type Quota struct {
	mu    sync.Mutex
	limit int
	now   func() time.Time

	usage   int
	usageAt time.Time
}

func NewQuota(limit int, now func() time.Time) *Quota {
	if now == nil {
		now = time.Now
	}
	return &Quota{limit: limit, now: now}
}

// Usage is the number of calls counted in the current UTC day.
func (q *Quota) Usage() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.usage
}

func (q *Quota) rollover() {
	if q.usageAt.IsZero() {
		return
	}
	y1, m1, d1 := q.usageAt.UTC().Date()
	y2, m2, d2 := q.now().UTC().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		q.usage = 0
		q.usageAt = time.Time{}
	}
}

// Admit fails with domain.ErrQuotaExceeded once usage has reached the limit.
func (q *Quota) Admit() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.usage >= q.limit {
		return fmt.Errorf("admit call: usage=%d limit=%d: %w", q.usage, q.limit, domain.ErrQuotaExceeded)
	}
	return nil
}

// Record accounts for one completed call. providerCount is the provider's
// own counter when it reported one.
func (q *Quota) Record(providerCount *int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if providerCount != nil {
		q.usage = *providerCount
	} else {
		q.usage++
		log.Printf("weather usage header missing, counting locally usage=%d", q.usage)
	}
	q.usageAt = q.now()
}
