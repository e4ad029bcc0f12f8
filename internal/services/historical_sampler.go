package services

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"biketour-planner/internal/domain"
	"biketour-planner/internal/ports"
)

const (
	daysPerYear = 365
	// Offsets this close to today overlap the forecast horizon.
	forecastHorizonDays = 14
)

type SamplerOptions struct {
	// Number of past days to sample.
	SampleSize int
	// How many years back the sample reaches.
	SampleYears int
	// Half width in days of the window around each anniversary.
	// Zero means the full year; values above 365 are capped.
	AroundInterval int
	// Zone that defines calendar days; nil means UTC.
	Location *time.Location
}

// HistoricalSampler builds the persisted schedule of historical queries and
// works through it.
type HistoricalSampler struct {
	acq      *AcquisitionManager
	schedule ports.ScheduleStore
	coords   []domain.Coordinates
	opts     SamplerOptions
	rng      *rand.Rand
	now      func() time.Time
}

func NewHistoricalSampler(
	acq *AcquisitionManager,
	schedule ports.ScheduleStore,
	coords []domain.Coordinates,
	opts SamplerOptions,
	rng *rand.Rand,
	now func() time.Time,
) *HistoricalSampler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &HistoricalSampler{acq: acq, schedule: schedule, coords: coords, opts: opts, rng: rng, now: now}
}

// SampleDayOffsets draws size distinct offsets (days before today) from the
// windows [365(k+1)-d, 365(k+1)+d) for k < years, leaving out the last two
// weeks. When fewer offsets exist than requested all of them are returned.
// The result is ascending.
func SampleDayOffsets(rng *rand.Rand, size, years, around int) []int {
	d := around
	if d <= 0 || d > daysPerYear {
		d = daysPerYear
	}

	seen := make(map[int]struct{})
	pool := make([]int, 0, years*2*d)
	for k := 0; k < years; k++ {
		center := daysPerYear * (k + 1)
		for off := center - d; off < center+d; off++ {
			if off < forecastHorizonDays {
				continue
			}
			if _, ok := seen[off]; ok {
				continue
			}
			seen[off] = struct{}{}
			pool = append(pool, off)
		}
	}
	sort.Ints(pool)

	if size < 0 {
		size = 0
	}
	if size > len(pool) {
		size = len(pool)
	}

	// Partial Fisher-Yates over the sorted pool.
	for i := 0; i < size; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	out := append([]int(nil), pool[:size]...)
	sort.Ints(out)
	return out
}

// Init creates the schedule the first time it runs. Once any entry exists it
// does nothing and returns 0.
func (s *HistoricalSampler) Init(ctx context.Context) (int, error) {
	n, err := s.schedule.CountSchedule(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("init schedule: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	offsets := SampleDayOffsets(s.rng, s.opts.SampleSize, s.opts.SampleYears, s.opts.AroundInterval)

	y, m, d := s.now().In(s.opts.Location).Date()
	ref := time.Date(y, m, d, 0, 0, 0, 0, s.opts.Location)

	entries := make([]domain.QueryScheduleEntry, 0, len(offsets)*len(s.coords))
	for _, c := range s.coords {
		for _, off := range offsets {
			entries = append(entries, domain.QueryScheduleEntry{
				Time:        ref.AddDate(0, 0, -off),
				Coordinates: c,
			})
		}
	}

	if err := s.schedule.SaveSchedule(ctx, entries); err != nil {
		return 0, fmt.Errorf("init schedule: %w", err)
	}

	log.Printf("historical schedule created days=%d coords=%d entries=%d", len(offsets), len(s.coords), len(entries))
	return len(entries), nil
}

type BackfillResult struct {
	Done      int `json:"done"`
	Remaining int `json:"remaining"`
}

// Backfill queries pending schedule entries in (time, coordinate) order and
// stores each answer together with the entry's flag. The first failure stops
// the loop; completed entries stay completed.
func (s *HistoricalSampler) Backfill(ctx context.Context) (BackfillResult, error) {
	pending, err := s.schedule.ListSchedule(ctx, ptr(false))
	if err != nil {
		return BackfillResult{}, fmt.Errorf("backfill: %w", err)
	}

	res := BackfillResult{Remaining: len(pending)}
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("backfill: %w", err)
		}

		log.Printf("querying historical weather time=%d coord=%s remaining=%d", e.Time.Unix(), e.Coordinates, res.Remaining)

		samples, err := s.acq.FetchAt(ctx, e.Coordinates, e.Time)
		if err != nil {
			return res, fmt.Errorf("backfill: %w", err)
		}

		if err := s.schedule.CompleteScheduleEntry(ctx, e, samples); err != nil {
			return res, fmt.Errorf("backfill: %w", err)
		}

		res.Done++
		res.Remaining--
	}

	return res, nil
}

func ptr[T any](v T) *T { return &v }
