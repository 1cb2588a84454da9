// Package pdc computes the Probable Date of Completion (PDC) for every
// active production order by combining the batch scheduler's plan with the
// dynamic rescheduler's output and the production logs recorded so far.
package pdc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesforge/shopfloor/internal/entity"
	"github.com/mesforge/shopfloor/internal/metrics"
	"github.com/mesforge/shopfloor/internal/repository"
)

// DataSource reports which schedule output contributed an order's PDC.
type DataSource string

const (
	SourceReschedule DataSource = "reschedule"
	SourceScheduled  DataSource = "scheduled"
	SourceNone       DataSource = "none"
)

// Status is an order's completion classification per §4.7.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusPending    Status = "pending"
)

// Estimate is one active order's projected completion.
type Estimate struct {
	PartNumber      string
	ProductionOrder string
	PDC             *time.Time
	Status          Status
	DataSource      DataSource
}

// Cache holds the projector's one cached snapshot with a TTL. It is always
// constructed explicitly and injected into a Projector; no package-level
// cache state exists, so two Projectors never share state unless the same
// Cache instance is passed to both.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	value   []Estimate
	expires time.Time
}

// NewCache builds a Cache with the given TTL. A non-positive TTL disables
// caching: every Get misses.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached snapshot if it has not expired.
func (c *Cache) Get(now time.Time) ([]Estimate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 || c.value == nil || now.After(c.expires) {
		return nil, false
	}
	return c.value, true
}

// Set stores a fresh snapshot, valid for the cache's configured TTL from now.
func (c *Cache) Set(now time.Time, estimates []Estimate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = estimates
	c.expires = now.Add(c.ttl)
}

// Clear invalidates the cached snapshot, forcing the next Compute to recompute.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
}

// Projector computes PDC estimates for every active order, behind an
// injected Cache.
type Projector struct {
	db    repository.Database
	cache *Cache
	log   zerolog.Logger
}

// NewProjector builds a Projector against db, caching through cache.
func NewProjector(db repository.Database, cache *Cache, log zerolog.Logger) *Projector {
	return &Projector{db: db, cache: cache, log: log.With().Str("component", "pdc").Logger()}
}

// Compute returns the current PDC estimate for every active order, serving
// from cache when fresh.
func (p *Projector) Compute(ctx context.Context) ([]Estimate, error) {
	now := time.Now()
	if cached, ok := p.cache.Get(now); ok {
		metrics.PDCCacheHits.Inc()
		return cached, nil
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PDCComputeDuration)

	orders, err := p.db.OrderRepository().ListActive(ctx)
	if err != nil {
		return nil, err
	}

	estimates := make([]Estimate, 0, len(orders))
	for _, order := range orders {
		estimate, err := p.projectOrder(ctx, order)
		if err != nil {
			p.log.Warn().Err(err).Str("production_order", order.ProductionOrder).Msg("skipping order in PDC projection")
			continue
		}
		estimates = append(estimates, estimate)
	}

	sort.Slice(estimates, func(i, j int) bool {
		if estimates[i].PartNumber != estimates[j].PartNumber {
			return estimates[i].PartNumber < estimates[j].PartNumber
		}
		return estimates[i].ProductionOrder < estimates[j].ProductionOrder
	})

	p.cache.Set(now, estimates)
	recordStatusGauges(estimates)
	return estimates, nil
}

// recordStatusGauges resets the per-status gauge to the current snapshot's
// counts so a status that drops to zero is reported, not left stale.
func recordStatusGauges(estimates []Estimate) {
	counts := map[Status]float64{StatusCompleted: 0, StatusInProgress: 0, StatusPending: 0}
	for _, e := range estimates {
		counts[e.Status]++
	}
	for status, count := range counts {
		metrics.PDCOrdersByStatus.WithLabelValues(string(status)).Set(count)
	}
}

// projectOrder implements §4.7 steps 1-3 for a single order.
func (p *Projector) projectOrder(ctx context.Context, order *entity.Order) (Estimate, error) {
	estimate := Estimate{PartNumber: order.PartNumber, ProductionOrder: order.ProductionOrder, DataSource: SourceNone, Status: StatusPending}

	ops, err := p.db.OperationRepository().ListByOrder(ctx, order.ID)
	if err != nil {
		return estimate, err
	}
	if len(ops) == 0 {
		return estimate, nil
	}

	var latestEnd time.Time
	haveEnd := false
	anyLogs := false
	allComplete := true

	for _, op := range ops {
		items, err := p.db.PlannedScheduleItemRepository().ListByOperation(ctx, op.ID)
		if err != nil {
			return estimate, err
		}

		logs, err := p.db.ProductionLogRepository().ListByOperation(ctx, op.ID)
		if err != nil {
			return estimate, err
		}
		completedQty := 0
		for _, l := range logs {
			completedQty += l.QuantityCompleted
		}
		if completedQty > 0 {
			anyLogs = true
		}

		if len(items) == 0 {
			allComplete = false
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
		item := items[len(items)-1]

		plannedQty := item.TotalQuantity
		endTime := item.InitialEndTime
		source := SourceScheduled

		if version, err := p.db.ScheduleVersionRepository().GetActiveByItem(ctx, item.ID); err == nil {
			plannedQty = version.PlannedQuantity
			endTime = version.PlannedEndTime
			if version.VersionNumber > 1 {
				source = SourceReschedule
			}
		} else if !repository.IsNotFound(err) {
			return estimate, err
		}

		if !haveEnd || endTime.After(latestEnd) || (endTime.Equal(latestEnd) && source == SourceReschedule) {
			latestEnd = endTime
			haveEnd = true
			estimate.DataSource = source
		}

		if completedQty < plannedQty {
			allComplete = false
		}
	}

	if haveEnd {
		end := latestEnd
		estimate.PDC = &end
	}

	switch {
	case haveEnd && anyLogs && allComplete:
		estimate.Status = StatusCompleted
	case anyLogs:
		estimate.Status = StatusInProgress
	default:
		estimate.Status = StatusPending
	}

	return estimate, nil
}
