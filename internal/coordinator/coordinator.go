// Package coordinator runs the periodic refresh cycle and publishes
// snapshots of the server's request queue.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"seerr_bot/internal/enrich"
	"seerr_bot/internal/jellyseerr"
	"seerr_bot/internal/model"
)

// Caps on the published snapshot, matching the server's default sort
// (most recently added first).
const (
	recentLimit    = 5
	perStatusLimit = 10
)

// Lister is the slice of the API client the coordinator needs.
type Lister interface {
	ListRequests(ctx context.Context, take int, status *model.Status) (*jellyseerr.RequestPage, error)
}

// NewPending carries one "new pending requests" notification: the
// number of newly observed pending requests and that many items drawn
// from the head of the pending bucket.
type NewPending struct {
	Count int
	Items []model.EnrichedRequest
}

// Observer receives new-pending notifications.
type Observer func(NewPending)

// Coordinator fetches, enriches, and classifies requests on a fixed
// interval. At most one refresh cycle runs at a time; on-demand
// refreshes are coalesced into the loop rather than run concurrently.
type Coordinator struct {
	client   Lister
	enricher *enrich.Enricher
	log      *slog.Logger
	interval time.Duration
	pageSize int

	refreshCh chan struct{}

	mu               sync.Mutex
	snapshot         *model.Snapshot
	lastPendingCount int
	lastPendingIDs   map[int64]struct{}
	lastRefresh      time.Time
	lastErr          error
	observers        map[int]Observer
	nextObserverID   int
}

// New creates a Coordinator. interval is the polling period, pageSize
// the number of requests fetched per cycle.
func New(client Lister, enricher *enrich.Enricher, interval time.Duration, pageSize int, log *slog.Logger) *Coordinator {
	return &Coordinator{
		client:    client,
		enricher:  enricher,
		log:       log,
		interval:  interval,
		pageSize:  pageSize,
		refreshCh: make(chan struct{}, 1),
		observers: make(map[int]Observer),
	}
}

// Run starts the refresh loop, blocking until ctx is cancelled. An
// initial refresh runs immediately.
func (c *Coordinator) Run(ctx context.Context) {
	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		case <-c.refreshCh:
			c.refresh(ctx)
		}
	}
}

// RequestRefresh schedules an on-demand refresh. Requests arriving
// while one is already queued or running are coalesced.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the most recently published snapshot, or nil before
// the first successful refresh.
func (c *Coordinator) Snapshot() *model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// LastRefresh reports when the last cycle finished and whether it
// failed. The zero time means no cycle has completed yet.
func (c *Coordinator) LastRefresh() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefresh, c.lastErr
}

// Subscribe registers an observer for new-pending notifications and
// returns a function that removes it. The returned function is safe to
// call more than once.
func (c *Coordinator) Subscribe(obs Observer) func() {
	c.mu.Lock()
	id := c.nextObserverID
	c.nextObserverID++
	c.observers[id] = obs
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// refresh runs one full cycle: fetch, enrich, classify, detect deltas,
// publish. A fetch failure aborts the cycle and keeps the previous
// snapshot as last known good.
func (c *Coordinator) refresh(ctx context.Context) {
	started := time.Now()

	page, err := c.client.ListRequests(ctx, c.pageSize, nil)
	if err != nil {
		c.log.Error("fetch requests", "error", err)
		c.mu.Lock()
		c.lastRefresh = time.Now()
		c.lastErr = err
		c.mu.Unlock()
		return
	}

	enriched := c.enricher.EnrichAll(ctx, page.Results)

	snap := classify(enriched, page.Total)

	// Pending IDs are taken from the full result set, not the capped
	// bucket, so next cycle's new-item preference sees everything.
	pendingIDs := make(map[int64]struct{})
	for _, item := range enriched {
		if item.Status == model.StatusPending {
			pendingIDs[item.ID] = struct{}{}
		}
	}

	c.mu.Lock()
	notification, observers := c.detectNewPending(snap, pendingIDs)
	c.snapshot = snap
	c.lastPendingCount = snap.PendingCount()
	c.lastPendingIDs = pendingIDs
	c.lastRefresh = time.Now()
	c.lastErr = nil
	c.mu.Unlock()

	if notification != nil {
		c.log.Info("new pending requests", "count", notification.Count)
		for _, obs := range observers {
			obs(*notification)
		}
	}

	c.log.Debug("refresh complete",
		"requests", snap.RawCount,
		"pending", snap.PendingCount(),
		"duration", time.Since(started),
	)
}

// detectNewPending compares the incoming snapshot's pending count with
// the previous cycle's and builds a notification when it increased,
// carrying exactly the increase. Items whose IDs were not pending last
// cycle are preferred; the remainder is filled from the head of the
// bucket. Called with c.mu held; returns the observers to notify so
// callbacks run outside the lock.
func (c *Coordinator) detectNewPending(snap *model.Snapshot, pendingIDs map[int64]struct{}) (*NewPending, []Observer) {
	count := snap.PendingCount() - c.lastPendingCount
	if count <= 0 {
		return nil, nil
	}

	// The capped bucket may hold fewer items than the count increase.
	bucket := snap.Pending()
	carry := count
	if carry > len(bucket) {
		carry = len(bucket)
	}

	items := make([]model.EnrichedRequest, 0, carry)
	for _, item := range bucket {
		if len(items) == carry {
			break
		}
		if _, seen := c.lastPendingIDs[item.ID]; !seen {
			items = append(items, item)
		}
	}
	for _, item := range bucket {
		if len(items) == carry {
			break
		}
		if !containsID(items, item.ID) {
			items = append(items, item)
		}
	}

	observers := make([]Observer, 0, len(c.observers))
	for _, obs := range c.observers {
		observers = append(observers, obs)
	}
	return &NewPending{Count: count, Items: items}, observers
}

// classify tallies status counts and builds the capped buckets,
// preserving server order throughout.
func classify(items []model.EnrichedRequest, total int) *model.Snapshot {
	snap := &model.Snapshot{
		StatusCounts:  make(map[model.Status]int),
		TotalRequests: total,
		ItemsByStatus: make(map[model.Status][]model.EnrichedRequest),
		RawCount:      len(items),
	}
	for _, s := range model.KnownStatuses {
		snap.ItemsByStatus[s] = nil
	}

	for _, item := range items {
		snap.StatusCounts[item.Status]++

		if len(snap.RecentItems) < recentLimit {
			snap.RecentItems = append(snap.RecentItems, item)
		}
		if item.Status.Known() && len(snap.ItemsByStatus[item.Status]) < perStatusLimit {
			snap.ItemsByStatus[item.Status] = append(snap.ItemsByStatus[item.Status], item)
		}
	}
	return snap
}

func containsID(items []model.EnrichedRequest, id int64) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
