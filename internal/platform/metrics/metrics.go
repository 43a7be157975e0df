package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps process-local request counters plus named domain counters
// (check-ins, regularized entries, exports) for the admin metrics endpoint.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu     sync.Mutex
	events map[string]*uint64
}

const (
	EventCheckIn           = "attendance.check_in"
	EventCheckOut          = "attendance.check_out"
	EventRegularizedEntry  = "attendance.regularized_entries"
	EventVacationRequested = "vacation.requested"
	EventExtraHoursUsed    = "extrahours.requested"
	EventExport            = "exports.generated"
	EventEmployeeCreated   = "employees.created"
	EventEmployeeDeleted   = "employees.deleted"
)

func New() *Collector {
	return &Collector{events: map[string]*uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Add increments a named domain counter. A nil collector is a no-op so
// services can run without metrics wired in tests.
func (c *Collector) Add(event string, delta uint64) {
	if c == nil || delta == 0 {
		return
	}
	c.mu.Lock()
	counter, ok := c.events[event]
	if !ok {
		counter = new(uint64)
		c.events[event] = counter
	}
	c.mu.Unlock()
	atomic.AddUint64(counter, delta)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.events))
	for name := range c.events {
		names = append(names, name)
	}
	sort.Strings(names)
	events := make(map[string]uint64, len(names))
	for _, name := range names {
		events[name] = atomic.LoadUint64(c.events[name])
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"events":           events,
	}
}
