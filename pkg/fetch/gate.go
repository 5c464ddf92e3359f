package fetch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"
)

var (
	geoGateInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geo_gate_in_flight",
		Help: "Entities currently holding a concurrency permit",
	})

	geoGateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geo_gate_wait_seconds",
		Help:    "Time spent waiting for a concurrency permit",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// Gate is a counting permit pool bounding simultaneous service calls.
// Waiters are not served in FIFO order.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int

	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewGate creates a gate with a fixed number of permits. Capacities below
// one are raised to one.
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Acquire blocks until a permit is available or ctx is done. Every
// successful Acquire must be paired with exactly one Release.
func (g *Gate) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	geoGateWaitSeconds.Observe(time.Since(start).Seconds())

	n := g.inFlight.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	geoGateInFlight.Inc()
	return nil
}

// Release returns a permit.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	geoGateInFlight.Dec()
	g.sem.Release(1)
}

// Capacity returns the total number of permits.
func (g *Gate) Capacity() int {
	return g.capacity
}

// InFlight returns the number of permits currently held.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// Peak returns the highest number of permits held at once.
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}
