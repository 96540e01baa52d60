// Package metrics abstracts over Prometheus and DataDog StatsD so the
// serving pipeline and schedulers emit counters/gauges/histograms without
// depending on which backend is active, the way the teacher repo's
// middleware package exposes package-level promauto collectors but keeps
// call sites backend-agnostic in spirit.
package metrics

import "time"

// Sink receives the handful of measurements the serving pipeline and
// background schedulers produce.
type Sink interface {
	IncRequest(route, method, status string)
	ObserveRequestDuration(route, method, status string, d time.Duration)
	IncCacheResult(tier, outcome string)
	ObserveRenderDuration(env string, d time.Duration)
	SetWriterSlotHeld(held bool)
	IncGitOperation(op, outcome string)
}
