package metrics

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
)

// DatadogSink reports the same measurements as PrometheusSink over
// DataDog's StatsD wire protocol, selected with --datadog instead of
// scraping /metrics.
type DatadogSink struct {
	client *statsd.Client
}

// NewDatadogSink dials the given agent address (host:port, typically
// 127.0.0.1:8125) and tags every metric with namespace "hoganserver.".
func NewDatadogSink(addr string) (*DatadogSink, error) {
	client, err := statsd.New(addr, statsd.WithNamespace("hoganserver."))
	if err != nil {
		return nil, err
	}
	return &DatadogSink{client: client}, nil
}

// Close flushes and closes the underlying UDP client.
func (s *DatadogSink) Close() error { return s.client.Close() }

func (s *DatadogSink) IncRequest(route, method, status string) {
	_ = s.client.Incr("http.requests", tagsFor("route", route, "method", method, "status", status), 1)
}

func (s *DatadogSink) ObserveRequestDuration(route, method, status string, d time.Duration) {
	_ = s.client.Timing("http.request_duration", d, tagsFor("route", route, "method", method, "status", status), 1)
}

func (s *DatadogSink) IncCacheResult(tier, outcome string) {
	_ = s.client.Incr("cache.results", tagsFor("tier", tier, "outcome", outcome), 1)
}

func (s *DatadogSink) ObserveRenderDuration(env string, d time.Duration) {
	_ = s.client.Timing("render.duration", d, tagsFor("environment", env), 1)
}

func (s *DatadogSink) SetWriterSlotHeld(held bool) {
	value := 0.0
	if held {
		value = 1.0
	}
	_ = s.client.Gauge("writer_slot.held", value, nil, 1)
}

func (s *DatadogSink) IncGitOperation(op, outcome string) {
	_ = s.client.Incr("git.operations", tagsFor("op", op, "outcome", outcome), 1)
}

func tagsFor(kv ...string) []string {
	tags := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		tags = append(tags, kv[i]+":"+kv[i+1])
	}
	return tags
}
