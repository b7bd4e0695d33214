// Package metrics exposes the Prometheus registry used by the scheduler and
// writes it out for node_exporter's textfile collector. Collectors are
// defined in their owning packages (notion, revisit, schedule) via promauto.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry. All collectors register here via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the collectors registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every gathered metric to path in the text exposition
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Metrics Documentation
//
// Fetch Metrics (pkg/notion):
//   - notion_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - notion_request_duration_seconds{endpoint} (Histogram): Request duration
//   - notion_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//   - notion_pages_fetched_total (Counter): Page objects received
//
// Filter Metrics (pkg/revisit):
//   - revisit_pages_scanned_total (Counter): Pages checked against the filter
//   - revisit_items_matched_total (Counter): Pages marked for revisit
//   - revisit_degraded_fields_total{field} (Counter): Fields that fell back to empty (date, title, url)
//
// Schedule Metrics (pkg/schedule):
//   - schedule_batches_written_total (Counter): Daily files written
//   - schedule_items_scheduled_total (Counter): Items assigned to a day
//
// Example textfile collector setup:
//
//	revisit-scheduler --metrics-file /var/lib/node_exporter/textfile/revisit.prom
