package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/groupspend/groupspend/internal/metrics"
)

// exposer is implemented by recorders that serve their own exposition.
type exposer interface {
	Handler() http.Handler
}

// MetricsHandler exposes application metrics.
type MetricsHandler struct {
	recorder metrics.Recorder
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(recorder metrics.Recorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// Metrics returns metrics in Prometheus exposition format. Prometheus
// recorders serve their registry; in-memory recorders are rendered from
// a snapshot.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if e, ok := h.recorder.(exposer); ok {
		e.Handler().ServeHTTP(w, r)
		return
	}

	snapshotter, ok := h.recorder.(metrics.Snapshotter)
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "groupspend_groups_total{event=\"created\"} %d\n", snap.GroupsCreated)
	writeMetric(w, "groupspend_memberships_total{event=\"invited\"} %d\n", snap.MembersInvited)
	writeMetric(w, "groupspend_memberships_total{event=\"removed\"} %d\n", snap.MembersRemoved)

	writeMetric(w, "groupspend_expenses_total{event=\"created\"} %d\n", snap.ExpensesCreated)
	writeMetric(w, "groupspend_expenses_total{event=\"updated\"} %d\n", snap.ExpensesUpdated)
	writeMetric(w, "groupspend_expenses_total{event=\"deleted\"} %d\n", snap.ExpensesDeleted)

	writeLabeled(w, "groupspend_forbidden_mutations_total", "op", snap.Forbidden)
	writeLabeled(w, "groupspend_sign_ins_total", "outcome", snap.SignIns)
	writeLabeled(w, "groupspend_sign_ups_total", "outcome", snap.SignUps)

	writeMetric(w, "groupspend_exchange_rate_cache_total{result=\"hit\"} %d\n", snap.RateCacheHits)
	writeMetric(w, "groupspend_exchange_rate_cache_total{result=\"miss\"} %d\n", snap.RateCacheMisses)
	writeMetric(w, "groupspend_exchange_rate_fetch_duration_seconds_count %d\n", snap.RateFetchCount)
	writeMetric(w, "groupspend_exchange_rate_fetch_duration_seconds_sum %.6f\n", snap.RateFetchDurationTotal.Seconds())
}

func writeLabeled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
