package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupspend"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	groups         *prometheus.CounterVec
	members        *prometheus.CounterVec
	expenses       *prometheus.CounterVec
	forbidden      *prometheus.CounterVec
	signIns        *prometheus.CounterVec
	signUps        *prometheus.CounterVec
	rateCache      *prometheus.CounterVec
	rateFetchTimes prometheus.Histogram
}

// NewPrometheus creates a Recorder backed by a new registry that also
// carries the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &PrometheusRecorder{
		registry: reg,
		groups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "groups_total", Help: "Group lifecycle events.",
		}, []string{"event"}),
		members: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "memberships_total", Help: "Membership changes.",
		}, []string{"event"}),
		expenses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "expenses_total", Help: "Expense mutations.",
		}, []string{"event"}),
		forbidden: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "forbidden_mutations_total", Help: "Mutations rejected by authorization checks.",
		}, []string{"op"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sign_ins_total", Help: "Sign-in attempts.",
		}, []string{"outcome"}),
		signUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sign_ups_total", Help: "Sign-up attempts.",
		}, []string{"outcome"}),
		rateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "exchange_rate_cache_total", Help: "Exchange-rate cache lookups.",
		}, []string{"result"}),
		rateFetchTimes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_rate_fetch_duration_seconds",
			Help:      "Upstream exchange-rate fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(p.groups, p.members, p.expenses, p.forbidden, p.signIns, p.signUps, p.rateCache, p.rateFetchTimes)
	return p
}

// Handler serves the registry in Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncGroupCreated()         { p.groups.WithLabelValues("created").Inc() }
func (p *PrometheusRecorder) IncMemberInvited()        { p.members.WithLabelValues("invited").Inc() }
func (p *PrometheusRecorder) IncMemberRemoved()        { p.members.WithLabelValues("removed").Inc() }
func (p *PrometheusRecorder) IncExpenseCreated()       { p.expenses.WithLabelValues("created").Inc() }
func (p *PrometheusRecorder) IncExpenseUpdated()       { p.expenses.WithLabelValues("updated").Inc() }
func (p *PrometheusRecorder) IncExpenseDeleted()       { p.expenses.WithLabelValues("deleted").Inc() }
func (p *PrometheusRecorder) IncForbidden(op string)   { p.forbidden.WithLabelValues(op).Inc() }
func (p *PrometheusRecorder) IncSignIn(outcome string) { p.signIns.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncSignUp(outcome string) { p.signUps.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncRateCacheHit()         { p.rateCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncRateCacheMiss()        { p.rateCache.WithLabelValues("miss").Inc() }

// ObserveRateFetchDuration records an upstream exchange-rate fetch.
func (p *PrometheusRecorder) ObserveRateFetchDuration(d time.Duration) {
	p.rateFetchTimes.Observe(d.Seconds())
}
