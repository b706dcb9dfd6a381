package trampoline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	symbols         *prometheus.GaugeVec
	resolutions     prometheus.Counter
	unresolvedCalls *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		symbols: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trampoline_symbols",
			Help: "Number of declared trampolines by slot state.",
		}, []string{"state"}),
		resolutions: f.NewCounter(prometheus.CounterOpts{
			Name: "trampoline_resolutions_total",
			Help: "Number of resolution passes.",
		}),
		unresolvedCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trampoline_unresolved_calls_total",
			Help: "Number of calls rejected because the trampoline was not resolved.",
		}, []string{"symbol"}),
	}
}

func (m *metrics) observe(entries map[string]entry) {
	if m == nil {
		return
	}
	var n [3]int
	for _, e := range entries {
		if s := e.State(); s >= Unbound && s <= Unresolvable {
			n[s]++
		}
	}
	for s, v := range n {
		m.symbols.WithLabelValues(State(s).String()).Set(float64(v))
	}
}

func (m *metrics) resolved(entries map[string]entry) {
	if m == nil {
		return
	}
	m.resolutions.Inc()
	m.observe(entries)
}

func (m *metrics) unresolvedCall(name string) {
	if m == nil {
		return
	}
	m.unresolvedCalls.WithLabelValues(name).Inc()
}
