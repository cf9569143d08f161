package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	AdvisorReplies      *prometheus.CounterVec
	AdvisorReplySeconds prometheus.Histogram
	ChatSubmissions     *prometheus.CounterVec
	Exports             *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdvisorReplies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_replies_total",
				Help: "Advisor replies by outcome (ok, empty, error)",
			},
			[]string{"outcome"},
		),
		AdvisorReplySeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_reply_seconds",
				Help:    "Round-trip time of the text generation call",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
		),
		ChatSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_submissions_total",
				Help: "Chat submissions by result (accepted, rejected, superseded, canceled)",
			},
			[]string{"result"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exports_total",
				Help: "Page exports by format and outcome",
			},
			[]string{"format", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.AdvisorReplies, m.AdvisorReplySeconds, m.ChatSubmissions, m.Exports)
	}
	return m
}

// Start serves /metrics for g on its own port.
func Start(port string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go srv.ListenAndServe()
	return srv
}
