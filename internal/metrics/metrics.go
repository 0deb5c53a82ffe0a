// Package metrics exposes the daemon's Prometheus surface (spec §4.H):
// a job-result counter and a per-status queue gauge.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sink is the narrow interface the queue Processor and Observer depend
// on, so tests can substitute a no-op or counting fake without pulling
// in the Prometheus registry.
type Sink interface {
	IncJob(result string)
	SetQueueGauge(status string, n float64)
}

// Prom is the production Sink, registered against a prometheus.Registerer.
type Prom struct {
	jobsTotal   *prometheus.CounterVec
	queueGauge  *prometheus.GaugeVec
}

// NewProm builds a Prom sink and registers its collectors against reg.
func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migration_jobs_total",
			Help: "Count of processed migration task attempts by result.",
		}, []string{"result"}),
		queueGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "migration_queue_gauge",
			Help: "Current task count by queue status.",
		}, []string{"status"}),
	}
	reg.MustRegister(p.jobsTotal, p.queueGauge)
	return p
}

func (p *Prom) IncJob(result string) { p.jobsTotal.WithLabelValues(result).Inc() }

func (p *Prom) SetQueueGauge(status string, n float64) {
	p.queueGauge.WithLabelValues(status).Set(n)
}
