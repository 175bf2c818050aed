package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_tailor"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry     *prom.Registry
	submitted    prom.Counter
	rejected     *prom.CounterVec
	stepDuration *prom.HistogramVec
	stepResults  *prom.CounterVec
	jobDuration  *prom.HistogramVec
	jobOutcomes  *prom.CounterVec
	repairs      prom.Counter
	activeJobs   prom.Gauge
}

// NewPrometheusRecorder constructs and registers the pipeline metrics on reg.
// A nil reg gets a fresh registry with Go and process collectors.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}
	pr := &PrometheusRecorder{
		registry: reg,
		submitted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Jobs accepted at submission",
		}),
		rejected: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_rejected_total",
			Help:      "Submissions rejected before a job was created",
		}, []string{"kind"}),
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of individual pipeline steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"}),
		jobDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from submission to terminal state",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		jobOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "job_outcomes_total",
			Help:      "Jobs by terminal status and error kind",
		}, []string{"status", "kind"}),
		repairs: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "repair_attempts_total",
			Help:      "Regenerations triggered by failed structural validation",
		}),
		activeJobs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Jobs currently holding a worker slot",
		}),
	}
	reg.MustRegister(pr.submitted, pr.rejected, pr.stepDuration, pr.stepResults,
		pr.jobDuration, pr.jobOutcomes, pr.repairs, pr.activeJobs)
	return pr
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncJobsSubmitted() {
	p.submitted.Inc()
}

func (p *PrometheusRecorder) IncJobsRejected(kind string) {
	p.rejected.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveJobDuration(status string, d time.Duration) {
	p.jobDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobOutcome(status, kind string) {
	p.jobOutcomes.WithLabelValues(status, kind).Inc()
}

func (p *PrometheusRecorder) IncRepairAttempt() {
	p.repairs.Inc()
}

func (p *PrometheusRecorder) SetActiveJobs(n int) {
	p.activeJobs.Set(float64(n))
}
