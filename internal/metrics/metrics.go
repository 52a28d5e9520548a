// Package metrics exposes the Prometheus counters of the playback and download engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultIgnored = "ignored"
)

// Metrics groups the engine counters
type Metrics struct {
	SourceFetches    *prometheus.CounterVec
	QualitySwitches  *prometheus.CounterVec
	ProgressFailures prometheus.Counter
	DownloadJobs     *prometheus.CounterVec
	EpisodesScanned  *prometheus.CounterVec
	NextEpisodeFires prometheus.Counter
	ActivePlayback   prometheus.Gauge
}

// New creates the counters and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelarr",
			Name:      "source_fetches_total",
			Help:      "Aggregation endpoint fetches by result.",
		}, []string{"result"}),
		QualitySwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelarr",
			Name:      "quality_switches_total",
			Help:      "Quality switch attempts by result.",
		}, []string{"result"}),
		ProgressFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelarr",
			Name:      "progress_write_failures_total",
			Help:      "Progress writes that failed and were dropped.",
		}),
		DownloadJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelarr",
			Name:      "download_jobs_total",
			Help:      "Download jobs by outcome.",
		}, []string{"result"}),
		EpisodesScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reelarr",
			Name:      "batch_episodes_scanned_total",
			Help:      "Episodes scanned by batch runs, by result.",
		}, []string{"result"}),
		NextEpisodeFires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelarr",
			Name:      "next_episode_advances_total",
			Help:      "Auto-advance hand-offs to the next episode.",
		}),
		ActivePlayback: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reelarr",
			Name:      "playback_sessions_active",
			Help:      "Playback sessions currently registered for progress flushing.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SourceFetches,
			m.QualitySwitches,
			m.ProgressFailures,
			m.DownloadJobs,
			m.EpisodesScanned,
			m.NextEpisodeFires,
			m.ActivePlayback,
		)
	}
	return m
}

func resultLabel(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// ObserveFetch counts one aggregation fetch
func (m *Metrics) ObserveFetch(ok bool) {
	if m == nil {
		return
	}
	m.SourceFetches.WithLabelValues(resultLabel(ok)).Inc()
}

// ObserveSwitch counts one quality switch outcome
func (m *Metrics) ObserveSwitch(result string) {
	if m == nil {
		return
	}
	m.QualitySwitches.WithLabelValues(result).Inc()
}

// ObserveProgressFailure counts one dropped progress write
func (m *Metrics) ObserveProgressFailure() {
	if m == nil {
		return
	}
	m.ProgressFailures.Inc()
}

// ObserveJob counts one download job outcome
func (m *Metrics) ObserveJob(queued bool) {
	if m == nil {
		return
	}
	m.DownloadJobs.WithLabelValues(resultLabel(queued)).Inc()
}

// ObserveEpisodeScan counts one batch episode scan
func (m *Metrics) ObserveEpisodeScan(ok bool) {
	if m == nil {
		return
	}
	m.EpisodesScanned.WithLabelValues(resultLabel(ok)).Inc()
}

// ObserveAdvance counts one next-episode hand-off
func (m *Metrics) ObserveAdvance() {
	if m == nil {
		return
	}
	m.NextEpisodeFires.Inc()
}

// SetActivePlayback sets the registered session gauge
func (m *Metrics) SetActivePlayback(n int) {
	if m == nil {
		return
	}
	m.ActivePlayback.Set(float64(n))
}
