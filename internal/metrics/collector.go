package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the Prometheus instruments for collaboration runs,
// agent queries, and the response cache. A nil *Collector is a valid no-op
// receiver so callers can wire metrics optionally.
type Collector struct {
	collaborationsTotal   *prometheus.CounterVec
	collaborationDuration *prometheus.HistogramVec
	collaborationRounds   *prometheus.HistogramVec
	consensusScore        *prometheus.HistogramVec

	agentQueriesTotal  *prometheus.CounterVec
	agentQueryDuration *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the instruments with reg. Pass
// prometheus.DefaultRegisterer outside tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.collaborationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborations_total",
			Help:      "Total number of collaboration runs",
		},
		[]string{"mode", "status"},
	)

	c.collaborationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaboration_duration_seconds",
			Help:      "Collaboration run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	c.collaborationRounds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaboration_rounds",
			Help:      "Rounds executed per collaboration run",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10},
		},
		[]string{"mode"},
	)

	c.consensusScore = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaboration_consensus_score",
			Help:      "Final consensus score per collaboration run",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"mode"},
	)

	c.agentQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_queries_total",
			Help:      "Total number of agent queries",
		},
		[]string{"agent_id", "status"},
	)

	c.agentQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_query_duration_seconds",
			Help:      "Agent query duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent_id"},
	)

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordCollaboration records the outcome of one collaboration run.
func (c *Collector) RecordCollaboration(mode, status string, duration time.Duration, rounds int) {
	if c == nil {
		return
	}
	c.collaborationsTotal.WithLabelValues(mode, status).Inc()
	c.collaborationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	c.collaborationRounds.WithLabelValues(mode).Observe(float64(rounds))
}

// RecordConsensusScore records a run's final consensus score.
func (c *Collector) RecordConsensusScore(mode string, score float64) {
	if c == nil {
		return
	}
	c.consensusScore.WithLabelValues(mode).Observe(score)
}

// RecordAgentQuery records one agent query.
func (c *Collector) RecordAgentQuery(agentID, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.agentQueriesTotal.WithLabelValues(agentID, status).Inc()
	c.agentQueryDuration.WithLabelValues(agentID).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
