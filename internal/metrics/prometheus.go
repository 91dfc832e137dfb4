package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Oracle metrics
	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_oracle_calls_total",
			Help: "Total number of outbound oracle attempts",
		},
		[]string{"provider", "model", "status"}, // status: success|error|rate_limited
	)

	OracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_oracle_latency_seconds",
			Help:    "Oracle invocation latency in seconds, retries included",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	OracleTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_oracle_tokens_total",
			Help: "Total tokens reported by the oracle",
		},
		[]string{"provider", "model", "type"}, // type: input|output
	)

	// Pipeline metrics
	StageExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_stage_executions_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"}, // status: success|error
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	PlanSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_plan_steps_total",
			Help: "Total number of executed plan steps",
		},
		[]string{"agent", "status"}, // status: success|failed
	)

	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_queries_total",
			Help: "Total number of answered queries by outcome",
		},
		[]string{"outcome"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finsight_query_duration_seconds",
			Help:    "End-to-end query duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	// Data metrics
	StatementLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_statement_lookups_total",
			Help: "Total number of statement lookups",
		},
		[]string{"source", "result"}, // result: hit|miss|error
	)

	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"},
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsight_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"database", "operation"},
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsight_kafka_messages_total",
			Help: "Total number of Kafka messages published",
		},
		[]string{"topic", "status"}, // status: success|failed
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Oracle metrics
	prometheus.MustRegister(OracleCalls)
	prometheus.MustRegister(OracleLatency)
	prometheus.MustRegister(OracleTokens)

	// Pipeline metrics
	prometheus.MustRegister(StageExecutions)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(PlanSteps)
	prometheus.MustRegister(Queries)
	prometheus.MustRegister(QueryDuration)

	// Data metrics
	prometheus.MustRegister(StatementLookups)
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)
	prometheus.MustRegister(KafkaMessages)
}

// RegisterCustomCollector registers a scrape-time collector
func RegisterCustomCollector(c prometheus.Collector) {
	prometheus.MustRegister(c)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordOracleAttempt records a single outbound oracle attempt
func RecordOracleAttempt(provider, model string, rateLimited bool, err error) {
	status := "success"
	switch {
	case rateLimited:
		status = "rate_limited"
	case err != nil:
		status = "error"
	}

	OracleCalls.WithLabelValues(provider, model, status).Inc()
}

// RecordOracleInvocation records the latency and token usage of a whole invocation
func RecordOracleInvocation(provider, model string, latency time.Duration, inputTokens, outputTokens int64) {
	OracleLatency.WithLabelValues(provider, model).Observe(latency.Seconds())

	if inputTokens > 0 {
		OracleTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		OracleTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordStage records a pipeline stage execution
func RecordStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	StageExecutions.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPlanStep records the outcome of one executed plan step
func RecordPlanStep(agent string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}

	PlanSteps.WithLabelValues(agent, status).Inc()
}

// RecordQuery records a finished query
func RecordQuery(outcome string, duration time.Duration) {
	Queries.WithLabelValues(outcome).Inc()
	QueryDuration.Observe(duration.Seconds())
}

// RecordStatementLookup records a statement lookup against one source
func RecordStatementLookup(source, result string) {
	StatementLookups.WithLabelValues(source, result).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordKafkaMessage records a published Kafka message
func RecordKafkaMessage(topic string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}

	KafkaMessages.WithLabelValues(topic, status).Inc()
}
