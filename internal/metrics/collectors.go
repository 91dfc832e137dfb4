package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"finsight/pkg/logger"
)

// CustomCollector collects gauges straight from the databases at scrape time
type CustomCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB
	redis    *redis.Client

	// Descriptors
	statements    *prometheus.Desc
	chatSessions  *prometheus.Desc
	chatMessages  *prometheus.Desc
	cachedEntries *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector. redis may be nil.
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, redis *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:      log,
		postgres: postgres,
		redis:    redis,

		statements: prometheus.NewDesc(
			"finsight_statements",
			"Number of stored financial statements by kind",
			[]string{"kind"}, nil,
		),
		chatSessions: prometheus.NewDesc(
			"finsight_chat_sessions",
			"Number of chat sessions",
			nil, nil,
		),
		chatMessages: prometheus.NewDesc(
			"finsight_chat_messages",
			"Number of chat messages by sender",
			[]string{"sender"}, nil,
		),
		cachedEntries: prometheus.NewDesc(
			"finsight_statement_cache_keys",
			"Number of keys in the statement cache database",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.statements
	ch <- c.chatSessions
	ch <- c.chatMessages
	ch <- c.cachedEntries
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectStatementCounts(ctx, ch)
	c.collectChatStats(ctx, ch)
	c.collectCacheSize(ctx, ch)
}

func (c *CustomCollector) collectStatementCounts(ctx context.Context, ch chan<- prometheus.Metric) {
	type statementStat struct {
		Kind  string `db:"kind"`
		Count int    `db:"count"`
	}

	var stats []statementStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT kind, COUNT(*) AS count
		FROM financial_statements
		GROUP BY kind
	`)
	if err != nil {
		c.log.Warnw("Failed to collect statement counts", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(c.statements, prometheus.GaugeValue, float64(stat.Count), stat.Kind)
	}
}

func (c *CustomCollector) collectChatStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var sessions int
	if err := c.postgres.GetContext(ctx, &sessions, "SELECT COUNT(*) FROM chat_sessions"); err != nil {
		c.log.Warnw("Failed to collect chat session count", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.chatSessions, prometheus.GaugeValue, float64(sessions))

	type messageStat struct {
		Sender string `db:"sender"`
		Count  int    `db:"count"`
	}

	var stats []messageStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT sender, COUNT(*) AS count
		FROM chat_messages
		GROUP BY sender
	`)
	if err != nil {
		c.log.Warnw("Failed to collect chat message counts", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(c.chatMessages, prometheus.GaugeValue, float64(stat.Count), stat.Sender)
	}
}

func (c *CustomCollector) collectCacheSize(ctx context.Context, ch chan<- prometheus.Metric) {
	if c.redis == nil {
		return
	}

	size, err := c.redis.DBSize(ctx).Result()
	if err != nil {
		c.log.Warnw("Failed to collect cache size", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.cachedEntries, prometheus.GaugeValue, float64(size))
}
