package bootstrap

import (
	goredis "github.com/redis/go-redis/v9"

	"finsight/internal/adapters/ai"
	"finsight/internal/adapters/config"
	"finsight/internal/adapters/datastore"
	errnoop "finsight/internal/adapters/errors/noop"
	"finsight/internal/adapters/errors/sentry"
	"finsight/internal/adapters/kafka"
	pgclient "finsight/internal/adapters/postgres"
	redisclient "finsight/internal/adapters/redis"
	"finsight/internal/agents"
	"finsight/internal/api"
	chatapi "finsight/internal/api/chat"
	"finsight/internal/api/companies"
	"finsight/internal/api/health"
	queryapi "finsight/internal/api/query"
	reportapi "finsight/internal/api/report"
	statementsapi "finsight/internal/api/statements"
	"finsight/internal/domain/chat"
	"finsight/internal/domain/company"
	"finsight/internal/domain/financial"
	"finsight/internal/domain/report"
	"finsight/internal/events"
	"finsight/internal/metrics"
	pgrepo "finsight/internal/repository/postgres"
	redisrepo "finsight/internal/repository/redis"
	querysvc "finsight/internal/services/query"
	"finsight/migrations"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects data stores and applies migrations
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	if err := c.PG.Migrate(c.Context, migrations.FS); err != nil {
		c.Log.Fatalf("failed to migrate postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	if !c.Config.Redis.Enabled() {
		c.Log.Info("Redis not configured, statement cache disabled")
		return
	}

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Statement = pgrepo.NewStatementRepository(c.PG.DB())
	c.Repos.Chat = pgrepo.NewChatRepository(c.PG.DB())
	c.Repos.Report = pgrepo.NewReportRepository(c.PG.DB())
	c.Repos.Company = pgrepo.NewCompanyRepository(c.PG.DB())
	if c.Redis != nil {
		c.Repos.StatementCache = redisrepo.NewStatementCache(c.Redis.Client())
	}

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: Domain Layer - Services
// ========================================

// MustInitServices initializes the statement, chat and company services
func (c *Container) MustInitServices() {
	var cache financial.Cache
	if c.Repos.StatementCache != nil {
		cache = c.Repos.StatementCache
	}

	c.Services.Statements = financial.NewService(c.Repos.Statement, cache, c.Config.DataStore.CacheTTL)
	c.Services.Chat = chat.NewService(c.Repos.Chat)
	c.Services.Companies = company.NewService(c.Repos.Company)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 5: External Adapters
// ========================================

// MustInitAdapters builds the oracle, the statement source and the event publisher
func (c *Container) MustInitAdapters() {
	oracle, err := ai.BuildOracle(c.Context, c.Config.Oracle, c.redisClient())
	if err != nil {
		c.Log.Fatalf("failed to build oracle: %v", err)
	}
	c.Adapters.Oracle = oracle
	c.Log.Infow("✓ Oracle initialized",
		"provider", c.Config.Oracle.Provider,
		"model", c.Config.Oracle.DefaultModel,
	)

	c.Adapters.StatementSource = provideStatementSource(c.Config, c.Services.Statements, c.Log)

	if c.Config.Kafka.Enabled() {
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
		c.Adapters.QueryPublisher = events.NewPublisher(c.Adapters.KafkaProducer, c.Config.Kafka.QueryTopic)
	} else {
		c.Log.Info("Kafka brokers not configured, query events disabled")
	}
}

// ========================================
// Phase 6: Business Logic
// ========================================

// MustInitBusiness assembles the question pipeline, the query service and the report summarizer
func (c *Container) MustInitBusiness() {
	oracleCfg := c.Config.Oracle
	models := agents.Models{
		Identifier: oracleCfg.ModelFor(oracleCfg.IdentifierModel),
		Classifier: oracleCfg.ModelFor(oracleCfg.ClassifierModel),
		Planner:    oracleCfg.ModelFor(oracleCfg.PlannerModel),
		Agent:      oracleCfg.ModelFor(oracleCfg.AgentModel),
	}

	c.Business.Pipeline = agents.NewDefaultPipeline(
		c.Adapters.Oracle,
		models,
		c.Adapters.StatementSource,
		c.Config.DataStore.MaxConcurrency,
		c.Config.Pipeline.FlatRecordInput,
		c.ErrorTracker,
	)

	var publisher querysvc.EventPublisher
	if c.Adapters.QueryPublisher != nil {
		publisher = c.Adapters.QueryPublisher
	}
	c.Services.Query = querysvc.NewService(c.Business.Pipeline, c.Services.Chat, publisher)
	c.Services.Reports = report.NewService(c.Repos.Report, c.Services.Chat, agents.NewSummarizer(c.Adapters.Oracle, models.Agent))

	c.Log.Infow("✓ Pipeline initialized",
		"identifier_model", models.Identifier,
		"classifier_model", models.Classifier,
		"planner_model", models.Planner,
		"agent_model", models.Agent,
		"flat_record_input", c.Config.Pipeline.FlatRecordInput,
	)
}

// ========================================
// Phase 7: Application Layer
// ========================================

// MustInitApplication wires HTTP handlers and metrics
func (c *Container) MustInitApplication() {
	checks := map[string]health.Checker{
		"postgres": c.PG,
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	healthHandler := health.New(c.Log, c.Config.App.Name, c.Config.App.Version, checks)

	c.HTTPServer = api.NewServer(api.ServerConfig{
		Port:         c.Config.HTTP.Port,
		ServiceName:  c.Config.App.Name,
		Version:      c.Config.App.Version,
		ReadTimeout:  c.Config.HTTP.ReadTimeout,
		WriteTimeout: c.Config.HTTP.WriteTimeout,
	}, api.Handlers{
		Health:     healthHandler,
		Query:      queryapi.NewHandler(c.Services.Query),
		Chat:       chatapi.NewHandler(c.Services.Chat),
		Statements: statementsapi.NewHandler(c.Services.Statements),
		Reports:    reportapi.NewHandler(c.Services.Reports),
		Companies:  companies.NewHandler(c.Services.Companies),
	}, c.Log)

	metrics.Init()
	metrics.RegisterCustomCollector(metrics.NewCustomCollector(c.Log, c.PG.DB(), c.redisClient()))
	c.Log.Info("✓ Metrics initialized")

	c.Log.Info("✓ Application layer initialized")
}

func (c *Container) redisClient() *goredis.Client {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Client()
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

// provideStatementSource reads statements over HTTP when DATASTORE_URL is set, otherwise in-process.
func provideStatementSource(cfg *config.Config, statements *financial.Service, log *logger.Logger) agents.StatementSource {
	if cfg.DataStore.URL == "" {
		log.Info("✓ Data resolution reads statements in-process")
		return statements
	}

	log.Infow("✓ Data resolution reads statements over HTTP", "url", cfg.DataStore.URL)
	return datastore.NewClient(cfg.DataStore.URL, cfg.DataStore.Timeout)
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Infow("Initializing Kafka producer...", "brokers", cfg.Kafka.Brokers)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}
