package bootstrap

import (
	"context"
	"sync"

	"finsight/internal/adapters/ai"
	"finsight/internal/adapters/config"
	"finsight/internal/adapters/kafka"
	pgclient "finsight/internal/adapters/postgres"
	redisclient "finsight/internal/adapters/redis"
	"finsight/internal/agents"
	"finsight/internal/api"
	"finsight/internal/domain/chat"
	"finsight/internal/domain/company"
	"finsight/internal/domain/financial"
	"finsight/internal/domain/report"
	"finsight/internal/events"
	pgrepo "finsight/internal/repository/postgres"
	redisrepo "finsight/internal/repository/redis"
	querysvc "finsight/internal/services/query"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores). Redis is nil when REDIS_HOST is empty.
	PG    *pgclient.Client
	Redis *redisclient.Client

	Repos    *Repositories
	Services *Services
	Adapters *Adapters
	Business *Business

	// Application Layer
	HTTPServer *api.Server

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Statement      *pgrepo.StatementRepository
	Chat           *pgrepo.ChatRepository
	Report         *pgrepo.ReportRepository
	Company        *pgrepo.CompanyRepository
	StatementCache *redisrepo.StatementCache // nil without Redis
}

// Services groups all domain services
type Services struct {
	Statements *financial.Service
	Chat       *chat.Service
	Companies  *company.Service
	Reports    *report.Service // built with the summarizer in the business phase
	Query      *querysvc.Service
}

// Adapters groups all external adapters
type Adapters struct {
	Oracle          *ai.Oracle
	StatementSource agents.StatementSource
	KafkaProducer   *kafka.Producer   // nil without brokers
	QueryPublisher  *events.Publisher // nil without brokers
}

// Business groups the question pipeline
type Business struct {
	Pipeline *agents.Pipeline
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:     &Repositories{},
		Services:  &Services{},
		Adapters:  &Adapters{},
		Business:  &Business{},
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitServices()
	c.MustInitAdapters()
	c.MustInitBusiness()
	c.MustInitApplication()
}

// Start starts the HTTP server in the background
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.HTTPServer,
		c.Adapters.KafkaProducer,
		c.PG,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
