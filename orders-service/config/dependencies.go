package config

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ecomflow/order-system/orders-service/application"
	"github.com/ecomflow/order-system/orders-service/domain"
	"github.com/ecomflow/order-system/orders-service/handlers"
	"github.com/ecomflow/order-system/orders-service/infrastructure"
	"github.com/ecomflow/order-system/orders-service/saga"
	"github.com/ecomflow/order-system/shared/events"
	sharedinfra "github.com/ecomflow/order-system/shared/infrastructure"
	"github.com/ecomflow/order-system/shared/logger"
	"github.com/ecomflow/order-system/shared/telemetry"
)

type Dependencies struct {
	// Logger
	Logger *zap.Logger

	// Database, nil in memory mode
	DB *sqlx.DB

	// Storage
	OrderRepository domain.OrderRepository
	SagaStore       saga.Store
	EventStore      events.EventStore

	// Use Cases
	CreateOrder     *application.CreateOrder
	GetOrder        *application.GetOrder
	CancelOrder     *application.CancelOrder
	GetOrderHistory *application.GetOrderHistory

	// Saga
	Orchestrator *saga.Orchestrator
	Watchdog     *saga.Watchdog

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Infrastructure
	EventPublisher  events.Publisher
	EventSubscriber events.Subscriber
	MemoryBus       *sharedinfra.MemoryBus

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()

	closers []func() error
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	zapLogger, err := logger.New(config.ServiceName, config.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	deps.Logger = zapLogger

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrdersServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
			// Continue without telemetry rather than failing
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	if config.Bus.Mode == "memory" {
		if err := deps.buildMemoryMode(config); err != nil {
			return nil, err
		}
	} else {
		if err := deps.buildAWSMode(config); err != nil {
			return nil, err
		}
	}

	// Every published event is appended to the log before it reaches the bus
	deps.EventPublisher = sharedinfra.NewStorePublisher(deps.EventStore, deps.EventPublisher)

	// Use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, deps.EventPublisher)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.CancelOrder = application.NewCancelOrder(deps.OrderRepository, deps.EventPublisher)
	deps.GetOrderHistory = application.NewGetOrderHistory(deps.EventStore)

	// Saga
	deps.Orchestrator = saga.NewOrchestrator(deps.SagaStore, deps.OrderRepository, deps.EventPublisher, deps.Logger)
	deps.Watchdog = saga.NewWatchdog(deps.SagaStore, deps.Orchestrator,
		config.Saga.SweepInterval, config.Saga.StepTimeout, deps.Logger)

	// HTTP handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.GetOrder, deps.CancelOrder, deps.GetOrderHistory)

	return deps, nil
}

// buildMemoryMode wires the in-process bus and in-memory stores for local runs
func (d *Dependencies) buildMemoryMode(config *Config) error {
	bus := sharedinfra.NewMemoryBus(sharedinfra.WithBusLogger(d.Logger))
	d.MemoryBus = bus
	d.EventPublisher = bus
	d.EventSubscriber = bus
	d.closers = append(d.closers, bus.Close)

	d.OrderRepository = infrastructure.NewMemoryOrderRepository()
	d.SagaStore = infrastructure.NewMemorySagaStore()
	d.EventStore = sharedinfra.NewMemoryEventStore()

	return nil
}

// buildAWSMode wires SNS/SQS and PostgreSQL
func (d *Dependencies) buildAWSMode(config *Config) error {
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db
	d.closers = append(d.closers, db.Close)

	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	d.EventPublisher = eventPublisher
	d.closers = append(d.closers, eventPublisher.Close)

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL,
		sharedinfra.WithLogger(d.Logger))
	if err != nil {
		return fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	d.EventSubscriber = eventSubscriber
	d.closers = append(d.closers, eventSubscriber.Close)

	d.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	d.SagaStore = infrastructure.NewPostgresSagaStore(db)
	d.EventStore = sharedinfra.NewPostgresEventStore(db)

	return nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	for _, closer := range d.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
