package config

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	sharedinfra "github.com/ecomflow/order-system/shared/infrastructure"
	"github.com/ecomflow/order-system/shared/logger"
	"github.com/ecomflow/order-system/shared/telemetry"
	"github.com/ecomflow/order-system/shipment-service/domain"
	"github.com/ecomflow/order-system/shipment-service/handlers"
)

type Dependencies struct {
	// Logger
	Logger *zap.Logger

	// Domain
	Dispatcher *domain.Dispatcher

	// HTTP Handlers
	ShipmentHandlers *handlers.ShipmentHandlers

	// Event Handlers
	ShipmentEventHandlers *handlers.ShipmentEventHandlers

	// Infrastructure
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
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
		telConfig := telemetry.ShipmentServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
			// Continue without telemetry rather than failing
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	deps.Dispatcher = domain.NewDispatcher()

	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL,
		sharedinfra.WithLogger(deps.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	deps.ShipmentHandlers = handlers.NewShipmentHandlers(deps.Dispatcher, eventPublisher, deps.Logger)
	deps.ShipmentEventHandlers = handlers.NewShipmentEventHandlers(deps.Dispatcher, eventPublisher, deps.Logger)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
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
