package backend

import (
	"context"
	"fmt"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/remote/memory"
	"budgetbuddy/internal/remote/rest"
	"budgetbuddy/internal/services"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
	now    func() time.Time
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend), now: time.Now}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config, tokens remote.TokenSource) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		r   remote.Remote
		err error
	)
	switch cfg.Type {
	case RESTBackend:
		r, err = f.createRESTRemote(cfg, tokens)
	case MemoryBackend:
		r, err = f.createMemoryRemote(cfg, tokens)
	default:
		err = fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(f.logger, f.sinks(ctx, cfg)...)

	return &BackendResult{
		Remote:   r,
		Expenses: services.NewExpenseService(r, bus, f.logger),
		Budgets:  services.NewBudgetService(r, bus, f.logger),
		Events:   bus,
		Cleanup:  bus.Close,
	}, nil
}

func (f *DefaultFactory) createRESTRemote(cfg Config, tokens remote.TokenSource) (remote.Remote, error) {
	c, err := rest.New(cfg.APIBaseURL, tokens,
		rest.WithTimeout(cfg.APITimeout),
		rest.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	f.logger.Info("Initialized REST backend", "base_url", cfg.APIBaseURL, "timeout", cfg.APITimeout.String())
	return c, nil
}

func (f *DefaultFactory) createMemoryRemote(cfg Config, tokens remote.TokenSource) (remote.Remote, error) {
	b := memory.NewBackend()
	if cfg.SeedDemo {
		if err := memory.SeedDemo(b, f.now()); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	f.logger.Info("Initialized memory backend", "demo_account", cfg.SeedDemo)
	return memory.New(b, tokens), nil
}

// sinks connects the optional AMQP publisher. A broker that cannot be
// reached is logged and skipped.
func (f *DefaultFactory) sinks(_ context.Context, cfg Config) []events.Publisher {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without event forwarding", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return []events.Publisher{client}
}
