// Command budgetbuddy-events prints the client events forwarded to AMQP, one
// JSON object per line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, logCloser, err := cli.SetupLogger(cfg.LogLevel, cfg.LogFile, log.ComponentEvents)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.GracefulShutdown(logger, 10*time.Second, nil)
	defer stop()

	logger.Info("Tailing client events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = client.Consume(ctx, func(e events.Event) error {
		b, err := e.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(b))
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped", log.FieldOperation, log.OpShutdown)
}
