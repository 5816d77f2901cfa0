package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kpidash/internal/amqp"
	"kpidash/internal/cli"
	applog "kpidash/internal/log"
)

// eventsCmd tails the selection events published by running servers.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print selection changes published to the broker",
	Long: `Bind a temporary queue to the selection exchange and print every
selection change until interrupted. Requires AMQP_URL.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("events: AMQP_URL is not set")
	}
	logger := cli.SetupLogger(logLevel(cfg.LogLevel), cmd.ErrOrStderr())

	ctx, stop := cli.SignalContext(cmd.Context(), logger.Slog())
	defer stop()

	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey,
		logger.WithComponent(applog.ComponentAMQP).Slog())
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer client.Close()

	err = client.ConsumeSelectionChanged(ctx, eventPrinter(cmd.OutOrStdout(), noColor))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// eventPrinter writes one line per selection change.
func eventPrinter(w io.Writer, plain bool) func(*amqp.SelectionChangedMessage) error {
	category := color.New(color.Bold, color.FgBlue)
	if plain {
		category.DisableColor()
	}
	return func(m *amqp.SelectionChangedMessage) error {
		_, err := fmt.Fprintf(w, "%s  %s  %s\n",
			m.Timestamp.Format(time.RFC3339), m.SessionID, category.Sprint(m.Category))
		return err
	}
}
