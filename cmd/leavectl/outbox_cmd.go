package main

import (
	"errors"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/dispatch"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	"github.com/spf13/cobra"
)

func newOutboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and deliver workflow events",
	}
	cmd.AddCommand(newDispatchCmd())
	return cmd
}

func newDispatchCmd() *cobra.Command {
	var drain bool

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Publish pending outbox events to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if len(cfg.Kafka.Brokers) == 0 {
				return errors.New("KAFKA_BROKERS is required")
			}
			publisher := dispatch.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			defer publisher.Close()

			dispatcher := dispatch.NewDispatcher(postgresql.NewTransactor(db), postgresql.NewOutboxRepository(db), dispatch.Options{
				BatchSize:    cfg.Outbox.BatchSize,
				MaxAttempts:  cfg.Outbox.MaxAttempts,
				RetryBackoff: cfg.Outbox.RetryBackoff,
			}, publisher)

			var total dispatch.Result
			for {
				res, err := dispatcher.DispatchOnce(cmd.Context())
				if err != nil {
					return err
				}
				total.Sent += res.Sent
				total.Retried += res.Retried
				total.Failed += res.Failed
				if !drain || res.Sent+res.Retried+res.Failed == 0 {
					break
				}
			}
			return writeJSON(total)
		},
	}

	cmd.Flags().BoolVar(&drain, "drain", false, "Repeat until no pending event is due")
	return cmd
}
