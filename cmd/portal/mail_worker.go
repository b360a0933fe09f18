package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/carelink/healthcare-portal/internal/infrastructure/mail"
	"github.com/carelink/healthcare-portal/internal/infrastructure/queue"
)

func newMailWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mail-worker",
		Short: "Consume queued mail from Kafka and deliver it over SMTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, "mail-worker")
			if err != nil {
				return err
			}
			defer a.close()

			smtp, err := mail.NewSMTPTransport(a.smtpConfig())
			if err != nil {
				return err
			}

			// workers outlive ctx so Close can drain what is already queued
			dispatcher := queue.NewDispatcher(a.cfg.Mail.Workers, smtp, a.log)
			dispatcher.Start(context.WithoutCancel(ctx))
			a.onClose(func(context.Context) error {
				dispatcher.Close()
				return nil
			})

			consumer := queue.NewConsumer(a.kafkaConfig(), dispatcher, a.log)
			a.onClose(func(context.Context) error { return consumer.Close() })

			a.log.Info().Strs("brokers", a.cfg.Kafka.Brokers).Str("topic", a.cfg.Kafka.Topic).Msg("mail worker started")
			return consumer.Run(ctx)
		},
	}
}
