package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carelink/healthcare-portal/internal/core/ports"
	"github.com/carelink/healthcare-portal/internal/core/service"
)

func newJobsCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run a scheduled notifier job once",
	}
	cmd.PersistentFlags().StringVar(&at, "at", "", "clock reading to run the job at (RFC3339), defaults to now")

	run := func(job string, pick func(*service.NotifierService) func(context.Context, time.Time) (*ports.JobReport, error)) *cobra.Command {
		return &cobra.Command{
			Use:   job,
			Short: fmt.Sprintf("Run the %s job once", job),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				now := time.Now()
				if at != "" {
					t, err := time.Parse(time.RFC3339, at)
					if err != nil {
						return fmt.Errorf("--at: %w", err)
					}
					now = t
				}

				ctx := cmd.Context()
				a, err := newApp(ctx, medicalServiceName)
				if err != nil {
					return err
				}
				defer a.close()

				db, err := a.connectMongo(ctx, a.cfg.Medical.Database)
				if err != nil {
					return err
				}
				m, err := a.buildMedical(ctx, db)
				if err != nil {
					return err
				}
				report, err := pick(m.notifier)(ctx, now)
				if err != nil {
					return err
				}
				a.log.Info().
					Str("job", job).
					Time("at", now).
					Int("scanned", report.Scanned).
					Int("sent", report.Sent).
					Int("failed", report.Failed).
					Int("skipped", report.Skipped).
					Msg("job finished")
				return nil
			},
		}
	}

	cmd.AddCommand(
		run(service.JobReminders, func(n *service.NotifierService) func(context.Context, time.Time) (*ports.JobReport, error) {
			return n.RunReminders
		}),
		run(service.JobDigest, func(n *service.NotifierService) func(context.Context, time.Time) (*ports.JobReport, error) {
			return n.RunDigest
		}),
	)
	return cmd
}
