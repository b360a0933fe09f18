// Command portal runs the healthcare portal processes.
//
// @title                       Healthcare Portal API
// @version                     1.0
// @description                 Auth and medical services of the healthcare portal.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  ServiceKey
// @in                          header
// @name                        X-Service-Key
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Healthcare portal services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAuthCmd(),
		newMedicalCmd(),
		newMailWorkerCmd(),
		newSeedAdminCmd(),
		newJobsCmd(),
	)
	return root
}
