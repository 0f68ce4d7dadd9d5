// Command agency-report counts listed agencies by region and service group.
//
// Usage:
//
//	agency-report report [--region AU --region GB] [--service-group "Media, PR & Events"] [--skip 12]
//	agency-report serve [--port 8080]
//
// Configuration is read from an optional YAML file (--config), a .env file
// and AGENCY_REPORT_* environment variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
