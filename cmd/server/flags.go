package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/config"
)

// applyFlags copies every explicitly set flag over the loaded config
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) error {
	fs := cmd.Flags()

	if fs.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fs.Changed("host") {
		cfg.Server.Host = f.host
	}
	if fs.Changed("pool") {
		cfg.Scheduler.TotalTickets = f.pool
	}
	if fs.Changed("default-tickets") {
		cfg.Scheduler.DefaultTickets = f.tickets
	}
	if fs.Changed("policy") {
		cfg.Scheduler.Policy = f.policy
	}
	if fs.Changed("tick") {
		d, err := time.ParseDuration(f.tick)
		if err != nil {
			return fmt.Errorf("invalid --tick: %w", err)
		}
		cfg.Scheduler.TickInterval = d
	}
	if fs.Changed("manifest") {
		cfg.Scheduler.BootManifest = f.manifest
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if fs.Changed("dev") {
		cfg.Logging.Development = f.dev
	}
	if fs.Changed("rate-limit") {
		cfg.RateLimit.Enabled = f.rateLimit
	}
	if fs.Changed("rate-limit-global") {
		cfg.RateLimit.Global = f.global
	}

	return cfg.Validate()
}
