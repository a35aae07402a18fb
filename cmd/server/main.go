package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/server"
)

func main() {
	cmd, _ := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

// flags mirror the environment configuration; a flag that is set wins.
type flags struct {
	port      string
	host      string
	pool      int
	tickets   int
	policy    int
	tick      string
	manifest  string
	logLevel  string
	dev       bool
	rateLimit bool
	global    bool
}

func newRootCmd() (*cobra.Command, *flags) {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "schedctl",
		Short: "Process table with lottery and stride ticket accounting",
		Long: `schedctl runs an xv6-style process table whose processes hold scheduling
tickets, and exposes its syscalls over HTTP.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, f, cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.port, "port", "8000", "Server port (PORT)")
	fs.StringVar(&f.host, "host", "0.0.0.0", "Server host (HOST)")
	fs.IntVar(&f.pool, "pool", 100, "Stride ticket pool (STRIDE_TOTAL_TICKETS)")
	fs.IntVar(&f.tickets, "default-tickets", 100, "Tickets for init and single-ticket forks (DEFAULT_TICKETS)")
	fs.IntVar(&f.policy, "policy", 0, "Initial scheduling policy: 0 round robin, 1 lottery, 2 stride (SCHED_POLICY)")
	fs.StringVar(&f.tick, "tick", "10ms", "Clock tick interval (TICK_INTERVAL)")
	fs.StringVar(&f.manifest, "manifest", "", "Boot manifest path or glob, YAML or TOML (BOOT_MANIFEST)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (LOG_LEVEL)")
	fs.BoolVar(&f.dev, "dev", false, "Development logging (LOG_DEV)")
	fs.BoolVar(&f.rateLimit, "rate-limit", true, "Per-IP rate limiting (RATE_LIMIT_ENABLED)")
	fs.BoolVar(&f.global, "rate-limit-global", false, "One rate limit shared by all clients (RATE_LIMIT_GLOBAL)")

	serverURL := defaultServerURL
	cmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL, "Server URL for client commands")
	cmd.AddCommand(newPsCmd(&serverURL))
	cmd.AddCommand(newCallCmd(&serverURL))

	return cmd, f
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Run(ctx)
}
