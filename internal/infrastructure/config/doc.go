// Package config provides 12-factor configuration management for schedctl.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Scheduler: ticket pool, default tickets, initial policy, tick interval
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// An optional YAML boot manifest (BOOT_MANIFEST) names the processes
// created under init at startup.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - STRIDE_TOTAL_TICKETS, DEFAULT_TICKETS, SCHED_POLICY, TICK_INTERVAL
//   - MAX_PROCS, MAX_PROCESS_MEMORY, BOOT_MANIFEST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
