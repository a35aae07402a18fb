// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a child logger from Component so every line carries
// the subsystem that wrote it (proc, tickets, sched, syscall, http).
//
// Example Usage:
//
//	logger := logging.NewOrNop("info", false)
//	logger.Component("tickets").Info("Tickets transferred", zap.Int("amount", 9))
package logging
