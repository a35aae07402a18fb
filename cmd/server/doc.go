// Package main is the entry point for the schedctl server.
//
// schedctl keeps an xv6-style process table in which every process holds
// scheduling tickets. Processes transfer tickets to each other, choose how
// tickets are split on fork, and switch the global scheduling policy, all
// through syscalls served over HTTP.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Optional YAML boot manifest of initial processes
//
// Usage:
//
//	# Production mode
//	./schedctl --port 8000 --pool 100 --policy 2
//
//	# Development mode (colored logs), boot processes from a manifest
//	./schedctl --dev --log-level debug --manifest boot.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
//   - the shutdown syscall halts the server the same way
package main
