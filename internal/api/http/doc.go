// Package http exposes the process and scheduler syscalls over a JSON API.
//
// Every syscall endpoint answers with {"success", "result"}. Failures keep
// HTTP 200 and carry the legacy negative result plus a "status" label, so
// a client sees exactly what the syscall returned. Malformed bodies and
// pids get 400; unknown syscall names get 404.
//
// Endpoints:
//   - Health: /health, /uptime
//   - Raw dispatch: /syscalls, /syscalls/:name
//   - Processes: /processes, /processes/:pid/{fork,exit,wait,kill}
//   - Tickets: /processes/:pid/tickets, /processes/:pid/tickets/transfer,
//     /processes/:pid/fork-policy
//   - Scheduler: /scheduler/policy, /scheduler/trace
//
// Example Usage:
//
//	handlers := http.NewHandlers(dispatcher, table, state, logger)
//	handlers.Register(router)
package http
