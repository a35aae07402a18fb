// Package server wires the process table, ticket accountant, scheduler
// state and syscall dispatcher behind the HTTP API.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger, metrics and tracing
//  3. Create the process table (init holds DEFAULT_TICKETS)
//  4. Spawn the boot manifest's processes, if one is configured
//  5. Setup HTTP routes and middleware
//  6. Run the tick clock and serve until the context ends or the
//     shutdown syscall halts the machine
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
