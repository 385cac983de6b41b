// Package server wires the UI stream client into a running process.
//
// This package orchestrates all components:
//   - Signer selection (static URL or signing endpoint behind a breaker)
//   - Transport client with reconnect backoff, feeding the router
//   - Router applying envelopes to the store and forwarding graphs
//   - Store with TTL timers, observed by metrics
//   - View API over gin with the middleware stack and the view hub
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger and metrics
//  3. Build store, hub, router, signer and transport
//  4. Setup HTTP routes and middleware
//  5. Connect the event stream and serve
//  6. Graceful shutdown: view API, hub, transport, then store
//
// Example Usage:
//
//	cfg, _ := config.Load()
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
