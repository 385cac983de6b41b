// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a plain *zap.Logger. Use For to derive the named logger
// for a component so every line carries a "logger" field (transport,
// router, store, signer, viewapi, replay).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//
//	client, err := transport.New(transport.Options{
//		Logger: logger.For(logging.ComponentTransport),
//	})
package logging
