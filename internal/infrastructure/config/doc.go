// Package config provides 12-factor configuration management for uistream.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Transport: stream URL or signer endpoint, reconnect backoff, timeouts
//   - Store: card, notification and highlight TTLs
//   - Server: view API settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting for the view API
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// Environment Variables:
//   - STREAM_URL, SIGNER_ENDPOINT, SIGNER_TOKEN, SIGNER_TIMEOUT
//   - RECONNECT_BASE, RECONNECT_MAX_ATTEMPTS, HANDSHAKE_TIMEOUT, WRITE_TIMEOUT
//   - PING_INTERVAL, SEND_RATE, SEND_BURST
//   - CARD_TTL, NOTIFICATION_TTL, HIGHLIGHT_TTL
//   - PORT, HOST, ALLOWED_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
