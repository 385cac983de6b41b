// Package tracing propagates a trace id through contexts and HTTP headers.
//
// A trace id is minted per view API request (or adopted from X-Trace-ID)
// and per transport connection attempt. The attempt's id travels to the
// signer as a header and becomes the connection id once the socket opens,
// so signer logs and transport logs for one connection share a key.
//
// Example Usage:
//
//	router.Use(tracing.HTTPMiddleware())
//
//	ctx = tracing.WithTraceID(ctx, tracing.New())
//	logger.Info("Signing", tracing.Field(ctx))
package tracing
