/*
Package monitoring provides metrics collection for the event stream.

# Overview

Metrics live on a dedicated Prometheus registry owned by each Metrics value.
The type satisfies the observer interfaces of the transport, router and
store, so wiring is a matter of passing it in.

# Features

- Transport state gauge, reconnect attempts and backoff delays
- Frames routed by kind and dropped by reason
- Store collection sizes
- Signer call latency
- View API HTTP metrics and view stream connections

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics)
	url, err := signer.SignURL(ctx)
	timer.Stop(err)
*/
package monitoring
