// Command uistream runs the agent UI event stream client.
//
// Usage:
//
//	uistream serve [--url wss://...] [--signer https://...] [--port 8000] [--dev]
//	uistream replay session.yaml [--json] [-v]
//
// serve connects to the event stream, applies events to the UI store and
// serves the view API until SIGINT or SIGTERM:
//   - GET  /health, /metrics
//   - GET  /ui/state, /ui/toolbar, /ui/carousels/:name
//   - POST /ui/cards/:id/dismiss, /ui/notifications/:id/dismiss, /ui/progress/:id/close
//   - POST /ui/carousels/:name/{show,hide,expand,minimize,close}
//   - GET  /ui/stream (WebSocket)
//
// replay plays a recorded YAML session on a simulated clock and prints the
// final toolbar summary.
package main
