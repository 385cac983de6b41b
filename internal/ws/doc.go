// Package ws pushes UI state to connected views over WebSocket.
//
// Each view receives a ui_snapshot frame on connect and again after every
// store change notification, carrying the full snapshot plus the toolbar
// summary. show_graph payloads from the router are forwarded verbatim.
//
// Message Types (Server → Client):
//   - ui_snapshot: {changed, state, toolbar}
//   - show_graph: graph payload as received from the agent
//
// Example Usage:
//
//	hub := ws.NewHub(st, ws.Options{Logger: log.For("viewapi"), Observer: metrics})
//	router.GET("/ui/stream", hub.HandleConnection)
package ws
