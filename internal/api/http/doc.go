// Package http exposes the read-mostly view API over gin.
//
// Views read the store snapshot and toolbar summary, and send
// user-initiated mutations (dismiss, close, carousel transitions) that go
// through the same store entry points the router uses.
package http
