// Package replay loads recorded agent sessions from YAML and plays them
// through the router into a store.
//
// Scenario format:
//
//	name: pricing-review
//	settle: 6s
//	frames:
//	  - type: show_progress
//	    payload: {message: "Analyzing", percentage: 10}
//	  - at: 1.5s
//	    type: show_notification
//	    payload: {message: "Found 3 competitors", type: info}
//
// Frames are encoded to wire JSON and decoded with the transport's codec, so
// a scenario exercises the same validation a live frame would.
package replay
