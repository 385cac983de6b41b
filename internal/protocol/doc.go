/*
Package protocol defines the envelope carried over the agent UI event stream.

Every frame is a JSON object:

	{"type": "<kind>", "payload": {...}, "timestamp": <ms since epoch>}

The set of kinds is closed. A frame whose type is outside the set still
decodes, into an Envelope holding an Unrecognized payload, so that callers
can log and drop it without treating it as a transport fault.

# Kinds

  - show_competitor_context: one competitor, or a "competitors" list
  - show_insight: one insight, or an "insights" list
  - show_notification: toast message with info/success/warning/error type
  - update_competitor_panel: replaces the competitor panel
  - show_progress: adds or replaces a progress indicator
  - highlight_element: highlights a dashboard element for a duration in ms
  - show_graph: chart payload forwarded to views untouched

Decode is a structural parse. Required-field checks live on each payload's
Validate method so the router can reject a frame before mutating anything.
*/
package protocol
