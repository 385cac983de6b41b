package tracing

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderTraceID carries the trace id across HTTP hops.
const HeaderTraceID = "X-Trace-ID"

// TraceID correlates the log lines and outbound calls of one operation:
// a view API request, or one transport connection attempt.
type TraceID string

// New returns a fresh trace id.
func New() TraceID {
	return TraceID(uuid.NewString())
}

func (t TraceID) String() string { return string(t) }

type contextKey struct{}

// WithTraceID returns ctx carrying id.
func WithTraceID(ctx context.Context, id TraceID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext retrieves the trace id, or "" when ctx has none.
func FromContext(ctx context.Context) TraceID {
	if id, ok := ctx.Value(contextKey{}).(TraceID); ok {
		return id
	}
	return ""
}

// Inject copies the trace id from ctx into h, if there is one.
func Inject(ctx context.Context, h http.Header) {
	if id := FromContext(ctx); id != "" {
		h.Set(HeaderTraceID, string(id))
	}
}

// Field returns the trace id as a log field.
func Field(ctx context.Context) zap.Field {
	return zap.String("trace_id", string(FromContext(ctx)))
}
