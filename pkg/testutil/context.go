package testutil

import (
	"net/http"

	"lineage/pkg/requestcontext"
)

// WithSessionID adds a navigation session ID to the request context.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
