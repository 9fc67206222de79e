package constants

import "time"

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
)

const (
	// MinPasswordLength is the minimum accepted password length for new users
	MinPasswordLength = 6

	// DefaultCacheTTL bounds how stale a cached read may be
	DefaultCacheTTL = 60 * time.Second

	// RequestIDHeader carries the request id in and out of the API
	RequestIDHeader = "X-Request-ID"

	// ProgressChannel is the event name used for project progress broadcasts
	ProgressChannel = "project_progress"

	// MaxSuggestedTasks caps how many AI task suggestions are returned
	MaxSuggestedTasks = 10
)
