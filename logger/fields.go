package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across epicdash.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldClientID  = "client_id"

	// Components
	FieldComponent = "component"
	FieldSymbol    = "symbol"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldURL       = "url"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldInterval   = "interval"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount = "count"

	// Status
	FieldStatus   = "status"
	FieldHealthy  = "healthy"
	FieldFailures = "failures"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"

	// Dashboard
	FieldWidget     = "widget"      // 1-based widget index
	FieldSlot       = "slot"        // slot reference, e.g. rpm or anon:3
	FieldVariableID = "variable_id" // catalog hash
	FieldVariable   = "variable"    // catalog name
	FieldOutcome    = "outcome"     // allocation outcome
	FieldSource     = "source"      // catalog source, http or file
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	clientIDKey  contextKey = "logger_client_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithClientID adds a websocket client ID to the context for logging
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		fields = append(fields, FieldRequestID, v)
	}
	if v, ok := ctx.Value(clientIDKey).(string); ok && v != "" {
		fields = append(fields, FieldClientID, v)
	}
	if v, ok := ctx.Value(componentKey).(string); ok && v != "" {
		fields = append(fields, FieldComponent, v)
	}

	return fields
}

// LoggerFromContext returns a logger carrying the context's fields.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Poller struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewPoller() *Poller {
//	    return &Poller{
//	        logger: logger.ComponentLogger("feed.poller"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
