// Package observability provides logging and metrics support for the
// LitXplore service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for HTTP, tasks, analyses, chat, and sources
//   - Context helpers for propagating request and task identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("task_id", taskID).Msg("review generation started")
//
// Add component context to a logger:
//
//	logger = observability.WithComponent(logger, "tasks")
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("litxplore")
//
// Record metrics:
//
//	metrics.RecordTaskCreated()
//	metrics.RecordAnalysisCacheHit()
//	metrics.RecordSourceRequest("arxiv", "search", 0.31)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithUserID(ctx, userID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	userID := observability.UserIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - user_id: Authenticated user identifier
//   - task_id: Review task identifier
//   - paper_id: Paper identifier (arXiv ID or upload handle)
//   - component: Subsystem name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
