package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the LitXplore service.
// Metrics are organized by subsystem: HTTP, tasks, analyses, chat,
// uploads, sources, and LLM operations. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests, labeled by method, route, and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// AuthFailures counts rejected authentication attempts, labeled by reason.
	AuthFailures *prometheus.CounterVec

	// TasksCreated counts the total number of review tasks created.
	TasksCreated prometheus.Counter

	// TasksCompleted counts the total number of tasks that finished successfully.
	TasksCompleted prometheus.Counter

	// TasksFailed counts the total number of tasks that ended in failure.
	TasksFailed prometheus.Counter

	// TasksCancelled counts the total number of tasks cancelled by the user.
	TasksCancelled prometheus.Counter

	// TaskDuration observes the end-to-end duration of review tasks in seconds.
	TaskDuration prometheus.Histogram

	// AnalysesGenerated counts generated analyses, labeled by tier (at_a_glance, in_depth).
	AnalysesGenerated *prometheus.CounterVec

	// AnalysisCacheHits counts analysis cache hits.
	AnalysisCacheHits prometheus.Counter

	// AnalysisCacheMisses counts analysis cache misses.
	AnalysisCacheMisses prometheus.Counter

	// ChatSessions counts chat requests served.
	ChatSessions prometheus.Counter

	// ChatChunksStreamed counts response chunks streamed to clients.
	ChatChunksStreamed prometheus.Counter

	// UploadsProcessed counts uploaded PDFs accepted.
	UploadsProcessed prometheus.Counter

	// UploadsRejected counts uploaded PDFs rejected, labeled by reason.
	UploadsRejected *prometheus.CounterVec

	// SourceRequestsTotal counts HTTP requests to paper source APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to paper source APIs, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to paper source APIs in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from paper source APIs, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// LLMRequestsTotal counts LLM API requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by operation and model.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens consumed by LLM operations, labeled by operation, model, and token type.
	LLMTokensUsed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected authentication attempts by reason",
		}, []string{"reason"}),

		// Tasks
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Total number of review tasks created",
		}),
		TasksCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of review tasks completed successfully",
		}),
		TasksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of review tasks that failed",
		}),
		TasksCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_cancelled_total",
			Help:      "Total number of review tasks cancelled",
		}),
		TaskDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of review tasks in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),

		// Analyses
		AnalysesGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_generated_total",
			Help:      "Total number of paper analyses generated by tier",
		}, []string{"tier"}),
		AnalysisCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_hits_total",
			Help:      "Total number of analysis cache hits",
		}),
		AnalysisCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_misses_total",
			Help:      "Total number of analysis cache misses",
		}),

		// Chat
		ChatSessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_sessions_total",
			Help:      "Total number of chat requests served",
		}),
		ChatChunksStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_chunks_streamed_total",
			Help:      "Total number of chat response chunks streamed",
		}),

		// Uploads
		UploadsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_processed_total",
			Help:      "Total number of uploaded PDFs accepted",
		}),
		UploadsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Total number of uploaded PDFs rejected by reason",
		}, []string{"reason"}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to paper sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to paper sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to paper sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from paper sources",
		}, []string{"source"}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used by LLM operations",
		}, []string{"operation", "model", "token_type"}),
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordAuthFailure records a rejected authentication attempt.
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// RecordTaskCreated records that a review task has been created.
func (m *Metrics) RecordTaskCreated() {
	m.TasksCreated.Inc()
}

// RecordTaskCompleted records that a review task has completed.
func (m *Metrics) RecordTaskCompleted(durationSeconds float64) {
	m.TasksCompleted.Inc()
	m.TaskDuration.Observe(durationSeconds)
}

// RecordTaskFailed records that a review task has failed.
func (m *Metrics) RecordTaskFailed(durationSeconds float64) {
	m.TasksFailed.Inc()
	m.TaskDuration.Observe(durationSeconds)
}

// RecordTaskCancelled records that a review task has been cancelled.
func (m *Metrics) RecordTaskCancelled() {
	m.TasksCancelled.Inc()
}

// RecordAnalysisGenerated records a generated analysis tier.
func (m *Metrics) RecordAnalysisGenerated(tier string) {
	m.AnalysesGenerated.WithLabelValues(tier).Inc()
}

// RecordAnalysisCacheHit records an analysis cache hit.
func (m *Metrics) RecordAnalysisCacheHit() {
	m.AnalysisCacheHits.Inc()
}

// RecordAnalysisCacheMiss records an analysis cache miss.
func (m *Metrics) RecordAnalysisCacheMiss() {
	m.AnalysisCacheMisses.Inc()
}

// RecordChatSession records a chat request and the number of chunks streamed.
func (m *Metrics) RecordChatSession(chunks int) {
	m.ChatSessions.Inc()
	m.ChatChunksStreamed.Add(float64(chunks))
}

// RecordUploadProcessed records an accepted upload.
func (m *Metrics) RecordUploadProcessed() {
	m.UploadsProcessed.Inc()
}

// RecordUploadRejected records a rejected upload.
func (m *Metrics) RecordUploadRejected(reason string) {
	m.UploadsRejected.WithLabelValues(reason).Inc()
}

// RecordSourceRequest records a request to a paper source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a paper source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMTokensUsed.WithLabelValues(operation, model, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(operation, model, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}
