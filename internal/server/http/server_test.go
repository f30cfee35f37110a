package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litxplore/litxplore/internal/auth"
	"github.com/litxplore/litxplore/internal/chat"
	"github.com/litxplore/litxplore/internal/domain"
)

var testUser = &domain.User{
	ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	Subject:   "auth0|tester",
	Email:     "tester@example.com",
	FirstName: "Test",
	CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
}

type fakePapers struct {
	searchResults []domain.Paper
	searchErr     error
	searchQuery   string
	searchMax     int

	uploaded     *domain.Paper
	uploadErr    error
	uploadedName string
	uploadedSize int
}

func (f *fakePapers) Search(_ context.Context, query string, maxResults int) ([]domain.Paper, error) {
	f.searchQuery = query
	f.searchMax = maxResults
	return f.searchResults, f.searchErr
}

func (f *fakePapers) ProcessUpload(_ context.Context, filename string, content []byte) (*domain.Paper, error) {
	f.uploadedName = filename
	f.uploadedSize = len(content)
	return f.uploaded, f.uploadErr
}

type fakeAnalysis struct {
	analysis     *domain.PaperAnalysis
	err          error
	forceRefresh bool
	lastID       domain.PaperID
}

func (f *fakeAnalysis) AnalyzePaper(_ context.Context, id domain.PaperID, forceRefresh bool) (*domain.PaperAnalysis, error) {
	f.lastID = id
	f.forceRefresh = forceRefresh
	return f.analysis, f.err
}

func (f *fakeAnalysis) GetAnalysis(_ context.Context, id domain.PaperID) (*domain.PaperAnalysis, error) {
	f.lastID = id
	return f.analysis, f.err
}

func (f *fakeAnalysis) ComputeInDepth(_ context.Context, id domain.PaperID) (*domain.PaperAnalysis, error) {
	f.lastID = id
	return f.analysis, f.err
}

type fakeChat struct {
	chunks  []chat.Chunk
	message string
}

func (f *fakeChat) ChatStream(_ context.Context, _ domain.PaperID, message string) <-chan chat.Chunk {
	f.message = message
	out := make(chan chat.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out
}

type startCall struct {
	userID    uuid.UUID
	taskID    uuid.UUID
	paperIDs  []domain.PaperID
	topic     string
	maxPapers int
}

type fakeTasks struct {
	created    *domain.Task
	createErr  error
	starts     []startCall
	statusTask *domain.Task
	statusErr  error
	listTasks  []*domain.Task
	listStatus domain.TaskStatus
	listLimit  int
	cancelOK   bool
	cancelled  []uuid.UUID
}

func (f *fakeTasks) CreateTask(_ context.Context, _ *domain.User) (*domain.Task, error) {
	return f.created, f.createErr
}

func (f *fakeTasks) StartReviewGeneration(userID, taskID uuid.UUID, paperIDs []domain.PaperID, topic string, maxPapers int) {
	f.starts = append(f.starts, startCall{userID, taskID, paperIDs, topic, maxPapers})
}

func (f *fakeTasks) GetStatus(_ context.Context, _ *domain.User, _ uuid.UUID) (*domain.Task, error) {
	return f.statusTask, f.statusErr
}

func (f *fakeTasks) ListTasks(_ context.Context, _ *domain.User, status domain.TaskStatus, limit int) ([]*domain.Task, error) {
	f.listStatus = status
	f.listLimit = limit
	return f.listTasks, nil
}

func (f *fakeTasks) Cancel(_ context.Context, _ *domain.User, taskID uuid.UUID) bool {
	f.cancelled = append(f.cancelled, taskID)
	return f.cancelOK
}

type fakeReviews struct {
	created   *domain.SavedReview
	createErr error
	list      []*domain.SavedReview
	listLimit int
	deleteErr error
	deleted   []uuid.UUID
}

func (f *fakeReviews) Create(_ context.Context, review *domain.SavedReview) error {
	f.created = review
	return f.createErr
}

func (f *fakeReviews) Get(_ context.Context, _, _ uuid.UUID) (*domain.SavedReview, error) {
	return nil, domain.NewNotFoundError("review", "")
}

func (f *fakeReviews) List(_ context.Context, _ uuid.UUID, limit int) ([]*domain.SavedReview, error) {
	f.listLimit = limit
	return f.list, nil
}

func (f *fakeReviews) Delete(_ context.Context, _, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Ping(context.Context) error { return f.err }

// injectUser stands in for the bearer-token middleware.
func injectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), testUser)))
	})
}

type testEnv struct {
	server  *Server
	papers  *fakePapers
	anal    *fakeAnalysis
	chat    *fakeChat
	tasks   *fakeTasks
	reviews *fakeReviews
	health  *fakeHealth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		papers:  &fakePapers{},
		anal:    &fakeAnalysis{},
		chat:    &fakeChat{},
		tasks:   &fakeTasks{},
		reviews: &fakeReviews{},
		health:  &fakeHealth{},
	}
	env.server = NewServer(
		Config{Address: "127.0.0.1:0"},
		env.papers, env.anal, env.chat, env.tasks, env.reviews, env.health,
		injectUser, nil, zerolog.Nop(),
	)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSearchPapers(t *testing.T) {
	env := newTestEnv(t)
	env.papers.searchResults = []domain.Paper{{ID: "2301.12345", Title: "Attention"}}

	rec := env.do(t, http.MethodGet, "/api/v1/papers/search?query=transformers&max_results=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Attention", resp.Papers[0].Title)
	assert.Equal(t, "transformers", env.papers.searchQuery)
	assert.Equal(t, 5, env.papers.searchMax)
}

func TestSearchPapers_MissingQuery(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/papers/search", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envlp := decodeErrorEnvelope(t, rec)
	assert.Equal(t, "error", envlp.Status)
	assert.Equal(t, "validation_error", envlp.Error.Code)
	assert.Equal(t, http.StatusBadRequest, envlp.Error.StatusCode)
}

func TestSearchPapers_MaxResultsCapped(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/papers/search?query=x&max_results=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxSearchResults, env.papers.searchMax)
}

func TestSearchPapers_UpstreamUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.papers.searchErr = fmt.Errorf("arxiv: %w", domain.ErrServiceUnavailable)

	rec := env.do(t, http.MethodGet, "/api/v1/papers/search?query=x", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "external_service_error", decodeErrorEnvelope(t, rec).Error.Code)
}

func TestSearchPapers_UpstreamAPIError(t *testing.T) {
	env := newTestEnv(t)
	// The arXiv client reports upstream failures without a wrapped
	// cause; the mapping to 502 must still hold.
	env.papers.searchErr = domain.NewExternalAPIError("arxiv", http.StatusServiceUnavailable, "upstream overloaded", nil)

	rec := env.do(t, http.MethodGet, "/api/v1/papers/search?query=x", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "external_service_error", decodeErrorEnvelope(t, rec).Error.Code)
}

func TestUploadPaper(t *testing.T) {
	env := newTestEnv(t)
	env.papers.uploaded = &domain.Paper{ID: "upload_0123456789", Title: "My Draft"}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "draft.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "draft.pdf", env.papers.uploadedName)
	assert.Equal(t, len("%PDF-1.4 fake"), env.papers.uploadedSize)

	var paper domain.Paper
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paper))
	assert.Equal(t, "upload_0123456789", paper.ID)
}

func TestUploadPaper_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/papers/upload", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzePaper_ForceRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.anal.analysis = &domain.PaperAnalysis{SchemaVersion: domain.AnalysisSchemaVersion}

	rec := env.do(t, http.MethodPost, "/api/v1/papers/2301.12345/analyze?force_refresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.anal.forceRefresh)
	assert.Equal(t, "2301.12345", env.anal.lastID.String())
}

func TestAnalyzePaper_InvalidPaperID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/papers/not-a-paper/analyze", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeErrorEnvelope(t, rec).Error.Code)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/papers/2301.12345/analysis", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeErrorEnvelope(t, rec).Error.Code)
}

func TestGetAnalysis_Found(t *testing.T) {
	env := newTestEnv(t)
	env.anal.analysis = &domain.PaperAnalysis{ModelTag: "test-model"}

	rec := env.do(t, http.MethodGet, "/api/v1/papers/2301.12345/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test-model")
}

func TestChat_StreamsSSE(t *testing.T) {
	env := newTestEnv(t)
	env.chat.chunks = []chat.Chunk{
		{Content: "first", Sources: []chat.Source{{Page: 2}}},
		{Content: "second"},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/papers/2301.12345/chat?message=what", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "what", env.chat.message)

	events := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.Len(t, events, 2)
	for _, event := range events {
		assert.True(t, strings.HasPrefix(event, "data: "))
	}

	var first chat.Chunk
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(events[0], "data: ")), &first))
	assert.Equal(t, "first", first.Content)
	require.Len(t, first.Sources, 1)
	assert.Equal(t, 2, first.Sources[0].Page)
}

func TestGenerateReview_AcceptsTask(t *testing.T) {
	env := newTestEnv(t)
	taskID := uuid.New()
	env.tasks.created = &domain.Task{ID: taskID, UserID: testUser.ID, Status: domain.TaskStatusPending}

	body, _ := json.Marshal(map[string]any{
		"paper_ids": []string{"2301.12345", "upload_0123456789"},
		"topic":     "graph neural networks",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/review/generate-review", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, taskID, resp.ID)
	assert.Equal(t, domain.TaskStatusPending, resp.Status)

	require.Len(t, env.tasks.starts, 1)
	call := env.tasks.starts[0]
	assert.Equal(t, testUser.ID, call.userID)
	assert.Equal(t, taskID, call.taskID)
	assert.Len(t, call.paperIDs, 2)
	assert.Equal(t, "graph neural networks", call.topic)
	assert.Equal(t, defaultMaxPapers, call.maxPapers)
}

func TestGenerateReview_TopicTooShort(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"paper_ids": []string{"2301.12345"},
		"topic":     "ab",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/review/generate-review", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.tasks.starts)
}

func TestGenerateReview_InvalidPaperID(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"paper_ids": []string{"../../etc/passwd"},
		"topic":     "valid topic",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/review/generate-review", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.tasks.starts)
}

func TestSaveReview_DefaultTitle(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"topic":   "quantum computing",
		"content": "A survey of recent results.",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/review/save", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, env.reviews.created)
	assert.Equal(t, "Untitled Review", env.reviews.created.Title)
	assert.Equal(t, testUser.ID, env.reviews.created.UserID)
	// History ordering relies on the handler stamping the timestamps
	// before the row is persisted.
	assert.False(t, env.reviews.created.CreatedAt.IsZero())
	assert.False(t, env.reviews.created.UpdatedAt.IsZero())
	assert.Contains(t, rec.Body.String(), "Review saved successfully")
}

func TestSaveReview_ContentRequired(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{"topic": "quantum computing"})
	rec := env.do(t, http.MethodPost, "/api/v1/review/save", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, env.reviews.created)
}

func TestReviewHistory(t *testing.T) {
	env := newTestEnv(t)
	env.reviews.list = []*domain.SavedReview{
		{ID: uuid.New(), UserID: testUser.ID, Title: "Saved", Topic: "topic", Content: "body"},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/review/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []reviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Saved", resp[0].Title)
}

func TestDeleteReview_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.reviews.deleteErr = domain.NewNotFoundError("review", uuid.New().String())

	rec := env.do(t, http.MethodDelete, "/api/v1/review/"+uuid.New().String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReview_OK(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	rec := env.do(t, http.MethodDelete, "/api/v1/review/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.reviews.deleted, 1)
	assert.Equal(t, id, env.reviews.deleted[0])
}

func TestGetTask_HiddenWhenUnknown(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+uuid.New().String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTask_Completed(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.statusTask = &domain.Task{
		ID:     uuid.New(),
		Status: domain.TaskStatusCompleted,
		Result: &domain.TaskResult{Review: "done", Topic: "topic"},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/tasks/"+env.tasks.statusTask.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.TaskStatusCompleted, resp.Status)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "done", resp.Result.Review)
}

func TestGetTask_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/tasks/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasks_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.listTasks = []*domain.Task{{ID: uuid.New(), Status: domain.TaskStatusFailed}}

	rec := env.do(t, http.MethodGet, "/api/v1/tasks?status=FAILED&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.TaskStatusFailed, env.tasks.listStatus)
	assert.Equal(t, 5, env.tasks.listLimit)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestListTasks_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/tasks?status=DONE", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelTask(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.cancelOK = true
	id := uuid.New()

	rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.tasks.cancelled, 1)
	assert.Equal(t, id, env.tasks.cancelled[0])
}

func TestCancelTask_Refused(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.cancelOK = false

	rec := env.do(t, http.MethodDelete, "/api/v1/tasks/"+uuid.New().String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateDocument_LaTeX(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"content": "Review body.",
		"citations": []map[string]any{
			{"id": "2301.12345", "title": "Paper", "authors": []string{"A"}, "published": "2023-01-02T00:00:00Z"},
		},
		"topic":  "topic",
		"format": "latex",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/documents/generate", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-latex", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "literature-review.latex")
	assert.Contains(t, rec.Body.String(), `\documentclass`)
}

func TestGenerateDocument_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"content":   "Review body.",
		"citations": []map[string]any{{"id": "x", "title": "Paper"}},
		"topic":     "topic",
		"format":    "docx",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/documents/generate", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateDocument_NoCitations(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"content":   "Review body.",
		"citations": []map[string]any{},
		"topic":     "topic",
		"format":    "pdf",
	})
	rec := env.do(t, http.MethodPost, "/api/v1/documents/generate", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testUser.ID, resp.ID)
	assert.Equal(t, testUser.Email, resp.Email)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestReadyz_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	env.health.err = fmt.Errorf("connection refused")

	rec := env.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyz_OK(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit_RejectsOversizedJSON(t *testing.T) {
	env := newTestEnv(t)
	huge := strings.Repeat("a", defaultMaxBodyBytes+1)
	body, _ := json.Marshal(map[string]any{
		"topic":   "quantum computing",
		"content": huge,
	})
	rec := env.do(t, http.MethodPost, "/api/v1/review/save", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{
		"topic":    "quantum computing",
		"content":  "text",
		"mystery":  true,
	})
	rec := env.do(t, http.MethodPost, "/api/v1/review/save", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON request body")
}
