package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/litxplore/litxplore/internal/auth"
	"github.com/litxplore/litxplore/internal/domain"
)

// Search result caps. Clients asking for more get the maximum.
const (
	defaultSearchResults = 10
	maxSearchResults     = 50
)

type searchResponse struct {
	Papers []domain.Paper `json:"papers"`
	Total  int            `json:"total"`
}

func (s *Server) handleSearchPapers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", "query parameter is required")
		return
	}

	maxResults := defaultSearchResults
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, s.logger, http.StatusBadRequest, "validation_error", "max_results must be a positive integer")
			return
		}
		if n > maxSearchResults {
			n = maxSearchResults
		}
		maxResults = n
	}

	papers, err := s.papers.Search(r.Context(), query, maxResults)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	if papers == nil {
		papers = []domain.Paper{}
	}
	respondJSON(w, s.logger, http.StatusOK, searchResponse{Papers: papers, Total: len(papers)})
}

func (s *Server) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", `multipart field "file" is required`)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", "could not read the uploaded file")
		return
	}

	paper, err := s.papers.ProcessUpload(r.Context(), header.Filename, content)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, paper)
}

func (s *Server) handleAnalyzePaper(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaperIDParam(r)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	forceRefresh := r.URL.Query().Get("force_refresh") == "true"

	analysis, err := s.analysis.AnalyzePaper(r.Context(), id, forceRefresh)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, analysis)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaperIDParam(r)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	analysis, err := s.analysis.GetAnalysis(r.Context(), id)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	if analysis == nil {
		respondError(w, s.logger, http.StatusNotFound, "not_found", "no analysis found for this paper")
		return
	}
	respondJSON(w, s.logger, http.StatusOK, analysis)
}

func (s *Server) handleInDepthAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaperIDParam(r)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	analysis, err := s.analysis.ComputeInDepth(r.Context(), id)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, analysis)
}

// handleChat streams chat chunks as server-sent events. Pipeline
// failures arrive as error chunks on the same stream, so the response
// status is always 200 once streaming starts.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	id, err := parsePaperIDParam(r)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	message := r.URL.Query().Get("message")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, s.logger, http.StatusInternalServerError, "internal_error", "streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	chunks := s.chat.ChatStream(r.Context(), id, message)
	count := 0
	for chunk := range chunks {
		payload, err := json.Marshal(chunk)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to encode chat chunk")
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		count++
	}

	if s.metrics != nil {
		s.metrics.RecordChatSession(count)
	}
	if user := auth.UserFromContext(r.Context()); user != nil {
		s.logger.Debug().
			Str("paper_id", id.String()).
			Str("user_id", user.ID.String()).
			Int("chunks", count).
			Msg("chat stream finished")
	}
}
