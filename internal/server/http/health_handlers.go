package httpserver

import "net/http"

// handleHealthz reports process liveness. It never checks dependencies
// so a database outage does not get the process restarted.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports readiness to serve traffic, gated on database
// connectivity.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("readiness probe failed")
			respondJSON(w, s.logger, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
	}
	respondJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ready"})
}
