package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"neurosense/domain/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.store.ListSubjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subjects": subjects})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	sessions, err := s.store.GetSessions(r.Context(), subjectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subject":  subjectID,
		"sessions": sessions,
	})
}

func (s *Server) handlePredictSession(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	sessionID := chi.URLParam(r, "sessionID")
	prefer := boolQuery(r, "prefer_subject_model", true)

	prediction, err := s.prediction.PredictSession(r.Context(), subjectID, sessionID, prefer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleRescoreSession(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	sessionID := chi.URLParam(r, "sessionID")
	prefer := boolQuery(r, "prefer_subject_model", true)

	prediction, err := s.prediction.RescoreSession(r.Context(), subjectID, sessionID, prefer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleNSI(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	report, err := s.stability.Stability(r.Context(), subjectID)
	if core.IsInsufficientHistory(err) {
		// Explicit "not yet available", never a fabricated score.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"subject": subjectID,
			"nsi":     nil,
			"message": "NSI available after at least 3 scored sessions",
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subject":    subjectID,
		"n_sessions": report.SessionCount,
		"nsi":        report.Result.NSI,
		"components": report.Result.Components,
		"from_cache": report.FromCache,
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	recommendation, err := s.recommendation.NextGame(r.Context(), subjectID)
	if core.IsInsufficientHistory(err) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"subject": subjectID,
			"message": "Recommendations available after at least 3 scored sessions",
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendation)
}

type logGameRequest struct {
	SubjectID string `json:"subject_id"`
	SessionID string `json:"session_id"`
	GameID    string `json:"game_id"`
	Source    string `json:"source"`
}

func (s *Server) handleLogGame(w http.ResponseWriter, r *http.Request) {
	var req logGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SubjectID == "" || req.GameID == "" {
		http.Error(w, "subject_id and game_id are required", http.StatusBadRequest)
		return
	}

	event, err := s.recommendation.LogPlay(r.Context(), req.SubjectID, req.SessionID, req.GameID, req.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "logged": event})
}

// writeError maps domain failures onto transport status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsNotFound(err), core.IsModelNotFound(err):
		status = http.StatusNotFound
	case core.IsShapeError(err), core.IsConditioningError(err), core.IsInferenceError(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func boolQuery(r *http.Request, key string, def bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}
