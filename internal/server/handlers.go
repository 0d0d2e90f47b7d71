package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/pipeline"
	"github.com/groundtruth/concierge/internal/websocket"
)

// handleChat runs one conversational turn through the pipeline.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)

	var req pipeline.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, stats, err := s.pipeline.Chat(r.Context(), req)
	if err != nil {
		log.Error("Chat turn failed", zap.Error(err), zap.String("user_id", req.UserID))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if stats.TotalFindings > 0 {
		s.totalDetections.Add(int64(stats.TotalFindings))
		if s.config.WebSocket.Enabled {
			s.wsHub.BroadcastEvent(websocket.Event{
				Type:      websocket.EventTypeMaskingDetection,
				Timestamp: time.Now(),
				RequestID: requestID,
				Data: websocket.MaskingDetectionEvent{
					RequestID:     requestID,
					UserID:        req.UserID,
					Findings:      stats.Findings,
					TotalFindings: stats.TotalFindings,
					ProcessingMS:  stats.MaskingMS,
				},
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleResetUser clears one user's conversational memory.
func (s *Server) handleResetUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(mux.Vars(r)["user_id"])
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.memory.Reset(r.Context(), userID); err != nil {
		s.logger.Error("Failed to reset user memory",
			zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"user_id": userID,
	})
}

// handleResetAll clears every user's conversational memory.
func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.memory.ResetAll(r.Context()); err != nil {
		s.logger.Error("Failed to reset all memory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealth provides health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo provides server information
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "GroundTruth Concierge",
		"version": "1.0.0",
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"privacy": map[string]interface{}{
			"enabled":        s.config.Privacy.Enabled,
			"all_categories": s.config.Privacy.Unmask.AllCategories,
			"categories":     s.config.Privacy.Unmask.Categories,
		},
		"llm_provider":       s.config.LLM.Provider,
		"embedding_provider": s.config.Embeddings.Provider,
		"total_requests":     s.totalRequests.Load(),
		"total_detections":   s.totalDetections.Load(),
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
