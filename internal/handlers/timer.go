package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/models"
	"taskflow-backend/internal/services"
)

type TimerHandler struct {
	timer *services.TimerService
}

func NewTimerHandler(timer *services.TimerService) *TimerHandler {
	return &TimerHandler{timer: timer}
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		TaskID *string `json:"task_id"`
		Type   string  `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var taskID *uuid.UUID
	if req.TaskID != nil && *req.TaskID != "" {
		parsed, err := uuid.Parse(*req.TaskID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task_id", r))
			return
		}
		taskID = &parsed
	}

	sess, err := h.timer.Start(r.Context(), userID, taskID, models.SessionType(req.Type))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sess, err := h.timer.Pause(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sess, err := h.timer.Resume(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		WasCompleted *bool `json:"was_completed"`
	}
	// The body is optional, but a present-and-malformed one is rejected
	// rather than silently treated as "completed".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	wasCompleted := true
	if req.WasCompleted != nil {
		wasCompleted = *req.WasCompleted
	}

	sess, err := h.timer.Stop(r.Context(), userID, wasCompleted)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *TimerHandler) SwitchTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		TaskID      string `json:"task_id"`
		Type        string `json:"type"`
		SplitReason string `json:"split_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid task_id", r))
		return
	}

	result, err := h.timer.SwitchTask(r.Context(), userID, taskID, models.SessionType(req.Type), req.SplitReason)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TimerHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	view, err := h.timer.GetActive(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if view == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": nil})
		return
	}

	writeJSON(w, http.StatusOK, view)
}
