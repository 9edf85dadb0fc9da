package handlers

import (
	"net/http"
	"strconv"

	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/models"
	"taskflow-backend/internal/repository"
)

type InsightHandler struct {
	repo *repository.InsightRepo
}

func NewInsightHandler(repo *repository.InsightRepo) *InsightHandler {
	return &InsightHandler{repo: repo}
}

func (h *InsightHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	insights, err := h.repo.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load insights", r))
		return
	}

	if insights == nil {
		insights = []models.SessionInsight{}
	}

	writeJSON(w, http.StatusOK, insights)
}
