package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/services"
)

type MetricsHandler struct {
	metrics *services.MetricsService
}

func NewMetricsHandler(metrics *services.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

const dateLayout = "2006-01-02"

// parseDateParam reads an optional ?name=YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func (h *MetricsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	date, ok := parseDateParam(r, "date")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "date must be YYYY-MM-DD", r))
		return
	}
	if date == nil {
		now := time.Now().UTC().Truncate(24 * time.Hour)
		date = &now
	}

	m, err := h.metrics.GetDailyMetrics(r.Context(), userID, *date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *MetricsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	weekStart, ok := parseDateParam(r, "week_start")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "week_start must be YYYY-MM-DD", r))
		return
	}

	summary, err := h.metrics.GetWeeklyMetrics(r.Context(), userID, weekStart)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *MetricsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	monthStart, ok := parseDateParam(r, "month_start")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "month_start must be YYYY-MM-DD", r))
		return
	}

	summary, err := h.metrics.GetMonthlyMetrics(r.Context(), userID, monthStart)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *MetricsHandler) Range(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	start, okStart := parseDateParam(r, "start")
	end, okEnd := parseDateParam(r, "end")
	if !okStart || !okEnd || start == nil || end == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "start and end must be YYYY-MM-DD", r))
		return
	}

	summary, err := h.metrics.GetDateRangeMetrics(r.Context(), userID, *start, *end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *MetricsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.metrics.GetDashboardStats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *MetricsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	days, err := h.metrics.GetHeatmapData(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, days)
}

func (h *MetricsHandler) ProjectTime(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	projects, err := h.metrics.GetProjectTimeDistribution(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

func (h *MetricsHandler) TaskStatuses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	counts, err := h.metrics.GetTaskStatusDistribution(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func (h *MetricsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	streak, err := h.metrics.GetProductivityStreak(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, streak)
}

func (h *MetricsHandler) Team(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid workspace id", r))
		return
	}

	start, okStart := parseDateParam(r, "start")
	end, okEnd := parseDateParam(r, "end")
	if !okStart || !okEnd || start == nil || end == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "start and end must be YYYY-MM-DD", r))
		return
	}

	team, err := h.metrics.GetTeamMetrics(r.Context(), workspaceID, *start, *end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}
