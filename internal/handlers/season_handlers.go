package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"season-engine/internal/models"
	"season-engine/internal/repository"
	"season-engine/internal/services"
	"season-engine/pkg/logging"
	"season-engine/pkg/metrics"
)

// SeasonHandler handles the season API endpoints
type SeasonHandler struct {
	seasonService *services.SeasonService
	tickService   *services.TickService
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewSeasonHandler creates a new season handler
func NewSeasonHandler(
	seasonService *services.SeasonService,
	tickService *services.TickService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *SeasonHandler {
	return &SeasonHandler{
		seasonService: seasonService,
		tickService:   tickService,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// OverrideRequest is the body of a manual override request
type OverrideRequest struct {
	Date string `json:"date"`
}

// GetStatus handles GET /api/season
func (h *SeasonHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/season").Observe(duration.Seconds())
	}()

	status, err := h.seasonService.GetStatus(ctx, time.Now().UTC())
	if err != nil {
		h.logger.Error(ctx, "[API_STATUS_ERROR] Failed to build season status", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/season")
		h.sendError(w, r, "failed to retrieve season status", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/season", "GET", "200")
	h.sendJSON(w, status, http.StatusOK)
}

// GetHistory handles GET /api/season/history
func (h *SeasonHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/season/history").Observe(duration.Seconds())
	}()

	history, err := h.seasonService.GetHistory(ctx, time.Now().UTC())
	if err != nil {
		h.logger.Error(ctx, "[API_HISTORY_ERROR] Failed to build season history", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/season/history")
		h.sendError(w, r, "failed to retrieve season history", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/season/history", "GET", "200")
	h.sendJSON(w, history, http.StatusOK)
}

// SetOverride handles PUT /api/season/{season}/override
func (h *SeasonHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	season, err := models.ParseSeason(mux.Vars(r)["season"])
	if err != nil || season == models.SeasonUnknown {
		h.sendError(w, r, "invalid season, expected winter, spring, summer or autumn", http.StatusBadRequest)
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.sendError(w, r, "invalid date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if err := h.seasonService.SetOverride(ctx, season, date); err != nil {
		h.logger.Error(ctx, "[API_OVERRIDE_ERROR] Failed to set override", logging.Fields{
			"season": season.String(),
			"date":   req.Date,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/season/override")
		h.sendError(w, r, "failed to set override", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/season/override", "PUT", "200")
	h.sendJSON(w, map[string]string{
		"season": season.String(),
		"date":   req.Date,
		"status": "override set",
	}, http.StatusOK)
}

// ClearOverride handles DELETE /api/season/{season}/override
func (h *SeasonHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	season, err := models.ParseSeason(mux.Vars(r)["season"])
	if err != nil || season == models.SeasonUnknown {
		h.sendError(w, r, "invalid season, expected winter, spring, summer or autumn", http.StatusBadRequest)
		return
	}

	if err := h.seasonService.ClearOverride(ctx, season, time.Now().UTC()); err != nil {
		h.logger.Error(ctx, "[API_OVERRIDE_ERROR] Failed to clear override", logging.Fields{
			"season": season.String(),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/season/override")
		h.sendError(w, r, "failed to clear override", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/season/override", "DELETE", "200")
	h.sendJSON(w, map[string]string{
		"season": season.String(),
		"status": "override cleared",
	}, http.StatusOK)
}

// RunTick handles POST /api/season/tick. Without a date parameter it
// processes yesterday, the most recent completed day.
func (h *SeasonHandler) RunTick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/season/tick").Observe(duration.Seconds())
	}()

	day := time.Now().UTC().AddDate(0, 0, -1)
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			h.sendError(w, r, "invalid date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	summary, err := h.tickService.ProcessDay(ctx, day)
	if err != nil {
		h.logger.Error(ctx, "[API_TICK_ERROR] Daily tick failed", logging.Fields{
			"day": day.Format("2006-01-02"),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/season/tick")
		h.sendError(w, r, "failed to run daily tick", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/season/tick", "POST", "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// GetDailyMeans handles GET /api/means
func (h *SeasonHandler) GetDailyMeans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/means").Observe(duration.Seconds())
	}()

	startDateStr := r.URL.Query().Get("start_date")
	endDateStr := r.URL.Query().Get("end_date")
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")

	// Default pagination
	page := 1
	limit := 100

	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	offset := (page - 1) * limit

	filter := repository.MeanFilter{
		Limit:  limit,
		Offset: offset,
	}

	if startDateStr != "" {
		startDate, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if endDateStr != "" {
		endDate, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	means, total, err := h.seasonService.GetDailyMeans(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_MEANS_ERROR] Failed to get daily means", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/means")
		h.sendError(w, r, "failed to retrieve daily means", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       means,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/means", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *SeasonHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *SeasonHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *SeasonHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all season API routes
func (h *SeasonHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/season", h.GetStatus).Methods("GET")
	router.HandleFunc("/api/season/history", h.GetHistory).Methods("GET")
	router.HandleFunc("/api/season/tick", h.RunTick).Methods("POST")
	router.HandleFunc("/api/season/{season}/override", h.SetOverride).Methods("PUT")
	router.HandleFunc("/api/season/{season}/override", h.ClearOverride).Methods("DELETE")
	router.HandleFunc("/api/means", h.GetDailyMeans).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
