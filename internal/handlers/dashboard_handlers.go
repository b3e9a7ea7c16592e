package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"waste-platform/internal/charts"
	"waste-platform/internal/models"
	"waste-platform/internal/repository"
	"waste-platform/internal/services"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

// DashboardHandler handles dashboard API endpoints
type DashboardHandler struct {
	dashboard   *services.DashboardService
	archive     repository.WasteRepository // nil when no archive DB configured
	defaultTopN int
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler. archive may be nil;
// the archive endpoints are registered only when it is present.
func NewDashboardHandler(
	dashboard *services.DashboardService,
	archive repository.WasteRepository,
	defaultTopN int,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	if defaultTopN <= 0 {
		defaultTopN = services.DefaultTopN
	}
	return &DashboardHandler{
		dashboard:   dashboard,
		archive:     archive,
		defaultTopN: defaultTopN,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Warning bool   `json:"warning,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// VariationResponse couples the computed rows with their bar chart spec
type VariationResponse struct {
	Result *services.VariationResult `json:"result"`
	Chart  *charts.ChartSpec         `json:"chart"`
}

// CorrelationResponse couples the points with their scatter spec
type CorrelationResponse struct {
	Result *services.CorrelationResult `json:"result"`
	Chart  *charts.ChartSpec           `json:"chart"`
}

// TrendResponse couples the series with its line spec
type TrendResponse struct {
	Result *services.TrendResult `json:"result"`
	Chart  *charts.ChartSpec     `json:"chart"`
}

// CompositionResponse couples the split with its pie spec
type CompositionResponse struct {
	Result *services.CompositionResult `json:"result"`
	Chart  *charts.ChartSpec           `json:"chart"`
}

// GetRegions handles GET /api/regions
func (h *DashboardHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/regions")()

	regions, err := h.dashboard.Regions(ctx)
	if err != nil {
		h.sendDomainError(w, r, "/api/regions", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/regions", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"regions": regions}, http.StatusOK)
}

// GetYears handles GET /api/regions/{region}/years
func (h *DashboardHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/regions/years")()

	region := mux.Vars(r)["region"]
	years, err := h.dashboard.Years(ctx, region)
	if err != nil {
		h.sendDomainError(w, r, "/api/regions/years", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/regions/years", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"region": models.NormalizeName(region), "years": years}, http.StatusOK)
}

// GetDistricts handles GET /api/regions/{region}/districts
func (h *DashboardHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/regions/districts")()

	region := mux.Vars(r)["region"]
	districts, err := h.dashboard.Districts(ctx, region)
	if err != nil {
		h.sendDomainError(w, r, "/api/regions/districts", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/regions/districts", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"region": models.NormalizeName(region), "districts": districts}, http.StatusOK)
}

// GetVariation handles GET /api/variation
func (h *DashboardHandler) GetVariation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/variation")()

	q := r.URL.Query()

	region := q.Get("region")
	if region == "" {
		h.sendError(w, r, "region is required", http.StatusBadRequest)
		return
	}

	metric, err := h.parseMetric(q.Get("metric"), models.MetricGPCDomestic)
	if err != nil {
		h.sendDomainError(w, r, "/api/variation", err)
		return
	}

	startYear, err := requiredInt(q.Get("start_year"), "start_year")
	if err != nil {
		h.sendDomainError(w, r, "/api/variation", err)
		return
	}
	endYear, err := requiredInt(q.Get("end_year"), "end_year")
	if err != nil {
		h.sendDomainError(w, r, "/api/variation", err)
		return
	}

	limit := h.defaultTopN
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	result, err := h.dashboard.TopVariation(ctx, region, metric, startYear, endYear, limit)
	if err != nil {
		h.sendDomainError(w, r, "/api/variation", err)
		return
	}

	chart := charts.VariationBar(result)
	h.metrics.RecordChartBuilt(chart.Type)

	h.metrics.RecordAPIRequest("/api/variation", "GET", "200")
	h.sendJSON(w, VariationResponse{Result: result, Chart: chart}, http.StatusOK)
}

// GetCorrelation handles GET /api/correlation
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/correlation")()

	q := r.URL.Query()

	region := q.Get("region")
	if region == "" {
		h.sendError(w, r, "region is required", http.StatusBadRequest)
		return
	}

	year, err := requiredInt(q.Get("year"), "year")
	if err != nil {
		h.sendDomainError(w, r, "/api/correlation", err)
		return
	}

	xMetric, err := h.parseMetric(q.Get("x_metric"), models.MetricDomestic)
	if err != nil {
		h.sendDomainError(w, r, "/api/correlation", err)
		return
	}
	yMetric, err := h.parseMetric(q.Get("y_metric"), models.MetricGPCDomestic)
	if err != nil {
		h.sendDomainError(w, r, "/api/correlation", err)
		return
	}

	result, err := h.dashboard.Correlation(ctx, region, year, xMetric, yMetric)
	if err != nil {
		h.sendDomainError(w, r, "/api/correlation", err)
		return
	}

	chart := charts.CorrelationScatter(result)
	h.metrics.RecordChartBuilt(chart.Type)

	h.metrics.RecordAPIRequest("/api/correlation", "GET", "200")
	h.sendJSON(w, CorrelationResponse{Result: result, Chart: chart}, http.StatusOK)
}

// GetTrend handles GET /api/trend
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/trend")()

	q := r.URL.Query()

	region := q.Get("region")
	district := q.Get("district")
	if region == "" || district == "" {
		h.sendError(w, r, "region and district are required", http.StatusBadRequest)
		return
	}

	metric, err := h.parseMetric(q.Get("metric"), models.MetricGPCDomestic)
	if err != nil {
		h.sendDomainError(w, r, "/api/trend", err)
		return
	}

	result, err := h.dashboard.Trend(ctx, region, district, metric)
	if err != nil {
		h.sendDomainError(w, r, "/api/trend", err)
		return
	}

	chart := charts.TrendLine(result)
	h.metrics.RecordChartBuilt(chart.Type)

	h.metrics.RecordAPIRequest("/api/trend", "GET", "200")
	h.sendJSON(w, TrendResponse{Result: result, Chart: chart}, http.StatusOK)
}

// GetComposition handles GET /api/composition
func (h *DashboardHandler) GetComposition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/composition")()

	q := r.URL.Query()

	region := q.Get("region")
	district := q.Get("district")
	if region == "" || district == "" {
		h.sendError(w, r, "region and district are required", http.StatusBadRequest)
		return
	}

	year, err := requiredInt(q.Get("year"), "year")
	if err != nil {
		h.sendDomainError(w, r, "/api/composition", err)
		return
	}

	result, err := h.dashboard.Composition(ctx, region, district, year)
	if err != nil {
		h.sendDomainError(w, r, "/api/composition", err)
		return
	}

	chart := charts.CompositionPie(result)
	h.metrics.RecordChartBuilt(chart.Type)

	h.metrics.RecordAPIRequest("/api/composition", "GET", "200")
	h.sendJSON(w, CompositionResponse{Result: result, Chart: chart}, http.StatusOK)
}

// GetArchivedRecords handles GET /api/records (archive DB only)
func (h *DashboardHandler) GetArchivedRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/records")()

	q := r.URL.Query()

	page := 1
	limit := 100
	if pageStr := q.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	filter := repository.RecordFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if region := q.Get("region"); region != "" {
		filter.Region = &region
	}
	if district := q.Get("district"); district != "" {
		filter.District = &district
	}
	if yearStr := q.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	records, total, err := h.archive.GetRecords(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_RECORDS_ERROR] Failed to get archived records", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/records")
		h.sendError(w, r, "failed to retrieve records", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/records", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetArchivedRecord handles GET /api/records/{region}/{district}/{year}
// (archive DB only)
func (h *DashboardHandler) GetArchivedRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/records/single")()

	vars := mux.Vars(r)
	year, err := requiredInt(vars["year"], "year")
	if err != nil {
		h.sendDomainError(w, r, "/api/records", err)
		return
	}

	record, err := h.archive.GetRecord(ctx, vars["region"], vars["district"], year)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.metrics.RecordAPIError("not_found", "/api/records")
			h.sendError(w, r, notFound.Error(), http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_GET_RECORD_ERROR] Failed to get archived record", logging.Fields{
			"region":   vars["region"],
			"district": vars["district"],
			"year":     year,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/records")
		h.sendError(w, r, "failed to retrieve record", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/records", "GET", "200")
	h.sendJSON(w, record, http.StatusOK)
}

// GetArchiveSummary handles GET /api/summary (archive DB only). Aggregates
// are computed in SQL over the archive, not from the in-memory table.
func (h *DashboardHandler) GetArchiveSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer h.observe("/api/summary")()

	region := r.URL.Query().Get("region")
	if region == "" {
		h.sendError(w, r, "region is required", http.StatusBadRequest)
		return
	}

	summaries, err := h.archive.YearlySummary(ctx, region)
	if err != nil {
		h.logger.Error(ctx, "[API_SUMMARY_ERROR] Failed to compute yearly summary", logging.Fields{
			"region": region,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/summary")
		h.sendError(w, r, "failed to compute summary", http.StatusInternalServerError)
		return
	}

	if len(summaries) == 0 {
		h.metrics.RecordAPIError("data_gap", "/api/summary")
		h.sendWarning(w, r, fmt.Sprintf("no archived data for region %s", models.NormalizeName(region)), http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/summary", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"region":  models.NormalizeName(region),
		"summary": summaries,
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.archive != nil {
		if err := h.archive.HealthCheck(ctx); err != nil {
			status["status"] = "degraded"
			status["archive"] = "unreachable"
		} else {
			status["archive"] = "ok"
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// RegisterRoutes registers all dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/regions", h.GetRegions).Methods("GET")
	router.HandleFunc("/api/regions/{region}/years", h.GetYears).Methods("GET")
	router.HandleFunc("/api/regions/{region}/districts", h.GetDistricts).Methods("GET")
	router.HandleFunc("/api/variation", h.GetVariation).Methods("GET")
	router.HandleFunc("/api/correlation", h.GetCorrelation).Methods("GET")
	router.HandleFunc("/api/trend", h.GetTrend).Methods("GET")
	router.HandleFunc("/api/composition", h.GetComposition).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")

	if h.archive != nil {
		router.HandleFunc("/api/records", h.GetArchivedRecords).Methods("GET")
		router.HandleFunc("/api/records/{region}/{district}/{year}", h.GetArchivedRecord).Methods("GET")
		router.HandleFunc("/api/summary", h.GetArchiveSummary).Methods("GET")
	}
}

// parseMetric resolves the metric query parameter, falling back to a
// view-specific default when absent.
func (h *DashboardHandler) parseMetric(value string, fallback models.Metric) (models.Metric, error) {
	if value == "" {
		return fallback, nil
	}
	return models.ParseMetric(value)
}

// sendDomainError maps domain error kinds onto HTTP statuses. A failure in
// one view never takes down the server; the next request starts fresh.
func (h *DashboardHandler) sendDomainError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var validationErr *models.ValidationError
	var gapErr *models.DataGapError
	var loadErr *models.LoadError

	switch {
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &gapErr):
		h.metrics.RecordAPIError("data_gap", endpoint)
		h.sendWarning(w, r, gapErr.Error(), http.StatusNotFound)
	case errors.As(err, &loadErr):
		h.logger.Error(r.Context(), "[API_LOAD_ERROR] Dataset unavailable", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("load_error", endpoint)
		h.sendError(w, r, "dataset unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal error", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// sendWarning sends a non-fatal data-gap response
func (h *DashboardHandler) sendWarning(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
		Warning: true,
	}

	h.sendJSON(w, response, statusCode)
}

func (h *DashboardHandler) observe(endpoint string) func() {
	startTime := time.Now()
	return func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}
}

func requiredInt(value, field string) (int, error) {
	if value == "" {
		return 0, &models.ValidationError{
			Field:   field,
			Value:   value,
			Message: field + " is required",
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &models.ValidationError{
			Field:   field,
			Value:   value,
			Message: "invalid " + field + ", expected integer",
		}
	}
	return n, nil
}
