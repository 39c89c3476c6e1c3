package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/config"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
)

// Service is the application surface the HTTP layer drives
type Service interface {
	ExtractData(ctx context.Context, surveyIDs []string, organisationID string) (*models.ExtractionSummary, error)
	ExtractDefinitions(ctx context.Context, surveyIDs []string, organisationID string) (*models.DefinitionsSummary, error)
	TransformAndLoad(ctx context.Context, surveyIDs []string, organisationID string, forceMappings bool) (*models.TransformSummary, error)
	RunFullPipeline(ctx context.Context, surveyIDs []string, organisationID string, forceMappings bool) (*models.PipelineResult, error)
	GetStatus(ctx context.Context) *models.StatusReport
	HealthCheck(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Router builds the chi router with all pipeline routes attached
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.authMiddleware)

	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/extract-data", h.handleExtractData)
		r.Post("/extract-definitions", h.handleExtractDefinitions)
		r.Post("/transform-and-load", h.handleTransformAndLoad)
		r.Post("/full-pipeline", h.handleFullPipeline)
		r.Get("/status", h.handleStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorResponse(w, http.StatusNotFound, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

type successResponse struct {
	Success   bool        `json:"success"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

func (h *Handler) writeJSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *Handler) writeSuccessResponse(w http.ResponseWriter, data interface{}) {
	h.writeJSONResponse(w, http.StatusOK, successResponse{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
}

func (h *Handler) writeErrorResponse(w http.ResponseWriter, status int, message string) {
	h.writeJSONResponse(w, status, errorResponse{
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     message,
	})
}

// handleExtractData downloads survey responses for the requested surveys, or
// every active survey when none are named
func (h *Handler) handleExtractData(w http.ResponseWriter, r *http.Request) {
	req, err := decodePipelineRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.ExtractData(r.Context(), req.SurveyIDs, req.OrganisationID)
	if err != nil {
		log.WithError(err).Error("Data extraction failed")
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccessResponse(w, summary)
}

// handleExtractDefinitions fetches survey definitions for surveys that do not
// yet carry field mappings
func (h *Handler) handleExtractDefinitions(w http.ResponseWriter, r *http.Request) {
	req, err := decodePipelineRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.ExtractDefinitions(r.Context(), req.SurveyIDs, req.OrganisationID)
	if err != nil {
		log.WithError(err).Error("Definitions extraction failed")
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccessResponse(w, summary)
}

// handleTransformAndLoad transforms previously downloaded files and loads them
// into the database
func (h *Handler) handleTransformAndLoad(w http.ResponseWriter, r *http.Request) {
	req, err := decodePipelineRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.TransformAndLoad(r.Context(), req.SurveyIDs, req.OrganisationID, req.ForceMappingsUpdate)
	if err != nil {
		log.WithError(err).Error("Transform and load failed")
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccessResponse(w, summary)
}

// handleFullPipeline runs extraction followed by transform-and-load
func (h *Handler) handleFullPipeline(w http.ResponseWriter, r *http.Request) {
	req, err := decodePipelineRequest(r)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RunFullPipeline(r.Context(), req.SurveyIDs, req.OrganisationID, req.ForceMappingsUpdate)
	if err != nil {
		log.WithError(err).Error("Full pipeline failed")
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccessResponse(w, result)
}

// handleStatus reports survey totals and recent extraction activity
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeSuccessResponse(w, h.service.GetStatus(r.Context()))
}

// handleHealth verifies database connectivity
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HealthCheck(r.Context()); err != nil {
		log.WithError(err).Error("Health check failed")
		h.writeJSONResponse(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"database": "disconnected",
			"service":  config.AppName,
			"version":  config.AppVersion,
			"error":    err.Error(),
		})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"database": "connected",
		"service":  config.AppName,
		"version":  config.AppVersion,
	})
}
