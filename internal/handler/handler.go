package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/DentaMind/SmartDentalAI-sub016/docs"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/codec"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/service"
)

const (
	errValidation  = "validation_error"
	errNotFound    = "not_found"
	errConflict    = "conflict"
	errUnavailable = "unavailable"
	errInternal    = "internal_error"
)

// Config bounds request bodies
type Config struct {
	MaxBatchSize int
	MaxBodyBytes int64
}

type Handler struct {
	eventService  service.EventServicer
	schemaService service.SchemaServicer
	config        Config
	router        *gin.Engine
	log           *zap.Logger
}

func NewHandler(eventService service.EventServicer, schemaService service.SchemaServicer, config Config, log *zap.Logger) *Handler {
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 100
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 4 << 20
	}

	h := &Handler{
		eventService:  eventService,
		schemaService: schemaService,
		config:        config,
		router:        gin.Default(),
		log:           log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	events := h.router.Group("/api/events")
	events.POST("", h.publishEvents)
	events.GET("/stats", h.getEventStats)
	events.GET("/health", h.getHealth)
	events.GET("/archive", h.getArchiveStats)

	schema := h.router.Group("/api/schema")
	schema.GET("/stats", h.getSchemaStats)
	schema.GET("/changes", h.getSchemaChanges)
	schema.GET("/validation/stats", h.getValidationStats)
	schema.GET("/validation/errors", h.getValidationErrors)
	schema.GET("/types/:type", h.getSchemaType)
	schema.POST("/types/:type", h.registerSchemaType)
	schema.POST("/types/:type/evolve", h.evolveSchemaType)
	schema.POST("/types/:type/deactivate", h.deactivateSchemaType)
}

// healthCheck handles GET /health
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// publishEvents handles POST /api/events.
// Partial rejection is a data-level outcome and still answers 200.
// @Summary Publish an event batch
// @Description Validate an ordered batch of practice events. Each event is accepted or rejected; rejected events must not be retried.
// @Tags events
// @Accept json,application/msgpack
// @Produce json
// @Param events body []domain.Event true "Ordered event batch"
// @Success 200 {object} dto.PublishEventsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 415 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/events [post]
func (h *Handler) publishEvents(c *gin.Context) {
	wire, err := codec.ForContentType(c.ContentType())
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, dto.ErrorResponse{
			Error:   errValidation,
			Message: err.Error(),
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error:   errValidation,
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   errValidation,
			Message: err.Error(),
		})
		return
	}

	var req dto.PublishEventsRequest
	if err := wire.Unmarshal(body, &req); err != nil {
		h.log.Warn("Invalid event batch",
			zap.Error(err),
			zap.String("codec", wire.Name()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   errValidation,
			Message: "body must be an array of events: " + err.Error(),
		})
		return
	}

	if len(req) > h.config.MaxBatchSize {
		h.log.Warn("Event batch too large",
			zap.Int("event_count", len(req)),
			zap.Int("max_batch_size", h.config.MaxBatchSize))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   errValidation,
			Message: "batch exceeds the maximum batch size",
		})
		return
	}

	resp, err := h.eventService.Ingest(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Failed to ingest batch",
			zap.Error(err),
			zap.Int("event_count", len(req)))

		status, code := http.StatusInternalServerError, errInternal
		if errors.Is(err, service.ErrUnavailable) {
			status, code = http.StatusServiceUnavailable, errUnavailable
		}
		c.JSON(status, dto.ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getEventStats handles GET /api/events/stats
// @Summary Event statistics
// @Description Hourly volumes, per-type distribution and the live events per minute
// @Tags events
// @Produce json
// @Success 200 {object} stats.Snapshot
// @Router /api/events/stats [get]
func (h *Handler) getEventStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.eventService.EventStats())
}

// getHealth handles GET /api/events/health
// @Summary Traffic health
// @Description Health classification derived from the last hour of traffic
// @Tags events
// @Produce json
// @Success 200 {object} domain.HealthStatus
// @Router /api/events/health [get]
func (h *Handler) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.eventService.Health())
}

// getArchiveStats handles GET /api/events/archive
// @Summary Audit archive counters
// @Description Lifetime written, dropped and failed counts of the audit archive
// @Tags events
// @Produce json
// @Success 200 {object} archive.Stats
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/events/archive [get]
func (h *Handler) getArchiveStats(c *gin.Context) {
	archived, err := h.eventService.ArchiveStats()
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   errNotFound,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, archived)
}
