package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/registry"
)

// getSchemaStats handles GET /api/schema/stats
// @Summary Schema registry statistics
// @Description Registered types, versions and recent schema activity
// @Tags schema
// @Produce json
// @Success 200 {object} dto.SchemaStatsResponse
// @Router /api/schema/stats [get]
func (h *Handler) getSchemaStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.schemaService.SchemaStats())
}

// getSchemaChanges handles GET /api/schema/changes
// @Summary Schema change log
// @Description Registry mutations in the order they were applied
// @Tags schema
// @Produce json
// @Param query query dto.ListQuery false "Filter and limit"
// @Success 200 {object} dto.SchemaChangesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/schema/changes [get]
func (h *Handler) getSchemaChanges(c *gin.Context) {
	var query dto.ListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	c.JSON(http.StatusOK, h.schemaService.Changes(query))
}

// getValidationStats handles GET /api/schema/validation/stats
// @Summary Validation statistics
// @Description Validation totals and hourly outcomes
// @Tags schema
// @Produce json
// @Success 200 {object} dto.ValidationStatsResponse
// @Router /api/schema/validation/stats [get]
func (h *Handler) getValidationStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.schemaService.ValidationStats())
}

// getValidationErrors handles GET /api/schema/validation/errors
// @Summary Recent validation errors
// @Description Recent validation errors with payload snapshots, newest first
// @Tags schema
// @Produce json
// @Param query query dto.ListQuery false "Filter and limit"
// @Success 200 {object} dto.ValidationErrorsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/schema/validation/errors [get]
func (h *Handler) getValidationErrors(c *gin.Context) {
	var query dto.ListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	c.JSON(http.StatusOK, h.schemaService.ValidationErrors(query))
}

// getSchemaType handles GET /api/schema/types/:type
// @Summary Schema versions of a type
// @Description Version history and active version of one event type
// @Tags schema
// @Produce json
// @Param type path string true "Event type"
// @Success 200 {object} dto.SchemaTypeResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/schema/types/{type} [get]
func (h *Handler) getSchemaType(c *gin.Context) {
	resp, err := h.schemaService.SchemaType(c.Param("type"))
	if err != nil {
		h.registryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// registerSchemaType handles POST /api/schema/types/:type
// @Summary Register a schema
// @Description Register an explicit field spec for a type with no history
// @Tags schema
// @Accept json
// @Produce json
// @Param type path string true "Event type"
// @Param fields body dto.SchemaFieldsRequest true "Field spec"
// @Success 201 {object} domain.SchemaVersion
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/schema/types/{type} [post]
func (h *Handler) registerSchemaType(c *gin.Context) {
	var req dto.SchemaFieldsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	version, err := h.schemaService.Register(c.Param("type"), req.Fields)
	if err != nil {
		h.registryError(c, err)
		return
	}

	h.log.Info("Schema registered by operator",
		zap.String("event_type", version.EventType),
		zap.Int("version", version.Version))

	c.JSON(http.StatusCreated, version)
}

// evolveSchemaType handles POST /api/schema/types/:type/evolve
// @Summary Evolve a schema
// @Description Replace the active version with a new one
// @Tags schema
// @Accept json
// @Produce json
// @Param type path string true "Event type"
// @Param fields body dto.SchemaFieldsRequest true "Field spec"
// @Success 200 {object} domain.SchemaVersion
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/schema/types/{type}/evolve [post]
func (h *Handler) evolveSchemaType(c *gin.Context) {
	var req dto.SchemaFieldsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	version, err := h.schemaService.Evolve(c.Param("type"), req.Fields)
	if err != nil {
		h.registryError(c, err)
		return
	}

	h.log.Info("Schema evolved by operator",
		zap.String("event_type", version.EventType),
		zap.Int("version", version.Version))

	c.JSON(http.StatusOK, version)
}

// deactivateSchemaType handles POST /api/schema/types/:type/deactivate
// @Summary Deactivate a schema
// @Description Retire the active version; later events of the type are rejected
// @Tags schema
// @Produce json
// @Param type path string true "Event type"
// @Success 200 {object} domain.SchemaVersion
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/schema/types/{type}/deactivate [post]
func (h *Handler) deactivateSchemaType(c *gin.Context) {
	version, err := h.schemaService.Deactivate(c.Param("type"))
	if err != nil {
		h.registryError(c, err)
		return
	}

	h.log.Info("Schema deactivated by operator",
		zap.String("event_type", version.EventType),
		zap.Int("version", version.Version))

	c.JSON(http.StatusOK, version)
}

func (h *Handler) bindQuery(c *gin.Context, query *dto.ListQuery) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		h.log.Warn("Invalid list query", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   errValidation,
			Message: err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) bindJSON(c *gin.Context, req *dto.SchemaFieldsRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Warn("Invalid schema request",
			zap.Error(err),
			zap.String("event_type", c.Param("type")))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   errValidation,
			Message: err.Error(),
		})
		return false
	}
	return true
}

// registryError maps registry sentinel errors to HTTP statuses
func (h *Handler) registryError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, errInternal
	switch {
	case errors.Is(err, registry.ErrTypeNotRegistered):
		status, code = http.StatusNotFound, errNotFound
	case errors.Is(err, registry.ErrTypeExists), errors.Is(err, registry.ErrTypeRetired):
		status, code = http.StatusConflict, errConflict
	case errors.Is(err, registry.ErrInvalidFieldSpec), errors.Is(err, registry.ErrInvalidTypeName):
		status, code = http.StatusBadRequest, errValidation
	default:
		h.log.Error("Schema operation failed",
			zap.Error(err),
			zap.String("event_type", c.Param("type")))
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
