package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/models"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/middleware"
)

// GadgetHandler handles HTTP requests for the gadget inventory.
// Every authenticated caller sees and edits the whole inventory.
type GadgetHandler struct {
	service service.GadgetService
	logger  *slog.Logger
}

// NewGadgetHandler creates a new gadget handler
func NewGadgetHandler(service service.GadgetService, logger *slog.Logger) *GadgetHandler {
	return &GadgetHandler{
		service: service,
		logger:  logger,
	}
}

// ==================== Request/Response DTOs ====================

type CreateGadgetRequest struct {
	Name   string               `json:"name" binding:"required"`
	Status *models.GadgetStatus `json:"status"`
}

type UpdateGadgetRequest struct {
	Name   *string              `json:"name" binding:"omitempty,min=1"`
	Status *models.GadgetStatus `json:"status"`
}

type DecommissionResponse struct {
	Message string         `json:"message"`
	Gadget  *models.Gadget `json:"gadget"`
}

type SelfDestructResponse struct {
	Message          string `json:"message"`
	ConfirmationCode string `json:"confirmationCode"`
}

// ==================== Handlers ====================

// List handles GET /gadgets?status=X
func (h *GadgetHandler) List(c *gin.Context) {
	var status *models.GadgetStatus
	if raw := c.Query("status"); raw != "" {
		s := models.GadgetStatus(raw)
		status = &s
	}

	reports, err := h.service.ListGadgets(c.Request.Context(), status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// Create handles POST /gadgets
func (h *GadgetHandler) Create(c *gin.Context) {
	var req CreateGadgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [GadgetHandler] Invalid create request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Gadget name required."})
		return
	}

	gadget, err := h.service.CreateGadget(c.Request.Context(), req.Name, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("📦 [GadgetHandler] Gadget created", "gadget_id", gadget.ID, "by", h.actor(c))
	c.JSON(http.StatusCreated, gadget)
}

// Update handles PATCH /gadgets/:id
func (h *GadgetHandler) Update(c *gin.Context) {
	id, ok := h.gadgetID(c)
	if !ok {
		return
	}

	var req UpdateGadgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [GadgetHandler] Invalid update request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	gadget, err := h.service.UpdateGadget(c.Request.Context(), id, service.GadgetChanges{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("📦 [GadgetHandler] Gadget updated", "gadget_id", gadget.ID, "by", h.actor(c))
	c.JSON(http.StatusOK, gadget)
}

// Decommission handles DELETE /gadgets/:id as a soft delete
func (h *GadgetHandler) Decommission(c *gin.Context) {
	id, ok := h.gadgetID(c)
	if !ok {
		return
	}

	gadget, err := h.service.DecommissionGadget(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("📦 [GadgetHandler] Gadget decommissioned", "gadget_id", gadget.ID, "by", h.actor(c))
	c.JSON(http.StatusOK, DecommissionResponse{
		Message: "Gadget decommissioned.",
		Gadget:  gadget,
	})
}

// SelfDestruct handles POST /gadgets/:id/self-destruct
func (h *GadgetHandler) SelfDestruct(c *gin.Context) {
	id, ok := h.gadgetID(c)
	if !ok {
		return
	}

	result, err := h.service.SelfDestructGadget(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.logger.Info("📦 [GadgetHandler] Gadget self-destructed", "gadget_id", result.Gadget.ID, "by", h.actor(c))
	c.JSON(http.StatusOK, SelfDestructResponse{
		Message:          fmt.Sprintf("Self-destruct sequence initiated for gadget %s.", result.Gadget.Name),
		ConfirmationCode: result.ConfirmationCode,
	})
}

// gadgetID parses the :id path parameter. Ids that are not UUIDs cannot
// exist in the store and are answered with 404.
func (h *GadgetHandler) gadgetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Gadget not found."})
		return uuid.Nil, false
	}
	return id, true
}

func (h *GadgetHandler) actor(c *gin.Context) string {
	if claims, ok := middleware.CurrentUser(c); ok {
		return claims.UserID
	}
	return ""
}

// handleServiceError maps service errors to HTTP responses
func (h *GadgetHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGadgetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Gadget not found."})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status. Expected one of Available, Deployed, Destroyed, Decommissioned."})
	default:
		h.logger.Error("❌ [GadgetHandler] Internal server error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
	}
}
