package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cash_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/SscSPs/cash_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// movementHandler handles direct postings against the movement log.
type movementHandler struct {
	movementService portssvc.MovementSvcFacade
}

func newMovementHandler(ms portssvc.MovementSvcFacade) *movementHandler {
	return &movementHandler{movementService: ms}
}

func registerMovementRoutes(rg *gin.RouterGroup, movementService portssvc.MovementSvcFacade) {
	h := newMovementHandler(movementService)

	movements := rg.Group("/movements")
	{
		movements.POST("", h.postMovement)
		movements.GET("/:id", h.getMovement)
		movements.PUT("/:id", h.replaceMovement)
		movements.DELETE("/:id", h.reverseMovement)
	}
}

func bindMovementRequest(c *gin.Context, logger *slog.Logger) (*dto.CreateMovementRequest, bool) {
	var req dto.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for movement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return nil, false
	}
	return &req, true
}

// postMovement godoc
// @Summary Post a movement
// @Description Appends a movement to an account and updates its balance atomically. Overdrafts are allowed.
// @Tags movements
// @Accept  json
// @Produce  json
// @Param   movement body dto.CreateMovementRequest true "Movement details"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} map[string]string "Invalid movement"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Reference already has a movement"
// @Failure 500 {object} map[string]string "Failed to post movement"
// @Security BearerAuth
// @Router /movements [post]
func (h *movementHandler) postMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	req, ok := bindMovementRequest(c, logger)
	if !ok {
		return
	}

	draft, err := req.ToDraft(userID)
	if err != nil {
		respondError(c, logger, fmt.Errorf("%w: %v", apperrors.ErrValidation, err), "Invalid movement reference")
		return
	}

	movement, err := h.movementService.PostMovement(c.Request.Context(), draft)
	if err != nil {
		respondError(c, logger, err, "Failed to post movement")
		return
	}

	c.JSON(http.StatusCreated, dto.ToMovementResponse(movement))
}

// getMovement godoc
// @Summary Get a movement by ID
// @Tags movements
// @Produce  json
// @Param   id path string true "Movement ID"
// @Success 200 {object} dto.MovementResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Movement not found"
// @Failure 500 {object} map[string]string "Failed to retrieve movement"
// @Security BearerAuth
// @Router /movements/{id} [get]
func (h *movementHandler) getMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("id")

	movement, err := h.movementService.GetMovement(c.Request.Context(), movementID)
	if err != nil {
		respondError(c, logger.With(slog.String("movement_id", movementID)), err, "Failed to retrieve movement")
		return
	}

	c.JSON(http.StatusOK, dto.ToMovementResponse(movement))
}

// replaceMovement godoc
// @Summary Replace a movement
// @Description Corrects a movement: the original is reversed and the replacement posted in one transaction.
// @Tags movements
// @Accept  json
// @Produce  json
// @Param   id path string true "Movement ID"
// @Param   movement body dto.CreateMovementRequest true "Replacement movement"
// @Success 200 {object} dto.MovementResponse
// @Failure 400 {object} map[string]string "Invalid movement"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Movement or account not found"
// @Failure 500 {object} map[string]string "Failed to replace movement"
// @Security BearerAuth
// @Router /movements/{id} [put]
func (h *movementHandler) replaceMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("id")
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}
	req, ok := bindMovementRequest(c, logger)
	if !ok {
		return
	}

	draft, err := req.ToDraft(userID)
	if err != nil {
		respondError(c, logger, fmt.Errorf("%w: %v", apperrors.ErrValidation, err), "Invalid movement reference")
		return
	}

	logger = logger.With(slog.String("movement_id", movementID))
	movement, err := h.movementService.ReplaceMovement(c.Request.Context(), movementID, draft)
	if err != nil {
		respondError(c, logger, err, "Failed to replace movement")
		return
	}

	c.JSON(http.StatusOK, dto.ToMovementResponse(movement))
}

// reverseMovement godoc
// @Summary Reverse a movement
// @Description Deletes a movement and reverts its effect on the account balance.
// @Tags movements
// @Produce  json
// @Param   id path string true "Movement ID"
// @Success 200 {object} dto.MovementResponse "The removed movement"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Movement not found"
// @Failure 500 {object} map[string]string "Failed to reverse movement"
// @Security BearerAuth
// @Router /movements/{id} [delete]
func (h *movementHandler) reverseMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	movementID := c.Param("id")
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("movement_id", movementID))
	removed, err := h.movementService.ReverseMovement(c.Request.Context(), movementID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse movement")
		return
	}

	c.JSON(http.StatusOK, dto.ToMovementResponse(removed))
}
