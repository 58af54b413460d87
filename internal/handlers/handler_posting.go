package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cash_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/SscSPs/cash_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// postingHandler posts the movement of a business event when it happens.
type postingHandler struct {
	postingService portssvc.PostingSvcFacade
}

func newPostingHandler(ps portssvc.PostingSvcFacade) *postingHandler {
	return &postingHandler{postingService: ps}
}

func registerPostingRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade) {
	h := newPostingHandler(postingService)

	postings := rg.Group("/postings")
	{
		postings.POST("/sales/:id", h.postSale)
		postings.POST("/expenses/:id", h.postExpense)
		postings.POST("/payment-records/:id", h.postPaymentRecord)
		postings.POST("/withdrawals", h.registerWithdrawal)
	}
}

type postFunc func(ctx context.Context, id string, userID string) (*domain.Movement, error)

func (h *postingHandler) postSource(c *gin.Context, source string, post postFunc) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceID := c.Param("id")
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("source", source), slog.String("source_id", sourceID))
	movement, err := post(c.Request.Context(), sourceID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post "+source)
		return
	}

	logger.Info("Business event posted", slog.String("movement_id", movement.MovementID))
	c.JSON(http.StatusCreated, dto.ToMovementResponse(movement))
}

// postSale godoc
// @Summary Post a paid sale
// @Description Records the incoming movement of a paid, non-credit sale on the account of its payment method.
// @Tags postings
// @Produce  json
// @Param   id path string true "Sale ID"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} map[string]string "Sale is on credit or unpaid"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Sale or account not found"
// @Failure 409 {object} map[string]string "Sale already posted"
// @Failure 500 {object} map[string]string "Failed to post sale"
// @Security BearerAuth
// @Router /postings/sales/{id} [post]
func (h *postingHandler) postSale(c *gin.Context) {
	h.postSource(c, "sale", h.postingService.PostSale)
}

// postExpense godoc
// @Summary Post an expense
// @Description Records the outgoing movement of an expense paid at creation time.
// @Tags postings
// @Produce  json
// @Param   id path string true "Expense ID"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} map[string]string "Expense is tracked as an account payable"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense or account not found"
// @Failure 409 {object} map[string]string "Expense already posted"
// @Failure 500 {object} map[string]string "Failed to post expense"
// @Security BearerAuth
// @Router /postings/expenses/{id} [post]
func (h *postingHandler) postExpense(c *gin.Context) {
	h.postSource(c, "expense", h.postingService.PostExpense)
}

// postPaymentRecord godoc
// @Summary Post a receivable or payable payment
// @Description Records a receivable payment as incoming and a payable payment as outgoing.
// @Tags postings
// @Produce  json
// @Param   id path string true "Payment record ID"
// @Success 201 {object} dto.MovementResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment record or account not found"
// @Failure 409 {object} map[string]string "Payment already posted"
// @Failure 500 {object} map[string]string "Failed to post payment record"
// @Security BearerAuth
// @Router /postings/payment-records/{id} [post]
func (h *postingHandler) postPaymentRecord(c *gin.Context) {
	h.postSource(c, "payment record", h.postingService.PostPaymentRecord)
}

// registerWithdrawal godoc
// @Summary Register a partner withdrawal
// @Description Posts money taken out by a partner. Withdrawals above the balance are posted and flagged.
// @Tags postings
// @Accept  json
// @Produce  json
// @Param   withdrawal body dto.RegisterWithdrawalRequest true "Withdrawal details"
// @Success 201 {object} dto.WithdrawalResponse
// @Failure 400 {object} map[string]string "Invalid withdrawal"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No active account"
// @Failure 500 {object} map[string]string "Failed to register withdrawal"
// @Security BearerAuth
// @Router /postings/withdrawals [post]
func (h *postingHandler) registerWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RegisterWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("partner_id", req.PartnerID), slog.String("user_id", userID))
	result, err := h.postingService.RegisterWithdrawal(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to register withdrawal")
		return
	}

	c.JSON(http.StatusCreated, dto.ToWithdrawalResponse(result))
}
