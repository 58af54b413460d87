package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/cash_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/cash_ledger_app/internal/dto"
	"github.com/SscSPs/cash_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler exposes the method resolver and the maintenance operations.
type ledgerHandler struct {
	resolver         portssvc.MethodResolverSvc
	reconciler       portssvc.ReconcilerSvc
	defaultCreator   string
	reconcileTimeout time.Duration
}

func newLedgerHandler(resolver portssvc.MethodResolverSvc, reconciler portssvc.ReconcilerSvc, defaultCreator string, reconcileTimeout time.Duration) *ledgerHandler {
	return &ledgerHandler{
		resolver:         resolver,
		reconciler:       reconciler,
		defaultCreator:   defaultCreator,
		reconcileTimeout: reconcileTimeout,
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, h *ledgerHandler) {
	ledger := rg.Group("/ledger")
	{
		ledger.GET("/resolve", h.resolveAccount)
		ledger.POST("/reconcile", h.reconcile)
		ledger.GET("/verify", h.verifyBalances)
	}
}

// resolveAccount godoc
// @Summary Resolve the account of a payment method
// @Description Returns the active account a payment method posts to, falling back to the oldest active account.
// @Tags ledger
// @Produce  json
// @Param   method query string false "Payment method, e.g. efectivo"
// @Success 200 {object} dto.ResolveAccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No active account"
// @Failure 500 {object} map[string]string "Failed to resolve account"
// @Security BearerAuth
// @Router /ledger/resolve [get]
func (h *ledgerHandler) resolveAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ResolveAccountParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	accountID, err := h.resolver.ResolveAccountForMethod(c.Request.Context(), params.Method)
	if err != nil {
		respondError(c, logger.With(slog.String("method", params.Method)), err, "Failed to resolve account")
		return
	}

	c.JSON(http.StatusOK, dto.ResolveAccountResponse{Method: params.Method, AccountID: accountID})
}

// reconcile godoc
// @Summary Reconcile movement history
// @Description Backfills movements for paid sales, payments and expenses that have none, then recomputes every active account balance.
// @Description Per-record failures are listed in errors with partialFailure set; re-running retries exactly those records.
// @Tags ledger
// @Produce  json
// @Param   createdBy query string false "Creator recorded on backfilled movements whose source has none"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No active account"
// @Failure 409 {object} map[string]string "A reconciliation is already running"
// @Failure 504 {object} map[string]string "Reconciliation timed out"
// @Failure 500 {object} map[string]string "Reconciliation failed"
// @Security BearerAuth
// @Router /ledger/reconcile [post]
func (h *ledgerHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	creator := c.DefaultQuery("createdBy", h.defaultCreator)
	logger = logger.With(slog.String("user_id", userID), slog.String("created_by", creator))
	logger.Info("Reconciliation requested")

	ctx := c.Request.Context()
	if h.reconcileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.reconcileTimeout)
		defer cancel()
	}

	result, err := h.reconciler.ReconcileHistory(ctx, creator)
	if err != nil {
		respondError(c, logger, err, "Reconciliation failed")
		return
	}

	c.JSON(http.StatusOK, dto.ToReconcileResponse(result))
}

// verifyBalances godoc
// @Summary Verify account balances
// @Description Compares each account's stored balance with the sum of its movements without changing anything.
// @Tags ledger
// @Produce  json
// @Success 200 {object} dto.VerifyBalancesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to verify balances"
// @Security BearerAuth
// @Router /ledger/verify [get]
func (h *ledgerHandler) verifyBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.reconciler.VerifyBalances(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to verify balances")
		return
	}

	c.JSON(http.StatusOK, dto.ToVerifyBalancesResponse(report))
}
