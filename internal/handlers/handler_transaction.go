package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/finsentry/aml_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests related to transaction screening.
type transactionHandler struct {
	txnService portssvc.TransactionSvcFacade
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, txnService portssvc.TransactionSvcFacade) {
	h := &transactionHandler{txnService: txnService}

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.evaluateTransaction)
		transactions.GET("/flagged", h.listFlaggedTransactions)
	}
}

// evaluateTransaction screens a candidate transaction and returns the decision.
func (h *transactionHandler) evaluateTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EvaluateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EvaluateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	decision, err := h.txnService.EvaluateTransaction(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, decision)
}

// listFlaggedTransactions returns every transaction held for compliance review.
func (h *transactionHandler) listFlaggedTransactions(c *gin.Context) {
	txns, err := h.txnService.ListFlaggedTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": dto.ToTransactionResponses(txns)})
}
