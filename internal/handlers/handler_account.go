package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/finsentry/aml_backend/internal/core/domain"
	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/finsentry/aml_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts and appeals.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	txnService     portssvc.TransactionSvcFacade
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, txnService portssvc.TransactionSvcFacade) {
	h := &accountHandler{accountService: accountService, txnService: txnService}

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.POST("/:accountID/freeze", h.freezeAccount)
		accounts.POST("/:accountID/unfreeze", h.unfreezeAccount)
		accounts.POST("/:accountID/block", h.blockAccount)
		accounts.GET("/:accountID/transactions", h.listAccountTransactions)
		accounts.POST("/:accountID/appeals", h.submitAppeal)
		accounts.GET("/:accountID/appeals", h.listAppeals)
		accounts.POST("/:accountID/appeals/resolve", h.resolveAppeal)
	}
}

// createAccount onboards a new account.
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// listAccounts returns accounts ordered by stored risk, optionally filtered by status.
func (h *accountHandler) listAccounts(c *gin.Context) {
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), domain.AccountStatus(params.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToAccountResponses(accounts)})
}

// getAccount returns a single account.
func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) freezeAccount(c *gin.Context) {
	h.statusTransition(c, h.accountService.FreezeAccount)
}

func (h *accountHandler) unfreezeAccount(c *gin.Context) {
	h.statusTransition(c, h.accountService.UnfreezeAccount)
}

func (h *accountHandler) blockAccount(c *gin.Context) {
	h.statusTransition(c, h.accountService.BlockAccount)
}

func (h *accountHandler) statusTransition(c *gin.Context, transition func(context.Context, string) error) {
	accountID := c.Param("accountID")
	if err := transition(c.Request.Context(), accountID); err != nil {
		respondError(c, err)
		return
	}
	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccountTransactions returns the account's transaction history.
func (h *accountHandler) listAccountTransactions(c *gin.Context) {
	txns, err := h.txnService.ListAccountTransactions(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": dto.ToTransactionResponses(txns)})
}

// submitAppeal opens an appeal on a frozen account.
func (h *accountHandler) submitAppeal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SubmitAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SubmitAppeal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	appeal, err := h.accountService.SubmitAppeal(c.Request.Context(), c.Param("accountID"), req.Justification)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToAppealResponse(appeal))
}

// listAppeals returns the account's appeal history.
func (h *accountHandler) listAppeals(c *gin.Context) {
	appeals, err := h.accountService.ListAppeals(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appeals": dto.ToAppealResponses(appeals)})
}

// resolveAppeal settles the account's pending appeal.
func (h *accountHandler) resolveAppeal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveAppeal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	appeal, err := h.accountService.ResolveAppeal(c.Request.Context(), c.Param("accountID"), *req.Approve, req.ReviewedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAppealResponse(appeal))
}
