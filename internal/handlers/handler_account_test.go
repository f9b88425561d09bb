package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/finsentry/aml_backend/internal/core/services"
	"github.com/finsentry/aml_backend/internal/dto"
	"github.com/finsentry/aml_backend/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphFacade struct {
	*services.SubgraphService
	*services.RingService
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterCustomValidators())

	store := memory.NewLedgerStore()
	subgraphSvc := services.NewSubgraphService(store)
	ringSvc := services.NewRingService(store, services.DefaultRingDetectorConfig())
	riskSvc := services.NewRiskService(store, subgraphSvc, services.DefaultRiskConfig())
	policySvc := services.NewPolicyService(store, services.DefaultPolicyConfig())
	txnSvc := services.NewTransactionService(store, riskSvc, policySvc, services.DefaultScreeningThresholds())
	accountSvc := services.NewAccountService(store)

	r := gin.New()
	RegisterRoutes(r, &portssvc.ServiceContainer{
		Graph:       graphFacade{subgraphSvc, ringSvc},
		Risk:        riskSvc,
		Policy:      policySvc,
		Transaction: txnSvc,
		Account:     accountSvc,
	})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAccountEndpoints(t *testing.T) {
	r := newTestRouter(t)

	// Create
	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		AccountID: "ACC1", Name: "Dana", RiskScore: 0.2,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate id conflicts
	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		AccountID: "ACC1", Name: "Dana",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing required fields is a bad request
	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts", map[string]any{"name": "NoID"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Fetch
	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/ACC1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acc dto.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
	assert.Equal(t, "ACC1", acc.AccountID)
	assert.Equal(t, "ACTIVE", string(acc.Status))

	// Unknown account is 404
	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/GHOST", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFreezeAndAppealEndpoints(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{AccountID: "ACC1", Name: "Dana"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Appeal on an active account conflicts
	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts/ACC1/appeals", dto.SubmitAppealRequest{Justification: "reinstate"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Freeze, then appeal
	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts/ACC1/freeze", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts/ACC1/appeals", dto.SubmitAppealRequest{Justification: "false positive"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Resolve with approval reinstates the account
	approve := true
	w = doJSON(t, r, http.MethodPost, "/api/v1/accounts/ACC1/appeals/resolve", dto.ResolveAppealRequest{Approve: &approve, ReviewedBy: "analyst-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/ACC1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acc dto.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
	assert.Equal(t, "ACTIVE", string(acc.Status))

	// History shows the resolved appeal
	w = doJSON(t, r, http.MethodGet, "/api/v1/accounts/ACC1/appeals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var appealsResp struct {
		Appeals []dto.AppealResponse `json:"appeals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appealsResp))
	require.Len(t, appealsResp.Appeals, 1)
	assert.Equal(t, "APPROVED", string(appealsResp.Appeals[0].Status))
}

func TestTransactionAndFraudEndpoints(t *testing.T) {
	r := newTestRouter(t)
	for _, acc := range []dto.CreateAccountRequest{
		{AccountID: "SRC", Name: "Source", Balance: decimal.NewFromInt(100000)},
		{AccountID: "DST", Name: "Target"},
	} {
		w := doJSON(t, r, http.MethodPost, "/api/v1/accounts", acc)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// Approved transfer
	w := doJSON(t, r, http.MethodPost, "/api/v1/transactions", map[string]any{
		"sourceAccountID": "SRC", "targetAccountID": "DST", "amount": 2500,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var decision dto.TransactionDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, "APPROVED", string(decision.Status))
	assert.Equal(t, "Transaction approved", decision.Message)

	// Large transfer gets flagged and shows up in the flagged list
	w = doJSON(t, r, http.MethodPost, "/api/v1/transactions", map[string]any{
		"sourceAccountID": "SRC", "targetAccountID": "DST", "amount": 60000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/transactions/flagged", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var flaggedResp struct {
		Transactions []dto.TransactionResponse `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flaggedResp))
	require.Len(t, flaggedResp.Transactions, 1)

	// Invalid currency code is rejected at binding
	w = doJSON(t, r, http.MethodPost, "/api/v1/transactions", map[string]any{
		"sourceAccountID": "SRC", "targetAccountID": "DST", "amount": 100, "currency": "usd!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Fraud surfaces
	w = doJSON(t, r, http.MethodGet, "/api/v1/fraud/score/SRC", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/fraud/subgraph/SRC?depth=2", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/fraud/subgraph/SRC?depth=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/fraud/rings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
