package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func recordError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, err)
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrValidation, http.StatusBadRequest},
		{apperrors.ErrDuplicate, http.StatusConflict},
		{apperrors.ErrInvalidState, http.StatusConflict},
		{apperrors.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		w := recordError(fmt.Errorf("operation failed: %w", tc.err))
		assert.Equal(t, tc.status, w.Code, "for %v", tc.err)
	}
}

func TestRespondError_UnmappedErrorStaysOpaque(t *testing.T) {
	w := recordError(errors.New("pgx: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, apperrors.ErrInternal.Error()), w.Body.String())
	assert.NotContains(t, w.Body.String(), "connection refused")
}
