package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestFromErrorMapsStatus(t *testing.T) {
	w := run(func(c *gin.Context) {
		FromError(c, "booking not found", fmt.Errorf("load HF-1: %w", xerrors.ErrNotFound))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := body(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "booking not found", resp.Message)
	assert.Contains(t, resp.Error, "HF-1")
}

func TestInternalErrorsAreMasked(t *testing.T) {
	w := run(func(c *gin.Context) {
		FromError(c, "failed to load wallet", errors.New("pq: relation wallet_transactions does not exist"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := body(t, w)
	assert.Equal(t, xerrors.ErrInternal.Error(), resp.Error)
	assert.NotContains(t, w.Body.String(), "wallet_transactions")
}

func TestTooManyRequestsSetsRetryAfter(t *testing.T) {
	w := run(func(c *gin.Context) {
		TooManyRequests(c, "slow down", 1500*time.Millisecond)
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestSuccessDefaultsToOK(t *testing.T) {
	w := run(func(c *gin.Context) {
		Success(c, 0, "ok", gin.H{"id": "b1"})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := body(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"id": "b1"}, resp.Data)
}
