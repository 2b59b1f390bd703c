package referral

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hellofixo-service/internal/domain/referral"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	userID string
}

func (f *fakeVerifier) Verify(_ context.Context, userID, code, _ string) (referral.Result, error) {
	f.userID = userID
	if code == "WELCOME" {
		return referral.Result{Code: code, Status: referral.StatusSuccess, Discount: 100}, nil
	}
	return referral.Result{Code: code, Status: referral.StatusError, Message: "Invalid referral code"}, nil
}

func TestVerify(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &fakeVerifier{}
	r := gin.New()
	r.POST("/referrals/verify", func(c *gin.Context) { c.Set("user_id", "u1") }, NewReferralHandler(f).Verify)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/referrals/verify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"referral_code":"WELCOME","mobile_number":"9876543210"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"discount":100`)
	assert.Equal(t, "u1", f.userID)

	w = post(`{"referral_code":"NOPE","mobile_number":"9876543210"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.Contains(t, w.Body.String(), "Invalid referral code")

	assert.Equal(t, http.StatusBadRequest, post(`{"mobile_number":"9876543210"}`).Code)
}
