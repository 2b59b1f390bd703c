// internal/handlers/referral/referral_handler.go
package referral

import (
	"context"
	"net/http"

	"hellofixo-service/internal/domain/referral"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Verifier interface {
	Verify(ctx context.Context, userID, code, phone string) (referral.Result, error)
}

type ReferralHandler struct {
	verifier Verifier
}

func NewReferralHandler(verifier Verifier) *ReferralHandler {
	return &ReferralHandler{verifier: verifier}
}

// Verify checks a referral code. Rejected codes still answer 200 with status "error".
func (h *ReferralHandler) Verify(c *gin.Context) {
	var req referral.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	result, err := h.verifier.Verify(c.Request.Context(), userID, req.Code, req.Phone)
	if err != nil {
		response.FromError(c, "failed to verify referral code", err)
		return
	}

	response.Success(c, http.StatusOK, result.Message, result)
}
