// internal/handlers/pricing/estimate_handler.go
package pricing

import (
	"context"
	"net/http"

	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"
	pricingUsecase "hellofixo-service/internal/service/pricing"

	"github.com/gin-gonic/gin"
)

type Estimator interface {
	Estimate(ctx context.Context, req *pricingUsecase.EstimateRequest) (*pricingUsecase.EstimateResponse, error)
}

type EstimateHandler struct {
	estimator Estimator
}

func NewEstimateHandler(estimator Estimator) *EstimateHandler {
	return &EstimateHandler{estimator: estimator}
}

// Estimate prices a category and problem selection, optionally for a pincode.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req pricingUsecase.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	req.Lang = middleware.RequestLang(c)

	estimate, err := h.estimator.Estimate(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to estimate price", err)
		return
	}

	response.Success(c, http.StatusOK, "estimate calculated", estimate)
}
