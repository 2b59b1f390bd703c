// internal/handlers/wallet/wallet_handler.go
package wallet

import (
	"context"
	"net/http"

	"hellofixo-service/internal/domain/wallet"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Overview(ctx context.Context, userID string) (*wallet.Overview, error)
	Transactions(ctx context.Context, userID string, filters *wallet.TransactionFilters) (*wallet.TransactionListResponse, error)
	Credit(ctx context.Context, req *wallet.CreditRequest) (*wallet.Transaction, error)
}

type WalletHandler struct {
	service Service
	logger  *zap.Logger
}

func NewWalletHandler(service Service, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{service: service, logger: logger}
}

// Overview returns balance, latest transaction and the user's referral code.
func (h *WalletHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to load wallet", err)
		return
	}

	response.Success(c, http.StatusOK, "wallet retrieved", overview)
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	var filters wallet.TransactionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	list, err := h.service.Transactions(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list transactions", err)
		return
	}

	response.Success(c, http.StatusOK, "transactions retrieved", list)
}

// Credit adds money to a user's wallet (admin).
func (h *WalletHandler) Credit(c *gin.Context) {
	var req wallet.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	tx, err := h.service.Credit(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to credit wallet", err)
		return
	}

	adminID, _ := middleware.GetUserID(c)
	h.logger.Info("wallet credited by admin",
		zap.String("admin_id", adminID),
		zap.String("user_id", req.UserID),
		zap.Float64("amount", req.Amount),
	)
	response.Success(c, http.StatusCreated, "wallet credited", tx)
}
