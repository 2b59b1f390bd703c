// internal/service/wallet/service.go
package wallet

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"hellofixo-service/internal/domain/referral"
	"hellofixo-service/internal/domain/wallet"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repository stores wallet transactions.
type Repository interface {
	Balance(ctx context.Context, userID string) (float64, error)
	Latest(ctx context.Context, userID string) (*wallet.Transaction, error)
	List(ctx context.Context, userID string, filters *wallet.TransactionFilters) ([]*wallet.Transaction, int64, error)
	Create(ctx context.Context, tx *wallet.Transaction) error
}

// ReferralCodes finds the code a user shares with friends.
type ReferralCodes interface {
	FindByOwner(ctx context.Context, userID string) (*referral.Code, error)
}

type Notifier interface {
	Notify(userID string, eventType wstypes.EventType, data interface{})
}

type WalletService struct {
	repo     Repository
	codes    ReferralCodes
	notifier Notifier
	logger   *zap.Logger
}

func NewWalletService(repo Repository, codes ReferralCodes, notifier Notifier, logger *zap.Logger) *WalletService {
	return &WalletService{
		repo:     repo,
		codes:    codes,
		notifier: notifier,
		logger:   logger,
	}
}

// Balance is the sum of credits minus debits, never below zero.
func (s *WalletService) Balance(ctx context.Context, userID string) (float64, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	return math.Max(balance, 0), nil
}

// Overview reads balance, latest transaction and referral code concurrently.
func (s *WalletService) Overview(ctx context.Context, userID string) (*wallet.Overview, error) {
	var (
		out    wallet.Overview
		latest *wallet.Transaction
		code   *referral.Code
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.Balance(gctx, userID)
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}
		out.Balance = balance
		return nil
	})
	g.Go(func() error {
		tx, err := s.repo.Latest(gctx, userID)
		if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("latest transaction: %w", err)
		}
		latest = tx
		return nil
	})
	g.Go(func() error {
		c, err := s.codes.FindByOwner(gctx, userID)
		if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("referral code: %w", err)
		}
		code = c
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load wallet overview", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	out.LatestTransaction = latest
	if code != nil && code.Active {
		out.ReferralCode = code.Code
		out.ReferralDiscount = code.Discount
	}
	return &out, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID string, filters *wallet.TransactionFilters) (*wallet.TransactionListResponse, error) {
	if filters == nil {
		filters = &wallet.TransactionFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	rows, total, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*wallet.Transaction{}
	}
	return &wallet.TransactionListResponse{
		Transactions: rows,
		Total:        total,
		Page:         filters.Page,
		PageSize:     filters.PageSize,
		TotalPages:   int(math.Ceil(float64(total) / float64(filters.PageSize))),
	}, nil
}

// Credit adds money to a user's wallet.
func (s *WalletService) Credit(ctx context.Context, req *wallet.CreditRequest) (*wallet.Transaction, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", xerrors.ErrInvalidInput)
	}
	source := req.Source
	if source == "" {
		source = wallet.SourceAdmin
	}

	tx := &wallet.Transaction{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      wallet.TransactionCredit,
		Source:    source,
		Amount:    math.Round(req.Amount*100) / 100,
		CreatedAt: time.Now().UTC(),
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		tx.Note = &note
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		s.logger.Error("failed to credit wallet", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("wallet credited",
		zap.String("user_id", req.UserID),
		zap.Float64("amount", tx.Amount),
		zap.String("source", source),
	)
	if s.notifier != nil {
		balance, err := s.Balance(ctx, req.UserID)
		if err != nil {
			s.logger.Warn("failed to read balance after credit", zap.Error(err))
		}
		s.notifier.Notify(req.UserID, wstypes.EventTypeWalletCredited, wstypes.WalletCreditData{
			Amount:  tx.Amount,
			Source:  source,
			Balance: balance,
		})
	}
	return tx, nil
}
