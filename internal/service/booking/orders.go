// internal/service/booking/orders.go
package booking

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"hellofixo-service/internal/domain/booking"
	"hellofixo-service/internal/domain/wallet"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

func normalizePaging(f *booking.HistoryFilters) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.Status != "" {
		f.Status = string(booking.NormalizeStatus(f.Status))
	}
}

// History lists the user's bookings, newest first.
func (s *BookingService) History(ctx context.Context, userID string, filters *booking.HistoryFilters) (*booking.BookingListResponse, error) {
	return s.list(ctx, userID, filters)
}

// AdminList lists every booking.
func (s *BookingService) AdminList(ctx context.Context, filters *booking.HistoryFilters) (*booking.BookingListResponse, error) {
	return s.list(ctx, "", filters)
}

func (s *BookingService) list(ctx context.Context, userID string, filters *booking.HistoryFilters) (*booking.BookingListResponse, error) {
	if filters == nil {
		filters = &booking.HistoryFilters{}
	}
	normalizePaging(filters)

	rows, total, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		s.logger.Error("failed to list bookings", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if rows == nil {
		rows = []*booking.Booking{}
	}

	return &booking.BookingListResponse{
		Bookings:   rows,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filters.PageSize))),
	}, nil
}

// Get returns a booking only to its owner; others see not found.
func (s *BookingService) Get(ctx context.Context, userID, bookingID string) (*booking.Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, xerrors.ErrNotFound)
	}
	return b, nil
}

func (s *BookingService) AdminGet(ctx context.Context, bookingID string) (*booking.Booking, error) {
	return s.repo.GetByID(ctx, bookingID)
}

// Cancel cancels a pending or confirmed booking and refunds any wallet amount used.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (*booking.Booking, error) {
	b, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.Cancellable() {
		return nil, unprocessable(ErrNotCancellable)
	}

	var refund *wallet.Transaction
	if b.WalletDeduction > 0 {
		note := "Refund for cancelled order " + b.OrderID
		refund = &wallet.Transaction{
			ID:        uuid.NewString(),
			UserID:    b.UserID,
			Type:      wallet.TransactionCredit,
			Source:    wallet.SourceRefund,
			Note:      &note,
			Amount:    b.WalletDeduction,
			BookingID: &b.ID,
			CreatedAt: time.Now().UTC(),
		}
	}

	if err := s.repo.Cancel(ctx, b.ID, refund); err != nil {
		s.logger.Error("failed to cancel booking", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}

	previous := b.Status
	b.Status = booking.StatusCancelled
	s.logger.Info("booking cancelled",
		zap.String("booking_id", b.ID),
		zap.String("user_id", userID),
		zap.Float64("refund", b.WalletDeduction),
	)
	s.notify(b, previous)
	return b, nil
}

// DecideQuote approves or rejects the shared repair quotation.
func (s *BookingService) DecideQuote(ctx context.Context, userID, bookingID string, approve bool) (*booking.Booking, error) {
	b, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.Is(booking.StatusQuotationShared) || b.Quote == nil {
		return nil, unprocessable(ErrNoPendingQuote)
	}

	quoteStatus, status := booking.QuoteStatusRejected, booking.StatusQuotationRejected
	if approve {
		quoteStatus, status = booking.QuoteStatusApproved, booking.StatusQuotationApproved
	}

	if err := s.repo.DecideQuote(ctx, b.ID, quoteStatus, status); err != nil {
		s.logger.Error("failed to record quote decision", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}

	previous := b.Status
	b.Status = status
	b.Quote.Status = quoteStatus
	s.logger.Info("quotation decided",
		zap.String("booking_id", b.ID),
		zap.Bool("approved", approve),
	)
	s.notify(b, previous)
	return b, nil
}

// UpdateStatus sets any status, including ones this service does not know.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID string, req *booking.UpdateStatusRequest) (*booking.Booking, error) {
	status := booking.NormalizeStatus(req.Status)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", xerrors.ErrInvalidInput)
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if req.CompletionCode != nil {
		code := strings.TrimSpace(*req.CompletionCode)
		req.CompletionCode = &code
	}
	if err := s.repo.UpdateStatus(ctx, b.ID, status, req); err != nil {
		s.logger.Error("failed to update booking status", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}

	previous := b.Status
	b.Status = status
	if req.CompletionCode != nil {
		b.CompletionCode = req.CompletionCode
	}
	if req.FinalAmount != nil {
		b.FinalAmountPaid = req.FinalAmount
	}
	if !status.IsKnown() {
		s.logger.Warn("booking moved to unrecognised status", zap.String("booking_id", b.ID), zap.String("status", string(status)))
	}
	s.logger.Info("booking status updated",
		zap.String("booking_id", b.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	s.notify(b, previous)
	return b, nil
}

// ShareQuote attaches a repair quotation and asks the customer to decide.
func (s *BookingService) ShareQuote(ctx context.Context, bookingID string, req *booking.ShareQuoteRequest) (*booking.Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Is(booking.StatusCancelled) || b.Status.Is(booking.StatusCompleted) {
		return nil, fmt.Errorf("%w: booking is %s", xerrors.ErrUnprocessable, b.Status)
	}

	total := math.Round(req.LaborCost + req.PartsCost)
	if total <= 0 {
		return nil, fmt.Errorf("%w: quotation total must be positive", xerrors.ErrInvalidInput)
	}

	now := time.Now().UTC()
	q := &booking.RepairQuote{
		ID:                  uuid.NewString(),
		BookingID:           b.ID,
		LaborCost:           req.LaborCost,
		PartsCost:           req.PartsCost,
		TotalAmount:         total,
		Notes:               strings.TrimSpace(req.Notes),
		Status:              booking.QuoteStatusPending,
		FinalAmountToBePaid: total,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.CreateQuote(ctx, q); err != nil {
		s.logger.Error("failed to share quotation", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}

	previous := b.Status
	b.Status = booking.StatusQuotationShared
	b.Quote = q
	s.notify(b, previous)
	if s.notifier != nil {
		s.notifier.Notify(b.UserID, wstypes.EventTypeQuoteShared, wstypes.QuoteData{
			BookingID:   b.ID,
			QuoteID:     q.ID,
			TotalAmount: q.TotalAmount,
		})
	}
	return b, nil
}
