// internal/repository/postgres/booking_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hellofixo-service/internal/domain/booking"
	"hellofixo-service/internal/domain/wallet"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingSelect = `
	SELECT b.id, b.order_id, b.user_id, b.status, b.category, b.issues, b.contact, b.address,
	       b.scheduled_date::text, b.time_slot, b.media_url, b.completion_code,
	       b.inspection_fee, b.gst_amount, b.grand_total, b.discount, b.wallet_deduction,
	       b.final_amount_to_be_paid, b.final_amount_paid, b.payment_method, b.referral_code,
	       b.created_at, b.updated_at,
	       q.id, q.labor_cost, q.parts_cost, q.total_amount, q.notes, q.status,
	       q.final_amount_to_be_paid, q.created_at, q.updated_at
	FROM bookings b
	LEFT JOIN repair_quotes q ON q.booking_id = b.id
`

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		b booking.Booking
		q struct {
			ID, Notes, Status               *string
			Labor, Parts, Total, FinalToPay *float64
			CreatedAt, UpdatedAt            *time.Time
		}
	)
	err := row.Scan(
		&b.ID, &b.OrderID, &b.UserID, &b.Status, &b.Category, &b.Issues, &b.Contact, &b.Address,
		&b.ScheduledDate, &b.TimeSlot, &b.MediaURL, &b.CompletionCode,
		&b.InspectionFee, &b.GSTAmount, &b.GrandTotal, &b.Discount, &b.WalletDeduction,
		&b.FinalAmountToBePaid, &b.FinalAmountPaid, &b.PaymentMethod, &b.ReferralCode,
		&b.CreatedAt, &b.UpdatedAt,
		&q.ID, &q.Labor, &q.Parts, &q.Total, &q.Notes, &q.Status,
		&q.FinalToPay, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if q.ID != nil {
		b.Quote = &booking.RepairQuote{
			ID:                  *q.ID,
			BookingID:           b.ID,
			LaborCost:           deref(q.Labor),
			PartsCost:           deref(q.Parts),
			TotalAmount:         deref(q.Total),
			Notes:               deref(q.Notes),
			Status:              booking.QuoteStatus(deref(q.Status)),
			FinalAmountToBePaid: deref(q.FinalToPay),
			CreatedAt:           deref(q.CreatedAt),
			UpdatedAt:           deref(q.UpdatedAt),
		}
	}
	if b.Issues == nil {
		b.Issues = []booking.Issue{}
	}
	return &b, nil
}

// CreateWithWalletDebit stores the booking and the wallet debit atomically.
// The balance is re-checked under a per-user lock so two concurrent bookings
// cannot spend the same credit.
func (r *BookingRepository) CreateWithWalletDebit(ctx context.Context, b *booking.Booking, debit *wallet.Transaction) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		if debit != nil {
			if err := lockWallet(ctx, tx, debit.UserID); err != nil {
				return err
			}
			balance, err := walletBalance(ctx, tx, debit.UserID)
			if err != nil {
				return err
			}
			if balance+0.005 < debit.Amount {
				return fmt.Errorf("%w: wallet balance is lower than the deduction", xerrors.ErrUnprocessable)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (
				id, order_id, user_id, status, category, issues, contact, address,
				scheduled_date, time_slot, media_url, inspection_fee, gst_amount, grand_total,
				discount, wallet_deduction, final_amount_to_be_paid, payment_method, referral_code,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		`,
			b.ID, b.OrderID, b.UserID, b.Status, b.Category, b.Issues, b.Contact, b.Address,
			b.ScheduledDate, b.TimeSlot, b.MediaURL, b.InspectionFee, b.GSTAmount, b.GrandTotal,
			b.Discount, b.WalletDeduction, b.FinalAmountToBePaid, b.PaymentMethod, b.ReferralCode,
			b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return duplicate(err, "booking")
		}

		if debit != nil {
			if err := insertTransaction(ctx, tx, debit); err != nil {
				return err
			}
		}
		if b.ReferralCode != nil {
			if err := incrementReferralUses(ctx, tx, *b.ReferralCode); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := scanBooking(r.db.Pool().QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return b, nil
}

// List pages bookings newest first; an empty userID lists every user's.
func (r *BookingRepository) List(ctx context.Context, userID string, filters *booking.HistoryFilters) ([]*booking.Booking, int64, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argPos := 1

	if userID != "" {
		conditions = append(conditions, fmt.Sprintf("b.user_id = $%d", argPos))
		args = append(args, userID)
		argPos++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(b.status) = $%d", argPos))
		args = append(args, strings.ToLower(filters.Status))
		argPos++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bookings b WHERE %s", whereClause)
	if err := r.db.Pool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`,
		bookingSelect, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset(filters.Page, filters.PageSize))

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	out := []*booking.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// UpdateStatus sets the status and, when given, the completion code and amount paid.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status booking.Status, req *booking.UpdateStatusRequest) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE bookings
		SET status = $2,
		    completion_code = COALESCE($3, completion_code),
		    final_amount_paid = COALESCE($4, final_amount_paid),
		    updated_at = NOW()
		WHERE id = $1
	`, id, status, req.CompletionCode, req.FinalAmount)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "booking")
	}
	return nil
}

// Cancel marks a still-cancellable booking cancelled and records the refund.
func (r *BookingRepository) Cancel(ctx context.Context, id string, refund *wallet.Transaction) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bookings SET status = $2, updated_at = NOW()
			WHERE id = $1 AND LOWER(status) IN ($3, $4)
		`, id, booking.StatusCancelled, booking.StatusPending, booking.StatusConfirmed)
		if err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: booking can no longer be cancelled", xerrors.ErrConflict)
		}
		if refund != nil {
			return insertTransaction(ctx, tx, refund)
		}
		return nil
	})
}

// CreateQuote stores the quotation, replacing an earlier one, and moves the
// booking to quotation_shared.
func (r *BookingRepository) CreateQuote(ctx context.Context, q *booking.RepairQuote) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO repair_quotes (
				id, booking_id, labor_cost, parts_cost, total_amount, notes, status,
				final_amount_to_be_paid, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (booking_id) DO UPDATE SET
				id = EXCLUDED.id,
				labor_cost = EXCLUDED.labor_cost,
				parts_cost = EXCLUDED.parts_cost,
				total_amount = EXCLUDED.total_amount,
				notes = EXCLUDED.notes,
				status = EXCLUDED.status,
				final_amount_to_be_paid = EXCLUDED.final_amount_to_be_paid,
				updated_at = EXCLUDED.updated_at
		`, q.ID, q.BookingID, q.LaborCost, q.PartsCost, q.TotalAmount, q.Notes, q.Status,
			q.FinalAmountToBePaid, q.CreatedAt, q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save quotation: %w", err)
		}
		return setBookingStatus(ctx, tx, q.BookingID, booking.StatusQuotationShared)
	})
}

func (r *BookingRepository) DecideQuote(ctx context.Context, bookingID string, quote booking.QuoteStatus, status booking.Status) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE repair_quotes SET status = $2, updated_at = NOW()
			WHERE booking_id = $1 AND status = $3
		`, bookingID, quote, booking.QuoteStatusPending)
		if err != nil {
			return fmt.Errorf("failed to update quotation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: quotation already decided", xerrors.ErrConflict)
		}
		return setBookingStatus(ctx, tx, bookingID, status)
	})
}

func setBookingStatus(ctx context.Context, tx pgx.Tx, id string, status booking.Status) error {
	tag, err := tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "booking")
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
