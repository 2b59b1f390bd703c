// internal/service/booking/deps.go
package booking

import (
	"context"
	"errors"
	"time"

	"hellofixo-service/internal/domain/booking"
	"hellofixo-service/internal/domain/catalog"
	"hellofixo-service/internal/domain/location"
	"hellofixo-service/internal/domain/referral"
	"hellofixo-service/internal/domain/wallet"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"
)

var (
	ErrNotServiceable   = errors.New("we do not serve this pincode yet")
	ErrInvalidStep      = errors.New("booking can only be submitted from the payment step")
	ErrSubmitInProgress = errors.New("booking submission already in progress")
	ErrAlreadySubmitted = errors.New("booking already submitted")
	ErrNotCancellable   = errors.New("booking can no longer be cancelled")
	ErrNoPendingQuote   = errors.New("no quotation awaiting approval")
)

// unprocessable tags a domain error so it maps to 422.
func unprocessable(err error) error {
	return &domainError{err: err, kind: xerrors.ErrUnprocessable}
}

func conflict(err error) error {
	return &domainError{err: err, kind: xerrors.ErrConflict}
}

type domainError struct {
	err  error
	kind error
}

func (e *domainError) Error() string { return e.err.Error() }

func (e *domainError) Unwrap() []error { return []error{e.err, e.kind} }

// DraftStore persists drafts between requests.
type DraftStore interface {
	Save(ctx context.Context, d *booking.Draft) error
	Load(ctx context.Context, id string) (*booking.Draft, error)
	AcquireSubmitLock(ctx context.Context, id string) (bool, error)
	ReleaseSubmitLock(ctx context.Context, id string) error
}

// Repository persists submitted bookings and their quotes.
type Repository interface {
	CreateWithWalletDebit(ctx context.Context, b *booking.Booking, debit *wallet.Transaction) error
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
	List(ctx context.Context, userID string, filters *booking.HistoryFilters) ([]*booking.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, status booking.Status, req *booking.UpdateStatusRequest) error
	Cancel(ctx context.Context, id string, refund *wallet.Transaction) error
	CreateQuote(ctx context.Context, q *booking.RepairQuote) error
	DecideQuote(ctx context.Context, bookingID string, quote booking.QuoteStatus, status booking.Status) error
}

type CategoryReader interface {
	GetCategory(ctx context.Context, slug, lang string) (*catalog.ServiceCategory, error)
}

type LocationResolver interface {
	Resolve(ctx context.Context, pincode string) (*location.Location, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*location.ReverseGeocodeResult, error)
}

type ReferralVerifier interface {
	Verify(ctx context.Context, userID, code, phone string) (referral.Result, error)
}

type WalletReader interface {
	Balance(ctx context.Context, userID string) (float64, error)
}

// Notifier pushes realtime events to a user.
type Notifier interface {
	Notify(userID string, eventType wstypes.EventType, data interface{})
}

// IST is the timezone schedule dates are interpreted in.
var IST = time.FixedZone("IST", 5*3600+30*60)
