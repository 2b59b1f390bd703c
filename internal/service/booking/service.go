// internal/service/booking/service.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"hellofixo-service/internal/domain/booking"
	"hellofixo-service/internal/domain/catalog"
	"hellofixo-service/internal/domain/referral"
	"hellofixo-service/internal/domain/wallet"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/metrics"
	"hellofixo-service/internal/pkg/storage"
	"hellofixo-service/internal/service/pricing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Deps groups the collaborators of BookingService.
type Deps struct {
	Drafts     DraftStore
	Repo       Repository
	Categories CategoryReader
	Locations  LocationResolver
	Referrals  ReferralVerifier
	Wallets    WalletReader
	Files      storage.Store
	Notifier   Notifier
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

type BookingService struct {
	drafts     DraftStore
	repo       Repository
	categories CategoryReader
	locations  LocationResolver
	referrals  ReferralVerifier
	wallets    WalletReader
	files      storage.Store
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewBookingService(d Deps) *BookingService {
	files := d.Files
	if files == nil {
		files = storage.Disabled{}
	}
	return &BookingService{
		drafts:     d.Drafts,
		repo:       d.Repo,
		categories: d.Categories,
		locations:  d.Locations,
		referrals:  d.Referrals,
		wallets:    d.Wallets,
		files:      files,
		notifier:   d.Notifier,
		metrics:    d.Metrics,
		logger:     d.Logger,
		now:        func() time.Time { return time.Now().In(IST) },
	}
}

// DraftView is a draft with its live price summary.
type DraftView struct {
	*booking.Draft
	Estimate      pricing.Estimate `json:"estimate"`
	WalletBalance float64          `json:"wallet_balance"`
	TimeSlots     []string         `json:"time_slots"`
}

// NewOrderID returns a customer-facing order reference.
func NewOrderID() string {
	return "HF-" + ulid.Make().String()
}

// StartDraft opens a booking for a serviceable pincode.
func (s *BookingService) StartDraft(ctx context.Context, userID string, req *booking.StartDraftRequest) (*DraftView, error) {
	loc, err := s.locations.Resolve(ctx, req.Pincode)
	if err != nil {
		return nil, err
	}
	if !loc.IsServiceable {
		msg := loc.Message
		if msg == "" {
			msg = ErrNotServiceable.Error()
		}
		return nil, fmt.Errorf("%w: %s", unprocessable(ErrNotServiceable), msg)
	}

	category, err := s.categories.GetCategory(ctx, req.CategorySlug, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &booking.Draft{
		ID:           uuid.NewString(),
		UserID:       userID,
		CategoryID:   category.ID,
		CategorySlug: category.Slug,
		Location:     *loc,
		Address: booking.Address{
			Pincode:  loc.Pincode,
			City:     loc.City,
			District: loc.Area.District,
			State:    loc.Area.State,
		},
		Referral:  referral.Result{Status: referral.StatusIdle},
		Step:      booking.StepContact,
		State:     booking.FormIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, id := range req.ProblemIDs {
		if _, ok := category.FindProblem(id); !ok {
			return nil, fmt.Errorf("%w: problem %d does not belong to %s", xerrors.ErrInvalidInput, id, category.Slug)
		}
		if !d.HasProblem(id) {
			d.ToggleProblem(id)
		}
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		s.logger.Error("failed to save draft", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("booking draft started",
		zap.String("draft_id", d.ID),
		zap.String("user_id", userID),
		zap.String("category", d.CategorySlug),
		zap.String("pincode", loc.Pincode),
	)
	return s.view(ctx, d)
}

// GetDraft returns a draft owned by userID with its price summary.
func (s *BookingService) GetDraft(ctx context.Context, userID, draftID string) (*DraftView, error) {
	d, err := s.loadOwned(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, d)
}

func (s *BookingService) ToggleProblem(ctx context.Context, userID, draftID string, problemID int64) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		category, err := s.categories.GetCategory(ctx, d.CategorySlug, "")
		if err != nil {
			return err
		}
		if _, ok := category.FindProblem(problemID); !ok {
			return fmt.Errorf("%w: problem %d does not belong to %s", xerrors.ErrInvalidInput, problemID, category.Slug)
		}
		d.ToggleProblem(problemID)
		return nil
	})
}

func (s *BookingService) UpdateContact(ctx context.Context, userID, draftID string, req *booking.ContactRequest) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		d.Contact = booking.Contact{
			Name:     strings.TrimSpace(req.Name),
			Phone:    strings.TrimSpace(req.Phone),
			AltPhone: strings.TrimSpace(req.AltPhone),
		}
		return nil
	})
}

func (s *BookingService) UpdateAddress(ctx context.Context, userID, draftID string, req *booking.AddressRequest) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		d.Address.Line1 = strings.TrimSpace(req.Line1)
		d.Address.Line2 = strings.TrimSpace(req.Line2)
		d.Address.Landmark = strings.TrimSpace(req.Landmark)
		d.Address.Pincode = strings.TrimSpace(req.Pincode)
		if req.Latitude != nil && req.Longitude != nil {
			d.Address.Latitude = req.Latitude
			d.Address.Longitude = req.Longitude
		}
		return nil
	})
}

// LocateAddress fills the address from a single reverse-geocoding lookup.
func (s *BookingService) LocateAddress(ctx context.Context, userID, draftID string, req *booking.LocateRequest) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		res, err := s.locations.ReverseGeocode(ctx, req.Latitude, req.Longitude)
		if err != nil {
			return err
		}
		lat, lng := res.Latitude, res.Longitude
		d.Address.Line1 = res.Line1
		d.Address.Line2 = res.Locality
		if res.Pincode != "" {
			d.Address.Pincode = res.Pincode
		}
		if res.City != "" {
			d.Address.City = res.City
		}
		if res.District != "" {
			d.Address.District = res.District
		}
		if res.State != "" {
			d.Address.State = res.State
		}
		d.Address.Latitude = &lat
		d.Address.Longitude = &lng
		return nil
	})
}

// AttachPhoto uploads a photo of the problem, replacing any earlier one.
func (s *BookingService) AttachPhoto(ctx context.Context, userID, draftID, contentType string, r io.Reader) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		obj, err := s.files.Upload(ctx, "bookings/"+userID, contentType, r)
		switch {
		case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge):
			return fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
		case errors.Is(err, storage.ErrDisabled):
			return fmt.Errorf("%w: %v", xerrors.ErrUnprocessable, err)
		case err != nil:
			s.logger.Error("photo upload failed", zap.String("draft_id", d.ID), zap.Error(err))
			return fmt.Errorf("%w: photo upload failed", xerrors.ErrUpstream)
		}

		if d.MediaObject != "" {
			if err := s.files.Delete(ctx, d.MediaObject); err != nil {
				s.logger.Warn("failed to delete replaced photo", zap.String("object", d.MediaObject), zap.Error(err))
			}
		}
		d.MediaURL = obj.URL
		d.MediaObject = obj.Name
		return nil
	})
}

func (s *BookingService) UpdateSchedule(ctx context.Context, userID, draftID string, req *booking.ScheduleRequest) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		if err := booking.ValidateSchedule(req.ScheduledDate, req.TimeSlot, s.now()); err != nil {
			return err
		}
		d.ScheduledDate = req.ScheduledDate
		d.TimeSlot = req.TimeSlot
		return nil
	})
}

func (s *BookingService) SetPayment(ctx context.Context, userID, draftID string, req *booking.PaymentRequest) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		if !req.PaymentMethod.Valid() {
			return &booking.ValidationError{Field: "payment_method", Message: "choose a payment method"}
		}
		d.PaymentMethod = req.PaymentMethod
		d.UseWallet = req.UseWallet
		return nil
	})
}

// ApplyReferral verifies code against the draft's contact phone. Rejected
// codes are recorded on the draft with a zero discount.
func (s *BookingService) ApplyReferral(ctx context.Context, userID, draftID, code string) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		if d.Contact.Phone == "" {
			return &booking.ValidationError{Field: "contact.phone", Message: "add a contact number before applying a referral code"}
		}
		res, err := s.referrals.Verify(ctx, userID, code, d.Contact.Phone)
		if err != nil {
			return err
		}
		d.Referral = res
		return nil
	})
}

func (s *BookingService) RemoveReferral(ctx context.Context, userID, draftID string) (*DraftView, error) {
	return s.edit(ctx, userID, draftID, func(d *booking.Draft) error {
		d.Referral = referral.Result{Status: referral.StatusIdle}
		return nil
	})
}

// Next validates the current step and moves forward.
func (s *BookingService) Next(ctx context.Context, userID, draftID string) (*DraftView, error) {
	return s.navigate(ctx, userID, draftID, func(d *booking.Draft) error {
		return d.Next(s.now())
	})
}

// Back moves to the previous step; it stays on the first step.
func (s *BookingService) Back(ctx context.Context, userID, draftID string) (*DraftView, error) {
	return s.navigate(ctx, userID, draftID, func(d *booking.Draft) error {
		d.Back(s.now())
		return nil
	})
}

// Submit turns the draft into a pending booking. It runs only from the
// payment step and only once; a failure leaves the draft in the error state
// with its fields intact.
func (s *BookingService) Submit(ctx context.Context, userID, draftID string) (*booking.SubmitResponse, error) {
	d, err := s.loadOwned(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if d.State == booking.FormSuccess {
		return nil, conflict(ErrAlreadySubmitted)
	}
	if d.Step != booking.StepPayment {
		return nil, unprocessable(ErrInvalidStep)
	}

	locked, err := s.drafts.AcquireSubmitLock(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, conflict(ErrSubmitInProgress)
	}
	defer func() {
		if err := s.drafts.ReleaseSubmitLock(context.WithoutCancel(ctx), d.ID); err != nil {
			s.logger.Warn("failed to release submit lock", zap.String("draft_id", d.ID), zap.Error(err))
		}
	}()

	// a concurrent submit or edit may have landed between load and lock
	d, err = s.drafts.Load(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	if d.State == booking.FormSuccess {
		return nil, conflict(ErrAlreadySubmitted)
	}
	if d.Step != booking.StepPayment {
		return nil, unprocessable(ErrInvalidStep)
	}

	now := s.now()
	if err := d.ValidateAll(now); err != nil {
		s.fail(ctx, d, err)
		return nil, err
	}

	d.State = booking.FormSubmitting
	d.Error = ""
	d.UpdatedAt = now
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	b, debit, err := s.buildBooking(ctx, d)
	if err != nil {
		s.fail(ctx, d, err)
		return nil, err
	}

	if err := s.repo.CreateWithWalletDebit(ctx, b, debit); err != nil {
		s.logger.Error("failed to persist booking",
			zap.String("draft_id", d.ID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.fail(ctx, d, err)
		return nil, err
	}

	d.State = booking.FormSuccess
	d.BookingID = b.ID
	d.OrderID = b.OrderID
	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d); err != nil {
		s.logger.Warn("booking created but draft not updated", zap.String("booking_id", b.ID), zap.Error(err))
	}

	s.countSubmit("success")
	s.logger.Info("booking submitted",
		zap.String("booking_id", b.ID),
		zap.String("order_id", b.OrderID),
		zap.String("user_id", userID),
		zap.Float64("final_amount", b.FinalAmountToBePaid),
	)
	s.notify(b, "")

	return &booking.SubmitResponse{BookingID: b.ID, OrderID: b.OrderID}, nil
}

func (s *BookingService) buildBooking(ctx context.Context, d *booking.Draft) (*booking.Booking, *wallet.Transaction, error) {
	category, problems, err := s.selection(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	est, _, err := s.estimate(ctx, d, category, problems)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	b := &booking.Booking{
		ID:                  uuid.NewString(),
		OrderID:             NewOrderID(),
		UserID:              d.UserID,
		Status:              booking.StatusPending,
		Category:            booking.CategoryRef{ID: category.ID, Slug: category.Slug, Name: category.Name},
		Contact:             d.Contact,
		Address:             d.Address,
		ScheduledDate:       d.ScheduledDate,
		TimeSlot:            d.TimeSlot,
		InspectionFee:       est.InspectionFee,
		GSTAmount:           est.GSTAmount,
		GrandTotal:          est.GrandTotal,
		Discount:            est.Discount,
		WalletDeduction:     est.WalletDeduction,
		FinalAmountToBePaid: est.FinalPayable,
		PaymentMethod:       d.PaymentMethod,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, p := range problems {
		b.Issues = append(b.Issues, booking.Issue{ProblemID: p.ID, Name: p.Name, EstimatedPrice: p.EstimatedPrice})
	}
	if d.MediaURL != "" {
		url := d.MediaURL
		b.MediaURL = &url
	}
	if d.Referral.Valid() {
		code := d.Referral.Code
		b.ReferralCode = &code
	}

	var debit *wallet.Transaction
	if est.WalletDeduction > 0 {
		note := "Used for order " + b.OrderID
		debit = &wallet.Transaction{
			ID:        uuid.NewString(),
			UserID:    d.UserID,
			Type:      wallet.TransactionDebit,
			Source:    wallet.SourceBooking,
			Note:      &note,
			Amount:    est.WalletDeduction,
			BookingID: &b.ID,
			CreatedAt: now,
		}
	}
	return b, debit, nil
}

// selection loads the draft's category and selected problems.
func (s *BookingService) selection(ctx context.Context, d *booking.Draft) (*catalog.ServiceCategory, []catalog.Problem, error) {
	category, err := s.categories.GetCategory(ctx, d.CategorySlug, "")
	if err != nil {
		return nil, nil, err
	}
	problems, err := pricing.SelectProblems(category, d.ProblemIDs)
	if err != nil {
		return nil, nil, err
	}
	return category, problems, nil
}

// estimate prices the draft; the wallet balance is read only when the
// customer opted to use it.
func (s *BookingService) estimate(ctx context.Context, d *booking.Draft, category *catalog.ServiceCategory, problems []catalog.Problem) (pricing.Estimate, float64, error) {
	var balance float64
	if d.UseWallet && s.wallets != nil {
		b, err := s.wallets.Balance(ctx, d.UserID)
		if err != nil {
			return pricing.Estimate{}, 0, err
		}
		balance = b
	}

	discount := 0.0
	if d.Referral.Valid() {
		discount = d.Referral.Discount
	}

	est := pricing.Calculate(pricing.Input{
		BaseInspectionFee:    category.BaseInspectionFee,
		InspectionMultiplier: d.Location.InspectionMultiplier,
		RepairMultiplier:     d.Location.RepairMultiplier,
		Problems:             problems,
		Discount:             discount,
		WalletDeduction:      balance,
	})
	return est, balance, nil
}

func (s *BookingService) view(ctx context.Context, d *booking.Draft) (*DraftView, error) {
	category, problems, err := s.selection(ctx, d)
	if err != nil {
		return nil, err
	}
	est, balance, err := s.estimate(ctx, d, category, problems)
	if err != nil {
		return nil, err
	}
	return &DraftView{Draft: d, Estimate: est, WalletBalance: balance, TimeSlots: booking.TimeSlots}, nil
}

// edit applies a field change; the draft moves to filling. The save is
// conditional on the revision loaded here, so an edit that overlaps a
// submission fails with booking.ErrStaleDraft instead of reopening the draft.
func (s *BookingService) edit(ctx context.Context, userID, draftID string, fn func(d *booking.Draft) error) (*DraftView, error) {
	d, err := s.loadOwned(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if err := d.Touch(s.now()); err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return s.view(ctx, d)
}

func (s *BookingService) navigate(ctx context.Context, userID, draftID string, fn func(d *booking.Draft) error) (*DraftView, error) {
	d, err := s.loadOwned(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}
	if d.Locked() {
		return nil, fmt.Errorf("%w: booking is already %s", xerrors.ErrConflict, d.State)
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return s.view(ctx, d)
}

func (s *BookingService) loadOwned(ctx context.Context, userID, draftID string) (*booking.Draft, error) {
	d, err := s.drafts.Load(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, fmt.Errorf("draft %s: %w", draftID, xerrors.ErrNotFound)
	}
	return d, nil
}

// fail records a submission failure on the draft for redisplay.
func (s *BookingService) fail(ctx context.Context, d *booking.Draft, cause error) {
	s.countSubmit("failure")
	d.State = booking.FormError
	d.Error = userMessage(cause)
	d.UpdatedAt = s.now()
	if err := s.drafts.Save(context.WithoutCancel(ctx), d); err != nil {
		s.logger.Error("failed to record submission failure", zap.String("draft_id", d.ID), zap.Error(err))
	}
}

func userMessage(err error) string {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case xerrors.Is(err, xerrors.ErrConflict):
		return "Your booking could not be placed: " + err.Error()
	default:
		return "We could not place your booking. Please try again."
	}
}

func (s *BookingService) countSubmit(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsCreated.WithLabelValues(outcome).Inc()
	}
}

func (s *BookingService) notify(b *booking.Booking, previous booking.Status) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(b.UserID, wstypes.EventTypeBookingStatus, wstypes.BookingStatusData{
		BookingID: b.ID,
		OrderID:   b.OrderID,
		Status:    string(booking.NormalizeStatus(string(b.Status))),
		Previous:  string(previous),
	})
}
