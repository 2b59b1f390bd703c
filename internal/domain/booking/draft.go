// internal/domain/booking/draft.go
package booking

import (
	"fmt"
	"strings"
	"time"

	"hellofixo-service/internal/domain/location"
	"hellofixo-service/internal/domain/referral"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/validate"
)

// FormState is the submission state of a draft.
type FormState string

const (
	FormIdle       FormState = "idle"
	FormFilling    FormState = "filling"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
	FormError      FormState = "error"
)

// Step is the index of the current form step.
type Step int

const (
	StepContact Step = iota
	StepAddress
	StepPhoto
	StepSchedule
	StepPayment
)

var stepNames = [...]string{"contact", "address", "photo", "schedule", "payment"}

func (s Step) String() string {
	if s < StepContact || s > StepPayment {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// MarshalText renders steps by name in JSON.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the step names produced by MarshalText.
func (s *Step) UnmarshalText(b []byte) error {
	for i, name := range stepNames {
		if name == string(b) {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", string(b))
}

// ValidationError is a field-level input error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return xerrors.ErrInvalidInput
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Draft is the server-held state of the multi-step booking form.
type Draft struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	CategoryID    int64             `json:"category_id"`
	CategorySlug  string            `json:"category_slug"`
	ProblemIDs    []int64           `json:"problem_ids"`
	Location      location.Location `json:"location"`
	Contact       Contact           `json:"contact"`
	Address       Address           `json:"address"`
	MediaURL      string            `json:"media_url,omitempty"`
	MediaObject   string            `json:"media_object,omitempty"`
	ScheduledDate string            `json:"scheduled_date,omitempty"`
	TimeSlot      string            `json:"time_slot,omitempty"`
	PaymentMethod PaymentMethod     `json:"payment_method,omitempty"`
	Referral      referral.Result   `json:"referral"`
	UseWallet     bool              `json:"use_wallet"`
	Step          Step              `json:"step"`
	State         FormState         `json:"state"`
	Error         string            `json:"error,omitempty"`
	BookingID     string            `json:"booking_id,omitempty"`
	OrderID       string            `json:"order_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Rev counts saves; a save based on an older revision is rejected.
	Rev int64 `json:"rev"`
}

// ErrStaleDraft is returned when the draft changed after it was loaded.
var ErrStaleDraft = fmt.Errorf("%w: booking draft was changed by another request, reload and retry", xerrors.ErrConflict)

// Locked reports whether the draft no longer accepts edits.
func (d *Draft) Locked() bool {
	return d.State == FormSubmitting || d.State == FormSuccess
}

// Touch marks a field edit: idle or error drafts move to filling.
func (d *Draft) Touch(now time.Time) error {
	if d.Locked() {
		return fmt.Errorf("%w: booking is already %s", xerrors.ErrConflict, d.State)
	}
	d.State = FormFilling
	d.Error = ""
	d.UpdatedAt = now
	return nil
}

// ToggleProblem adds id to the selection if absent, otherwise removes it.
func (d *Draft) ToggleProblem(id int64) {
	for i, existing := range d.ProblemIDs {
		if existing == id {
			d.ProblemIDs = append(d.ProblemIDs[:i:i], d.ProblemIDs[i+1:]...)
			return
		}
	}
	d.ProblemIDs = append(d.ProblemIDs, id)
}

// HasProblem reports whether id is selected.
func (d *Draft) HasProblem(id int64) bool {
	for _, existing := range d.ProblemIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Next validates the current step and advances to the following one.
func (d *Draft) Next(now time.Time) error {
	if d.Step >= StepPayment {
		return fmt.Errorf("%w: already on the last step", xerrors.ErrInvalidInput)
	}
	if err := d.ValidateStep(d.Step, now); err != nil {
		return err
	}
	d.Step++
	d.UpdatedAt = now
	return nil
}

// Back returns to the previous step; it never goes below the first step.
func (d *Draft) Back(now time.Time) {
	if d.Step > StepContact {
		d.Step--
	}
	d.UpdatedAt = now
}

// ValidateStep checks the required fields of one step.
func (d *Draft) ValidateStep(step Step, now time.Time) error {
	switch step {
	case StepContact:
		if strings.TrimSpace(d.Contact.Name) == "" {
			return invalid("contact.name", "name is required")
		}
		if !validate.Phone(d.Contact.Phone) {
			return invalid("contact.phone", "enter a valid 10-digit mobile number")
		}
		if d.Contact.AltPhone != "" && !validate.Phone(d.Contact.AltPhone) {
			return invalid("contact.alt_phone", "enter a valid 10-digit mobile number")
		}
	case StepAddress:
		if strings.TrimSpace(d.Address.Line1) == "" {
			return invalid("address.line1", "address is required")
		}
		if !validate.Pincode(d.Address.Pincode) {
			return invalid("address.pincode", "enter a valid 6-digit pincode")
		}
		if d.Address.Pincode != d.Location.Pincode {
			return invalid("address.pincode", "address pincode does not match the checked pincode")
		}
	case StepPhoto:
		// photo is optional
	case StepSchedule:
		if err := ValidateSchedule(d.ScheduledDate, d.TimeSlot, now); err != nil {
			return err
		}
	case StepPayment:
		if !d.PaymentMethod.Valid() {
			return invalid("payment_method", "choose a payment method")
		}
	default:
		return fmt.Errorf("%w: unknown step %d", xerrors.ErrInvalidInput, int(step))
	}
	return nil
}

// ValidateAll checks every step, used before submission.
func (d *Draft) ValidateAll(now time.Time) error {
	if len(d.ProblemIDs) == 0 {
		return invalid("problem_ids", "select at least one problem")
	}
	for s := StepContact; s <= StepPayment; s++ {
		if err := d.ValidateStep(s, now); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSchedule checks a YYYY-MM-DD date that is not in the past and a known slot.
func ValidateSchedule(date, slot string, now time.Time) error {
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return invalid("scheduled_date", "date must be YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return invalid("scheduled_date", "date cannot be in the past")
	}
	for _, s := range TimeSlots {
		if s == slot {
			return nil
		}
	}
	return invalid("time_slot", "choose one of the available slots")
}
