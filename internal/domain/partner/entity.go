// internal/domain/partner/entity.go
package partner

import (
	"fmt"
	"strings"
	"time"

	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/validate"

	"github.com/lib/pq"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Step is the index of the onboarding form step.
type Step int

const (
	StepPersonal Step = iota
	StepSkills
	StepDocuments
	StepReview
)

var stepNames = [...]string{"personal", "skills", "documents", "review"}

func (s Step) String() string {
	if s < StepPersonal || s > StepReview {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Application is a technician's onboarding application.
type Application struct {
	ID              string         `json:"id" db:"id"`
	UserID          string         `json:"user_id" db:"user_id"`
	Step            Step           `json:"step" db:"step"`
	Status          Status         `json:"status" db:"status"`
	FullName        string         `json:"full_name" db:"full_name"`
	Phone           string         `json:"phone" db:"phone"`
	Email           string         `json:"email" db:"email"`
	City            string         `json:"city" db:"city"`
	Pincode         string         `json:"pincode" db:"pincode"`
	ExperienceYears int            `json:"experience_years" db:"experience_years"`
	Skills          pq.StringArray `json:"skills" db:"skills"`
	IDProofURL      *string        `json:"id_proof_url,omitempty" db:"id_proof_url"`
	IDProofObject   *string        `json:"-" db:"id_proof_object"`
	ReviewNote      *string        `json:"review_note,omitempty" db:"review_note"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty" db:"submitted_at"`
}

// Editable reports whether the applicant may still change fields.
func (a *Application) Editable() bool {
	return a.Status == StatusDraft || a.Status == StatusRejected
}

// ValidateStep checks the fields collected on the current step.
func (a *Application) ValidateStep() error {
	switch a.Step {
	case StepPersonal:
		switch {
		case strings.TrimSpace(a.FullName) == "":
			return invalid("full_name", "enter your full name")
		case !validate.Phone(a.Phone):
			return invalid("phone", "enter a valid 10-digit mobile number")
		case !strings.Contains(a.Email, "@"):
			return invalid("email", "enter a valid email address")
		case strings.TrimSpace(a.City) == "":
			return invalid("city", "enter the city you work in")
		case !validate.Pincode(a.Pincode):
			return invalid("pincode", "enter a valid 6-digit pincode")
		case a.ExperienceYears < 0:
			return invalid("experience_years", "experience cannot be negative")
		}
	case StepSkills:
		if len(a.Skills) == 0 {
			return invalid("skills", "pick at least one skill")
		}
	case StepDocuments:
		if a.IDProofURL == nil || *a.IDProofURL == "" {
			return invalid("id_proof", "upload an identity document")
		}
	}
	return nil
}

// ValidateAll checks every step, used before submission.
func (a *Application) ValidateAll() error {
	current := a.Step
	defer func() { a.Step = current }()
	for s := StepPersonal; s < StepReview; s++ {
		a.Step = s
		if err := a.ValidateStep(); err != nil {
			return err
		}
	}
	return nil
}

// Next validates the current step and advances; review is the last step.
func (a *Application) Next() error {
	if a.Step >= StepReview {
		return fmt.Errorf("%w: already on the review step", xerrors.ErrUnprocessable)
	}
	if err := a.ValidateStep(); err != nil {
		return err
	}
	a.Step++
	return nil
}

// Back moves one step back, staying on the first step.
func (a *Application) Back() {
	if a.Step > StepPersonal {
		a.Step--
	}
}

func invalid(field, msg string) error {
	return fmt.Errorf("%w: %s: %s", xerrors.ErrInvalidInput, field, msg)
}
