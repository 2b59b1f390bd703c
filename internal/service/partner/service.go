// internal/service/partner/service.go
package partner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"hellofixo-service/internal/domain/catalog"
	"hellofixo-service/internal/domain/partner"
	wstypes "hellofixo-service/internal/domain/websocket"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotEditable     = errors.New("application is under review")
	ErrNotReviewStep   = errors.New("application can only be submitted from the review step")
	ErrNotUnderReview  = errors.New("application is not awaiting review")
	ErrAlreadyApproved = errors.New("application already approved")
)

// Repository stores onboarding applications. Review updates the application
// and, when promote is set, the applicant's role in one transaction.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*partner.Application, error)
	GetByID(ctx context.Context, id string) (*partner.Application, error)
	Create(ctx context.Context, a *partner.Application) error
	Update(ctx context.Context, a *partner.Application) error
	List(ctx context.Context, filters *partner.ApplicationFilters) ([]*partner.Application, int64, error)
	Review(ctx context.Context, a *partner.Application, promote bool) error
}

type CategoryLister interface {
	ListCategories(ctx context.Context, lang string) ([]catalog.ServiceCategory, error)
}

type Notifier interface {
	Notify(userID string, eventType wstypes.EventType, data interface{})
}

type PartnerService struct {
	repo       Repository
	categories CategoryLister
	files      storage.Store
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewPartnerService(repo Repository, categories CategoryLister, files storage.Store, notifier Notifier, logger *zap.Logger) *PartnerService {
	if files == nil {
		files = storage.Disabled{}
	}
	return &PartnerService{
		repo:       repo,
		categories: categories,
		files:      files,
		notifier:   notifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Current returns the user's application, opening a draft prefilled with
// their email when none exists.
func (s *PartnerService) Current(ctx context.Context, userID, email string) (*partner.Application, error) {
	a, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	a = &partner.Application{
		ID:        uuid.NewString(),
		UserID:    userID,
		Step:      partner.StepPersonal,
		Status:    partner.StatusDraft,
		Email:     email,
		Skills:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("failed to create partner application", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("partner application opened", zap.String("application_id", a.ID), zap.String("user_id", userID))
	return a, nil
}

func (s *PartnerService) UpdatePersonal(ctx context.Context, userID string, req *partner.PersonalRequest) (*partner.Application, error) {
	return s.edit(ctx, userID, func(a *partner.Application) error {
		a.FullName = strings.TrimSpace(req.FullName)
		a.Phone = strings.TrimSpace(req.Phone)
		a.Email = strings.TrimSpace(req.Email)
		a.City = strings.TrimSpace(req.City)
		a.Pincode = strings.TrimSpace(req.Pincode)
		a.ExperienceYears = req.ExperienceYears
		return nil
	})
}

// UpdateSkills replaces the skill list; each skill must be an active category slug.
func (s *PartnerService) UpdateSkills(ctx context.Context, userID string, req *partner.SkillsRequest) (*partner.Application, error) {
	categories, err := s.categories.ListCategories(ctx, "")
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.Slug] = true
	}

	seen := make(map[string]bool, len(req.Skills))
	skills := make([]string, 0, len(req.Skills))
	for _, raw := range req.Skills {
		slug := strings.ToLower(strings.TrimSpace(raw))
		if !known[slug] {
			return nil, fmt.Errorf("%w: unknown skill %q", xerrors.ErrInvalidInput, raw)
		}
		if !seen[slug] {
			seen[slug] = true
			skills = append(skills, slug)
		}
	}
	sort.Strings(skills)

	return s.edit(ctx, userID, func(a *partner.Application) error {
		a.Skills = skills
		return nil
	})
}

// UploadDocument stores an identity document, replacing any earlier one.
func (s *PartnerService) UploadDocument(ctx context.Context, userID, contentType string, r io.Reader) (*partner.Application, error) {
	return s.edit(ctx, userID, func(a *partner.Application) error {
		obj, err := s.files.Upload(ctx, "partners/"+userID, contentType, r)
		switch {
		case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge):
			return fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
		case errors.Is(err, storage.ErrDisabled):
			return fmt.Errorf("%w: %v", xerrors.ErrUnprocessable, err)
		case err != nil:
			s.logger.Error("document upload failed", zap.String("application_id", a.ID), zap.Error(err))
			return fmt.Errorf("%w: document upload failed", xerrors.ErrUpstream)
		}

		if a.IDProofObject != nil && *a.IDProofObject != "" {
			if err := s.files.Delete(ctx, *a.IDProofObject); err != nil {
				s.logger.Warn("failed to delete replaced document", zap.String("object", *a.IDProofObject), zap.Error(err))
			}
		}
		a.IDProofURL = &obj.URL
		a.IDProofObject = &obj.Name
		return nil
	})
}

func (s *PartnerService) Next(ctx context.Context, userID string) (*partner.Application, error) {
	return s.edit(ctx, userID, func(a *partner.Application) error {
		return a.Next()
	})
}

func (s *PartnerService) Back(ctx context.Context, userID string) (*partner.Application, error) {
	return s.edit(ctx, userID, func(a *partner.Application) error {
		a.Back()
		return nil
	})
}

// Submit sends the application for review. The applicant keeps their role
// until an admin approves it.
func (s *PartnerService) Submit(ctx context.Context, userID string) (*partner.Application, error) {
	a, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.Editable() {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrConflict, ErrNotEditable)
	}
	if a.Step != partner.StepReview {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnprocessable, ErrNotReviewStep)
	}
	if err := a.ValidateAll(); err != nil {
		return nil, err
	}

	now := s.now()
	a.Status = partner.StatusSubmitted
	a.ReviewNote = nil
	a.SubmittedAt = &now
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("partner application submitted", zap.String("application_id", a.ID), zap.String("user_id", userID))
	return a, nil
}

// AdminList pages through applications, newest first.
func (s *PartnerService) AdminList(ctx context.Context, filters *partner.ApplicationFilters) (*partner.ApplicationListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	apps, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &partner.ApplicationListResponse{
		Applications: apps,
		Total:        total,
		Page:         filters.Page,
		PageSize:     filters.PageSize,
		TotalPages:   int(math.Ceil(float64(total) / float64(filters.PageSize))),
	}, nil
}

func (s *PartnerService) AdminGet(ctx context.Context, id string) (*partner.Application, error) {
	return s.repo.GetByID(ctx, id)
}

// Review approves or rejects a submitted application. Approval promotes the
// applicant to the partner role; rejection reopens the form for edits.
func (s *PartnerService) Review(ctx context.Context, adminID, id string, req *partner.ReviewRequest) (*partner.Application, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case partner.StatusApproved:
		return nil, fmt.Errorf("%w: %v", xerrors.ErrConflict, ErrAlreadyApproved)
	case partner.StatusSubmitted:
	default:
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnprocessable, ErrNotUnderReview)
	}

	a.Status = partner.StatusRejected
	if req.Approve {
		a.Status = partner.StatusApproved
	}
	a.ReviewNote = nil
	if note := strings.TrimSpace(req.Note); note != "" {
		a.ReviewNote = &note
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Review(ctx, a, req.Approve); err != nil {
		s.logger.Error("failed to review partner application", zap.String("application_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("partner application reviewed",
		zap.String("application_id", a.ID),
		zap.String("admin_id", adminID),
		zap.String("status", string(a.Status)),
	)
	if s.notifier != nil {
		data := wstypes.PartnerReviewData{ApplicationID: a.ID, Status: string(a.Status)}
		if a.ReviewNote != nil {
			data.Note = *a.ReviewNote
		}
		s.notifier.Notify(a.UserID, wstypes.EventTypePartnerReviewed, data)
	}
	return a, nil
}

// edit loads the user's application, applies fn and saves it. A rejected
// application returns to draft on its first edit.
func (s *PartnerService) edit(ctx context.Context, userID string, fn func(a *partner.Application) error) (*partner.Application, error) {
	a, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.Editable() {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrConflict, ErrNotEditable)
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	a.Status = partner.StatusDraft
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
