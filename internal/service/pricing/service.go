// internal/service/pricing/service.go
package pricing

import (
	"context"
	"fmt"

	"hellofixo-service/internal/domain/catalog"
	"hellofixo-service/internal/domain/location"
	xerrors "hellofixo-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// CategoryReader loads a category with its problems.
type CategoryReader interface {
	GetCategory(ctx context.Context, slug, lang string) (*catalog.ServiceCategory, error)
}

// LocationResolver resolves a pincode to its serviceability and multipliers.
type LocationResolver interface {
	Resolve(ctx context.Context, pincode string) (*location.Location, error)
}

type EstimateRequest struct {
	CategorySlug string  `json:"category_slug" binding:"required"`
	ProblemIDs   []int64 `json:"problem_ids"`
	Pincode      string  `json:"pincode" binding:"omitempty,len=6,numeric"`
	Lang         string  `json:"-"`
}

type EstimateResponse struct {
	Estimate
	Location *location.Location `json:"location,omitempty"`
}

type PricingService struct {
	categories CategoryReader
	locations  LocationResolver
	logger     *zap.Logger
}

func NewPricingService(categories CategoryReader, locations LocationResolver, logger *zap.Logger) *PricingService {
	return &PricingService{
		categories: categories,
		locations:  locations,
		logger:     logger,
	}
}

// Estimate prices a public quote request. Without a pincode the neutral
// multipliers apply.
func (s *PricingService) Estimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error) {
	category, err := s.categories.GetCategory(ctx, req.CategorySlug, req.Lang)
	if err != nil {
		return nil, err
	}

	problems, err := SelectProblems(category, req.ProblemIDs)
	if err != nil {
		return nil, err
	}

	in := Input{
		BaseInspectionFee:    category.BaseInspectionFee,
		InspectionMultiplier: 1,
		RepairMultiplier:     1,
		Problems:             problems,
	}

	resp := &EstimateResponse{}
	if req.Pincode != "" {
		loc, err := s.locations.Resolve(ctx, req.Pincode)
		if err != nil {
			return nil, err
		}
		resp.Location = loc
		if loc.IsServiceable {
			in.InspectionMultiplier = loc.InspectionMultiplier
			in.RepairMultiplier = loc.RepairMultiplier
		}
	}

	resp.Estimate = Calculate(in)
	s.logger.Debug("estimate computed",
		zap.String("category", category.Slug),
		zap.Int("problems", len(problems)),
		zap.Float64("grand_total", resp.GrandTotal),
	)
	return resp, nil
}

// SelectProblems resolves ids against the category, keeping the request order.
func SelectProblems(category *catalog.ServiceCategory, ids []int64) ([]catalog.Problem, error) {
	out := make([]catalog.Problem, 0, len(ids))
	for _, id := range ids {
		p, ok := category.FindProblem(id)
		if !ok {
			return nil, fmt.Errorf("%w: problem %d does not belong to %s", xerrors.ErrInvalidInput, id, category.Slug)
		}
		out = append(out, p)
	}
	return out, nil
}
