// internal/service/location/service.go
package location

import (
	"context"
	"fmt"
	"strings"

	"hellofixo-service/internal/domain/location"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/metrics"
	"hellofixo-service/internal/pkg/validate"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

const unverifiedMessage = "Unable to verify this pincode"

// AreaLookup resolves a pincode to its post office area.
type AreaLookup interface {
	LookupPincode(ctx context.Context, pincode string) (*location.Area, error)
}

// Geocoder turns a GPS fix into an address.
type Geocoder interface {
	Reverse(ctx context.Context, pt orb.Point) (*location.ReverseGeocodeResult, error)
}

// CityRepository stores the serviceable city allow-list.
type CityRepository interface {
	FindActiveByName(ctx context.Context, name string) (*location.ServiceableCity, error)
	List(ctx context.Context, activeOnly bool) ([]*location.ServiceableCity, error)
	Upsert(ctx context.Context, city *location.ServiceableCity) error
	Delete(ctx context.Context, id int64) error
}

type LocationService struct {
	areas    AreaLookup
	geocoder Geocoder
	cities   CityRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewLocationService(areas AreaLookup, geocoder Geocoder, cities CityRepository, m *metrics.Metrics, logger *zap.Logger) *LocationService {
	return &LocationService{
		areas:    areas,
		geocoder: geocoder,
		cities:   cities,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve checks whether pincode lies in a serviceable city. Lookup failures
// are not errors: the location comes back unserviceable with a message.
func (s *LocationService) Resolve(ctx context.Context, pincode string) (*location.Location, error) {
	pincode = strings.TrimSpace(pincode)
	if !validate.Pincode(pincode) {
		return nil, fmt.Errorf("%w: pincode must be 6 digits", xerrors.ErrInvalidInput)
	}

	loc := &location.Location{
		Pincode:              pincode,
		InspectionMultiplier: 1,
		RepairMultiplier:     1,
	}

	area, err := s.areas.LookupPincode(ctx, pincode)
	if err != nil {
		s.logger.Warn("pincode lookup failed", zap.String("pincode", pincode), zap.Error(err))
		loc.Message = unverifiedMessage
		s.count("unverified")
		return loc, nil
	}
	loc.Area = *area

	city, err := s.cities.FindActiveByName(ctx, area.District)
	switch {
	case xerrors.Is(err, xerrors.ErrNotFound):
		loc.City = area.District
		loc.Message = fmt.Sprintf("We do not serve %s yet", area.District)
		s.count("unserviceable")
		return loc, nil
	case err != nil:
		return nil, fmt.Errorf("failed to check serviceable cities: %w", err)
	}

	loc.City = city.City
	loc.InspectionMultiplier = city.InspectionMultiplier
	loc.RepairMultiplier = city.RepairMultiplier
	loc.IsServiceable = true
	s.count("serviceable")
	return loc, nil
}

// ReverseGeocode fills address fields from a GPS fix.
func (s *LocationService) ReverseGeocode(ctx context.Context, lat, lng float64) (*location.ReverseGeocodeResult, error) {
	res, err := s.geocoder.Reverse(ctx, orb.Point{lng, lat})
	if err != nil {
		s.logger.Warn("reverse geocoding failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// ListCities returns the allow-list; activeOnly hides disabled cities.
func (s *LocationService) ListCities(ctx context.Context, activeOnly bool) ([]*location.ServiceableCity, error) {
	return s.cities.List(ctx, activeOnly)
}

// UpsertCity creates or updates a serviceable city by name.
func (s *LocationService) UpsertCity(ctx context.Context, req *location.UpsertCityRequest) (*location.ServiceableCity, error) {
	city := &location.ServiceableCity{
		City:                 strings.TrimSpace(req.City),
		State:                strings.TrimSpace(req.State),
		InspectionMultiplier: req.InspectionMultiplier,
		RepairMultiplier:     req.RepairMultiplier,
		Active:               true,
	}
	if req.Active != nil {
		city.Active = *req.Active
	}
	if city.City == "" {
		return nil, fmt.Errorf("%w: city is required", xerrors.ErrInvalidInput)
	}

	if err := s.cities.Upsert(ctx, city); err != nil {
		s.logger.Error("failed to upsert serviceable city", zap.String("city", city.City), zap.Error(err))
		return nil, err
	}
	s.logger.Info("serviceable city saved",
		zap.String("city", city.City),
		zap.Float64("inspection_multiplier", city.InspectionMultiplier),
		zap.Bool("active", city.Active),
	)
	return city, nil
}

func (s *LocationService) DeleteCity(ctx context.Context, id int64) error {
	return s.cities.Delete(ctx, id)
}

func (s *LocationService) count(result string) {
	if s.metrics != nil {
		s.metrics.ServiceChecks.WithLabelValues(result).Inc()
	}
}
