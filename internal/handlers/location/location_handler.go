// internal/handlers/location/location_handler.go
package location

import (
	"context"
	"net/http"
	"strconv"

	"hellofixo-service/internal/domain/location"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Resolve(ctx context.Context, pincode string) (*location.Location, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*location.ReverseGeocodeResult, error)
	ListCities(ctx context.Context, activeOnly bool) ([]*location.ServiceableCity, error)
	UpsertCity(ctx context.Context, req *location.UpsertCityRequest) (*location.ServiceableCity, error)
	DeleteCity(ctx context.Context, id int64) error
}

type LocationHandler struct {
	service Service
	logger  *zap.Logger
}

func NewLocationHandler(service Service, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{service: service, logger: logger}
}

// Resolve reports the area and serviceability of a pincode.
func (h *LocationHandler) Resolve(c *gin.Context) {
	loc, err := h.service.Resolve(c.Request.Context(), c.Param("pincode"))
	if err != nil {
		response.FromError(c, "failed to resolve pincode", err)
		return
	}

	response.Success(c, http.StatusOK, "location resolved", loc)
}

func (h *LocationHandler) Reverse(c *gin.Context) {
	var req location.ReverseGeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ValidationError(c, "lat and lng are required", err)
		return
	}

	result, err := h.service.ReverseGeocode(c.Request.Context(), req.Latitude, req.Longitude)
	if err != nil {
		h.logger.Warn("reverse geocoding failed",
			zap.Float64("lat", req.Latitude),
			zap.Float64("lng", req.Longitude),
			zap.Error(err),
		)
		response.FromError(c, "failed to locate address", err)
		return
	}

	response.Success(c, http.StatusOK, "address located", result)
}

// ========== Admin: serviceable cities ==========

func (h *LocationHandler) ListCities(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	cities, err := h.service.ListCities(c.Request.Context(), activeOnly)
	if err != nil {
		response.FromError(c, "failed to list cities", err)
		return
	}

	response.Success(c, http.StatusOK, "cities retrieved", cities)
}

func (h *LocationHandler) UpsertCity(c *gin.Context) {
	var req location.UpsertCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	city, err := h.service.UpsertCity(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to save city", err)
		return
	}

	h.logger.Info("serviceable city saved", zap.String("city", city.City), zap.Bool("active", city.Active))
	response.Success(c, http.StatusOK, "city saved", city)
}

func (h *LocationHandler) DeleteCity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid city id", err)
		return
	}

	if err := h.service.DeleteCity(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete city", err)
		return
	}

	response.Success(c, http.StatusOK, "city deleted", nil)
}
