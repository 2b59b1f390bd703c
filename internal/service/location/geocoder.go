// internal/service/location/geocoder.go
package location

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"hellofixo-service/internal/domain/location"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/httpx"

	"github.com/paulmach/orb"
)

// ServiceBounds is the box GPS fixes must fall in.
var ServiceBounds = orb.Bound{
	Min: orb.Point{68.1, 6.5},
	Max: orb.Point{97.5, 35.7},
}

type nominatimAddress struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	StateDistrict string `json:"state_district"`
	County        string `json:"county"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
}

type nominatimResult struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

// NominatimGeocoder turns coordinates into a postal address.
type NominatimGeocoder struct {
	client    *httpx.Client
	baseURL   string
	userAgent string
}

func NewNominatimGeocoder(client *httpx.Client, baseURL, userAgent string) *NominatimGeocoder {
	return &NominatimGeocoder{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// Reverse performs a single reverse-geocoding lookup.
func (g *NominatimGeocoder) Reverse(ctx context.Context, pt orb.Point) (*location.ReverseGeocodeResult, error) {
	if !ServiceBounds.Contains(pt) {
		return nil, fmt.Errorf("%w: coordinates are outside the service area", xerrors.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(pt.Lat(), 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(pt.Lon(), 'f', 6, 64))
	q.Set("addressdetails", "1")

	var res nominatimResult
	headers := map[string]string{"User-Agent": g.userAgent}
	if err := g.client.GetJSON(ctx, g.baseURL+"/reverse?"+q.Encode(), headers, &res); err != nil {
		return nil, fmt.Errorf("%w: reverse geocoding failed: %v", xerrors.ErrUpstream, err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("%w: %s", xerrors.ErrNotFound, res.Error)
	}

	a := res.Address
	return &location.ReverseGeocodeResult{
		Latitude:    pt.Lat(),
		Longitude:   pt.Lon(),
		DisplayName: res.DisplayName,
		Line1:       joinNonEmpty(", ", a.HouseNumber, a.Road),
		Locality:    firstNonEmpty(a.Neighbourhood, a.Suburb),
		City:        firstNonEmpty(a.City, a.Town, a.Village),
		District:    firstNonEmpty(a.StateDistrict, a.County),
		State:       a.State,
		Pincode:     strings.ReplaceAll(a.Postcode, " ", ""),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
