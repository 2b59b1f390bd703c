package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hellofixo-service/internal/domain/location"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/httpx"
	"hellofixo-service/internal/metrics"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCities struct {
	cities []*location.ServiceableCity
}

func (m *memCities) FindActiveByName(_ context.Context, name string) (*location.ServiceableCity, error) {
	for _, c := range m.cities {
		if c.Active && strings.EqualFold(c.City, name) {
			return c, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memCities) List(_ context.Context, activeOnly bool) ([]*location.ServiceableCity, error) {
	var out []*location.ServiceableCity
	for _, c := range m.cities {
		if !activeOnly || c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCities) Upsert(_ context.Context, city *location.ServiceableCity) error {
	for i, c := range m.cities {
		if strings.EqualFold(c.City, city.City) {
			city.ID = c.ID
			m.cities[i] = city
			return nil
		}
	}
	city.ID = int64(len(m.cities) + 1)
	m.cities = append(m.cities, city)
	return nil
}

func (m *memCities) Delete(context.Context, int64) error { return nil }

func postalServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/pincode/411001":
			_, _ = w.Write([]byte(`[{"Message":"Number of pincode(s) found:2","Status":"Success","PostOffice":[{"Name":"Pune City","District":"PUNE","State":"Maharashtra"},{"Name":"Camp","District":"Pune","State":"Maharashtra"}]}]`))
		case "/pincode/110001":
			_, _ = w.Write([]byte(`[{"Status":"Success","PostOffice":[{"Name":"Connaught Place","District":"Central Delhi","State":"Delhi"}]}]`))
		case "/pincode/999999":
			_, _ = w.Write([]byte(`[{"Message":"No records found","Status":"Error","PostOffice":null}]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, m *metrics.Metrics) *LocationService {
	srv := postalServer(t)
	client := httpx.New("postal", httpx.Config{Timeout: time.Second, MaxRetries: 1, InitialInterval: time.Millisecond}, m, nil)
	cities := &memCities{cities: []*location.ServiceableCity{
		{ID: 1, City: "Pune", InspectionMultiplier: 1.2, RepairMultiplier: 1.1, Active: true},
		{ID: 2, City: "Mumbai", InspectionMultiplier: 1.5, RepairMultiplier: 1.3, Active: false},
	}}
	return NewLocationService(NewPostalClient(client, srv.URL+"/"), nil, cities, m, zap.NewNop())
}

func TestResolveServiceable(t *testing.T) {
	m := metrics.New("test")
	loc, err := newService(t, m).Resolve(context.Background(), "411001")
	require.NoError(t, err)

	assert.True(t, loc.IsServiceable)
	assert.Equal(t, "Pune", loc.City)
	assert.Equal(t, "Pune City", loc.Area.Name)
	assert.Equal(t, 1.2, loc.InspectionMultiplier)
	assert.Equal(t, 1.1, loc.RepairMultiplier)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceChecks.WithLabelValues("serviceable")))
}

func TestResolveUnservedDistrictKeepsNeutralMultipliers(t *testing.T) {
	loc, err := newService(t, nil).Resolve(context.Background(), "110001")
	require.NoError(t, err)

	assert.False(t, loc.IsServiceable)
	assert.Equal(t, "Central Delhi", loc.Area.District)
	assert.Equal(t, 1.0, loc.InspectionMultiplier)
	assert.Equal(t, 1.0, loc.RepairMultiplier)
}

func TestResolveFailuresAreUnverified(t *testing.T) {
	svc := newService(t, nil)
	for _, pin := range []string{"999999", "500001"} {
		loc, err := svc.Resolve(context.Background(), pin)
		require.NoError(t, err, pin)
		assert.False(t, loc.IsServiceable, pin)
		assert.Equal(t, "Unable to verify this pincode", loc.Message, pin)
	}
}

func TestResolveRejectsMalformedPincode(t *testing.T) {
	svc := newService(t, nil)
	for _, pin := range []string{"011001", "41100", "4110011", "41a001"} {
		_, err := svc.Resolve(context.Background(), pin)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput, pin)
	}
}

func TestUpsertCity(t *testing.T) {
	svc := newService(t, nil)
	inactive := false
	city, err := svc.UpsertCity(context.Background(), &location.UpsertCityRequest{
		City:                 " Nagpur ",
		InspectionMultiplier: 1.1,
		RepairMultiplier:     1,
		Active:               &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nagpur", city.City)
	assert.False(t, city.Active)

	active, err := svc.ListCities(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestNominatimReverse(t *testing.T) {
	var gotUA, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotFormat = r.URL.Query().Get("format")
		_, _ = w.Write([]byte(`{"display_name":"12, FC Road, Shivajinagar, Pune, Maharashtra, 411004, India",
			"address":{"house_number":"12","road":"FC Road","suburb":"Shivajinagar","city":"Pune","state_district":"Pune","state":"Maharashtra","postcode":"411 004"}}`))
	}))
	defer srv.Close()

	geo := NewNominatimGeocoder(httpx.New("nominatim", httpx.Config{Timeout: time.Second}, nil, nil), srv.URL, "hellofixo-test")
	res, err := geo.Reverse(context.Background(), orb.Point{73.84, 18.52})
	require.NoError(t, err)

	assert.Equal(t, "hellofixo-test", gotUA)
	assert.Equal(t, "jsonv2", gotFormat)
	assert.Equal(t, "12, FC Road", res.Line1)
	assert.Equal(t, "Shivajinagar", res.Locality)
	assert.Equal(t, "Pune", res.City)
	assert.Equal(t, "411004", res.Pincode)
	assert.Equal(t, 18.52, res.Latitude)
}

func TestNominatimRejectsOutOfBounds(t *testing.T) {
	geo := NewNominatimGeocoder(httpx.New("nominatim", httpx.Config{}, nil, nil), "http://127.0.0.1:1", "ua")
	_, err := geo.Reverse(context.Background(), orb.Point{-0.12, 51.5})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}
