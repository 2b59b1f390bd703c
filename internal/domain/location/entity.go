// internal/domain/location/entity.go
package location

import "time"

// Area is the post-office level resolution of a pincode.
type Area struct {
	Name     string `json:"Name"`
	District string `json:"District"`
	State    string `json:"State"`
}

// Location is the result of resolving a pincode against the serviceable city list.
type Location struct {
	Pincode              string  `json:"pincode"`
	City                 string  `json:"city"`
	Area                 Area    `json:"area"`
	InspectionMultiplier float64 `json:"inspection_multiplier"`
	RepairMultiplier     float64 `json:"repair_multiplier"`
	IsServiceable        bool    `json:"is_serviceable"`
	Message              string  `json:"message,omitempty"`
}

// ServiceableCity is one entry of the server-maintained allow-list.
type ServiceableCity struct {
	ID                   int64     `json:"id" db:"id"`
	City                 string    `json:"city" db:"city"`
	State                string    `json:"state" db:"state"`
	InspectionMultiplier float64   `json:"inspection_multiplier" db:"inspection_multiplier"`
	RepairMultiplier     float64   `json:"repair_multiplier" db:"repair_multiplier"`
	Active               bool      `json:"active" db:"active"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// ReverseGeocodeResult is the address found for a GPS fix.
type ReverseGeocodeResult struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Line1       string  `json:"line1"`
	Locality    string  `json:"locality"`
	City        string  `json:"city"`
	District    string  `json:"district"`
	State       string  `json:"state"`
	Pincode     string  `json:"pincode"`
}

type ReverseGeocodeRequest struct {
	Latitude  float64 `form:"lat" binding:"required"`
	Longitude float64 `form:"lng" binding:"required"`
}

type UpsertCityRequest struct {
	City                 string  `json:"city" binding:"required,max=100"`
	State                string  `json:"state" binding:"max=100"`
	InspectionMultiplier float64 `json:"inspection_multiplier" binding:"required,gt=0"`
	RepairMultiplier     float64 `json:"repair_multiplier" binding:"required,gt=0"`
	Active               *bool   `json:"active"`
}
