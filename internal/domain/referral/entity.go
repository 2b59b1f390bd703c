// internal/domain/referral/entity.go
package referral

import "time"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Code is a redeemable referral/coupon code owned by a user.
type Code struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Discount  float64   `json:"discount" db:"discount"`
	Active    bool      `json:"active" db:"active"`
	Uses      int       `json:"uses" db:"uses"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type VerifyRequest struct {
	Code  string `json:"referral_code" binding:"required,max=32"`
	Phone string `json:"mobile_number" binding:"required"`
}

// CheckResponse is the wire shape of the check-referral function.
type CheckResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Message  string  `json:"message"`
}

// Result is the verification outcome applied to a booking.
type Result struct {
	Code     string  `json:"code"`
	Status   Status  `json:"status"`
	Discount float64 `json:"discount"`
	Message  string  `json:"message"`
}

// Valid reports whether the code was accepted.
func (r Result) Valid() bool {
	return r.Status == StatusSuccess
}
