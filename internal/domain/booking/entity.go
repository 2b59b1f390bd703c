// internal/domain/booking/entity.go
package booking

import (
	"strings"
	"time"
)

// Status is the booking lifecycle status. Values are free-form server side,
// so comparisons go through NormalizeStatus and unknown values are kept as-is.
type Status string

const (
	StatusPending           Status = "pending"
	StatusConfirmed         Status = "confirmed"
	StatusAssigned          Status = "assigned"
	StatusCodeSent          Status = "code_sent"
	StatusQuotationShared   Status = "quotation_shared"
	StatusQuotationApproved Status = "quotation_approved"
	StatusQuotationRejected Status = "quotation_rejected"
	StatusRepairCompleted   Status = "repair_completed"
	StatusCompleted         Status = "completed"
	StatusCancelled         Status = "cancelled"
)

var knownStatuses = map[Status]bool{
	StatusPending:           true,
	StatusConfirmed:         true,
	StatusAssigned:          true,
	StatusCodeSent:          true,
	StatusQuotationShared:   true,
	StatusQuotationApproved: true,
	StatusQuotationRejected: true,
	StatusRepairCompleted:   true,
	StatusCompleted:         true,
	StatusCancelled:         true,
}

// NormalizeStatus lower-cases and trims a raw status string.
func NormalizeStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

// Is compares two statuses after normalization.
func (s Status) Is(other Status) bool {
	return NormalizeStatus(string(s)) == NormalizeStatus(string(other))
}

// IsKnown reports whether the status is one this service understands.
func (s Status) IsKnown() bool {
	return knownStatuses[NormalizeStatus(string(s))]
}

// Cancellable reports whether a customer may still cancel.
func (s Status) Cancellable() bool {
	return s.Is(StatusPending) || s.Is(StatusConfirmed)
}

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentUPI    PaymentMethod = "upi"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "wallet"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentCard, PaymentWallet:
		return true
	}
	return false
}

// TimeSlots are the bookable visit windows.
var TimeSlots = []string{
	"09:00-11:00",
	"11:00-13:00",
	"13:00-15:00",
	"15:00-17:00",
	"17:00-19:00",
}

type Contact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	AltPhone string `json:"alt_phone,omitempty"`
}

type Address struct {
	Line1     string   `json:"line1"`
	Line2     string   `json:"line2,omitempty"`
	Landmark  string   `json:"landmark,omitempty"`
	Pincode   string   `json:"pincode"`
	City      string   `json:"city"`
	District  string   `json:"district"`
	State     string   `json:"state"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Issue is a selected problem snapshot stored on the booking.
type Issue struct {
	ProblemID      int64   `json:"problem_id"`
	Name           string  `json:"name"`
	EstimatedPrice float64 `json:"estimated_price"`
}

// CategoryRef is the category snapshot stored on the booking.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Booking struct {
	ID                  string        `json:"id" db:"id"`
	OrderID             string        `json:"order_id" db:"order_id"`
	UserID              string        `json:"user_id" db:"user_id"`
	Status              Status        `json:"status" db:"status"`
	Category            CategoryRef   `json:"category" db:"category"`
	Issues              []Issue       `json:"issues" db:"issues"`
	Contact             Contact       `json:"contact" db:"contact"`
	Address             Address       `json:"address" db:"address"`
	ScheduledDate       string        `json:"scheduled_date" db:"scheduled_date"`
	TimeSlot            string        `json:"time_slot" db:"time_slot"`
	MediaURL            *string       `json:"media_url,omitempty" db:"media_url"`
	CompletionCode      *string       `json:"completion_code,omitempty" db:"completion_code"`
	InspectionFee       float64       `json:"inspection_fee" db:"inspection_fee"`
	GSTAmount           float64       `json:"gst_amount" db:"gst_amount"`
	GrandTotal          float64       `json:"grand_total" db:"grand_total"`
	Discount            float64       `json:"discount" db:"discount"`
	WalletDeduction     float64       `json:"wallet_deduction" db:"wallet_deduction"`
	FinalAmountToBePaid float64       `json:"final_amount_to_be_paid" db:"final_amount_to_be_paid"`
	FinalAmountPaid     *float64      `json:"final_amount_paid,omitempty" db:"final_amount_paid"`
	PaymentMethod       PaymentMethod `json:"payment_method" db:"payment_method"`
	ReferralCode        *string       `json:"referral_code,omitempty" db:"referral_code"`
	Quote               *RepairQuote  `json:"quote,omitempty"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

type RepairQuote struct {
	ID                  string      `json:"id" db:"id"`
	BookingID           string      `json:"booking_id" db:"booking_id"`
	LaborCost           float64     `json:"labor_cost" db:"labor_cost"`
	PartsCost           float64     `json:"parts_cost" db:"parts_cost"`
	TotalAmount         float64     `json:"total_amount" db:"total_amount"`
	Notes               string      `json:"notes" db:"notes"`
	Status              QuoteStatus `json:"status" db:"status"`
	FinalAmountToBePaid float64     `json:"final_amount_to_be_paid" db:"final_amount_to_be_paid"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}
