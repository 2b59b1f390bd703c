// internal/domain/wallet/entity.go
package wallet

import "time"

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Sources of wallet movements.
const (
	SourceReferral = "referral"
	SourceBooking  = "booking"
	SourceRefund   = "refund"
	SourceAdmin    = "admin"
)

// Transaction is one credit or debit on a user's wallet.
type Transaction struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Type      TransactionType `json:"type" db:"type"`
	Source    string          `json:"source" db:"source"`
	Note      *string         `json:"note,omitempty" db:"note"`
	Amount    float64         `json:"amount" db:"amount"`
	BookingID *string         `json:"booking_id,omitempty" db:"booking_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Overview is what the wallet page displays.
type Overview struct {
	Balance           float64      `json:"balance"`
	LatestTransaction *Transaction `json:"latest_transaction,omitempty"`
	ReferralCode      string       `json:"referral_code,omitempty"`
	ReferralDiscount  float64      `json:"referral_discount,omitempty"`
}

type TransactionFilters struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type TransactionListResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int64          `json:"total"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
}

type CreditRequest struct {
	UserID string  `json:"user_id" binding:"required,uuid"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Source string  `json:"source" binding:"omitempty,oneof=referral refund admin"`
	Note   string  `json:"note" binding:"max=255"`
}
