// internal/domain/booking/dto.go
package booking

// StartDraftRequest begins a booking from a category, its selected problems and a pincode.
type StartDraftRequest struct {
	CategorySlug string  `json:"category_slug" binding:"required"`
	ProblemIDs   []int64 `json:"problem_ids"`
	Pincode      string  `json:"pincode" binding:"required,len=6,numeric"`
}

type ToggleProblemRequest struct {
	ProblemID int64 `json:"problem_id" binding:"required,gt=0"`
}

type ContactRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Phone    string `json:"phone" binding:"required"`
	AltPhone string `json:"alt_phone"`
}

type AddressRequest struct {
	Line1     string   `json:"line1" binding:"required,max=255"`
	Line2     string   `json:"line2" binding:"max=255"`
	Landmark  string   `json:"landmark" binding:"max=255"`
	Pincode   string   `json:"pincode" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LocateRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type ScheduleRequest struct {
	ScheduledDate string `json:"scheduled_date" binding:"required"`
	TimeSlot      string `json:"time_slot" binding:"required"`
}

type PaymentRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
	UseWallet     bool          `json:"use_wallet"`
}

type ReferralRequest struct {
	Code string `json:"referral_code" binding:"required,max=32"`
}

type SubmitResponse struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"order_id"`
}

type HistoryFilters struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type BookingListResponse struct {
	Bookings   []*Booking `json:"bookings"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type UpdateStatusRequest struct {
	Status         string   `json:"status" binding:"required,max=40"`
	CompletionCode *string  `json:"completion_code" binding:"omitempty,max=12"`
	FinalAmount    *float64 `json:"final_amount_paid" binding:"omitempty,gte=0"`
}

type ShareQuoteRequest struct {
	LaborCost float64 `json:"labor_cost" binding:"gte=0"`
	PartsCost float64 `json:"parts_cost" binding:"gte=0"`
	Notes     string  `json:"notes" binding:"max=1000"`
}

// QuoteDecisionRequest carries the customer's approval or rejection.
type QuoteDecisionRequest struct {
	Approve bool `json:"approve"`
}
