// internal/domain/partner/dto.go
package partner

type PersonalRequest struct {
	FullName        string `json:"full_name" binding:"required,max=120"`
	Phone           string `json:"phone" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	City            string `json:"city" binding:"required,max=100"`
	Pincode         string `json:"pincode" binding:"required"`
	ExperienceYears int    `json:"experience_years" binding:"gte=0,lte=60"`
}

type SkillsRequest struct {
	Skills []string `json:"skills" binding:"required,min=1,dive,required"`
}

type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"max=500"`
}

type ApplicationFilters struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ApplicationListResponse struct {
	Applications []*Application `json:"applications"`
	Total        int64          `json:"total"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
}
