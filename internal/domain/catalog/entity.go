// internal/domain/catalog/entity.go
package catalog

import "time"

// ServiceCategory is a repair category such as "ac-repair" with its problems.
type ServiceCategory struct {
	ID                int64             `json:"id" db:"id"`
	Slug              string            `json:"slug" db:"slug"`
	Name              string            `json:"name" db:"name"`
	BaseInspectionFee float64           `json:"base_inspection_fee" db:"base_inspection_fee"`
	Image             string            `json:"image" db:"image"`
	Translations      map[string]string `json:"-" db:"translations"`
	SortOrder         int               `json:"-" db:"sort_order"`
	Active            bool              `json:"-" db:"active"`
	Problems          []Problem         `json:"problems"`
	CreatedAt         time.Time         `json:"-" db:"created_at"`
}

// Problem is a selectable issue within a category.
type Problem struct {
	ID             int64             `json:"id" db:"id"`
	CategoryID     int64             `json:"category_id" db:"category_id"`
	Name           string            `json:"name" db:"name"`
	BaseMinFee     float64           `json:"base_min_fee" db:"base_min_fee"`
	EstimatedPrice float64           `json:"estimated_price" db:"estimated_price"`
	Image          string            `json:"image" db:"image"`
	Translations   map[string]string `json:"-" db:"translations"`
}

// Localize returns a copy with names substituted for lang, falling back to the default names.
func (c ServiceCategory) Localize(lang string) ServiceCategory {
	out := c
	if name, ok := c.Translations[lang]; ok && name != "" {
		out.Name = name
	}
	out.Problems = make([]Problem, len(c.Problems))
	for i, p := range c.Problems {
		if name, ok := p.Translations[lang]; ok && name != "" {
			p.Name = name
		}
		out.Problems[i] = p
	}
	return out
}

// FindProblem looks up a problem of this category by id.
func (c ServiceCategory) FindProblem(id int64) (Problem, bool) {
	for _, p := range c.Problems {
		if p.ID == id {
			return p, true
		}
	}
	return Problem{}, false
}
