package listing

import (
	"github.com/dailypixel/storydesk/internal/config"
	"github.com/dailypixel/storydesk/internal/textnorm"
)

// AllCategories is the category sentinel that disables category filtering.
const AllCategories = "all"

// ViewState is the current query, category, tag selection, and pagination
// cursor. Query, Category and Tags hold folded comparison keys.
type ViewState struct {
	Query        string   `json:"query"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	VisibleCount int      `json:"visible_count"`
	// Loads counts LoadMore calls since the cursor was last reset.
	Loads int `json:"loads"`
}

// DefaultState returns the state a fresh page starts with.
func DefaultState(policy Policy) ViewState {
	return ViewState{
		Category:     AllCategories,
		VisibleCount: policy.Initial(),
	}
}

// HasTag reports whether the folded tag key is selected.
func (v ViewState) HasTag(key string) bool {
	for _, t := range v.Tags {
		if t == key {
			return true
		}
	}
	return false
}

func (v ViewState) clone() ViewState {
	out := v
	if v.Tags != nil {
		out.Tags = append([]string(nil), v.Tags...)
	}
	return out
}

// Policy decides how many entries the first page shows and how far each
// LoadMore advances the cursor.
type Policy interface {
	Initial() int
	// Next returns the increment for the LoadMore that follows `loads`
	// earlier ones.
	Next(loads int) int
}

// Fixed advances by the same page size every time.
type Fixed int

// Initial implements Policy.
func (f Fixed) Initial() int { return max(int(f), 1) }

// Next implements Policy.
func (f Fixed) Next(int) int { return f.Initial() }

// Escalating shows steps[0] first, then advances by steps[0], steps[1], ...
// repeating the last step once they run out.
type Escalating []int

// Initial implements Policy.
func (e Escalating) Initial() int {
	if len(e) == 0 {
		return 1
	}
	return max(e[0], 1)
}

// Next implements Policy.
func (e Escalating) Next(loads int) int {
	if len(e) == 0 {
		return 1
	}
	i := min(max(loads, 0), len(e)-1)
	return max(e[i], 1)
}

// PolicyFromConfig builds the configured pagination policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return Fixed(config.DefaultConfig().PageSize)
	}
	if cfg.Pagination == config.PaginationEscalating && len(cfg.EscalatingSteps) > 0 {
		return Escalating(cfg.EscalatingSteps)
	}
	return Fixed(cfg.PageSize)
}

// normalizeCategory folds a category and maps empty input to AllCategories.
func normalizeCategory(category string) string {
	key := textnorm.Fold(category)
	if key == "" {
		return AllCategories
	}
	return key
}
