package feed

import (
	"strings"

	"tiktroq/internal/domain"
)

// Filter возвращает объявления выбранной категории, подходящие под запрос.
// Относительный порядок входной коллекции сохраняется, пустой результат — пустой срез.
func Filter(listings []domain.Listing, category domain.Category, query string) []domain.Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if category != domain.CategoryAll && l.Category != category {
			continue
		}
		if q != "" && !matchesQuery(l, q) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesQuery(l domain.Listing, q string) bool {
	if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Description), q) {
		return true
	}
	for _, tag := range l.Hashtags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Visible оставляет объявления, прошедшие модерацию.
func Visible(listings []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Status == domain.StatusApproved {
			out = append(out, l)
		}
	}
	return out
}

// Cursor — позиция в ленте при пролистывании.
type Cursor struct {
	Index int
	Len   int
}

// At ставит курсор на позицию i, не выходя за края ленты.
func (c Cursor) At(i int) Cursor {
	c.Index = clamp(i, 0, c.Len-1)
	return c
}

// Next сдвигает курсор вперёд, не выходя за конец ленты.
func (c Cursor) Next() Cursor {
	c.Index = clamp(c.Index+1, 0, c.Len-1)
	return c
}

// Prev сдвигает курсор назад, не выходя за начало ленты.
func (c Cursor) Prev() Cursor {
	c.Index = clamp(c.Index-1, 0, c.Len-1)
	return c
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
