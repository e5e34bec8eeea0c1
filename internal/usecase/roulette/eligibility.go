package roulette

import "tiktroq/internal/domain"

// Eligible возвращает объявления, которые могут выпасть зрителю: чужие,
// в пределах радиуса и прошедшие модерацию. Порядок сохраняется,
// отметки приводятся к зрителю.
func Eligible(listings []domain.Listing, viewerID string, radiusKm float64) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.UserID == viewerID {
			continue
		}
		if l.DistanceKm > radiusKm {
			continue
		}
		if l.Status != domain.StatusApproved {
			continue
		}
		out = append(out, l.ForViewer(viewerID))
	}
	return out
}
