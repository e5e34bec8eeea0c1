package repo

import (
	"time"

	"tiktroq/internal/domain"
)

// Seed — демонстрационные данные для пустого хранилища.
type Seed struct {
	Users         []domain.User
	Listings      []domain.Listing
	Conversations []domain.Conversation
}

// DemoSeed возвращает стартовый набор пользователей, объявлений и переписок.
// Переписки принадлежат пользователю ownerID.
func DemoSeed(ownerID string, now time.Time) *Seed {
	return &Seed{
		Users: []domain.User{
			{ID: "u1", FirstName: "Marie", LastName: "L.", Avatar: "👩‍🦱", City: "Paris", Trust: 4.8, Trades: 23, Consents: domain.DefaultConsents()},
			{ID: "u2", FirstName: "Thomas", LastName: "K.", Avatar: "👨‍💼", City: "Montreuil", Trust: 4.9, Trades: 67, Consents: domain.DefaultConsents()},
			{ID: "u3", FirstName: "Alex", LastName: "92", Avatar: "👨", City: "Courbevoie", Trust: 4.3, Trades: 12, Consents: domain.DefaultConsents()},
		},
		Listings: []domain.Listing{
			{
				ID: "p1", UserID: "u1",
				Title:       "iPhone 13 Pro contre console PS5",
				Description: "iPhone 13 Pro 256 Go, excellent état, échange contre PS5 et 2 jeux.",
				Category:    domain.CategoryElectronics, EstimatedValue: 650, Condition: "Excellent", Kind: domain.ListingKindTroc,
				City: "Paris", DistanceKm: 2.3, MediaType: domain.MediaTypeImage,
				MediaPoster: "https://images.unsplash.com/photo-1592750475338-74b7b21085ab?w=800&h=1000&fit=crop",
				Duration:    "0:45", Likes: 127, Comments: 34, Shares: 12, Views: 1250,
				Hashtags: []string{"#iPhone13", "#PS5", "#ÉchangeÉlectronique"},
				Status:   domain.StatusApproved, CreatedAt: now.Add(-2 * time.Hour),
			},
			{
				ID: "p2", UserID: "u2",
				Title:       "Cours de guitare contre cours d'anglais",
				Description: "Prof de guitare, 1 h par semaine contre cours d'anglais niveau B2. Échange de services.",
				Category:    domain.CategoryServices, EstimatedValue: 40, Condition: "Service", Kind: domain.ListingKindService,
				City: "Montreuil", DistanceKm: 1.8, MediaType: domain.MediaTypeImage,
				MediaPoster: "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=800&h=1000&fit=crop",
				Duration:    "1:12", Likes: 89, Comments: 19, Shares: 8, Views: 890,
				Hashtags: []string{"#CoursGuitare", "#Anglais", "#Échange"},
				LikedBy:  []string{ownerID}, SavedBy: []string{ownerID},
				Status: domain.StatusApproved, CreatedAt: now.Add(-5 * time.Hour),
			},
		},
		Conversations: []domain.Conversation{
			{ID: "c1", OwnerID: ownerID, WithUserID: "u3", Messages: []domain.Message{
				{ID: "m1", From: "u3", Text: "Salut, intéressé par ton iPhone contre ma PS5.", At: now.Add(-8 * time.Minute)},
				{ID: "m2", From: ownerID, Text: "Bonjour, tu as des photos et les jeux inclus ?", At: now.Add(-3 * time.Minute)},
				{ID: "m3", From: "u3", Text: "Spider-Man 2, God of War, FIFA 24.", At: now},
			}},
		},
	}
}
