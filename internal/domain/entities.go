package domain

import (
	"slices"
	"time"
)

// ListingKind описывает тип предложения: обмен вещью или услугой.
type ListingKind string

const (
	ListingKindTroc    ListingKind = "troc"
	ListingKindService ListingKind = "service"
)

// MediaType описывает тип медиа в карточке.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// ModerationStatus описывает статус модерации объявления.
type ModerationStatus string

const (
	StatusApproved ModerationStatus = "approved"
	StatusPending  ModerationStatus = "pending"
	StatusRejected ModerationStatus = "rejected"
)

// Listing описывает объявление об обмене или услуге.
type Listing struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       Category         `json:"category"`
	EstimatedValue float64          `json:"estimatedValue"`
	Condition      string           `json:"condition"`
	Kind           ListingKind      `json:"type"`
	City           string           `json:"city"`
	DistanceKm     float64          `json:"distanceKm"`
	MediaType      MediaType        `json:"mediaType,omitempty"`
	MediaPoster    string           `json:"mediaPoster"`
	MediaURL       string           `json:"mediaUrl,omitempty"`
	Duration       string           `json:"duration"`
	Likes          int              `json:"likes"`
	Comments       int              `json:"comments"`
	Shares         int              `json:"shares"`
	Views          int              `json:"views"`
	Hashtags       []string         `json:"hashtags"`
	// Liked и Saved заполняются для конкретного зрителя, см. ForViewer.
	Liked          bool             `json:"liked"`
	Saved          bool             `json:"saved"`
	LikedBy        []string         `json:"likedBy,omitempty"`
	SavedBy        []string         `json:"savedBy,omitempty"`
	Status         ModerationStatus `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// ForViewer возвращает копию объявления с отметками зрителя viewerID.
// Списки отметивших в копию не попадают.
func (l Listing) ForViewer(viewerID string) Listing {
	l.Liked = viewerID != "" && slices.Contains(l.LikedBy, viewerID)
	l.Saved = viewerID != "" && slices.Contains(l.SavedBy, viewerID)
	l.LikedBy, l.SavedBy = nil, nil
	return l
}

// ToggleLike переключает отметку «нравится» зрителя и счётчик лайков.
// Возвращает новое состояние отметки.
func (l *Listing) ToggleLike(viewerID string) bool {
	var liked bool
	l.LikedBy, liked = toggleMember(l.LikedBy, viewerID)
	if liked {
		l.Likes++
	} else {
		l.Likes = max(0, l.Likes-1)
	}
	return liked
}

// ToggleSave переключает отметку «сохранено» зрителя.
func (l *Listing) ToggleSave(viewerID string) bool {
	var saved bool
	l.SavedBy, saved = toggleMember(l.SavedBy, viewerID)
	return saved
}

// ForgetViewer снимает все отметки зрителя. Возвращает true, если что-то изменилось.
func (l *Listing) ForgetViewer(viewerID string) bool {
	changed := false
	if i := slices.Index(l.LikedBy, viewerID); i >= 0 {
		l.LikedBy = slices.Delete(l.LikedBy, i, i+1)
		l.Likes = max(0, l.Likes-1)
		changed = true
	}
	if i := slices.Index(l.SavedBy, viewerID); i >= 0 {
		l.SavedBy = slices.Delete(l.SavedBy, i, i+1)
		changed = true
	}
	return changed
}

func toggleMember(set []string, id string) ([]string, bool) {
	if i := slices.Index(set, id); i >= 0 {
		return slices.Delete(set, i, i+1), false
	}
	return append(set, id), true
}

// Consents хранит согласия пользователя по категориям.
type Consents struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
	Location  bool `json:"location"`
	Photos    bool `json:"photos"`
	Messages  bool `json:"messages"`
}

// DefaultConsents возвращает согласия нового пользователя.
func DefaultConsents() Consents {
	return Consents{Analytics: true, Marketing: false, Location: true, Photos: true, Messages: true}
}

// User описывает участника обменов.
type User struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Avatar    string   `json:"avatar"`
	City      string   `json:"city"`
	Trust     float64  `json:"trust"`
	Trades    int      `json:"trades"`
	Premium   bool     `json:"premium,omitempty"`
	RadiusKm  float64  `json:"radiusKm,omitempty"`
	Consents  Consents `json:"consent"`
}

// DisplayName возвращает имя для карточки.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// SystemAuthor используется как автор системных сообщений.
const SystemAuthor = "system"

// Message описывает сообщение в переписке.
type Message struct {
	ID   string    `json:"id"`
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Conversation описывает переписку пользователя с собеседником.
type Conversation struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	WithUserID string    `json:"withUserId"`
	Messages   []Message `json:"messages"`
}

// FeedItem объединяет объявление и его владельца для выдачи.
type FeedItem struct {
	Listing Listing `json:"listing"`
	Owner   *User   `json:"owner,omitempty"`
}
