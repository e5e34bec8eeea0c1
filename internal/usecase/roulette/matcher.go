package roulette

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tiktroq/internal/domain"
	"tiktroq/internal/infra/clock"
	"tiktroq/internal/infra/metrics"
)

var (
	// ErrEmptyPool возвращается, если в радиусе зрителя нет подходящих объявлений.
	ErrEmptyPool = errors.New("нет доступных объявлений в радиусе")
	// ErrNoSession возвращается, если у зрителя нет сессии рулетки.
	ErrNoSession = errors.New("нет активной сессии рулетки")
	// ErrNotAwaitingDecision возвращается, если сессия ещё крутится или уже закрыта.
	ErrNotAwaitingDecision = errors.New("сессия рулетки не ожидает решения")
)

const (
	// EmptyPoolNotice показывается, когда крутить нечего.
	EmptyPoolNotice = "Aucun troc disponible dans ta zone ! 😢"
	// TimeElapsedNotice показывается, когда окно решения истекло.
	TimeElapsedNotice = "Temps écoulé ! La roulette se ferme..."
)

// Config задаёт тайминги рулетки.
type Config struct {
	SpinInterval    time.Duration
	MinSpins        int
	SpinJitter      int
	DecisionWindow  time.Duration
	// ClosedRetention — сколько закрытая сессия остаётся видимой, прежде чем её вытеснит очередной Start.
	ClosedRetention time.Duration
}

// DefaultConfig: 20–34 шага по 100 мс и 30 секунд на решение.
func DefaultConfig() Config {
	return Config{
		SpinInterval:    100 * time.Millisecond,
		MinSpins:        20,
		SpinJitter:      15,
		DecisionWindow:  30 * time.Second,
		ClosedRetention: 10 * time.Minute,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.SpinInterval <= 0 {
		c.SpinInterval = def.SpinInterval
	}
	if c.MinSpins <= 0 {
		c.MinSpins = 1
	}
	if c.SpinJitter < 0 {
		c.SpinJitter = 0
	}
	if c.DecisionWindow <= 0 {
		c.DecisionWindow = def.DecisionWindow
	}
	if c.ClosedRetention <= 0 {
		c.ClosedRetention = def.ClosedRetention
	}
	return c
}

// ConversationOpener открывает переписку с владельцем выпавшего объявления.
type ConversationOpener interface {
	OpenOrReuse(ctx context.Context, ownerID, counterpartID string, seed *domain.Message) (domain.Conversation, bool, error)
}

// Matcher ведёт сессии рулетки, по одной на зрителя.
type Matcher struct {
	listings      domain.ListingRepo
	conversations ConversationOpener
	notifier      domain.Notifier
	clock         clock.Clock
	rnd           domain.Random
	cfg           Config
	log           zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session — изменяемое состояние одной сессии. Поля меняются только под Matcher.mu.
type session struct {
	state    domain.RouletteSession
	timer    *clock.Timer
	closedAt time.Time
}

// NewMatcher создаёт рулетку.
func NewMatcher(listings domain.ListingRepo, conversations ConversationOpener, notifier domain.Notifier, clk clock.Clock, rnd domain.Random, cfg Config, logger zerolog.Logger) *Matcher {
	return &Matcher{
		listings:      listings,
		conversations: conversations,
		notifier:      notifier,
		clock:         clk,
		rnd:           rnd,
		cfg:           cfg.normalized(),
		log:           logger.With().Str("component", "roulette").Logger(),
		sessions:      make(map[string]*session),
	}
}

// Start запускает вращение для зрителя. Активная сессия зрителя
// предварительно закрывается вместе с её таймерами.
func (m *Matcher) Start(ctx context.Context, viewer domain.Viewer) (domain.RouletteSession, error) {
	listings, err := m.listings.ListListings(ctx)
	if err != nil {
		return domain.RouletteSession{}, fmt.Errorf("получение объявлений: %w", err)
	}
	pool := Eligible(listings, viewer.ID, viewer.RadiusKm)
	if len(pool) == 0 {
		metrics.IncRouletteOutcome("empty_pool")
		return domain.RouletteSession{}, ErrEmptyPool
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictClosedLocked(m.clock.Now())
	if prev, ok := m.sessions[viewer.ID]; ok && prev.state.Phase != domain.PhaseClosed {
		m.closeLocked(prev, domain.OutcomeCancelled)
	}

	spins := m.cfg.MinSpins
	if m.cfg.SpinJitter > 0 {
		spins += m.rnd.Intn(m.cfg.SpinJitter)
	}
	s := &session{state: domain.RouletteSession{
		ID:         uuid.NewString(),
		ViewerID:   viewer.ID,
		Phase:      domain.PhaseSpinning,
		Pool:       pool,
		PoolSize:   len(pool),
		SpinsTotal: spins,
		StartedAt:  m.clock.Now(),
	}}
	m.sessions[viewer.ID] = s
	s.timer = m.clock.AfterFunc(m.cfg.SpinInterval, func() { m.tick(s) })

	metrics.IncRouletteSpin()
	m.log.Debug().Str("viewer", viewer.ID).Str("session", s.state.ID).Int("pool", len(pool)).Int("spins", spins).Msg("рулетка запущена")
	return snapshot(s), nil
}

// tick делает один шаг вращения.
func (m *Matcher) tick(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(s, domain.PhaseSpinning) {
		m.log.Debug().Str("session", s.state.ID).Msg("устаревший тик рулетки проигнорирован")
		return
	}

	pick := s.state.Pool[m.rnd.Intn(len(s.state.Pool))]
	s.state.Candidate = &pick
	s.state.SpinsDone++

	if s.state.SpinsDone < s.state.SpinsTotal {
		s.timer = m.clock.AfterFunc(m.cfg.SpinInterval, func() { m.tick(s) })
		return
	}

	s.state.Phase = domain.PhaseAwaitingDecision
	s.state.Deadline = m.clock.Now().Add(m.cfg.DecisionWindow)
	s.timer = m.clock.AfterFunc(m.cfg.DecisionWindow, func() { m.expire(s) })
	m.log.Debug().Str("session", s.state.ID).Str("listing", pick.ID).Msg("рулетка остановилась")
}

// expire закрывает сессию по истечении окна решения.
func (m *Matcher) expire(s *session) {
	m.mu.Lock()
	if !m.currentLocked(s, domain.PhaseAwaitingDecision) {
		m.mu.Unlock()
		m.log.Debug().Str("session", s.state.ID).Msg("устаревший таймаут рулетки проигнорирован")
		return
	}
	s.timer = nil
	m.closeLocked(s, domain.OutcomeTimedOut)
	viewerID := s.state.ViewerID
	now := m.clock.Now()
	m.mu.Unlock()

	if m.notifier == nil {
		return
	}
	notice := domain.Notice{Kind: domain.NoticeTimeElapsed, Text: TimeElapsedNotice, At: now}
	if err := m.notifier.Notify(context.Background(), viewerID, notice); err != nil {
		m.log.Error().Err(err).Str("viewer", viewerID).Msg("не удалось доставить уведомление рулетки")
	}
}

// Accept принимает выпавшее объявление: открывает (или переиспользует)
// переписку с владельцем и закрывает сессию.
func (m *Matcher) Accept(ctx context.Context, viewerID string) (domain.Conversation, error) {
	m.mu.Lock()
	s, ok := m.sessions[viewerID]
	if !ok {
		m.mu.Unlock()
		return domain.Conversation{}, ErrNoSession
	}
	if s.state.Phase != domain.PhaseAwaitingDecision || s.state.Candidate == nil {
		m.mu.Unlock()
		return domain.Conversation{}, ErrNotAwaitingDecision
	}
	candidate := *s.state.Candidate
	m.closeLocked(s, domain.OutcomeAccepted)
	m.mu.Unlock()

	seed := &domain.Message{
		From: domain.SystemAuthor,
		Text: AcceptMessage(candidate.Title),
		At:   m.clock.Now().UTC(),
	}
	conv, created, err := m.conversations.OpenOrReuse(ctx, viewerID, candidate.UserID, seed)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("переписка с владельцем: %w", err)
	}
	m.log.Info().Str("viewer", viewerID).Str("listing", candidate.ID).Bool("new_conversation", created).Msg("рулетка: обмен принят")
	return conv, nil
}

// Reject отклоняет выпавшее объявление и закрывает сессию.
func (m *Matcher) Reject(_ context.Context, viewerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[viewerID]
	if !ok {
		return ErrNoSession
	}
	if s.state.Phase != domain.PhaseAwaitingDecision {
		return ErrNotAwaitingDecision
	}
	m.closeLocked(s, domain.OutcomeRejected)
	return nil
}

// Cancel закрывает сессию зрителя в любой фазе без уведомлений.
func (m *Matcher) Cancel(viewerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[viewerID]; ok && s.state.Phase != domain.PhaseClosed {
		m.closeLocked(s, domain.OutcomeCancelled)
	}
}

// Session возвращает снимок сессии зрителя. Без сессии, в том числе
// вытесненной после закрытия, фаза — idle.
func (m *Matcher) Session(viewerID string) domain.RouletteSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[viewerID]
	if !ok {
		return domain.RouletteSession{ViewerID: viewerID, Phase: domain.PhaseIdle}
	}
	return snapshot(s)
}

// Close останавливает таймеры всех сессий. Используется при остановке сервиса.
func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.state.Phase != domain.PhaseClosed {
			m.closeLocked(s, domain.OutcomeCancelled)
		}
	}
}

// AcceptMessage — системное сообщение, открывающее переписку после рулетки.
func AcceptMessage(title string) string {
	return "🎰 Salut ! J'accepte le Troc Roulette pour ton \"" + title + "\" !"
}

func (m *Matcher) currentLocked(s *session, phase domain.RoulettePhase) bool {
	current, ok := m.sessions[s.state.ViewerID]
	return ok && current == s && s.state.Phase == phase
}

// evictClosedLocked удаляет закрытые сессии старше ClosedRetention.
func (m *Matcher) evictClosedLocked(now time.Time) {
	for id, s := range m.sessions {
		if s.state.Phase == domain.PhaseClosed && !now.Before(s.closedAt.Add(m.cfg.ClosedRetention)) {
			delete(m.sessions, id)
		}
	}
}

func (m *Matcher) closeLocked(s *session, outcome domain.RouletteOutcome) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state.Phase = domain.PhaseClosed
	s.state.Pool = nil
	s.state.Candidate = nil
	s.closedAt = m.clock.Now()
	s.state.Outcome = outcome
	metrics.IncRouletteOutcome(string(outcome))
}

func snapshot(s *session) domain.RouletteSession {
	out := s.state
	out.Pool = append([]domain.Listing(nil), s.state.Pool...)
	if s.state.Candidate != nil {
		c := *s.state.Candidate
		out.Candidate = &c
	}
	return out
}
