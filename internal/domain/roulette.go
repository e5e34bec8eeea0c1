package domain

import "time"

// RoulettePhase описывает фазу сессии рулетки.
type RoulettePhase string

const (
	PhaseIdle             RoulettePhase = "idle"
	PhaseSpinning         RoulettePhase = "spinning"
	PhaseAwaitingDecision RoulettePhase = "awaiting_decision"
	PhaseClosed           RoulettePhase = "closed"
)

// RouletteOutcome описывает, чем закончилась сессия.
type RouletteOutcome string

const (
	OutcomeAccepted  RouletteOutcome = "accepted"
	OutcomeRejected  RouletteOutcome = "rejected"
	OutcomeTimedOut  RouletteOutcome = "timed_out"
	OutcomeCancelled RouletteOutcome = "cancelled"
)

// Viewer описывает контекст зрителя, запускающего рулетку.
type Viewer struct {
	ID       string
	RadiusKm float64
}

// RouletteSession — снимок состояния сессии рулетки.
type RouletteSession struct {
	ID         string          `json:"id"`
	ViewerID   string          `json:"viewerId"`
	Phase      RoulettePhase   `json:"phase"`
	Pool       []Listing       `json:"-"`
	PoolSize   int             `json:"poolSize"`
	Candidate  *Listing        `json:"candidate,omitempty"`
	SpinsTotal int             `json:"spinsTotal"`
	SpinsDone  int             `json:"spinsDone"`
	StartedAt  time.Time       `json:"startedAt"`
	Deadline   time.Time       `json:"deadline,omitempty"`
	Outcome    RouletteOutcome `json:"outcome,omitempty"`
}

// NoticeKind описывает тип уведомления для пользователя.
type NoticeKind string

const (
	NoticeEmptyPool   NoticeKind = "empty_pool"
	NoticeTimeElapsed NoticeKind = "time_elapsed"
)

// Notice — неблокирующее уведомление для пользователя.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
	At   time.Time  `json:"at"`
}
