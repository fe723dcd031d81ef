package game

// PlayerStatus represents a player's standing within the current round
type PlayerStatus string

const (
	StatusWaiting        PlayerStatus = "waiting"
	StatusThinking       PlayerStatus = "thinking"
	StatusFinalCountdown PlayerStatus = "final-countdown"
	StatusCompleted      PlayerStatus = "completed"
)

// PlayerState is the per-player mutable record owned by exactly one room.
// All access is serialized by the owning room's lock.
type PlayerState struct {
	ID     string
	Name   string
	IsHost bool

	Score int

	// IndividualTimer counts down once per game tick unless paused.
	IndividualTimer int
	TimerPaused     bool

	// PersonalTimer is the 30s "found it" countdown; only meaningful
	// while IsUsingPersonalTimer is set.
	IsUsingPersonalTimer bool
	PersonalTimer        int

	HasAnswered bool
	Answer      string
	Status      PlayerStatus

	// joinSeq orders players by insertion for host transfer and tie-breaks
	joinSeq int
}

// resetForGame prepares a player for a fresh game: zero score, full timer.
func (p *PlayerState) resetForGame(timerSeconds int) {
	p.Score = 0
	p.IndividualTimer = timerSeconds
	p.resetForRound()
}

// resetForRound clears all round-scoped state.
func (p *PlayerState) resetForRound() {
	p.TimerPaused = false
	p.IsUsingPersonalTimer = false
	p.PersonalTimer = 0
	p.HasAnswered = false
	p.Answer = ""
	p.Status = StatusThinking
}
