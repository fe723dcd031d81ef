package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordquest/internal/questions"
)

// State represents the lifecycle phase of a room
type State string

const (
	StateLobby    State = "lobby"
	StatePlaying  State = "playing"
	StateResults  State = "results"
	StateFinished State = "finished"
)

// foundBonus is added to a correct answer submitted on the personal timer
const foundBonus = 2000

// Settings control round count and timer durations for a room
type Settings struct {
	TotalRounds      int
	GameTimerSec     int
	PersonalTimerSec int
	ResultsDelaySec  int
}

// DefaultSettings returns the standard game configuration
func DefaultSettings() Settings {
	return Settings{
		TotalRounds:      6,
		GameTimerSec:     4 * 60,
		PersonalTimerSec: 30,
		ResultsDelaySec:  5,
	}
}

// Room is the authoritative per-room state machine. Every mutation — intents
// and the room's own timer tick — is serialized by mu; rooms share nothing
// mutable with each other.
type Room struct {
	mu sync.Mutex

	code     string
	hostID   string
	state    State
	round    int
	settings Settings

	gameTimer          int
	generalTimerPaused bool

	wordLength int
	question   string
	answer     string

	players map[string]*PlayerState
	hints   map[string][]int
	answers map[string]AnswerRecord

	joinCounter int

	bank     *questions.Bank
	clock    clockwork.Clock
	notifier Notifier

	// tick loop, live only while state == playing
	ticker   clockwork.Ticker
	tickDone chan struct{}

	// one-shot results → next round transition
	resultsTimer clockwork.Timer

	closed bool
}

// NewRoom creates a room in the lobby state with its host as the only player.
func NewRoom(code, hostID, hostName string, settings Settings, bank *questions.Bank, clock clockwork.Clock, notifier Notifier) *Room {
	r := &Room{
		code:     code,
		hostID:   hostID,
		state:    StateLobby,
		settings: settings,
		players:  make(map[string]*PlayerState),
		hints:    make(map[string][]int),
		answers:  make(map[string]AnswerRecord),
		bank:     bank,
		clock:    clock,
		notifier: notifier,
	}
	r.addPlayerLocked(hostID, hostName, true)
	return r
}

// Code returns the room's join code.
func (r *Room) Code() string {
	return r.code
}

// State returns the current lifecycle phase.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// HasPlayer reports whether the room contains the player.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[playerID]
	return ok
}

// PlayerCount returns the number of players currently in the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Summary returns the lobby-level view sent with join events.
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryLocked()
}

func (r *Room) summaryLocked() RoomSummary {
	players := make([]LobbyPlayer, 0, len(r.players))
	for _, view := range r.playerViewsLocked() {
		players = append(players, LobbyPlayer{ID: view.ID, Name: view.Name, IsHost: view.IsHost})
	}
	return RoomSummary{
		RoomCode:  r.code,
		GameState: r.state,
		Players:   players,
	}
}

// AddPlayer admits a player to the lobby. Joining a room that has already
// started fails with ErrGameInProgress.
func (r *Room) AddPlayer(playerID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateLobby {
		return ErrGameInProgress
	}
	r.addPlayerLocked(playerID, name, false)

	log.Info().
		Str("room_code", r.code).
		Str("player_id", playerID).
		Str("player_name", name).
		Int("players", len(r.players)).
		Msg("player joined room")
	return nil
}

func (r *Room) addPlayerLocked(playerID, name string, isHost bool) {
	r.players[playerID] = &PlayerState{
		ID:              playerID,
		Name:            name,
		IsHost:          isHost,
		IndividualTimer: r.settings.GameTimerSec,
		Status:          StatusWaiting,
		joinSeq:         r.joinCounter,
	}
	r.joinCounter++
	r.hints[playerID] = nil
}

// RemovePlayer deletes a player's state, hints and pending answer record,
// transferring the host role to the earliest-joined remaining player when
// needed. It reports whether the room is now empty; an emptied room has all
// its timers cancelled and accepts no further intents. A non-empty room
// broadcasts the updated state.
func (r *Room) RemovePlayer(playerID string) (empty bool) {
	r.mu.Lock()

	if _, ok := r.players[playerID]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.players, playerID)
	delete(r.hints, playerID)
	delete(r.answers, playerID)

	if len(r.players) == 0 {
		r.closeLocked()
		r.mu.Unlock()
		return true
	}

	if r.hostID == playerID {
		r.hostID = r.earliestJoinedLocked()
		r.players[r.hostID].IsHost = true
		log.Info().
			Str("room_code", r.code).
			Str("new_host_id", r.hostID).
			Msg("host left, role transferred")
	}

	// A departure can leave every remaining player already answered.
	if r.state == StatePlaying && r.allAnsweredLocked() {
		r.endRoundLocked()
	}

	r.mu.Unlock()
	r.broadcast()
	return false
}

func (r *Room) earliestJoinedLocked() string {
	best := ""
	bestSeq := -1
	for id, p := range r.players {
		if bestSeq == -1 || p.joinSeq < bestSeq {
			best = id
			bestSeq = p.joinSeq
		}
	}
	return best
}

// Close cancels all timers and marks the room discarded. Safe to call more
// than once; pending callbacks observe closed and become no-ops.
func (r *Room) Close() {
	r.mu.Lock()
	r.closeLocked()
	r.mu.Unlock()
}

func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	r.cancelTickLocked()
	r.cancelResultsTimerLocked()
	log.Info().Str("room_code", r.code).Msg("room closed")
}

// Start begins the game. Only the host may start, and only from the lobby.
func (r *Room) Start(requesterID string) error {
	r.mu.Lock()

	if requesterID != r.hostID {
		r.mu.Unlock()
		return ErrNotHost
	}
	if r.state != StateLobby {
		r.mu.Unlock()
		return ErrGameInProgress
	}

	r.state = StatePlaying
	r.round = 1
	r.gameTimer = r.settings.GameTimerSec
	r.generalTimerPaused = false
	for _, p := range r.players {
		p.resetForGame(r.settings.GameTimerSec)
	}
	r.setupRoundLocked()
	r.armTickLocked()

	log.Info().
		Str("room_code", r.code).
		Int("players", len(r.players)).
		Int("total_rounds", r.settings.TotalRounds).
		Msg("game started")

	r.mu.Unlock()
	r.broadcast()
	return nil
}

// wordLengthForRound is the fixed round → word-length banding: rounds 1-2
// play 4-letter words, rounds 3-4 play 5-letter words, and every round
// after that adds one letter starting from 6.
func wordLengthForRound(round int) int {
	switch {
	case round <= 2:
		return 4
	case round <= 4:
		return 5
	default:
		return 6 + (round - 5)
	}
}

// setupRoundLocked derives the word length for the current round, draws a
// question, and resets all round-scoped state. Callers hold r.mu.
func (r *Room) setupRoundLocked() {
	r.wordLength = wordLengthForRound(r.round)

	if q, ok := r.bank.Pick(r.wordLength); ok {
		r.question = q.Prompt
		r.answer = q.Answer
	} else {
		// The bank has nothing at this length; synthesize a placeholder so
		// the answer length never diverges from the word length.
		r.question = fmt.Sprintf("Mystery word (%d letters)", r.wordLength)
		r.answer = strings.Repeat("A", r.wordLength)
		log.Warn().
			Str("room_code", r.code).
			Int("word_length", r.wordLength).
			Msg("question bank empty for word length, using placeholder")
	}

	for id, p := range r.players {
		p.resetForRound()
		r.hints[id] = nil
	}
	r.answers = make(map[string]AnswerRecord)
	r.generalTimerPaused = false

	log.Info().
		Str("room_code", r.code).
		Int("round", r.round).
		Int("word_length", r.wordLength).
		Msg("round set up")
}

// Tick advances all timers by one second and applies any forced
// transitions. It is invoked once per second by the room's tick loop while
// playing, and directly by tests.
func (r *Room) Tick() {
	r.mu.Lock()

	if r.state != StatePlaying {
		r.mu.Unlock()
		return
	}

	if !r.generalTimerPaused {
		r.gameTimer--
	}

	for id, p := range r.players {
		if r.state != StatePlaying {
			// A forced submit below can end the round mid-loop.
			break
		}
		if !p.TimerPaused && !p.HasAnswered {
			p.IndividualTimer--
			if p.IndividualTimer <= 0 {
				r.forceSubmitLocked(id)
				continue
			}
		}
		if p.IsUsingPersonalTimer && !p.HasAnswered {
			p.PersonalTimer--
			if p.PersonalTimer <= 0 {
				r.forceSubmitLocked(id)
			}
		}
	}

	// The shared game clock ends the game unconditionally, even when the
	// force-submits above already moved the room into results.
	if r.state != StateFinished && r.gameTimer <= 0 {
		r.endGameLocked()
	}

	r.mu.Unlock()
	r.broadcast()
}

// GetHint reveals one random unrevealed letter of the current answer. At
// least one letter always remains hidden.
func (r *Room) GetHint(playerID string) (HintPayload, error) {
	r.mu.Lock()

	if r.state != StatePlaying {
		r.mu.Unlock()
		return HintPayload{}, ErrRoundNotActive
	}
	if _, ok := r.players[playerID]; !ok {
		r.mu.Unlock()
		return HintPayload{}, ErrUnknownPlayer
	}

	revealed := r.hints[playerID]
	if len(revealed) >= r.wordLength-1 {
		r.mu.Unlock()
		return HintPayload{}, ErrNoMoreHints
	}

	taken := make(map[int]bool, len(revealed))
	for _, pos := range revealed {
		taken[pos] = true
	}
	available := make([]int, 0, r.wordLength-len(revealed))
	for i := 0; i < r.wordLength; i++ {
		if !taken[i] {
			available = append(available, i)
		}
	}

	pos := available[rand.Intn(len(available))]
	r.hints[playerID] = append(revealed, pos)

	log.Debug().
		Str("room_code", r.code).
		Str("player_id", playerID).
		Int("position", pos).
		Int("hints_used", len(r.hints[playerID])).
		Msg("hint revealed")

	hint := HintPayload{Position: pos, Letter: string(r.answer[pos])}
	r.mu.Unlock()
	r.broadcast()
	return hint, nil
}

// MarkFound engages the 30-second personal countdown: the room-wide timer
// pauses for everyone and the player's own timer pauses with it. Returns
// false without re-arming the window when the player has already engaged
// it or already answered.
func (r *Room) MarkFound(playerID string) bool {
	r.mu.Lock()

	if r.state != StatePlaying {
		r.mu.Unlock()
		return false
	}
	p, ok := r.players[playerID]
	if !ok || p.IsUsingPersonalTimer || p.HasAnswered {
		r.mu.Unlock()
		return false
	}

	r.generalTimerPaused = true
	p.TimerPaused = true
	p.IsUsingPersonalTimer = true
	p.PersonalTimer = r.settings.PersonalTimerSec
	p.Status = StatusFinalCountdown

	log.Info().
		Str("room_code", r.code).
		Str("player_id", playerID).
		Int("personal_timer", p.PersonalTimer).
		Msg("player claims found word, general timer paused")

	r.mu.Unlock()
	r.broadcast()
	return true
}

// SubmitAnswer scores a player's answer. Correct answers earn
// (wordLength - hintsUsed) * 1000, plus the found bonus when the personal
// timer was engaged. When every player has answered the round ends
// immediately instead of waiting for the next tick.
func (r *Room) SubmitAnswer(playerID, rawAnswer string) (AnswerResultPayload, error) {
	r.mu.Lock()

	if r.state != StatePlaying {
		r.mu.Unlock()
		return AnswerResultPayload{}, ErrRoundNotActive
	}
	p, ok := r.players[playerID]
	if !ok {
		r.mu.Unlock()
		return AnswerResultPayload{}, ErrUnknownPlayer
	}
	if p.HasAnswered {
		r.mu.Unlock()
		return AnswerResultPayload{}, ErrAlreadyAnswered
	}

	answer := strings.ToUpper(strings.TrimSpace(rawAnswer))
	if answer != "" && len(answer) != r.wordLength {
		r.mu.Unlock()
		return AnswerResultPayload{}, ErrInvalidAnswerLength
	}

	result := r.recordAnswerLocked(p, answer)

	r.mu.Unlock()
	r.broadcast()
	return result, nil
}

// recordAnswerLocked applies a validated answer for a player and ends the
// round when it was the last one outstanding. Callers hold r.mu.
func (r *Room) recordAnswerLocked(p *PlayerState, answer string) AnswerResultPayload {
	correct := answer == r.answer
	hintsUsed := len(r.hints[p.ID])

	score := 0
	if correct {
		score = (r.wordLength - hintsUsed) * 1000
		if p.IsUsingPersonalTimer {
			score += foundBonus
		}
	}

	p.HasAnswered = true
	p.Answer = answer
	p.Score += score
	p.Status = StatusCompleted

	r.answers[p.ID] = AnswerRecord{
		Answer:    answer,
		Correct:   correct,
		Score:     score,
		HintsUsed: hintsUsed,
	}

	log.Info().
		Str("room_code", r.code).
		Str("player_id", p.ID).
		Bool("correct", correct).
		Int("score", score).
		Int("hints_used", hintsUsed).
		Msg("answer submitted")

	if r.allAnsweredLocked() {
		r.endRoundLocked()
	}

	nearMiss := !correct && answer != "" &&
		levenshtein.ComputeDistance(answer, r.answer) <= 2
	return AnswerResultPayload{IsCorrect: correct, Score: score, Close: nearMiss}
}

// forceSubmitLocked records an empty answer for a player whose timer ran
// out. Callers hold r.mu.
func (r *Room) forceSubmitLocked(playerID string) {
	p, ok := r.players[playerID]
	if !ok || p.HasAnswered {
		return
	}
	log.Info().
		Str("room_code", r.code).
		Str("player_id", playerID).
		Msg("timer expired, auto-submitting empty answer")
	r.recordAnswerLocked(p, "")
}

func (r *Room) allAnsweredLocked() bool {
	for _, p := range r.players {
		if !p.HasAnswered {
			return false
		}
	}
	return len(r.players) > 0
}

// endRoundLocked moves to results, stops the tick loop, and schedules the
// one-shot transition to the next round. Callers hold r.mu.
func (r *Room) endRoundLocked() {
	r.state = StateResults
	r.cancelTickLocked()

	delay := time.Duration(r.settings.ResultsDelaySec) * time.Second
	r.resultsTimer = r.clock.AfterFunc(delay, r.advanceRound)

	log.Info().
		Str("room_code", r.code).
		Int("round", r.round).
		Msg("round over, showing results")
}

// advanceRound is the results-timer callback. A room deleted while the
// timer was pending observes closed and must not mutate anything.
func (r *Room) advanceRound() {
	r.mu.Lock()

	if r.closed || r.state != StateResults {
		r.mu.Unlock()
		return
	}
	r.resultsTimer = nil

	r.round++
	if r.round > r.settings.TotalRounds {
		r.endGameLocked()
	} else {
		r.state = StatePlaying
		r.setupRoundLocked()
		r.armTickLocked()
	}

	r.mu.Unlock()
	r.broadcast()
}

// endGameLocked moves to finished and stops all timers. No further
// mutation is permitted afterwards. Callers hold r.mu.
func (r *Room) endGameLocked() {
	r.state = StateFinished
	r.cancelTickLocked()
	r.cancelResultsTimerLocked()

	log.Info().
		Str("room_code", r.code).
		Int("rounds_played", r.round).
		Msg("game finished")
}

// armTickLocked starts the once-per-second tick loop. Callers hold r.mu
// and guarantee no loop is currently running.
func (r *Room) armTickLocked() {
	ticker := r.clock.NewTicker(time.Second)
	done := make(chan struct{})
	r.ticker = ticker
	r.tickDone = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				r.Tick()
			}
		}
	}()
}

// cancelTickLocked stops the tick loop exactly once. Callers hold r.mu.
// Closing done never blocks, so this is safe from within Tick itself.
func (r *Room) cancelTickLocked() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	if r.tickDone != nil {
		close(r.tickDone)
		r.tickDone = nil
	}
}

func (r *Room) cancelResultsTimerLocked() {
	if r.resultsTimer != nil {
		r.resultsTimer.Stop()
		r.resultsTimer = nil
	}
}

// broadcast pushes a player-scoped snapshot to every player. Snapshots are
// built under the lock; delivery happens outside it.
func (r *Room) broadcast() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	views := make(map[string]Snapshot, len(r.players))
	for id := range r.players {
		views[id] = r.snapshotLocked(id)
	}
	r.mu.Unlock()

	for id, snap := range views {
		event, err := NewEvent(EventTypeGameStateUpdate, snap)
		if err != nil {
			log.Error().Err(err).Str("room_code", r.code).Msg("failed to marshal snapshot")
			continue
		}
		r.notifier.Notify(id, event)
	}
}

// BroadcastEvent sends the same event payload to every player in the room.
func (r *Room) BroadcastEvent(eventType EventType, payload any) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	event, err := NewEvent(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("room_code", r.code).Msg("failed to marshal event")
		return
	}
	for _, id := range ids {
		r.notifier.Notify(id, event)
	}
}
