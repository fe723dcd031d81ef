package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/wordquest/internal/questions"
)

// recordingNotifier captures every event per player for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]*Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(map[string][]*Event)}
}

func (n *recordingNotifier) Notify(playerID string, event *Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[playerID] = append(n.events[playerID], event)
}

// lastSnapshot returns the most recent gameStateUpdate seen by a player.
func (n *recordingNotifier) lastSnapshot(t *testing.T, playerID string) (Snapshot, bool) {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()

	events := n.events[playerID]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == EventTypeGameStateUpdate {
			var snap Snapshot
			require.NoError(t, json.Unmarshal(events[i].Data, &snap))
			return snap, true
		}
	}
	return Snapshot{}, false
}

// testBank has exactly one question per length, so answers are known.
func testBank(t *testing.T) *questions.Bank {
	t.Helper()
	bank, err := questions.Load([]byte(`
words:
  4:
    - prompt: "Extremely angry or furious"
      answer: "RAGE"
  5:
    - prompt: "A person sent ahead to explore unknown territory"
      answer: "SCOUT"
  6:
    - prompt: "A secret plan to achieve something illegal"
      answer: "SCHEME"
  7:
    - prompt: "The feeling of great happiness"
      answer: "DELIGHT"
`))
	require.NoError(t, err)
	return bank
}

func testSettings() Settings {
	return DefaultSettings()
}

// newTestRoom seats the given players, the first as host, and leaves the
// room in the lobby.
func newTestRoom(t *testing.T, names ...string) (*Room, *recordingNotifier, *clockwork.FakeClock) {
	t.Helper()
	require.NotEmpty(t, names)

	notifier := newRecordingNotifier()
	clock := clockwork.NewFakeClock()
	room := NewRoom("TEST01", "p0", names[0], testSettings(), testBank(t), clock, notifier)
	for i, name := range names[1:] {
		require.NoError(t, room.AddPlayer(fmt.Sprintf("p%d", i+1), name))
	}
	t.Cleanup(room.Close)
	return room, notifier, clock
}

func startGame(t *testing.T, room *Room) {
	t.Helper()
	require.NoError(t, room.Start("p0"))
}

func TestWordLengthForRound(t *testing.T) {
	expected := map[int]int{
		1: 4, 2: 4,
		3: 5, 4: 5,
		5: 6, 6: 7, 7: 8, 8: 9,
	}
	for round, length := range expected {
		assert.Equal(t, length, wordLengthForRound(round), "round %d", round)
	}
}

func TestStart_OnlyHostFromLobby(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")

	assert.ErrorIs(t, room.Start("p1"), ErrNotHost)
	assert.Equal(t, StateLobby, room.State())

	require.NoError(t, room.Start("p0"))
	assert.Equal(t, StatePlaying, room.State())

	// Starting twice fails.
	assert.ErrorIs(t, room.Start("p0"), ErrGameInProgress)
}

func TestStart_ResetsScoresAndTimers(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	room.players["p1"].Score = 9000

	startGame(t, room)

	for _, p := range room.players {
		assert.Equal(t, 0, p.Score)
		assert.Equal(t, testSettings().GameTimerSec, p.IndividualTimer)
		assert.Equal(t, StatusThinking, p.Status)
		assert.False(t, p.HasAnswered)
	}
	assert.Equal(t, 1, room.round)
	assert.Equal(t, testSettings().GameTimerSec, room.gameTimer)
}

func TestSetupRound_AnswerLengthMatchesWordLength(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice")
	startGame(t, room)

	for round := 1; round <= 8; round++ {
		room.mu.Lock()
		room.round = round
		room.setupRoundLocked()
		assert.Equal(t, wordLengthForRound(round), room.wordLength, "round %d", round)
		assert.Len(t, room.answer, room.wordLength, "round %d", round)
		assert.NotEmpty(t, room.question, "round %d", round)
		room.mu.Unlock()
	}
}

func TestSetupRound_PlaceholderWhenBankEmptyForLength(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice")
	startGame(t, room)

	// The test bank tops out at 7 letters; round 7 wants 8.
	room.mu.Lock()
	room.round = 7
	room.setupRoundLocked()
	assert.Equal(t, 8, room.wordLength)
	assert.Len(t, room.answer, 8)
	room.mu.Unlock()
}

func TestAddPlayer_RejectedOutsideLobby(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice")
	startGame(t, room)

	assert.ErrorIs(t, room.AddPlayer("p9", "eve"), ErrGameInProgress)
	assert.False(t, room.HasPlayer("p9"))
}

func TestGetHint_CapsAtWordLengthMinusOne(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice")
	startGame(t, room) // round 1, RAGE

	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		hint, err := room.GetHint("p0")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, hint.Position, 0)
		assert.Less(t, hint.Position, 4)
		assert.False(t, seen[hint.Position], "position %d revealed twice", hint.Position)
		assert.Equal(t, string("RAGE"[hint.Position]), hint.Letter)
		seen[hint.Position] = true
	}

	// One letter must always stay hidden.
	_, err := room.GetHint("p0")
	assert.ErrorIs(t, err, ErrNoMoreHints)
	assert.Len(t, room.hints["p0"], 3)
}

func TestSubmitAnswer_ScoringWithHints(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room) // round 1, RAGE

	_, err := room.GetHint("p0")
	require.NoError(t, err)

	result, err := room.SubmitAnswer("p0", "rage")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, (4-1)*1000, result.Score)
	assert.Equal(t, 3000, room.players["p0"].Score)
	assert.Equal(t, StatusCompleted, room.players["p0"].Status)
}

func TestSubmitAnswer_FoundBonus(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	require.True(t, room.MarkFound("p0"))

	result, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 4*1000+2000, result.Score)
}

func TestSubmitAnswer_IncorrectScoresZero(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	result, err := room.SubmitAnswer("p0", "SAGE")
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, 0, result.Score)
	assert.True(t, result.Close, "one letter off should flag a near miss")
	assert.Equal(t, 0, room.players["p0"].Score)
}

func TestSubmitAnswer_InvalidLengthRejectedBeforeScoring(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGES")
	assert.ErrorIs(t, err, ErrInvalidAnswerLength)
	assert.False(t, room.players["p0"].HasAnswered)
	assert.Empty(t, room.answers)
}

func TestSubmitAnswer_DuplicateRejected(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)
	scoreAfterFirst := room.players["p0"].Score

	_, err = room.SubmitAnswer("p0", "RAGE")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, scoreAfterFirst, room.players["p0"].Score)
}

func TestMarkFound_PausesTimersOnce(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	require.True(t, room.MarkFound("p0"))
	assert.True(t, room.generalTimerPaused)
	assert.True(t, room.players["p0"].TimerPaused)
	assert.Equal(t, 30, room.players["p0"].PersonalTimer)
	assert.Equal(t, StatusFinalCountdown, room.players["p0"].Status)

	// Burn some of the personal window, then try to re-arm it.
	room.Tick()
	room.Tick()
	assert.Equal(t, 28, room.players["p0"].PersonalTimer)

	assert.False(t, room.MarkFound("p0"), "second markFound must be rejected")
	assert.Equal(t, 28, room.players["p0"].PersonalTimer, "personal window must not re-arm")
}

func TestMarkFound_NoOpAfterAnswer(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)
	assert.False(t, room.MarkFound("p0"))
}

func TestTick_DecrementsTimers(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	room.Tick()
	assert.Equal(t, testSettings().GameTimerSec-1, room.gameTimer)
	assert.Equal(t, testSettings().GameTimerSec-1, room.players["p0"].IndividualTimer)
	assert.Equal(t, testSettings().GameTimerSec-1, room.players["p1"].IndividualTimer)
}

func TestTick_GeneralTimerFrozenWhileFound(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)
	require.True(t, room.MarkFound("p0"))

	before := room.gameTimer
	room.Tick()
	assert.Equal(t, before, room.gameTimer, "general timer must pause for everyone")
	// The other player's thinking timer still runs.
	assert.Equal(t, testSettings().GameTimerSec-1, room.players["p1"].IndividualTimer)
}

func TestTick_PersonalTimerForceSubmits(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)
	require.True(t, room.MarkFound("p0"))

	room.players["p0"].PersonalTimer = 1
	room.Tick()

	p := room.players["p0"]
	assert.True(t, p.HasAnswered)
	assert.Equal(t, StatusCompleted, p.Status)
	record, ok := room.answers["p0"]
	assert.True(t, ok)
	assert.False(t, record.Correct)
	assert.Equal(t, "", record.Answer)
}

func TestTick_IndividualTimerForceSubmits(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	room.players["p1"].IndividualTimer = 1
	room.Tick()

	assert.True(t, room.players["p1"].HasAnswered)
	assert.False(t, room.players["p0"].HasAnswered)
	assert.Equal(t, StatePlaying, room.state)
}

func TestTick_GameTimerZeroFinishesUnconditionally(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	room.mu.Lock()
	room.gameTimer = 1
	room.mu.Unlock()
	room.Tick()

	assert.Equal(t, StateFinished, room.State())
	assert.Nil(t, room.ticker, "tick loop must be cancelled on finish")
}

func TestTick_GameTimerZeroOverridesRoundEnd(t *testing.T) {
	// On the natural idle path every individual timer expires on the same
	// tick as the shared game clock; the forced empty submissions end the
	// round, but the game must still finish on that tick.
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	room.mu.Lock()
	room.gameTimer = 1
	for _, p := range room.players {
		p.IndividualTimer = 1
	}
	room.mu.Unlock()
	room.Tick()

	assert.Equal(t, StateFinished, room.State())
	assert.Nil(t, room.resultsTimer, "results window must not survive the finish")
	assert.Nil(t, room.ticker)
}

func TestAllAnswered_EndsRoundWithoutWaitingForTick(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)
	assert.Equal(t, StatePlaying, room.State())

	_, err = room.SubmitAnswer("p1", "")
	require.NoError(t, err)
	assert.Equal(t, StateResults, room.State())
	assert.NotNil(t, room.resultsTimer, "results window must be scheduled")
}

func TestResultsWindow_AdvancesToNextRound(t *testing.T) {
	room, _, clock := newTestRoom(t, "alice")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)
	require.Equal(t, StateResults, room.State())

	clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool {
		return room.State() == StatePlaying
	}, time.Second, 5*time.Millisecond)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, 2, room.round)
	assert.Equal(t, "RAGE", room.answer, "rounds 1-2 both use 4-letter words")
	assert.False(t, room.players["p0"].HasAnswered, "round-scoped state must reset")
}

func TestGame_FinishesAfterTotalRoundsAndStaysFinished(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	answers := map[int]string{4: "RAGE", 5: "SCOUT", 6: "SCHEME", 7: "DELIGHT"}
	for round := 1; round <= testSettings().TotalRounds; round++ {
		require.Equal(t, StatePlaying, room.State(), "round %d", round)

		answer := answers[room.wordLength]
		_, err := room.SubmitAnswer("p0", answer)
		require.NoError(t, err)
		_, err = room.SubmitAnswer("p1", "")
		require.NoError(t, err)
		require.Equal(t, StateResults, room.State(), "round %d", round)

		// Drive the results window transition directly.
		room.advanceRound()
	}

	assert.Equal(t, StateFinished, room.State())

	// Post-game intents fail without mutating state.
	_, err := room.SubmitAnswer("p0", "RAGE")
	assert.ErrorIs(t, err, ErrRoundNotActive)
	_, err = room.GetHint("p0")
	assert.ErrorIs(t, err, ErrRoundNotActive)
	assert.False(t, room.MarkFound("p0"))

	scoreBefore := room.players["p0"].Score
	room.advanceRound()
	assert.Equal(t, StateFinished, room.State())
	assert.Equal(t, scoreBefore, room.players["p0"].Score)
}

func TestStandings_ScoreDescendingStableByJoinOrder(t *testing.T) {
	room, _, _ := newTestRoom(t, "a", "b", "c", "d")

	room.players["p0"].Score = 30
	room.players["p1"].Score = 10
	room.players["p2"].Score = 30
	room.players["p3"].Score = 20

	standings := room.Standings()
	ids := make([]string, 0, len(standings))
	for _, view := range standings {
		ids = append(ids, view.ID)
	}
	assert.Equal(t, []string{"p0", "p2", "p3", "p1"}, ids)
}

func TestRemovePlayer_TransfersHostToEarliestJoined(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob", "carol")

	empty := room.RemovePlayer("p0")
	assert.False(t, empty)
	assert.Equal(t, "p1", room.hostID)
	assert.True(t, room.players["p1"].IsHost)
}

func TestRemovePlayer_LastLeaverEmptiesRoom(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")

	assert.False(t, room.RemovePlayer("p0"))
	assert.True(t, room.RemovePlayer("p1"))
	assert.True(t, room.closed)
}

func TestRemovePlayer_EndRoundWhenRemainingAllAnswered(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)

	room.RemovePlayer("p1")
	assert.Equal(t, StateResults, room.State())
}

func TestClose_CancelsPendingResultsTimer(t *testing.T) {
	room, _, clock := newTestRoom(t, "alice")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)
	require.Equal(t, StateResults, room.State())

	room.Close()
	clock.Advance(10 * time.Second)

	// The pending transition must not mutate a discarded room.
	assert.Equal(t, StateResults, room.state)
	assert.Equal(t, 1, room.round)
}

func TestSnapshot_HidesOtherPlayersHints(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.GetHint("p0")
	require.NoError(t, err)
	_, err = room.GetHint("p0")
	require.NoError(t, err)

	own := room.SnapshotFor("p0")
	assert.Len(t, own.PlayerHints, 2)

	other := room.SnapshotFor("p1")
	assert.Empty(t, other.PlayerHints, "p1 must not see p0's hint positions")
	for _, view := range other.Players {
		if view.ID == "p0" {
			assert.Equal(t, 2, view.HintCount, "hint count is public")
		}
	}
}

func TestSnapshot_AnswersRevealedOnlyInResults(t *testing.T) {
	room, _, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	_, err := room.SubmitAnswer("p0", "RAGE")
	require.NoError(t, err)

	snap := room.SnapshotFor("p1")
	assert.Empty(t, snap.CorrectAnswer)
	assert.Empty(t, snap.PlayerAnswers)

	_, err = room.SubmitAnswer("p1", "SAGE")
	require.NoError(t, err)
	require.Equal(t, StateResults, room.State())

	snap = room.SnapshotFor("p1")
	assert.Equal(t, "RAGE", snap.CorrectAnswer)
	assert.Len(t, snap.PlayerAnswers, 2)
	assert.True(t, snap.PlayerAnswers["p0"].Correct)
	assert.False(t, snap.PlayerAnswers["p1"].Correct)
}

func TestTick_BroadcastsSnapshotToEveryPlayer(t *testing.T) {
	room, notifier, _ := newTestRoom(t, "alice", "bob")
	startGame(t, room)

	room.Tick()

	for _, id := range []string{"p0", "p1"} {
		snap, ok := notifier.lastSnapshot(t, id)
		require.True(t, ok, "player %s received no snapshot", id)
		assert.Equal(t, StatePlaying, snap.GameState)
		assert.Equal(t, testSettings().GameTimerSec-1, snap.GameTimer)
		assert.Len(t, snap.Players, 2)
	}
}
