package game

import "sort"

// PlayerView is the public per-player slice of a snapshot. It carries
// everything clients render about other players and deliberately omits
// hint positions and submitted answers.
type PlayerView struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Score                int          `json:"score"`
	Status               PlayerStatus `json:"status"`
	IndividualTimer      int          `json:"individualTimer"`
	IsUsingPersonalTimer bool         `json:"isUsingPersonalTimer"`
	PersonalTimer        int          `json:"personalTimer"`
	HasAnswered          bool         `json:"hasAnswered"`
	IsHost               bool         `json:"isHost"`
	HintCount            int          `json:"hintCount"`
}

// AnswerRecord is a round-scoped record of one player's submission. It
// becomes public once the room enters the results state.
type AnswerRecord struct {
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
	Score     int    `json:"score"`
	HintsUsed int    `json:"hintsUsed"`
}

// Snapshot is the player-scoped read-only view of room state pushed on
// every state change. PlayerHints holds only the receiving player's own
// revealed positions; PlayerAnswers and CorrectAnswer are set only in the
// results state, when the round outcome is public.
type Snapshot struct {
	RoomCode             string                  `json:"roomCode"`
	GameState            State                   `json:"gameState"`
	CurrentRound         int                     `json:"currentRound"`
	TotalRounds          int                     `json:"totalRounds"`
	GameTimer            int                     `json:"gameTimer"`
	IsGeneralTimerPaused bool                    `json:"isGeneralTimerPaused"`
	CurrentWordLength    int                     `json:"currentWordLength"`
	CurrentQuestion      string                  `json:"currentQuestion"`
	Players              []PlayerView            `json:"players"`
	PlayerHints          []int                   `json:"playerHints"`
	PlayerAnswers        map[string]AnswerRecord `json:"playerAnswers,omitempty"`
	CorrectAnswer        string                  `json:"correctAnswer,omitempty"`
}

// snapshotLocked derives the view for one player. Callers hold r.mu.
func (r *Room) snapshotLocked(forPlayerID string) Snapshot {
	snap := Snapshot{
		RoomCode:             r.code,
		GameState:            r.state,
		CurrentRound:         r.round,
		TotalRounds:          r.settings.TotalRounds,
		GameTimer:            r.gameTimer,
		IsGeneralTimerPaused: r.generalTimerPaused,
		CurrentWordLength:    r.wordLength,
		CurrentQuestion:      r.question,
		Players:              r.playerViewsLocked(),
	}

	// Own hints only; a copy so the caller can't see later reveals.
	hints := r.hints[forPlayerID]
	snap.PlayerHints = make([]int, len(hints))
	copy(snap.PlayerHints, hints)

	if r.state == StateResults || r.state == StateFinished {
		snap.CorrectAnswer = r.answer
		snap.PlayerAnswers = make(map[string]AnswerRecord, len(r.answers))
		for id, record := range r.answers {
			snap.PlayerAnswers[id] = record
		}
	}

	return snap
}

// playerViewsLocked lists players in join order, or by final standing once
// the game has finished. Callers hold r.mu.
func (r *Room) playerViewsLocked() []PlayerView {
	ordered := make([]*PlayerState, 0, len(r.players))
	for _, p := range r.players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].joinSeq < ordered[j].joinSeq
	})
	if r.state == StateFinished {
		// Score descending; the stable sort keeps join order on ties.
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Score > ordered[j].Score
		})
	}

	views := make([]PlayerView, 0, len(ordered))
	for _, p := range ordered {
		views = append(views, PlayerView{
			ID:                   p.ID,
			Name:                 p.Name,
			Score:                p.Score,
			Status:               p.Status,
			IndividualTimer:      p.IndividualTimer,
			IsUsingPersonalTimer: p.IsUsingPersonalTimer,
			PersonalTimer:        p.PersonalTimer,
			HasAnswered:          p.HasAnswered,
			IsHost:               p.IsHost,
			HintCount:            len(r.hints[p.ID]),
		})
	}
	return views
}

// SnapshotFor returns the player-scoped view of the room.
func (r *Room) SnapshotFor(playerID string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(playerID)
}

// Standings returns players ordered by score descending, ties broken by
// join order.
func (r *Room) Standings() []PlayerView {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]*PlayerState, 0, len(r.players))
	for _, p := range r.players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].joinSeq < ordered[j].joinSeq
	})
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	views := make([]PlayerView, 0, len(ordered))
	for _, p := range ordered {
		views = append(views, PlayerView{
			ID:     p.ID,
			Name:   p.Name,
			Score:  p.Score,
			Status: p.Status,
			IsHost: p.IsHost,
		})
	}
	return views
}
