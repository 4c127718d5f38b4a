package domain

// GameName is advertised in every match label.
const GameName = "kitchenrush"

// LabelPayload produces the values needed for match label advertisement.
type LabelPayload struct {
	Open    bool   `json:"open"`
	Game    string `json:"game"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
}

// ComputeLabel derives the advertised label from the clock and roster.
func ComputeLabel(clock *Clock, roster *Roster) LabelPayload {
	open := !clock.Started() && roster.Len() < MaxParticipants
	return LabelPayload{Open: open, Game: GameName, Phase: clock.State().String(), Players: roster.Len()}
}
