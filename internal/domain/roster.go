package domain

import (
	"errors"
	"sort"
	"strings"
)

// MaxParticipants is the fixed roster capacity.
const MaxParticipants = 4

// MaxDisplayNameLength bounds participant display names.
const MaxDisplayNameLength = 24

// Admission and profile rejection reasons.
var (
	ErrGameStarted    = errors.New("game already started")
	ErrMatchFull      = errors.New("full")
	ErrAlreadyJoined  = errors.New("already joined")
	ErrNotParticipant = errors.New("not a participant")
	ErrColorTaken     = errors.New("color already taken")
	ErrUnknownColor   = errors.New("unknown color")
	ErrInvalidName    = errors.New("invalid display name")
	ErrNoColorLeft    = errors.New("no color available")
)

// Participant is one connected player.
type Participant struct {
	UserID        string
	Username      string // transport-level fallback name
	DisplayName   string // answered by the client, empty until then
	IdentityToken string
	Slot          int
	Color         int
}

// Name returns the display name, falling back to the transport username.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// AwaitingProfile reports whether the client has not answered the profile request yet.
func (p Participant) AwaitingProfile() bool { return p.IdentityToken == "" }

// Roster is the authoritative list of live participants. Slot ids are derived from the
// live set only: a freed slot is reused by the next joiner.
type Roster struct {
	colors  int
	members map[string]*Participant
}

// NewRoster creates a roster with a palette of colorCount colors.
func NewRoster(colorCount int) *Roster {
	return &Roster{colors: colorCount, members: make(map[string]*Participant)}
}

// CanAdmit decides whether a new connection may join.
func (r *Roster) CanAdmit(userID string, started bool) error {
	if _, ok := r.members[userID]; ok {
		return ErrAlreadyJoined
	}
	if started {
		return ErrGameStarted
	}
	if len(r.members) >= MaxParticipants {
		return ErrMatchFull
	}
	return nil
}

// Admit adds a participant with the lowest free slot and the first unclaimed color.
func (r *Roster) Admit(userID, username string) (Participant, error) {
	if _, ok := r.members[userID]; ok {
		return Participant{}, ErrAlreadyJoined
	}
	if len(r.members) >= MaxParticipants {
		return Participant{}, ErrMatchFull
	}
	color := r.firstFreeColor()
	if color < 0 {
		return Participant{}, ErrNoColorLeft
	}
	p := &Participant{
		UserID:   userID,
		Username: username,
		Slot:     r.lowestFreeSlot(),
		Color:    color,
	}
	r.members[userID] = p
	return *p, nil
}

// Remove drops a participant; their slot and color become free.
func (r *Roster) Remove(userID string) (Participant, bool) {
	p, ok := r.members[userID]
	if !ok {
		return Participant{}, false
	}
	delete(r.members, userID)
	return *p, true
}

// SetProfile records the name and identity token the client answered with.
func (r *Roster) SetProfile(userID, displayName, token string) (Participant, error) {
	p, ok := r.members[userID]
	if !ok {
		return Participant{}, ErrNotParticipant
	}
	name := strings.TrimSpace(displayName)
	if name == "" || len([]rune(name)) > MaxDisplayNameLength {
		return Participant{}, ErrInvalidName
	}
	p.DisplayName = name
	p.IdentityToken = token
	return *p, nil
}

// ChangeColor claims color for the participant. A color held by another live participant
// is refused; re-claiming one's own color succeeds.
func (r *Roster) ChangeColor(userID string, color int) (Participant, error) {
	p, ok := r.members[userID]
	if !ok {
		return Participant{}, ErrNotParticipant
	}
	if color < 0 || color >= r.colors {
		return Participant{}, ErrUnknownColor
	}
	for id, other := range r.members {
		if id != userID && other.Color == color {
			return Participant{}, ErrColorTaken
		}
	}
	p.Color = color
	return *p, nil
}

// Get returns a participant.
func (r *Roster) Get(userID string) (Participant, bool) {
	p, ok := r.members[userID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Has reports whether userID is live.
func (r *Roster) Has(userID string) bool {
	_, ok := r.members[userID]
	return ok
}

// Len returns the number of live participants.
func (r *Roster) Len() int { return len(r.members) }

// Participants returns the live participants ordered by slot.
func (r *Roster) Participants() []Participant {
	out := make([]Participant, 0, len(r.members))
	for _, p := range r.members {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// IDs returns the live participant ids ordered by slot.
func (r *Roster) IDs() []string {
	ps := r.Participants()
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.UserID
	}
	return ids
}

// Owner returns the participant in the lowest slot.
func (r *Roster) Owner() (Participant, bool) {
	ps := r.Participants()
	if len(ps) == 0 {
		return Participant{}, false
	}
	return ps[0], true
}

func (r *Roster) lowestFreeSlot() int {
	used := make(map[int]bool, len(r.members))
	for _, p := range r.members {
		used[p.Slot] = true
	}
	slot := 0
	for used[slot] {
		slot++
	}
	return slot
}

func (r *Roster) firstFreeColor() int {
	used := make(map[int]bool, len(r.members))
	for _, p := range r.members {
		used[p.Color] = true
	}
	for c := 0; c < r.colors; c++ {
		if !used[c] {
			return c
		}
	}
	return -1
}
