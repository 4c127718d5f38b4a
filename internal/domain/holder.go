package domain

import "fmt"

// HolderKind distinguishes holder variants.
type HolderKind string

const (
	HolderStation HolderKind = "station"
	HolderPlayer  HolderKind = "player"
)

// HolderRef is the stable network identity of a holder.
type HolderRef struct {
	Kind HolderKind
	ID   string
}

func (r HolderRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// IsZero reports whether the reference names no holder.
func (r HolderRef) IsZero() bool { return r.Kind == "" && r.ID == "" }

// StationRef returns the holder reference of a station.
func StationRef(id StationID) HolderRef { return HolderRef{Kind: HolderStation, ID: string(id)} }

// PlayerRef returns the holder reference of a participant's hands.
func PlayerRef(userID string) HolderRef { return HolderRef{Kind: HolderPlayer, ID: userID} }

// Holder can exclusively hold one kitchen object. The mutators are unexported so that
// only the Directory can change a link.
type Holder interface {
	Ref() HolderRef
	Held() *KitchenObject
	Anchor() string

	accept(o *KitchenObject)
	release()
}

// slot is the single-item storage embedded by every holder.
type slot struct {
	ref    HolderRef
	anchor string
	held   *KitchenObject
}

func newSlot(ref HolderRef, anchor string) slot {
	return slot{ref: ref, anchor: anchor}
}

func (s *slot) Ref() HolderRef       { return s.ref }
func (s *slot) Held() *KitchenObject { return s.held }
func (s *slot) Anchor() string       { return s.anchor }
func (s *slot) accept(o *KitchenObject) {
	s.held = o
}
func (s *slot) release() { s.held = nil }

// HeldID returns the held instance id or "".
func (s *slot) HeldID() InstanceID {
	if s.held == nil {
		return ""
	}
	return s.held.id
}

// Hands is the holder carried by a participant.
type Hands struct {
	slot
}

func newHands(userID string) *Hands {
	return &Hands{slot: newSlot(PlayerRef(userID), "player:"+userID+"/hold_point")}
}

// UserID returns the participant owning the hands.
func (h *Hands) UserID() string { return h.ref.ID }
