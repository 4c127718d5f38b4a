package domain

import "github.com/google/uuid"

// InstanceID uniquely identifies a spawned kitchen object.
type InstanceID string

// NewInstanceID returns a random instance id.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.NewString())
}

// KitchenObject is one concrete item in the world. Its holder link is owned by the
// Directory; nothing outside this package can change it.
type KitchenObject struct {
	id       InstanceID
	itemType ItemTypeID
	holder   Holder // nil while pending spawn
	anchor   string // follower target, mirrors holder.Anchor()
	plate    *Plate
}

// ID returns the instance id.
func (o *KitchenObject) ID() InstanceID { return o.id }

// Type returns the item type of the instance.
func (o *KitchenObject) Type() ItemTypeID { return o.itemType }

// Holder returns the current holder reference and whether the instance is linked.
func (o *KitchenObject) Holder() (HolderRef, bool) {
	if o.holder == nil {
		return HolderRef{}, false
	}
	return o.holder.Ref(), true
}

// Anchor returns the anchor point the instance follows.
func (o *KitchenObject) Anchor() string { return o.anchor }

// AsComposite returns the plate view of the instance when it is a composite item.
func (o *KitchenObject) AsComposite() (*Plate, bool) {
	if o == nil || o.plate == nil {
		return nil, false
	}
	return o.plate, true
}

// Plate is the composite item: an ordered set of ingredient types restricted to an
// allow-list.
type Plate struct {
	allows      func(ItemTypeID) bool
	ingredients []ItemTypeID
}

func newPlate(allows func(ItemTypeID) bool) *Plate {
	return &Plate{allows: allows}
}

// TryAddIngredient inserts t when it is allowed and not already present.
// It reports false, leaving the set unchanged, otherwise.
func (p *Plate) TryAddIngredient(t ItemTypeID) bool {
	if p.allows == nil || !p.allows(t) {
		return false
	}
	if p.Has(t) {
		return false
	}
	p.ingredients = append(p.ingredients, t)
	return true
}

// Has reports whether t is on the plate.
func (p *Plate) Has(t ItemTypeID) bool {
	for _, it := range p.ingredients {
		if it == t {
			return true
		}
	}
	return false
}

// Len returns the number of ingredients.
func (p *Plate) Len() int { return len(p.ingredients) }

// Ingredients returns a copy of the ingredient set in insertion order.
func (p *Plate) Ingredients() []ItemTypeID {
	return append([]ItemTypeID(nil), p.ingredients...)
}
