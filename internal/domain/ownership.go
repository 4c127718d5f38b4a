package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrHolderOccupied is an invariant violation: a holder was asked to accept a second item.
	ErrHolderOccupied = errors.New("holder already holds an item")
	// ErrUnknownHolder means the holder id does not resolve to a live holder.
	ErrUnknownHolder = errors.New("holder cannot be resolved")
	// ErrUnknownInstance means the instance id does not resolve to a live object.
	ErrUnknownInstance = errors.New("instance cannot be resolved")
	// ErrNotLinked means the instance is not held by the expected holder any more.
	ErrNotLinked = errors.New("instance not linked to source holder")
	// ErrDuplicateSpawn means a spawn targeted an occupied holder and was suppressed.
	ErrDuplicateSpawn = errors.New("spawn suppressed, holder occupied")
)

// Directory owns every kitchen object instance and every holder link. Stations and the
// roster change ownership only through Transfer, Spawn and Destroy.
type Directory struct {
	catalog *Catalog
	journal *Journal
	newID   func() InstanceID
	objects map[InstanceID]*KitchenObject
	holders map[HolderRef]Holder
}

// NewDirectory builds an empty directory. newID may be nil to use random ids.
func NewDirectory(catalog *Catalog, journal *Journal, newID func() InstanceID) *Directory {
	if newID == nil {
		newID = NewInstanceID
	}
	return &Directory{
		catalog: catalog,
		journal: journal,
		newID:   newID,
		objects: make(map[InstanceID]*KitchenObject),
		holders: make(map[HolderRef]Holder),
	}
}

// Register makes a holder resolvable by its reference.
func (d *Directory) Register(h Holder) {
	d.holders[h.Ref()] = h
}

// Unregister destroys whatever the holder carries and forgets it.
func (d *Directory) Unregister(ref HolderRef) {
	h, ok := d.holders[ref]
	if !ok {
		return
	}
	if held := h.Held(); held != nil {
		d.Destroy(held.id)
	}
	delete(d.holders, ref)
}

// Resolve returns the live holder for ref.
func (d *Directory) Resolve(ref HolderRef) (Holder, bool) {
	h, ok := d.holders[ref]
	return h, ok
}

// Lookup returns the live instance for id.
func (d *Directory) Lookup(id InstanceID) (*KitchenObject, bool) {
	o, ok := d.objects[id]
	return o, ok
}

// Len returns the number of live instances.
func (d *Directory) Len() int { return len(d.objects) }

// Transfer moves instance from one holder to another. from may be the zero ref for a
// freshly spawned instance that has no holder yet.
func (d *Directory) Transfer(id InstanceID, from, to HolderRef) error {
	obj, ok := d.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	dst, ok := d.holders[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHolder, to)
	}
	if dst.Held() != nil {
		return fmt.Errorf("%w: %s", ErrHolderOccupied, to)
	}

	if from.IsZero() {
		if obj.holder != nil {
			return fmt.Errorf("%w: %s is held by %s", ErrNotLinked, id, obj.holder.Ref())
		}
	} else {
		if obj.holder == nil || obj.holder.Ref() != from {
			return fmt.Errorf("%w: %s not held by %s", ErrNotLinked, id, from)
		}
	}

	if obj.holder != nil {
		obj.holder.release()
	}
	dst.accept(obj)
	obj.holder = dst
	obj.anchor = dst.Anchor()

	d.journal.record(Change{
		Kind:     ChangeLinked,
		Instance: obj.id,
		ItemType: obj.itemType,
		Holder:   to,
		Anchor:   obj.anchor,
	})
	return nil
}

// Spawn creates an instance of itemType inside the holder. A spawn into an occupied holder
// is a duplicate request and returns ErrDuplicateSpawn without side effects.
func (d *Directory) Spawn(itemType ItemTypeID, into HolderRef) (*KitchenObject, error) {
	if _, ok := d.catalog.Item(itemType); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItem, itemType)
	}
	dst, ok := d.holders[into]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHolder, into)
	}
	if dst.Held() != nil {
		return nil, ErrDuplicateSpawn
	}

	obj := &KitchenObject{id: d.newID(), itemType: itemType}
	if itemType == d.catalog.PlateType() {
		obj.plate = newPlate(d.catalog.PlateAllows)
	}
	d.objects[obj.id] = obj

	if err := d.Transfer(obj.id, HolderRef{}, into); err != nil {
		delete(d.objects, obj.id)
		return nil, err
	}
	return obj, nil
}

// Destroy removes an instance. Observers first learn that the holder no longer references
// it, then that it is gone. Destroying an unknown instance is a no-op.
func (d *Directory) Destroy(id InstanceID) {
	obj, ok := d.objects[id]
	if !ok {
		return
	}
	if obj.holder != nil {
		ref := obj.holder.Ref()
		obj.holder.release()
		obj.holder = nil
		d.journal.record(Change{Kind: ChangeUnlinked, Instance: id, Holder: ref})
	}
	delete(d.objects, id)
	d.journal.record(Change{Kind: ChangeDestroyed, Instance: id})
}

// Replace destroys the instance held by ref and spawns output in its place.
func (d *Directory) Replace(ref HolderRef, output ItemTypeID) (*KitchenObject, error) {
	h, ok := d.holders[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHolder, ref)
	}
	if held := h.Held(); held != nil {
		d.Destroy(held.id)
	}
	return d.Spawn(output, ref)
}

// Verify checks the single-owner invariant in both directions.
func (d *Directory) Verify() error {
	for ref, h := range d.holders {
		held := h.Held()
		if held == nil {
			continue
		}
		obj, ok := d.objects[held.id]
		if !ok || obj != held {
			return fmt.Errorf("holder %s references dead instance %s", ref, held.id)
		}
		if obj.holder == nil || obj.holder.Ref() != ref {
			return fmt.Errorf("holder %s references %s whose holder disagrees", ref, held.id)
		}
	}
	for id, obj := range d.objects {
		if obj.holder == nil {
			continue
		}
		if obj.holder.Held() != obj {
			return fmt.Errorf("instance %s claims holder %s which holds something else", id, obj.holder.Ref())
		}
		if h, ok := d.holders[obj.holder.Ref()]; !ok || h != obj.holder {
			return fmt.Errorf("instance %s claims unregistered holder %s", id, obj.holder.Ref())
		}
	}
	return nil
}
