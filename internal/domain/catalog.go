package domain

import (
	"errors"
	"fmt"
	"time"
)

// ItemTypeID is the stable index of an item type inside the catalog.
type ItemTypeID int

// NoItem marks the absence of an item type.
const NoItem ItemTypeID = -1

// RecipeTable names the recipe table an item type participates in as an input.
type RecipeTable string

const (
	TableCutting  RecipeTable = "cutting"
	TableHeating  RecipeTable = "heating"
	TableDecay    RecipeTable = "decay"
	TableDelivery RecipeTable = "delivery"
	TablePlate    RecipeTable = "plate"
)

// ItemType is an immutable item descriptor.
type ItemType struct {
	ID     ItemTypeID
	Name   string
	Asset  string
	Tables []RecipeTable // tables where this type appears as an input
}

// InTable reports whether the item type appears as an input of the given table.
func (it ItemType) InTable(table RecipeTable) bool {
	for _, t := range it.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// CuttingRecipe turns Input into Output after Strikes cuts.
type CuttingRecipe struct {
	Input   ItemTypeID
	Output  ItemTypeID
	Strikes int
}

// TimedRecipe turns Input into Output after Duration on a heating station.
// Both the heating table and the decay table use this shape.
type TimedRecipe struct {
	Input    ItemTypeID
	Output   ItemTypeID
	Duration time.Duration
}

// DeliveryRecipe is an ingredient set customers can order.
type DeliveryRecipe struct {
	Name        string
	Ingredients []ItemTypeID
}

// Catalog errors.
var (
	ErrUnknownItem     = errors.New("unknown item type")
	ErrDuplicateItem   = errors.New("duplicate item type")
	ErrDuplicateRecipe = errors.New("duplicate recipe input")
	ErrInvalidRecipe   = errors.New("invalid recipe")
)

// ItemDef describes an item type by name.
type ItemDef struct {
	Name  string
	Asset string
}

// CuttingDef describes a cutting recipe by item names.
type CuttingDef struct {
	Input   string
	Output  string
	Strikes int
}

// TimedDef describes a heating or decay recipe by item names.
type TimedDef struct {
	Input    string
	Output   string
	Duration time.Duration
}

// DeliveryDef describes a deliverable recipe by item names.
type DeliveryDef struct {
	Name        string
	Ingredients []string
}

// CatalogDef is the name-based catalog definition, usually decoded from configuration.
type CatalogDef struct {
	Items            []ItemDef
	Plate            string
	PlateIngredients []string
	Cutting          []CuttingDef
	Heating          []TimedDef
	Decay            []TimedDef
	Deliveries       []DeliveryDef
}

// Catalog is the read-only entity catalog shared by every component of a match.
type Catalog struct {
	items       []ItemType
	byName      map[string]ItemTypeID
	plate       ItemTypeID
	plateAllows map[ItemTypeID]bool
	cutting     map[ItemTypeID]CuttingRecipe
	heating     map[ItemTypeID]TimedRecipe
	decay       map[ItemTypeID]TimedRecipe
	deliveries  []DeliveryRecipe
}

// NewCatalog resolves a name-based definition into a catalog with stable indices.
// Item ids follow the order of def.Items.
func NewCatalog(def CatalogDef) (*Catalog, error) {
	c := &Catalog{
		byName:      make(map[string]ItemTypeID, len(def.Items)),
		plate:       NoItem,
		plateAllows: make(map[ItemTypeID]bool),
		cutting:     make(map[ItemTypeID]CuttingRecipe),
		heating:     make(map[ItemTypeID]TimedRecipe),
		decay:       make(map[ItemTypeID]TimedRecipe),
	}

	for i, item := range def.Items {
		if item.Name == "" {
			return nil, fmt.Errorf("item %d: name is required", i)
		}
		if _, ok := c.byName[item.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, item.Name)
		}
		id := ItemTypeID(i)
		c.byName[item.Name] = id
		c.items = append(c.items, ItemType{ID: id, Name: item.Name, Asset: item.Asset})
	}

	if def.Plate != "" {
		id, err := c.resolve(def.Plate)
		if err != nil {
			return nil, fmt.Errorf("plate: %w", err)
		}
		c.plate = id
	}

	for _, name := range def.PlateIngredients {
		id, err := c.resolve(name)
		if err != nil {
			return nil, fmt.Errorf("plate ingredient: %w", err)
		}
		c.plateAllows[id] = true
		c.mark(id, TablePlate)
	}

	for _, r := range def.Cutting {
		in, out, err := c.resolvePair(r.Input, r.Output)
		if err != nil {
			return nil, fmt.Errorf("cutting recipe: %w", err)
		}
		if r.Strikes <= 0 {
			return nil, fmt.Errorf("%w: cutting %s needs at least one strike", ErrInvalidRecipe, r.Input)
		}
		if _, ok := c.cutting[in]; ok {
			return nil, fmt.Errorf("%w: cutting %s", ErrDuplicateRecipe, r.Input)
		}
		c.cutting[in] = CuttingRecipe{Input: in, Output: out, Strikes: r.Strikes}
		c.mark(in, TableCutting)
	}

	if err := c.loadTimed(def.Heating, c.heating, TableHeating); err != nil {
		return nil, err
	}
	if err := c.loadTimed(def.Decay, c.decay, TableDecay); err != nil {
		return nil, err
	}

	for _, d := range def.Deliveries {
		if len(d.Ingredients) == 0 {
			return nil, fmt.Errorf("%w: delivery %s has no ingredients", ErrInvalidRecipe, d.Name)
		}
		recipe := DeliveryRecipe{Name: d.Name}
		seen := make(map[ItemTypeID]bool, len(d.Ingredients))
		for _, name := range d.Ingredients {
			id, err := c.resolve(name)
			if err != nil {
				return nil, fmt.Errorf("delivery %s: %w", d.Name, err)
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: delivery %s lists %s twice", ErrInvalidRecipe, d.Name, name)
			}
			seen[id] = true
			recipe.Ingredients = append(recipe.Ingredients, id)
			c.mark(id, TableDelivery)
		}
		c.deliveries = append(c.deliveries, recipe)
	}

	return c, nil
}

func (c *Catalog) loadTimed(defs []TimedDef, into map[ItemTypeID]TimedRecipe, table RecipeTable) error {
	for _, r := range defs {
		in, out, err := c.resolvePair(r.Input, r.Output)
		if err != nil {
			return fmt.Errorf("%s recipe: %w", table, err)
		}
		if r.Duration <= 0 {
			return fmt.Errorf("%w: %s %s needs a positive duration", ErrInvalidRecipe, table, r.Input)
		}
		if _, ok := into[in]; ok {
			return fmt.Errorf("%w: %s %s", ErrDuplicateRecipe, table, r.Input)
		}
		into[in] = TimedRecipe{Input: in, Output: out, Duration: r.Duration}
		c.mark(in, table)
	}
	return nil
}

func (c *Catalog) resolve(name string) (ItemTypeID, error) {
	id, ok := c.byName[name]
	if !ok {
		return NoItem, fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	return id, nil
}

func (c *Catalog) resolvePair(in, out string) (ItemTypeID, ItemTypeID, error) {
	inID, err := c.resolve(in)
	if err != nil {
		return NoItem, NoItem, err
	}
	outID, err := c.resolve(out)
	if err != nil {
		return NoItem, NoItem, err
	}
	return inID, outID, nil
}

func (c *Catalog) mark(id ItemTypeID, table RecipeTable) {
	item := &c.items[id]
	if !item.InTable(table) {
		item.Tables = append(item.Tables, table)
	}
}

// Item returns the descriptor for id.
func (c *Catalog) Item(id ItemTypeID) (ItemType, bool) {
	if id < 0 || int(id) >= len(c.items) {
		return ItemType{}, false
	}
	return c.items[id], true
}

// ItemByName returns the descriptor registered under name.
func (c *Catalog) ItemByName(name string) (ItemType, bool) {
	id, ok := c.byName[name]
	if !ok {
		return ItemType{}, false
	}
	return c.items[id], true
}

// Len returns the number of item types.
func (c *Catalog) Len() int { return len(c.items) }

// PlateType returns the composite item type, or NoItem when the catalog has none.
func (c *Catalog) PlateType() ItemTypeID { return c.plate }

// PlateAllows reports whether id may be placed on a plate.
func (c *Catalog) PlateAllows(id ItemTypeID) bool { return c.plateAllows[id] }

// CuttingFor returns the cutting recipe with input id.
func (c *Catalog) CuttingFor(id ItemTypeID) (CuttingRecipe, bool) {
	r, ok := c.cutting[id]
	return r, ok
}

// HeatingFor returns the heating recipe with input id.
func (c *Catalog) HeatingFor(id ItemTypeID) (TimedRecipe, bool) {
	r, ok := c.heating[id]
	return r, ok
}

// DecayFor returns the decay recipe with input id.
func (c *Catalog) DecayFor(id ItemTypeID) (TimedRecipe, bool) {
	r, ok := c.decay[id]
	return r, ok
}

// Deliverables returns the recipes orders are drawn from.
func (c *Catalog) Deliverables() []DeliveryRecipe { return c.deliveries }

// Name returns the item name for id, or "" when unknown.
func (c *Catalog) Name(id ItemTypeID) string {
	if it, ok := c.Item(id); ok {
		return it.Name
	}
	return ""
}
