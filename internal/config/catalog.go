package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"kitchenrush/internal/domain"
)

//go:embed data/kitchen.yaml
var defaultKitchen []byte

type itemFile struct {
	Name  string `yaml:"name"`
	Asset string `yaml:"asset"`
}

type cuttingFile struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Strikes int    `yaml:"strikes"`
}

type timedFile struct {
	Input   string  `yaml:"input"`
	Output  string  `yaml:"output"`
	Seconds float64 `yaml:"seconds"`
}

type deliveryFile struct {
	Name        string   `yaml:"name"`
	Ingredients []string `yaml:"ingredients"`
}

type stationFile struct {
	ID              string  `yaml:"id"`
	Kind            string  `yaml:"kind"`
	Item            string  `yaml:"item"`
	Capacity        int     `yaml:"capacity"`
	IntervalSeconds float64 `yaml:"interval_seconds"`
}

type kitchenFile struct {
	Items            []itemFile     `yaml:"items"`
	Plate            string         `yaml:"plate"`
	PlateIngredients []string       `yaml:"plate_ingredients"`
	Cutting          []cuttingFile  `yaml:"cutting"`
	Heating          []timedFile    `yaml:"heating"`
	Decay            []timedFile    `yaml:"decay"`
	Deliveries       []deliveryFile `yaml:"deliveries"`
	Stations         []stationFile  `yaml:"stations"`
}

// Kitchen is a resolved kitchen definition: the catalog plus the station layout.
type Kitchen struct {
	Catalog *domain.Catalog
	Layout  []domain.StationSpec
}

// LoadCatalog reads a kitchen definition. An empty path loads the embedded default.
func LoadCatalog(path string) (*Kitchen, error) {
	data := defaultKitchen
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read kitchen definition: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML kitchen definition.
func ParseCatalog(data []byte) (*Kitchen, error) {
	var f kitchenFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kitchen definition: %w", err)
	}

	def := domain.CatalogDef{
		Plate:            f.Plate,
		PlateIngredients: f.PlateIngredients,
	}
	for _, it := range f.Items {
		def.Items = append(def.Items, domain.ItemDef{Name: it.Name, Asset: it.Asset})
	}
	for _, r := range f.Cutting {
		def.Cutting = append(def.Cutting, domain.CuttingDef{Input: r.Input, Output: r.Output, Strikes: r.Strikes})
	}
	for _, r := range f.Heating {
		def.Heating = append(def.Heating, domain.TimedDef{Input: r.Input, Output: r.Output, Duration: seconds(r.Seconds)})
	}
	for _, r := range f.Decay {
		def.Decay = append(def.Decay, domain.TimedDef{Input: r.Input, Output: r.Output, Duration: seconds(r.Seconds)})
	}
	for _, d := range f.Deliveries {
		def.Deliveries = append(def.Deliveries, domain.DeliveryDef{Name: d.Name, Ingredients: d.Ingredients})
	}

	catalog, err := domain.NewCatalog(def)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	k := &Kitchen{Catalog: catalog}
	for i, s := range f.Stations {
		spec := domain.StationSpec{
			ID:       domain.StationID(s.ID),
			Kind:     domain.StationKind(s.Kind),
			Capacity: s.Capacity,
			Interval: seconds(s.IntervalSeconds),
			Item:     domain.NoItem,
		}
		if s.ID == "" {
			return nil, fmt.Errorf("station %d: id is required", i)
		}
		if spec.Kind == domain.KindDispenser {
			it, ok := catalog.ItemByName(s.Item)
			if !ok {
				return nil, fmt.Errorf("station %s: %w: %q", s.ID, domain.ErrUnknownItem, s.Item)
			}
			spec.Item = it.ID
		}
		k.Layout = append(k.Layout, spec)
	}
	if len(k.Layout) == 0 {
		return nil, fmt.Errorf("kitchen definition has no stations")
	}

	// Layout errors surface at load time.
	if _, err := domain.NewKitchen(catalog, domain.KitchenOptions{Layout: k.Layout}); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return k, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
