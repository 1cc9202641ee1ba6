package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jaylorddeguzman/importer/internal/model"
)

const defaultRadius = 5000

// Catalog is the ordered set of locations and categories. The work units are
// their cartesian product in row-major order: every category for location 0,
// then every category for location 1, and so on.
type Catalog struct {
	Locations  []model.Location `yaml:"locations"`
	Categories []model.Category `yaml:"categories"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Locations: []model.Location{
			{Name: "Manila", Lat: 14.5995, Lng: 120.9842, Radius: defaultRadius},
			{Name: "Quezon City", Lat: 14.6760, Lng: 121.0437, Radius: defaultRadius},
			{Name: "Makati", Lat: 14.5547, Lng: 121.0244, Radius: defaultRadius},
			{Name: "Pasig", Lat: 14.5764, Lng: 121.0851, Radius: defaultRadius},
			{Name: "Taguig", Lat: 14.5176, Lng: 121.0509, Radius: defaultRadius},
			{Name: "Cebu City", Lat: 10.3157, Lng: 123.8854, Radius: defaultRadius},
			{Name: "Davao City", Lat: 7.1907, Lng: 125.4553, Radius: defaultRadius},
			{Name: "Baguio", Lat: 16.4023, Lng: 120.5960, Radius: defaultRadius},
			{Name: "Iloilo City", Lat: 10.7202, Lng: 122.5621, Radius: defaultRadius},
			{Name: "Cagayan de Oro", Lat: 8.4542, Lng: 124.6319, Radius: defaultRadius},
		},
		Categories: []model.Category{
			"restaurant",
			"cafe",
			"fast_food",
			"bar",
			"pharmacy",
			"hospital",
			"bank",
			"fuel",
			"shop=supermarket",
			"shop=convenience",
		},
	}
}

// LoadFile reads a YAML catalog. Locations without a radius get the default.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i := range c.Locations {
		if c.Locations[i].Radius == 0 {
			c.Locations[i].Radius = defaultRadius
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog can be traversed.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Locations) == 0 {
		errs = append(errs, errors.New("catalog has no locations"))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("catalog has no categories"))
	}

	seen := make(map[string]bool)
	for i, l := range c.Locations {
		name := strings.TrimSpace(l.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("location %d has no name", i))
		case seen[name]:
			errs = append(errs, fmt.Errorf("duplicate location %q", name))
		}
		seen[name] = true

		if l.Lat < -90 || l.Lat > 90 {
			errs = append(errs, fmt.Errorf("location %q: latitude %v out of range", name, l.Lat))
		}
		if l.Lng < -180 || l.Lng > 180 {
			errs = append(errs, fmt.Errorf("location %q: longitude %v out of range", name, l.Lng))
		}
		if l.Radius <= 0 {
			errs = append(errs, fmt.Errorf("location %q: radius must be positive", name))
		}
	}

	for i, cat := range c.Categories {
		if _, v := cat.Tag(); v == "" {
			errs = append(errs, fmt.Errorf("category %d is empty", i))
		}
	}

	return errors.Join(errs...)
}

// Len returns the number of work units in one full cycle.
func (c *Catalog) Len() int {
	return len(c.Locations) * len(c.Categories)
}

// Unit resolves the work unit at the given indices.
func (c *Catalog) Unit(locationIndex, categoryIndex int) model.WorkUnit {
	return model.WorkUnit{
		Location:      c.Locations[locationIndex],
		Category:      c.Categories[categoryIndex],
		LocationIndex: locationIndex,
		CategoryIndex: categoryIndex,
	}
}

// Units lists every work unit in traversal order.
func (c *Catalog) Units() []model.WorkUnit {
	units := make([]model.WorkUnit, 0, c.Len())
	for li := range c.Locations {
		for ci := range c.Categories {
			units = append(units, c.Unit(li, ci))
		}
	}
	return units
}
