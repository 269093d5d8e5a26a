// Package dataset holds the static per-city IRIS housing-unit figures.
package dataset

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/flyerdrop/tournees-api/internal/pkg/textnorm"
)

//go:embed data/cities.json
var embedded embed.FS

var ErrCityNotFound = errors.New("city not found")

type Sector struct {
	Name         string `json:"name"`
	HousingUnits int    `json:"housing_units"`
	Code         string `json:"code,omitempty"`
}

type City struct {
	Name              string   `json:"name"`
	CommuneCode       string   `json:"commune_code"`
	TotalHousingUnits int      `json:"total_housing_units"`
	Sectors           []Sector `json:"sectors"`
}

type file struct {
	Cities []City `json:"cities"`
}

// Dataset is read-only once loaded.
type Dataset struct {
	cities []City
	byName map[string]int
}

// Load reads the dataset at path, or the embedded copy when path is empty.
func Load(path string) (*Dataset, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = embedded.ReadFile("data/cities.json")
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset -> %w", err)
	}

	return Parse(raw)
}

func Parse(raw []byte) (*Dataset, error) {
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode dataset -> %w", err)
	}

	return New(f.Cities), nil
}

func New(cities []City) *Dataset {
	sorted := make([]City, len(cities))
	copy(sorted, cities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return textnorm.Fold(sorted[i].Name) < textnorm.Fold(sorted[j].Name)
	})

	d := &Dataset{
		cities: sorted,
		byName: make(map[string]int, len(sorted)),
	}
	for i, c := range sorted {
		d.byName[textnorm.Fold(c.Name)] = i
	}

	return d
}

func (d *Dataset) Cities() []City {
	return d.cities
}

// City looks a city up by name, ignoring case and accents.
func (d *Dataset) City(name string) (City, error) {
	i, ok := d.byName[textnorm.Fold(name)]
	if !ok {
		return City{}, fmt.Errorf("%w: %s", ErrCityNotFound, name)
	}

	return d.cities[i], nil
}
