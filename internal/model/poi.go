package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Location is a named search center in the catalog.
type Location struct {
	Name   string  `json:"name" yaml:"name"`
	Lat    float64 `json:"lat" yaml:"lat"`
	Lng    float64 `json:"lng" yaml:"lng"`
	Radius float64 `json:"radius" yaml:"radius"` // meters
}

// Point returns the location center as an orb.Point ([lng, lat]).
func (l Location) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// Category is an establishment tag such as "restaurant" or "shop=supermarket".
type Category string

// WorkUnit is one (location, category) pair addressed by its catalog indices.
type WorkUnit struct {
	Location      Location
	Category      Category
	LocationIndex int
	CategoryIndex int
}

// Coord is a bare coordinate pair as returned by the external source.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RawElement is one record returned by the map-data API. Nodes carry Lat/Lon
// directly, ways carry a Center.
type RawElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Coord            `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Coordinates returns the direct coordinates, falling back to the center point.
func (e RawElement) Coordinates() (Coord, bool) {
	if e.Lat != nil && e.Lon != nil {
		return Coord{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil {
		return *e.Center, true
	}
	return Coord{}, false
}

// Record is a normalized point of interest, the only persisted entity.
type Record struct {
	ID         int64     `json:"id,omitempty"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone,omitempty"`
	Website    string    `json:"website,omitempty"`
	Source     string    `json:"source"`
	OSMType    string    `json:"osmType,omitempty"`
	OSMID      int64     `json:"osmId,omitempty"`
	Location   string    `json:"location,omitempty"`
	ImportedAt time.Time `json:"importedAt"`
}

// DedupKey identifies the same real-world place. Coordinates and name are
// compared exactly.
type DedupKey struct {
	Lat  float64
	Lng  float64
	Name string
}

// Key returns the record's dedup key.
func (r *Record) Key() DedupKey {
	return DedupKey{Lat: r.Lat, Lng: r.Lng, Name: r.Name}
}
