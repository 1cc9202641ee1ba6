package model

import (
	"strings"
	"time"
)

const (
	// SourceOpenStreetMap is the provenance tag stamped on every imported record.
	SourceOpenStreetMap = "openstreetmap"

	// AddressUnavailable is stored when an element carries no usable address tags.
	AddressUnavailable = "Address not available"

	defaultTagKey = "amenity"
)

// Tag splits a category into its OSM tag key and value. Bare categories use
// the "amenity" key.
func (c Category) Tag() (key, value string) {
	s := strings.TrimSpace(string(c))
	if k, v, ok := strings.Cut(s, "="); ok {
		return strings.TrimSpace(k), strings.TrimSpace(v)
	}
	return defaultTagKey, s
}

// Label is the human readable form of the category value.
func (c Category) Label() string {
	_, v := c.Tag()
	return strings.ReplaceAll(v, "_", " ")
}

// Normalize turns a raw element into a record for the given work unit.
// Elements without coordinates are rejected.
func Normalize(el RawElement, unit WorkUnit, now time.Time) (Record, bool) {
	coord, ok := el.Coordinates()
	if !ok {
		return Record{}, false
	}

	key, value := unit.Category.Tag()
	category := el.Tags[key]
	if category == "" {
		category = value
	}

	// the name is part of the dedup key and is stored verbatim
	name := el.Tags["name"]
	if strings.TrimSpace(name) == "" {
		name = unit.Category.Label()
	}

	return Record{
		Name:       name,
		Category:   category,
		Lat:        coord.Lat,
		Lng:        coord.Lon,
		Address:    formatAddress(el.Tags),
		Phone:      firstTag(el.Tags, "phone", "contact:phone"),
		Website:    firstTag(el.Tags, "website", "contact:website", "url"),
		Source:     SourceOpenStreetMap,
		OSMType:    el.Type,
		OSMID:      el.ID,
		Location:   unit.Location.Name,
		ImportedAt: now,
	}, true
}

func formatAddress(tags map[string]string) string {
	if full := strings.TrimSpace(tags["addr:full"]); full != "" {
		return full
	}

	street := strings.TrimSpace(strings.Join(nonEmpty(tags["addr:housenumber"], tags["addr:street"]), " "))
	parts := nonEmpty(street, tags["addr:city"])
	if len(parts) == 0 {
		return AddressUnavailable
	}
	return strings.Join(parts, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
