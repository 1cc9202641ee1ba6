package model

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature renders a record as a GeoJSON point feature.
func (r Record) Feature() *geojson.Feature {
	f := geojson.NewFeature(orb.Point{r.Lng, r.Lat})
	f.ID = r.ID
	f.Properties["name"] = r.Name
	f.Properties["category"] = r.Category
	f.Properties["address"] = r.Address
	if r.Phone != "" {
		f.Properties["phone"] = r.Phone
	}
	if r.Website != "" {
		f.Properties["website"] = r.Website
	}
	f.Properties["source"] = r.Source
	if r.OSMType != "" {
		f.Properties["osmType"] = r.OSMType
		f.Properties["osmId"] = r.OSMID
	}
	if r.Location != "" {
		f.Properties["location"] = r.Location
	}
	f.Properties["importedAt"] = r.ImportedAt.UTC()
	return f
}

func FeatureCollection(records []Record) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		fc.Append(r.Feature())
	}
	return fc
}
