package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureCollection(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: 1, Name: "Cafe Uno", Category: "cafe", Lat: 14.55, Lng: 121.02, Address: AddressUnavailable,
			Source: SourceOpenStreetMap, OSMType: "node", OSMID: 42, Location: "Makati", ImportedAt: at},
		{ID: 2, Name: "Bare", Category: "bar", Lat: 10.3, Lng: 123.9, Source: SourceOpenStreetMap, ImportedAt: at},
	}

	fc := FeatureCollection(records)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, orb.Point{121.02, 14.55}, first.Geometry)
	assert.Equal(t, "Cafe Uno", first.Properties["name"])
	assert.Equal(t, int64(42), first.Properties["osmId"])
	assert.Equal(t, "Makati", first.Properties["location"])

	second := fc.Features[1]
	assert.NotContains(t, second.Properties, "phone")
	assert.NotContains(t, second.Properties, "osmType")

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"FeatureCollection"`)
	assert.Contains(t, string(raw), `"coordinates":[121.02,14.55]`)
}
