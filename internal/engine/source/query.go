package source

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb/geo"

	"github.com/Jaylorddeguzman/importer/internal/model"
)

// BuildQuery renders the Overpass QL query for one work unit. Nodes and ways
// carrying the category tag within the location radius are returned, ways
// with their center point. The global bbox keeps the server-side search area
// bounded to the circle's envelope.
func BuildQuery(unit model.WorkUnit, timeoutSeconds int) string {
	loc := unit.Location
	key, value := unit.Category.Tag()
	bound := geo.NewBoundAroundPoint(loc.Point(), loc.Radius)

	around := fmt.Sprintf("(around:%.0f,%.6f,%.6f)", loc.Radius, loc.Lat, loc.Lng)
	filter := fmt.Sprintf("[%q=%q]", key, value)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d][bbox:%.6f,%.6f,%.6f,%.6f];\n",
		timeoutSeconds,
		bound.Min.Lat(), bound.Min.Lon(), bound.Max.Lat(), bound.Max.Lon())
	b.WriteString("(\n")
	fmt.Fprintf(&b, "  node%s%s;\n", filter, around)
	fmt.Fprintf(&b, "  way%s%s;\n", filter, around)
	b.WriteString(");\n")
	b.WriteString("out center;")
	return b.String()
}

type overpassResponse struct {
	Elements []model.RawElement `json:"elements"`
	Remark   string             `json:"remark,omitempty"`
}
