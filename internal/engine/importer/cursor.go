package importer

// Cursor is the position of the import loop in the catalog. Locations form the
// outer loop and categories the inner one.
type Cursor struct {
	LocationIndex int
	CategoryIndex int
	CycleCount    int64

	locations  int
	categories int
}

func NewCursor(locations, categories int) Cursor {
	return Cursor{locations: locations, categories: categories}
}

// Advance moves to the next work unit and reports whether that completed a
// full pass over the catalog.
func (c *Cursor) Advance() bool {
	if c.locations <= 0 || c.categories <= 0 {
		return false
	}

	c.CategoryIndex++
	if c.CategoryIndex < c.categories {
		return false
	}
	c.CategoryIndex = 0

	c.LocationIndex++
	if c.LocationIndex < c.locations {
		return false
	}
	c.LocationIndex = 0
	c.CycleCount++
	return true
}
