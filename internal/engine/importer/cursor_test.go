package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorAdvanceOrder(t *testing.T) {
	c := NewCursor(2, 3)

	type pos struct{ li, ci int }
	var seen []pos
	for i := 0; i < 6; i++ {
		seen = append(seen, pos{c.LocationIndex, c.CategoryIndex})
		done := c.Advance()
		assert.Equal(t, i == 5, done, "step %d", i)
	}

	assert.Equal(t, []pos{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, seen)
	assert.Equal(t, 0, c.LocationIndex)
	assert.Equal(t, 0, c.CategoryIndex)
	assert.Equal(t, int64(1), c.CycleCount)
}

func TestCursorFullCycleFromAnyPosition(t *testing.T) {
	dims := []struct{ locations, categories int }{
		{1, 1}, {1, 4}, {3, 1}, {3, 5}, {10, 10},
	}
	for _, d := range dims {
		total := d.locations * d.categories
		for start := 0; start < total; start++ {
			c := NewCursor(d.locations, d.categories)
			for i := 0; i < start; i++ {
				c.Advance()
			}
			li, ci, cycles := c.LocationIndex, c.CategoryIndex, c.CycleCount

			for i := 0; i < total; i++ {
				c.Advance()
				assert.GreaterOrEqual(t, c.LocationIndex, 0)
				assert.Less(t, c.LocationIndex, d.locations)
				assert.GreaterOrEqual(t, c.CategoryIndex, 0)
				assert.Less(t, c.CategoryIndex, d.categories)
			}

			assert.Equal(t, li, c.LocationIndex)
			assert.Equal(t, ci, c.CategoryIndex)
			assert.Equal(t, cycles+1, c.CycleCount)
		}
	}
}

func TestCursorSingleUnitCompletesEveryStep(t *testing.T) {
	c := NewCursor(1, 1)
	for i := 1; i <= 3; i++ {
		assert.True(t, c.Advance())
		assert.Equal(t, int64(i), c.CycleCount)
	}
}

func TestCursorEmptyCatalog(t *testing.T) {
	c := NewCursor(0, 3)
	assert.False(t, c.Advance())
	assert.Equal(t, 0, c.LocationIndex)
	assert.Equal(t, 0, c.CategoryIndex)
	assert.Equal(t, int64(0), c.CycleCount)
}
