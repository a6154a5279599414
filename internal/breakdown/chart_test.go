package breakdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
)

func TestNewChart_RunningAngle(t *testing.T) {
	s := Summarize([]core.Expense{
		exp(100, "Transport"),
		exp(50, "Food"),
		exp(50, ""),
	})
	c := NewChart(s)

	require.Len(t, c.Slices, 3)
	assert.InDelta(t, 0, c.Slices[0].Start, 1e-9)
	assert.InDelta(t, 180, c.Slices[0].End, 1e-9)
	assert.InDelta(t, 180, c.Slices[1].Start, 1e-9)
	assert.InDelta(t, 270, c.Slices[1].End, 1e-9)
	assert.InDelta(t, 270, c.Slices[2].Start, 1e-9)
	assert.Equal(t, 360.0, c.Slices[2].End)
}

func TestNewChart_SlicesAreContiguous(t *testing.T) {
	var in []core.Expense
	for i, a := range []float64{1, 1, 1, 1, 1, 1, 1, 0.3, 2.71} {
		in = append(in, exp(a, string(rune('a'+i))))
	}
	c := NewChart(Summarize(in))

	require.NotEmpty(t, c.Slices)
	for i := 1; i < len(c.Slices); i++ {
		assert.Equal(t, c.Slices[i-1].End, c.Slices[i].Start)
	}
	assert.Equal(t, 360.0, c.Slices[len(c.Slices)-1].End, "last slice closes the circle exactly")
}

func TestNewChart_PaletteCycles(t *testing.T) {
	var in []core.Expense
	for i := 0; i < len(Palette)+1; i++ {
		in = append(in, exp(1, string(rune('a'+i))))
	}
	c := NewChart(Summarize(in))
	require.Len(t, c.Legend, len(Palette)+1)
	assert.Equal(t, c.Legend[0].Color, c.Legend[len(Palette)].Color)
}

func TestDonutPaths(t *testing.T) {
	s := Summarize([]core.Expense{exp(3, "a"), exp(1, "b")})
	paths := DonutPaths(Slices(s), 200, 60)

	require.Len(t, paths, 2)
	// 270° sector uses the large-arc flag on both rings.
	assert.Contains(t, paths[0], " 0 1 1 ")
	assert.Contains(t, paths[0], " 0 1 0 ")
	assert.True(t, strings.HasPrefix(paths[0], "M 100.000 0.000"))
	assert.Contains(t, paths[1], " 0 0 1 ")
}

func TestDonutPath_FullCircle(t *testing.T) {
	s := Summarize([]core.Expense{exp(10, "only")})
	paths := DonutPaths(Slices(s), 100, 30)

	require.Len(t, paths, 1)
	assert.Equal(t, 4, strings.Count(paths[0], "A "), "outer and inner rings, two half arcs each")
}

func TestDonutPath_Pie(t *testing.T) {
	s := Summarize([]core.Expense{exp(1, "a"), exp(1, "b")})
	p := DonutPath(Slices(s)[0], 100, 0)
	assert.True(t, strings.HasPrefix(p, "M 50.000 50.000 L 50.000 0.000"))
}
