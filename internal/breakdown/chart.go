package breakdown

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Palette is cycled through when assigning slice colors.
var Palette = []string{"#2563eb", "#16a34a", "#f59e0b", "#ef4444", "#8b5cf6", "#10b981", "#f97316", "#06b6d4"}

var (
	fullTurn   = decimal.NewFromInt(360)
	tenthsBase = decimal.NewFromInt(1000)
)

// Slice is one sector of the donut chart, in degrees clockwise from 12 o'clock.
type Slice struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Start    float64         `json:"start"`
	End      float64         `json:"end"`
	Sweep    float64         `json:"sweep"`
	Percent  string          `json:"percent"`
	Color    string          `json:"color"`
}

// Chart is the renderable form of a Summary.
type Chart struct {
	Total  decimal.Decimal `json:"total"`
	Slices []Slice         `json:"slices"`
	// Legend holds one entry per bucket, including zero-valued buckets that
	// have no visible slice.
	Legend []Slice `json:"legend"`
}

// NewChart derives slices and labels from a summary.
//
// Angles advance a cursor by each bucket's exact share: a slice ends where the
// cumulative fraction of the total ends, so rounding in one slice never shifts
// the next. With a zero total there are no slices and every label is "0.0".
func NewChart(s Summary) Chart {
	c := Chart{Total: s.Total, Slices: []Slice{}, Legend: make([]Slice, 0, len(s.Buckets))}
	labels := PercentLabels(s)

	cumulative := decimal.Zero
	cursor := 0.0
	for i, b := range s.Buckets {
		sl := Slice{
			Category: b.Category,
			Total:    b.Total,
			Percent:  labels[i],
			Color:    Palette[i%len(Palette)],
			Start:    cursor,
			End:      cursor,
		}
		if s.Total.IsPositive() {
			cumulative = cumulative.Add(b.Total)
			end := cumulative.Mul(fullTurn).Div(s.Total).InexactFloat64()
			sl.End = end
			sl.Sweep = end - cursor
			cursor = end
		}
		c.Legend = append(c.Legend, sl)
		if sl.Sweep > 0 {
			c.Slices = append(c.Slices, sl)
		}
	}
	return c
}

// PercentLabels returns one label per bucket: the bucket's share of the total
// times 100, rounded half-up to one decimal place. If those labels add up to
// more than a tenth away from 100.0, tenths are apportioned by largest
// remainder instead.
func PercentLabels(s Summary) []string {
	out := make([]string, len(s.Buckets))
	if !s.Total.IsPositive() {
		for i := range out {
			out[i] = "0.0"
		}
		return out
	}

	exact := make([]decimal.Decimal, len(s.Buckets))
	tenths := make([]int64, len(s.Buckets))
	var sum int64
	for i, b := range s.Buckets {
		exact[i] = b.Total.Mul(tenthsBase).Div(s.Total)
		tenths[i] = exact[i].Round(0).IntPart()
		sum += tenths[i]
	}
	if sum < 999 || sum > 1001 {
		tenths = apportion(exact)
	}

	for i, t := range tenths {
		out[i] = fmt.Sprintf("%d.%d", t/10, t%10)
	}
	return out
}

// apportion floors every share and hands the missing tenths to the largest
// remainders, earliest bucket first on ties.
func apportion(exact []decimal.Decimal) []int64 {
	tenths := make([]int64, len(exact))
	remainders := make([]decimal.Decimal, len(exact))
	var assigned int64
	for i, e := range exact {
		floor := e.Floor()
		tenths[i] = floor.IntPart()
		remainders[i] = e.Sub(floor)
		assigned += tenths[i]
	}

	for missing := 1000 - assigned; missing > 0; missing-- {
		best := -1
		for i := range remainders {
			if remainders[i].IsZero() {
				continue
			}
			if best == -1 || remainders[i].GreaterThan(remainders[best]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		tenths[best]++
		remainders[best] = decimal.Zero
	}
	return tenths
}

// Slices returns the visible sectors of the chart, in bucket order.
func Slices(s Summary) []Slice {
	return NewChart(s).Slices
}

// DonutPaths returns one SVG path per slice for a donut of the given outer
// size and inner radius, centered in a size×size box.
func DonutPaths(slices []Slice, size, innerRadius float64) []string {
	paths := make([]string, 0, len(slices))
	for _, sl := range slices {
		paths = append(paths, DonutPath(sl, size, innerRadius))
	}
	return paths
}

// DonutPath draws one ring sector. A slice covering the whole circle is drawn
// as two concentric circles filled even-odd, since an arc whose endpoints
// coincide renders nothing.
func DonutPath(sl Slice, size, innerRadius float64) string {
	r := size / 2
	cx, cy := r, r
	ir := math.Max(0, math.Min(innerRadius, r))

	if sl.Sweep >= 360 {
		return strings.TrimSpace(circle(cx, cy, r) + " " + circle(cx, cy, ir))
	}

	large := 0
	if sl.Sweep > 180 {
		large = 1
	}
	ox1, oy1 := polar(cx, cy, r, sl.Start)
	ox2, oy2 := polar(cx, cy, r, sl.End)
	if ir == 0 {
		return fmt.Sprintf("M %.3f %.3f L %.3f %.3f A %.3f %.3f 0 %d 1 %.3f %.3f Z",
			cx, cy, ox1, oy1, r, r, large, ox2, oy2)
	}
	ix1, iy1 := polar(cx, cy, ir, sl.End)
	ix2, iy2 := polar(cx, cy, ir, sl.Start)
	return fmt.Sprintf("M %.3f %.3f A %.3f %.3f 0 %d 1 %.3f %.3f L %.3f %.3f A %.3f %.3f 0 %d 0 %.3f %.3f Z",
		ox1, oy1, r, r, large, ox2, oy2, ix1, iy1, ir, ir, large, ix2, iy2)
}

func circle(cx, cy, r float64) string {
	if r == 0 {
		return ""
	}
	return fmt.Sprintf("M %.3f %.3f A %.3f %.3f 0 1 1 %.3f %.3f A %.3f %.3f 0 1 1 %.3f %.3f Z",
		cx, cy-r, r, r, cx, cy+r, r, r, cx, cy-r)
}

// polar converts an angle in degrees, measured clockwise from 12 o'clock, to SVG coordinates.
func polar(cx, cy, r, deg float64) (float64, float64) {
	rad := (deg - 90) * math.Pi / 180
	return cx + r*math.Cos(rad), cy + r*math.Sin(rad)
}
