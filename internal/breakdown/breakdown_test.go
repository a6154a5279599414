package breakdown

import (
	"math"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplan/internal/core"
)

func exp(amount float64, category string) core.Expense {
	return core.Expense{Amount: amount, Category: category, Currency: "CNY"}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize_Example(t *testing.T) {
	s := Summarize([]core.Expense{
		exp(100, "Transport"),
		exp(50, "Food"),
		exp(50, ""),
	})

	assert.True(t, s.Total.Equal(dec("200")), "total = %s", s.Total)
	require.Len(t, s.Buckets, 3)

	want := []struct {
		label string
		total string
		pct   string
	}{
		{"Transport", "100", "50.0"},
		{"Food", "50", "25.0"},
		{"Other", "50", "25.0"},
	}
	labels := PercentLabels(s)
	for i, w := range want {
		assert.Equal(t, w.label, s.Buckets[i].Category)
		assert.True(t, s.Buckets[i].Total.Equal(dec(w.total)), "bucket %s = %s", w.label, s.Buckets[i].Total)
		assert.Equal(t, w.pct, labels[i])
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Total.IsZero())
	assert.Empty(t, s.Buckets)

	c := NewChart(s)
	assert.Empty(t, c.Slices)
	assert.Empty(t, c.Legend)
	assert.Empty(t, PercentLabels(s))
}

func TestSummarize_NegativeAmountCountsAsZero(t *testing.T) {
	s := Summarize([]core.Expense{exp(-5, "Food"), exp(100, "Transport")})

	assert.True(t, s.Total.Equal(dec("100")))
	require.Len(t, s.Buckets, 2)
	assert.Equal(t, "Food", s.Buckets[0].Category)
	assert.True(t, s.Buckets[0].Total.IsZero())
	assert.Equal(t, 1, s.Buckets[0].Count, "the record is kept, not dropped")

	c := NewChart(s)
	for _, sl := range c.Legend {
		assert.GreaterOrEqual(t, sl.Sweep, 0.0)
	}
	require.Len(t, c.Slices, 1)
	assert.Equal(t, "Transport", c.Slices[0].Category)
	assert.Equal(t, []string{"0.0", "100.0"}, PercentLabels(s))
}

func TestSummarize_NonFiniteAmounts(t *testing.T) {
	s := Summarize([]core.Expense{
		exp(math.NaN(), "Food"),
		exp(math.Inf(1), "Food"),
		exp(math.Inf(-1), "Lodging"),
		exp(20, "Food"),
	})

	assert.True(t, s.Total.Equal(dec("20")))
	require.Len(t, s.Buckets, 2)
	assert.Equal(t, 3, s.Buckets[0].Count)
	assert.True(t, s.Buckets[1].Total.IsZero())
}

func TestSummarize_CaseSensitiveLabels(t *testing.T) {
	s := Summarize([]core.Expense{exp(10, "Food"), exp(5, "food"), exp(1, "Food")})

	require.Len(t, s.Buckets, 2)
	assert.Equal(t, "Food", s.Buckets[0].Category)
	assert.True(t, s.Buckets[0].Total.Equal(dec("11")))
	assert.Equal(t, "food", s.Buckets[1].Category)
	assert.True(t, s.Buckets[1].Total.Equal(dec("5")))
}

func TestSummarize_BlankLabelsShareOneFallbackBucket(t *testing.T) {
	s := Summarize([]core.Expense{
		exp(1, ""),
		exp(2, "Food"),
		exp(3, "   "),
		exp(4, "Other"),
	})

	require.Len(t, s.Buckets, 2)
	assert.Equal(t, FallbackCategory, s.Buckets[0].Category)
	assert.Equal(t, 3, s.Buckets[0].Count)
	assert.True(t, s.Buckets[0].Total.Equal(dec("8")))
}

func TestSummarize_FirstOccurrenceOrder(t *testing.T) {
	s := Summarize([]core.Expense{
		exp(1, "Shopping"),
		exp(500, "Lodging"),
		exp(2, "Shopping"),
		exp(30, "Food"),
	})

	var got []string
	for _, b := range s.Buckets {
		got = append(got, b.Category)
	}
	assert.Equal(t, []string{"Shopping", "Lodging", "Food"}, got)
}

func TestSummarize_BucketsAddUpToTotal(t *testing.T) {
	amounts := []float64{0.1, 0.2, 0.3, 19.99, 1e-2, 12345.67, 7.77, 3.333}
	cats := []string{"Food", "Transport", "", "Food", "Tickets", "Lodging", "", "Shopping"}

	var in []core.Expense
	for i := range amounts {
		in = append(in, exp(amounts[i], cats[i]))
	}
	s := Summarize(in)

	sum := decimal.Zero
	for _, b := range s.Buckets {
		sum = sum.Add(b.Total)
	}
	assert.True(t, sum.Equal(s.Total), "buckets %s != total %s", sum, s.Total)
	assert.True(t, s.Total.Equal(dec("12377.373")))
}

func TestSummarize_MixedCurrency(t *testing.T) {
	s := Summarize([]core.Expense{
		{Amount: 10, Currency: "CNY"},
		{Amount: 10, Currency: "EUR"},
		{Amount: 10},
	})

	assert.True(t, s.Total.Equal(dec("30")), "amounts are added without conversion")
	assert.Equal(t, []string{"CNY", "EUR"}, s.Currencies)
	assert.True(t, s.MixedCurrency())
}

func TestPercentLabels_SumToHundred(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
	}{
		{"thirds", []float64{1, 1, 1}},
		{"sevenths", []float64{1, 1, 1, 1, 1, 1, 1}},
		{"skewed", []float64{0.01, 0.01, 999.98}},
		{"single", []float64{42}},
		{"many", []float64{3, 7, 11, 13, 17, 19, 23, 29, 31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []core.Expense
			for i, a := range tt.amounts {
				in = append(in, exp(a, "c"+strconv.Itoa(i)))
			}
			labels := PercentLabels(Summarize(in))

			total := 0.0
			for _, l := range labels {
				v, err := strconv.ParseFloat(l, 64)
				require.NoError(t, err)
				total += v
			}
			assert.InDelta(t, 100.0, total, 0.1001)
		})
	}
}

func TestPercentLabels_PlainRounding(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    []string
	}{
		{"thirds", []float64{1, 1, 1}, []string{"33.3", "33.3", "33.3"}},
		{"ninths", []float64{2, 1, 1, 2, 1, 2}, []string{"22.2", "11.1", "11.1", "22.2", "11.1", "22.2"}},
		{"sevenths", []float64{1, 1, 1, 1, 1, 1, 1}, []string{"14.3", "14.3", "14.3", "14.3", "14.3", "14.3", "14.3"}},
		{"half up", []float64{1, 1999}, []string{"0.1", "100.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []core.Expense
			for i, a := range tt.amounts {
				in = append(in, exp(a, "c"+strconv.Itoa(i)))
			}
			assert.Equal(t, tt.want, PercentLabels(Summarize(in)))
		})
	}
}

func TestPercentLabels_ApportionsWhenRoundingDrifts(t *testing.T) {
	// Twenty-one equal shares round to 4.8 each, 100.8 in total.
	var in []core.Expense
	for i := 0; i < 21; i++ {
		in = append(in, exp(1, "c"+strconv.Itoa(i)))
	}
	labels := PercentLabels(Summarize(in))

	var tenths int
	for _, l := range labels {
		v, err := strconv.ParseFloat(l, 64)
		require.NoError(t, err)
		tenths += int(math.Round(v * 10))
	}
	assert.Equal(t, 1000, tenths)
	assert.Equal(t, "4.8", labels[0])
	assert.Equal(t, "4.7", labels[20])
}

func TestPercentLabels_ZeroTotal(t *testing.T) {
	s := Summarize([]core.Expense{exp(0, "Food"), exp(-1, "Transport")})
	assert.True(t, s.Total.IsZero())
	assert.Equal(t, []string{"0.0", "0.0"}, PercentLabels(s))

	c := NewChart(s)
	assert.Empty(t, c.Slices)
	require.Len(t, c.Legend, 2)
	assert.Equal(t, "0.0", c.Legend[0].Percent)
}
