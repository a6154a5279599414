// Package breakdown folds a plan's expenses into a grand total and per-category
// buckets, and derives the proportional chart (slices and percentage labels)
// drawn from them.
//
// Amounts in different currencies are added as plain numbers. No conversion is
// performed, so the total is only meaningful when every expense shares one
// currency.
//
// Nothing in this package fails: non-finite and negative amounts count as zero
// so that user-entered data always renders.
package breakdown

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"tripplan/internal/core"
)

// FallbackCategory labels expenses recorded without a category.
const FallbackCategory = core.CategoryOther

// Bucket is the aggregated total of one category label.
type Bucket struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Summary is the aggregation of one plan's expenses.
type Summary struct {
	Total   decimal.Decimal `json:"total"`
	Buckets []Bucket        `json:"buckets"`
	// Currencies lists the distinct currency codes seen, in first-occurrence order.
	Currencies []string `json:"currencies"`
}

// Summarize groups expenses by exact category label. Buckets keep the order in
// which their label first appears in the input.
func Summarize(expenses []core.Expense) Summary {
	s := Summary{Total: decimal.Zero, Buckets: []Bucket{}, Currencies: []string{}}
	index := make(map[string]int)
	seenCurrency := make(map[string]struct{})

	for _, e := range expenses {
		label := CategoryLabel(e.Category)
		amount := NormalizeAmount(e.Amount)

		i, ok := index[label]
		if !ok {
			i = len(s.Buckets)
			index[label] = i
			s.Buckets = append(s.Buckets, Bucket{Category: label, Total: decimal.Zero})
		}
		s.Buckets[i].Total = s.Buckets[i].Total.Add(amount)
		s.Buckets[i].Count++
		s.Total = s.Total.Add(amount)

		if cur := strings.TrimSpace(e.Currency); cur != "" {
			if _, ok := seenCurrency[cur]; !ok {
				seenCurrency[cur] = struct{}{}
				s.Currencies = append(s.Currencies, cur)
			}
		}
	}
	return s
}

// MixedCurrency reports whether the total adds amounts from more than one currency.
func (s Summary) MixedCurrency() bool {
	return len(s.Currencies) > 1
}

// CategoryLabel returns the bucket label for a raw category. Labels are exact
// and case-sensitive; only blank labels are rewritten.
func CategoryLabel(category string) string {
	if strings.TrimSpace(category) == "" {
		return FallbackCategory
	}
	return category
}

// NormalizeAmount maps an amount to the value that is summed: NaN, infinities
// and negative numbers become zero.
func NormalizeAmount(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
