package services

import (
	"math"
	"slices"
	"time"

	"github.com/jafloresayala/analyzer/internal/models"
)

// meanAcc accumulates a mean over finite values only. Rows whose
// margin is non-finite (zero revenue) are left out of the average,
// matching the original dashboard's NaN-skipping means; if no finite
// value was seen the mean itself is NaN.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m.sum += v
	m.n++
}

func (m *meanAcc) mean() models.Metric {
	if m.n == 0 {
		return models.Metric(math.NaN())
	}
	return models.Metric(m.sum / float64(m.n))
}

// Summarize computes the scalar KPIs over a filtered view.
func Summarize(view []models.SaleRecord) models.KPISummary {
	var s models.KPISummary
	var discount, margin meanAcc

	for _, r := range view {
		s.TotalRevenue += r.Revenue
		s.TotalProfit += r.Profit
		s.TotalUnits += int64(r.Units)
		discount.add(r.Discount)
		margin.add(float64(r.GrossMargin))
	}

	s.AvgDiscount = discount.mean()
	s.AvgGrossMargin = margin.mean()
	s.Rows = len(view)
	return s
}

// RevenueByMonth sums revenue per calendar-month bucket, sorted
// chronologically.
func RevenueByMonth(view []models.SaleRecord) []models.MonthlyRevenue {
	totals := make(map[time.Time]float64)
	for _, r := range view {
		totals[r.Month] += r.Revenue
	}

	series := make([]models.MonthlyRevenue, 0, len(totals))
	for month, revenue := range totals {
		series = append(series, models.MonthlyRevenue{Month: month, Revenue: revenue})
	}
	slices.SortFunc(series, func(a, b models.MonthlyRevenue) int {
		return a.Month.Compare(b.Month)
	})
	return series
}

// MarginByCategory averages the finite gross margins per product
// category, in first-seen view order. The view order is itself
// deterministic, so repeated calls over the same view agree.
func MarginByCategory(view []models.SaleRecord) []models.CategoryMargin {
	accs := make(map[string]*meanAcc)
	var order []string

	for _, r := range view {
		acc, ok := accs[r.ProductCategory]
		if !ok {
			acc = &meanAcc{}
			accs[r.ProductCategory] = acc
			order = append(order, r.ProductCategory)
		}
		acc.add(float64(r.GrossMargin))
	}

	margins := make([]models.CategoryMargin, 0, len(order))
	for _, category := range order {
		margins = append(margins, models.CategoryMargin{
			Category:  category,
			AvgMargin: accs[category].mean(),
		})
	}
	return margins
}

// RevenueByRegion sums revenue per region, in first-seen view order.
func RevenueByRegion(view []models.SaleRecord) []models.RegionRevenue {
	totals := make(map[string]float64)
	var order []string

	for _, r := range view {
		if _, ok := totals[r.Region]; !ok {
			order = append(order, r.Region)
		}
		totals[r.Region] += r.Revenue
	}

	regions := make([]models.RegionRevenue, 0, len(order))
	for _, region := range order {
		regions = append(regions, models.RegionRevenue{Region: region, Revenue: totals[region]})
	}
	return regions
}

// ProductMix breaks revenue down by (category, sub-category) pair for
// the hierarchical mix chart, with the mean finite margin per pair for
// coloring. First-seen view order.
func ProductMix(view []models.SaleRecord) []models.ProductMixEntry {
	type pair struct{ category, sub string }

	revenues := make(map[pair]float64)
	margins := make(map[pair]*meanAcc)
	var order []pair

	for _, r := range view {
		k := pair{r.ProductCategory, r.SubCategory}
		if _, ok := revenues[k]; !ok {
			order = append(order, k)
			margins[k] = &meanAcc{}
		}
		revenues[k] += r.Revenue
		margins[k].add(float64(r.GrossMargin))
	}

	mix := make([]models.ProductMixEntry, 0, len(order))
	for _, k := range order {
		mix = append(mix, models.ProductMixEntry{
			Category:    k.category,
			SubCategory: k.sub,
			Revenue:     revenues[k],
			AvgMargin:   margins[k].mean(),
		})
	}
	return mix
}
