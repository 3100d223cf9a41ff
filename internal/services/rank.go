package services

import (
	"slices"

	"github.com/jafloresayala/analyzer/internal/models"
)

// DefaultRankLimit caps the prioritized table shown on the dashboard.
const DefaultRankLimit = 15

// Rank augments each view row with revenue-per-unit and its share of
// totalRevenue, sorts descending by revenue (stable, so revenue ties
// keep dataset order) and truncates to limit. A limit <= 0 keeps every
// row. The ratios are non-finite when the divisor is zero; they are
// carried through, never rejected.
func Rank(view []models.SaleRecord, totalRevenue float64, limit int) []models.RankedSale {
	ranked := make([]models.RankedSale, len(view))
	for i, r := range view {
		ranked[i] = models.RankedSale{
			SaleRecord:     r,
			RevenuePerUnit: models.Metric(r.Revenue / float64(r.Units)),
			Contribution:   models.Metric(r.Revenue / totalRevenue),
		}
	}

	slices.SortStableFunc(ranked, func(a, b models.RankedSale) int {
		switch {
		case a.Revenue > b.Revenue:
			return -1
		case a.Revenue < b.Revenue:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// BestAndWorst picks the regions with the highest and lowest summed
// revenue. With a single group both are that group. Ties keep the
// earliest group, so the result is deterministic.
func BestAndWorst(regions []models.RegionRevenue) (best, worst models.RegionRevenue, err error) {
	if len(regions) == 0 {
		return models.RegionRevenue{}, models.RegionRevenue{}, ErrEmptyInput
	}

	best, worst = regions[0], regions[0]
	for _, r := range regions[1:] {
		if r.Revenue > best.Revenue {
			best = r
		}
		if r.Revenue < worst.Revenue {
			worst = r
		}
	}
	return best, worst, nil
}

// TopMarginCategory picks the category with the highest mean margin.
// Non-finite means sort below every finite one; if no category has a
// finite mean the first entry wins.
func TopMarginCategory(margins []models.CategoryMargin) (models.CategoryMargin, error) {
	if len(margins) == 0 {
		return models.CategoryMargin{}, ErrEmptyInput
	}

	top := margins[0]
	for _, m := range margins[1:] {
		if !m.AvgMargin.IsFinite() {
			continue
		}
		if !top.AvgMargin.IsFinite() || float64(m.AvgMargin) > float64(top.AvgMargin) {
			top = m
		}
	}
	return top, nil
}
