package models

import "time"

// KPISummary holds the scalar indicators for one filtered view.
// AvgGrossMargin averages only the finite per-row margins; if no row
// has a finite margin the average itself is non-finite.
type KPISummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalProfit    float64 `json:"total_profit"`
	TotalUnits     int64   `json:"total_units"`
	AvgDiscount    Metric  `json:"avg_discount"`
	AvgGrossMargin Metric  `json:"avg_gross_margin"`
	Rows           int     `json:"rows"`
}

type MonthlyRevenue struct {
	Month   time.Time `json:"month"`
	Revenue float64   `json:"revenue"`
}

type CategoryMargin struct {
	Category  string `json:"category"`
	AvgMargin Metric `json:"avg_margin"`
}

type RegionRevenue struct {
	Region  string  `json:"region"`
	Revenue float64 `json:"revenue"`
}

// ProductMixEntry is one (category, sub-category) node of the product
// mix breakdown: summed revenue plus the mean finite margin, which the
// dashboard uses to color the node.
type ProductMixEntry struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Revenue     float64 `json:"revenue"`
	AvgMargin   Metric  `json:"avg_margin"`
}

// RankedSale is a SaleRecord augmented with the two ranking ratios.
// Both may be non-finite (zero units, zero total revenue).
type RankedSale struct {
	SaleRecord
	RevenuePerUnit Metric `json:"revenue_per_unit"`
	Contribution   Metric `json:"contribution"`
}

type Insights struct {
	BestRegion        RegionRevenue  `json:"best_region"`
	WorstRegion       RegionRevenue  `json:"worst_region"`
	TopMarginCategory CategoryMargin `json:"top_margin_category"`
}

// Snapshot is the complete output of one recompute for one set of
// criteria. When Empty is true no rows matched and every aggregate
// field is zero-valued; callers surface a no-data message instead of
// reading them.
type Snapshot struct {
	Criteria         FilterCriteria    `json:"criteria"`
	Summary          KPISummary        `json:"summary"`
	RevenueByMonth   []MonthlyRevenue  `json:"revenue_by_month"`
	MarginByCategory []CategoryMargin  `json:"margin_by_category"`
	RevenueByRegion  []RegionRevenue   `json:"revenue_by_region"`
	ProductMix       []ProductMixEntry `json:"product_mix"`
	Ranked           []RankedSale      `json:"ranked"`
	Insights         Insights          `json:"insights"`
	Empty            bool              `json:"empty"`
}
