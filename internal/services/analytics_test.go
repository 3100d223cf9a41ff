package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jafloresayala/analyzer/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(d time.Time, region, segment, category, sub string, revenue, profit float64, units int) models.SaleRecord {
	return models.SaleRecord{
		OrderDate:       d,
		Region:          region,
		CustomerSegment: segment,
		ProductCategory: category,
		SubCategory:     sub,
		Revenue:         revenue,
		Profit:          profit,
		Units:           units,
		Month:           time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()),
		GrossMargin:     models.Metric(profit / revenue),
	}
}

// The three-row scenario: A and C are North, B is South.
func scenarioRecords() []models.SaleRecord {
	return []models.SaleRecord{
		sale(date(2024, 1, 15), "North", "SMB", "Office", "Paper", 100, 20, 10),
		sale(date(2024, 2, 10), "South", "SMB", "Office", "Paper", 200, 50, 20),
		sale(date(2024, 3, 1), "North", "SMB", "Office", "Paper", 50, 5, 5),
	}
}

func scenarioCriteria(regions ...string) models.FilterCriteria {
	return models.FilterCriteria{
		Start:      date(2024, 1, 1),
		End:        date(2024, 12, 31),
		Regions:    regions,
		Segments:   []string{"SMB"},
		Categories: []string{"Office"},
	}
}

func TestFilterRecords_Predicates(t *testing.T) {
	records := scenarioRecords()

	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     int
	}{
		{"all match", scenarioCriteria("North", "South"), 3},
		{"region allow-list", scenarioCriteria("North"), 2},
		{"date range narrows", models.FilterCriteria{
			Start: date(2024, 2, 1), End: date(2024, 2, 28),
			Regions: []string{"North", "South"}, Segments: []string{"SMB"}, Categories: []string{"Office"},
		}, 1},
		{"date range inclusive at both ends", models.FilterCriteria{
			Start: date(2024, 1, 15), End: date(2024, 3, 1),
			Regions: []string{"North", "South"}, Segments: []string{"SMB"}, Categories: []string{"Office"},
		}, 3},
		{"empty regions match nothing", scenarioCriteria(), 0},
		{"unknown segment matches nothing", models.FilterCriteria{
			Start: date(2024, 1, 1), End: date(2024, 12, 31),
			Regions: []string{"North", "South"}, Segments: []string{"Enterprise"}, Categories: []string{"Office"},
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := FilterRecords(records, tt.criteria)
			if len(view) != tt.want {
				t.Errorf("got %d rows, want %d", len(view), tt.want)
			}
			for _, r := range view {
				if r.OrderDate.Before(tt.criteria.Start) || r.OrderDate.After(tt.criteria.End) {
					t.Errorf("row %v outside date range", r.OrderDate)
				}
			}
		})
	}
}

func TestFilterRecords_PreservesOrder(t *testing.T) {
	view := FilterRecords(scenarioRecords(), scenarioCriteria("North"))
	if len(view) != 2 {
		t.Fatalf("got %d rows, want 2", len(view))
	}
	if view[1].OrderDate.Before(view[0].OrderDate) {
		t.Error("filtered view must preserve dataset order")
	}
}

func TestSummarize(t *testing.T) {
	view := FilterRecords(scenarioRecords(), scenarioCriteria("North"))
	s := Summarize(view)

	if s.TotalRevenue != 150 {
		t.Errorf("TotalRevenue = %v, want 150", s.TotalRevenue)
	}
	if s.TotalProfit != 25 {
		t.Errorf("TotalProfit = %v, want 25", s.TotalProfit)
	}
	if s.TotalUnits != 15 {
		t.Errorf("TotalUnits = %v, want 15", s.TotalUnits)
	}
	if s.Rows != 2 {
		t.Errorf("Rows = %v, want 2", s.Rows)
	}
	// (0.2 + 0.1) / 2
	if got := float64(s.AvgGrossMargin); math.Abs(got-0.15) > 1e-9 {
		t.Errorf("AvgGrossMargin = %v, want 0.15", got)
	}
}

func TestSummarize_SkipsNonFiniteMargins(t *testing.T) {
	view := []models.SaleRecord{
		sale(date(2024, 1, 1), "North", "SMB", "Office", "Paper", 100, 20, 10),
		sale(date(2024, 1, 2), "North", "SMB", "Office", "Paper", 0, 20, 10), // margin +Inf
	}
	s := Summarize(view)

	if got := float64(s.AvgGrossMargin); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("AvgGrossMargin = %v, want 0.2 (non-finite rows excluded)", got)
	}
}

func TestSummarize_AllMarginsNonFinite(t *testing.T) {
	view := []models.SaleRecord{
		sale(date(2024, 1, 1), "North", "SMB", "Office", "Paper", 0, 20, 10),
	}
	if s := Summarize(view); s.AvgGrossMargin.IsFinite() {
		t.Errorf("AvgGrossMargin = %v, want non-finite", s.AvgGrossMargin)
	}
}

func TestRevenueByMonth_Chronological(t *testing.T) {
	records := scenarioRecords()
	// Same months again, out of order, to exercise bucketing.
	records = append(records, sale(date(2024, 1, 20), "South", "SMB", "Office", "Paper", 30, 3, 3))

	series := RevenueByMonth(records)
	if len(series) != 3 {
		t.Fatalf("got %d months, want 3", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i].Month.Before(series[i-1].Month) {
			t.Error("months must be sorted ascending")
		}
	}
	if series[0].Revenue != 130 {
		t.Errorf("January revenue = %v, want 130", series[0].Revenue)
	}
}

func TestRevenueByRegion_MatchesTotal(t *testing.T) {
	view := scenarioRecords()
	regions := RevenueByRegion(view)
	total := Summarize(view).TotalRevenue

	var sum float64
	for _, r := range regions {
		sum += r.Revenue
	}
	if math.Abs(sum-total) > 1e-9 {
		t.Errorf("sum over regions = %v, want %v", sum, total)
	}
}

func TestRevenueByRegion_FirstSeenOrderIsStable(t *testing.T) {
	view := scenarioRecords()
	first := RevenueByRegion(view)
	second := RevenueByRegion(view)

	if len(first) != len(second) {
		t.Fatal("group count changed between calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("group %d changed between calls: %v vs %v", i, first[i], second[i])
		}
	}
	if first[0].Region != "North" {
		t.Errorf("first group = %q, want North (first seen)", first[0].Region)
	}
}

func TestProductMix(t *testing.T) {
	view := []models.SaleRecord{
		sale(date(2024, 1, 1), "North", "SMB", "Office", "Paper", 100, 20, 10),
		sale(date(2024, 1, 2), "North", "SMB", "Office", "Binders", 50, 10, 5),
		sale(date(2024, 1, 3), "North", "SMB", "Office", "Paper", 25, 5, 2),
	}

	mix := ProductMix(view)
	if len(mix) != 2 {
		t.Fatalf("got %d pairs, want 2", len(mix))
	}
	if mix[0].SubCategory != "Paper" || mix[0].Revenue != 125 {
		t.Errorf("first pair = %+v, want Paper with revenue 125", mix[0])
	}
}

func TestRank(t *testing.T) {
	view := FilterRecords(scenarioRecords(), scenarioCriteria("North", "South"))
	total := Summarize(view).TotalRevenue

	ranked := Rank(view, total, DefaultRankLimit)
	if len(ranked) != 3 {
		t.Fatalf("got %d rows, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Revenue > ranked[i-1].Revenue {
			t.Error("ranking must be descending by revenue")
		}
	}
	if ranked[0].Region != "South" {
		t.Errorf("top row region = %q, want South", ranked[0].Region)
	}
	if got := float64(ranked[0].RevenuePerUnit); got != 10 {
		t.Errorf("RevenuePerUnit = %v, want 10", got)
	}
}

func TestRank_LimitTruncates(t *testing.T) {
	view := scenarioRecords()
	if got := len(Rank(view, 350, 2)); got != 2 {
		t.Errorf("got %d rows, want 2", got)
	}
	if got := len(Rank(view, 350, 0)); got != 3 {
		t.Errorf("limit 0 must keep all rows, got %d", got)
	}
}

func TestRank_ContributionsSumToOne(t *testing.T) {
	view := scenarioRecords()
	total := Summarize(view).TotalRevenue

	var sum float64
	for _, r := range Rank(view, total, 0) {
		sum += float64(r.Contribution)
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("contributions sum = %v, want 1.0", sum)
	}
}

func TestRank_NonFiniteRatios(t *testing.T) {
	view := []models.SaleRecord{
		sale(date(2024, 1, 1), "North", "SMB", "Office", "Paper", 100, 20, 0), // zero units
	}
	ranked := Rank(view, 0, 0) // zero total revenue
	if ranked[0].RevenuePerUnit.IsFinite() {
		t.Errorf("RevenuePerUnit = %v, want non-finite on zero units", ranked[0].RevenuePerUnit)
	}
	if ranked[0].Contribution.IsFinite() {
		t.Errorf("Contribution = %v, want non-finite on zero total", ranked[0].Contribution)
	}
}

func TestBestAndWorst(t *testing.T) {
	best, worst, err := BestAndWorst([]models.RegionRevenue{
		{Region: "North", Revenue: 150},
		{Region: "South", Revenue: 200},
		{Region: "East", Revenue: 80},
	})
	if err != nil {
		t.Fatalf("BestAndWorst() error = %v", err)
	}
	if best.Region != "South" || worst.Region != "East" {
		t.Errorf("best = %q worst = %q, want South/East", best.Region, worst.Region)
	}
}

func TestBestAndWorst_SingleGroup(t *testing.T) {
	best, worst, err := BestAndWorst([]models.RegionRevenue{{Region: "North", Revenue: 150}})
	if err != nil {
		t.Fatalf("BestAndWorst() error = %v", err)
	}
	if best != worst {
		t.Error("single group must be both best and worst")
	}
}

func TestBestAndWorst_EmptyInput(t *testing.T) {
	if _, _, err := BestAndWorst(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestTopMarginCategory(t *testing.T) {
	top, err := TopMarginCategory([]models.CategoryMargin{
		{Category: "Office", AvgMargin: 0.15},
		{Category: "Furniture", AvgMargin: models.Metric(math.NaN())},
		{Category: "Tech", AvgMargin: 0.3},
	})
	if err != nil {
		t.Fatalf("TopMarginCategory() error = %v", err)
	}
	if top.Category != "Tech" {
		t.Errorf("top = %q, want Tech", top.Category)
	}

	if _, err := TopMarginCategory(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestAnalytics_Recompute_Scenario(t *testing.T) {
	a := NewAnalytics(nil, "", DefaultRankLimit, testLogger())
	a.SetData(scenarioRecords())

	snap := a.Recompute(context.Background(), scenarioCriteria("North"))

	if snap.Empty {
		t.Fatal("snapshot should not be empty")
	}
	if snap.Summary.TotalRevenue != 150 {
		t.Errorf("TotalRevenue = %v, want 150", snap.Summary.TotalRevenue)
	}
	if len(snap.RevenueByRegion) != 1 || snap.RevenueByRegion[0] != (models.RegionRevenue{Region: "North", Revenue: 150}) {
		t.Errorf("RevenueByRegion = %+v, want [{North 150}]", snap.RevenueByRegion)
	}

	if len(snap.Ranked) != 2 {
		t.Fatalf("got %d ranked rows, want 2", len(snap.Ranked))
	}
	if snap.Ranked[0].Revenue != 100 || snap.Ranked[1].Revenue != 50 {
		t.Errorf("ranked revenues = %v, %v; want 100, 50", snap.Ranked[0].Revenue, snap.Ranked[1].Revenue)
	}
	if got := float64(snap.Ranked[0].Contribution); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("top contribution = %v, want 0.667", got)
	}
	if got := float64(snap.Ranked[1].Contribution); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("second contribution = %v, want 0.333", got)
	}

	if snap.Insights.BestRegion.Region != "North" || snap.Insights.WorstRegion.Region != "North" {
		t.Errorf("insights = %+v, want North for both on a single group", snap.Insights)
	}
}

func TestAnalytics_Recompute_EmptyViewShortCircuits(t *testing.T) {
	a := NewAnalytics(nil, "", DefaultRankLimit, testLogger())
	a.SetData(scenarioRecords())

	snap := a.Recompute(context.Background(), scenarioCriteria()) // empty regions

	if !snap.Empty {
		t.Fatal("empty view must set the Empty flag")
	}
	if snap.Ranked != nil || snap.RevenueByMonth != nil {
		t.Error("empty snapshot must not carry aggregates")
	}
}

func TestAnalytics_Options(t *testing.T) {
	a := NewAnalytics(nil, "", DefaultRankLimit, testLogger())
	a.SetData(scenarioRecords())

	opts := a.Options()
	if !opts.MinDate.Equal(date(2024, 1, 15)) || !opts.MaxDate.Equal(date(2024, 3, 1)) {
		t.Errorf("date bounds = %v..%v", opts.MinDate, opts.MaxDate)
	}
	if len(opts.Regions) != 2 || opts.Regions[0] != "North" || opts.Regions[1] != "South" {
		t.Errorf("Regions = %v, want [North South] sorted", opts.Regions)
	}
	if len(opts.Segments) != 1 || len(opts.Categories) != 1 {
		t.Errorf("Segments = %v Categories = %v", opts.Segments, opts.Categories)
	}
}
