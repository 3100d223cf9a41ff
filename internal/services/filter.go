package services

import (
	"github.com/jafloresayala/analyzer/internal/models"
)

// FilterRecords returns the rows satisfying every criteria predicate:
// order date within [Start, End] inclusive, and exact membership in
// each of the three allow-lists. An empty allow-list matches nothing —
// criteria are always explicit, never implicit wildcards. Output keeps
// the input order, so a filtered view of a sorted dataset stays sorted.
func FilterRecords(records []models.SaleRecord, c models.FilterCriteria) []models.SaleRecord {
	regions := toSet(c.Regions)
	segments := toSet(c.Segments)
	categories := toSet(c.Categories)

	var view []models.SaleRecord
	for _, r := range records {
		if r.OrderDate.Before(c.Start) || r.OrderDate.After(c.End) {
			continue
		}
		if !regions[r.Region] || !segments[r.CustomerSegment] || !categories[r.ProductCategory] {
			continue
		}
		view = append(view, r)
	}
	return view
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
