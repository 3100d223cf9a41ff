package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jafloresayala/analyzer/internal/models"
	"github.com/jafloresayala/analyzer/internal/observability"
)

// Analytics owns the loaded dataset and runs the recompute pipeline.
// The dataset is read-only after load, so a single RWMutex around the
// pointer swap is all the synchronization needed; every recompute works
// on plain values and carries no state between interactions.
type Analytics struct {
	mu        sync.RWMutex
	dataset   *models.Dataset
	store     *DatasetStore
	path      string
	rankLimit int
	logger    *slog.Logger
}

func NewAnalytics(store *DatasetStore, path string, rankLimit int, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	if rankLimit == 0 {
		rankLimit = DefaultRankLimit
	}
	return &Analytics{
		store:     store,
		path:      path,
		rankLimit: rankLimit,
		logger:    logger,
	}
}

// Load pulls the dataset through the store (memoized per path, mod-time
// validated). Safe to call again to pick up a replaced source file.
func (a *Analytics) Load(ctx context.Context) error {
	start := time.Now()
	ds, err := a.store.Load(ctx, a.path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	a.mu.Lock()
	a.dataset = ds
	a.mu.Unlock()

	a.logger.Info("dataset ready",
		"path", a.path,
		"records", len(ds.Records),
		"duration", time.Since(start),
	)
	return nil
}

// SetData installs an in-memory dataset directly, bypassing the store.
func (a *Analytics) SetData(records []models.SaleRecord) {
	recs := slices.Clone(records)
	slices.SortStableFunc(recs, func(x, y models.SaleRecord) int {
		return x.OrderDate.Compare(y.OrderDate)
	})

	a.mu.Lock()
	a.dataset = &models.Dataset{Records: recs, Loaded: time.Now()}
	a.mu.Unlock()
}

func (a *Analytics) snapshot() *models.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Options reports the filter space of the loaded dataset: date bounds
// plus the distinct categorical values, sorted. The dashboard seeds its
// controls from this, with everything selected.
func (a *Analytics) Options() models.FilterOptions {
	ds := a.snapshot()
	if ds == nil || len(ds.Records) == 0 {
		return models.FilterOptions{}
	}

	regions := make(map[string]bool)
	segments := make(map[string]bool)
	categories := make(map[string]bool)
	for _, r := range ds.Records {
		regions[r.Region] = true
		segments[r.CustomerSegment] = true
		categories[r.ProductCategory] = true
	}

	return models.FilterOptions{
		MinDate:    ds.Records[0].OrderDate,
		MaxDate:    ds.Records[len(ds.Records)-1].OrderDate,
		Regions:    sortedKeys(regions),
		Segments:   sortedKeys(segments),
		Categories: sortedKeys(categories),
	}
}

// Recompute runs the full pipeline for one set of criteria:
// filter, then aggregate, rank and derive insights over the view. An
// empty view short-circuits to Snapshot{Empty: true} — a no-data
// signal, not an error.
func (a *Analytics) Recompute(ctx context.Context, criteria models.FilterCriteria) *models.Snapshot {
	_, span := observability.StartSpan(ctx, "analytics.recompute")
	defer span.Finish()
	start := time.Now()

	ds := a.snapshot()
	snap := &models.Snapshot{Criteria: criteria}
	if ds == nil {
		snap.Empty = true
		return snap
	}

	view := FilterRecords(ds.Records, criteria)
	span.SetTag("rows", fmt.Sprintf("%d", len(view)))
	if len(view) == 0 {
		snap.Empty = true
		a.logger.Debug("recompute matched no rows", "criteria", criteria)
		return snap
	}

	snap.Summary = Summarize(view)
	snap.RevenueByMonth = RevenueByMonth(view)
	snap.MarginByCategory = MarginByCategory(view)
	snap.RevenueByRegion = RevenueByRegion(view)
	snap.ProductMix = ProductMix(view)
	snap.Ranked = Rank(view, snap.Summary.TotalRevenue, a.rankLimit)

	// The view is non-empty here, so both grouped inputs are too.
	best, worst, err := BestAndWorst(snap.RevenueByRegion)
	if err != nil {
		span.SetError(err)
		a.logger.Error("insight invariant violated", "error", err)
		return snap
	}
	top, err := TopMarginCategory(snap.MarginByCategory)
	if err != nil {
		span.SetError(err)
		a.logger.Error("insight invariant violated", "error", err)
		return snap
	}
	snap.Insights = models.Insights{
		BestRegion:        best,
		WorstRegion:       worst,
		TopMarginCategory: top,
	}

	a.logger.Debug("recompute complete",
		"rows", len(view),
		"duration", time.Since(start),
	)
	return snap
}

// Stats exposes coarse dataset numbers for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	ds := a.snapshot()
	if ds == nil {
		return map[string]any{"loaded": false}
	}

	opts := a.Options()
	return map[string]any{
		"loaded":     true,
		"source":     ds.Source,
		"records":    len(ds.Records),
		"loaded_at":  ds.Loaded,
		"regions":    len(opts.Regions),
		"segments":   len(opts.Segments),
		"categories": len(opts.Categories),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
