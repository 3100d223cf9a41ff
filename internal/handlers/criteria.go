package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jafloresayala/analyzer/internal/errors"
	"github.com/jafloresayala/analyzer/internal/models"
)

const dateLayout = "2006-01-02"

// parseCriteria builds FilterCriteria from query parameters:
//
//	from, to                        — inclusive date range (2006-01-02)
//	regions, segments, categories   — comma-separated allow-lists
//
// An absent parameter falls back to the dataset's full option space,
// mirroring the dashboard's everything-selected default. A parameter
// that is present but empty stays an empty allow-list, which matches
// nothing.
func parseCriteria(r *http.Request, opts models.FilterOptions) (models.FilterCriteria, error) {
	q := r.URL.Query()
	criteria := opts.All()

	var err error
	if criteria.Start, err = parseDateParam(q, "from", opts.MinDate); err != nil {
		return models.FilterCriteria{}, err
	}
	if criteria.End, err = parseDateParam(q, "to", opts.MaxDate); err != nil {
		return models.FilterCriteria{}, err
	}
	if criteria.End.Before(criteria.Start) {
		return models.FilterCriteria{}, errors.BadRequest("'to' must not be before 'from'")
	}

	if q.Has("regions") {
		criteria.Regions = splitParam(q["regions"])
	}
	if q.Has("segments") {
		criteria.Segments = splitParam(q["segments"])
	}
	if q.Has("categories") {
		criteria.Categories = splitParam(q["categories"])
	}

	return criteria, nil
}

func parseDateParam(q url.Values, key string, fallback time.Time) (time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err, "invalid "+key+" date, expected YYYY-MM-DD")
	}
	return t, nil
}

func splitParam(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
