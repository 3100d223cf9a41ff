package models

import (
	"math"
	"slices"
	"strconv"
	"time"
)

// Metric is a float64 whose JSON form is null when the value is not
// finite. Ratio fields (gross margin, contribution, revenue per unit)
// divide by quantities that may be zero, and encoding/json rejects
// NaN/Inf outright, so the non-finite case has to be mapped at the
// boundary. Presentation layers render null as "N/A".
type Metric float64

func (m Metric) IsFinite() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.IsFinite() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(m), 'g', -1, 64), nil
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

type SaleRecord struct {
	OrderDate       time.Time `json:"order_date"`
	Region          string    `json:"region"`
	CustomerSegment string    `json:"customer_segment"`
	ProductCategory string    `json:"product_category"`
	SubCategory     string    `json:"sub_category"`
	Revenue         float64   `json:"revenue"`
	Profit          float64   `json:"profit"`
	Units           int       `json:"units"`
	Discount        float64   `json:"discount"`

	// Derived at load time.
	Month       time.Time `json:"month"`
	GrossMargin Metric    `json:"gross_margin"`
}

// Dataset is the fully parsed source file: records in ascending
// OrderDate order (stable, source order preserved on ties). Read-only
// after load.
type Dataset struct {
	Records []SaleRecord `json:"records"`
	Source  string       `json:"source"`
	ModTime time.Time    `json:"mod_time"`
	Loaded  time.Time    `json:"loaded"`
}

// FilterCriteria is the value object produced from user input on every
// interaction. The string slices are explicit allow-lists: an empty
// slice matches nothing, never everything.
type FilterCriteria struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Regions    []string  `json:"regions"`
	Segments   []string  `json:"segments"`
	Categories []string  `json:"categories"`
}

// FilterOptions describes the selectable filter space of a dataset:
// its date bounds and the distinct categorical values, sorted.
type FilterOptions struct {
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
	Regions    []string  `json:"regions"`
	Segments   []string  `json:"segments"`
	Categories []string  `json:"categories"`
}

// All returns criteria selecting the entire option space, the default
// state of the dashboard before the user narrows anything down.
func (o FilterOptions) All() FilterCriteria {
	return FilterCriteria{
		Start:      o.MinDate,
		End:        o.MaxDate,
		Regions:    slices.Clone(o.Regions),
		Segments:   slices.Clone(o.Segments),
		Categories: slices.Clone(o.Categories),
	}
}
