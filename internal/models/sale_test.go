package models

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMetric_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Metric
		want  string
	}{
		{"finite", 0.25, "0.25"},
		{"zero", 0, "0"},
		{"NaN", Metric(math.NaN()), "null"},
		{"+Inf", Metric(math.Inf(1)), "null"},
		{"-Inf", Metric(math.Inf(-1)), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMetric_UnmarshalJSON(t *testing.T) {
	var m Metric
	if err := json.Unmarshal([]byte("0.5"), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m != 0.5 {
		t.Errorf("m = %v, want 0.5", m)
	}

	if err := json.Unmarshal([]byte("null"), &m); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	if m.IsFinite() {
		t.Errorf("m = %v, want non-finite after null", m)
	}
}

func TestRankedSale_JSONRoundTripWithNonFinite(t *testing.T) {
	// Snapshots with zero-divisor ratios must still encode: this is
	// the whole point of Metric.
	sale := RankedSale{
		RevenuePerUnit: Metric(math.Inf(1)),
		Contribution:   0.5,
	}

	data, err := json.Marshal(sale)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded RankedSale
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.RevenuePerUnit.IsFinite() {
		t.Error("non-finite ratio must stay non-finite across the wire")
	}
	if decoded.Contribution != 0.5 {
		t.Errorf("Contribution = %v, want 0.5", decoded.Contribution)
	}
}

func TestFilterOptions_All(t *testing.T) {
	opts := FilterOptions{
		Regions:    []string{"North", "South"},
		Segments:   []string{"SMB"},
		Categories: []string{"Office"},
	}

	criteria := opts.All()
	criteria.Regions[0] = "mutated"
	if opts.Regions[0] != "North" {
		t.Error("All() must clone the option slices")
	}
}
