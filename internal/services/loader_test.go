package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validCSV = `order_date,region,customer_segment,product_category,sub_category,revenue,profit,units,discount
2024-02-10,South,Enterprise,Furniture,Chairs,200,50,20,0.1
2024-01-15,North,SMB,Office,Paper,100,20,10,0.05
2024-01-15,East,SMB,Office,Binders,80,10,8,0
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCSV_SortsAndDerives(t *testing.T) {
	path := writeTempCSV(t, validCSV)

	ds, err := ParseCSV(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}

	if len(ds.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(ds.Records))
	}

	// Ascending by order date; the two 2024-01-15 rows keep source order.
	if got := ds.Records[0].Region; got != "North" {
		t.Errorf("first record region = %q, want North", got)
	}
	if got := ds.Records[1].Region; got != "East" {
		t.Errorf("second record region = %q, want East (stable tie order)", got)
	}
	if got := ds.Records[2].Region; got != "South" {
		t.Errorf("last record region = %q, want South", got)
	}

	first := ds.Records[0]
	wantMonth := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !first.Month.Equal(wantMonth) {
		t.Errorf("Month = %v, want %v", first.Month, wantMonth)
	}
	if got := float64(first.GrossMargin); got != 0.2 {
		t.Errorf("GrossMargin = %v, want 0.2", got)
	}
}

func TestParseCSV_ColumnOrderIndependent(t *testing.T) {
	shuffled := `region,order_date,discount,customer_segment,product_category,sub_category,units,revenue,profit
North,2024-01-15,0.05,SMB,Office,Paper,10,100,20
`
	path := writeTempCSV(t, shuffled)

	ds, err := ParseCSV(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	r := ds.Records[0]
	if r.Region != "North" || r.Revenue != 100 || r.Units != 10 || r.Discount != 0.05 {
		t.Errorf("fields mapped wrong: %+v", r)
	}
}

func TestParseCSV_ZeroRevenueKeepsNonFiniteMargin(t *testing.T) {
	csv := `order_date,region,customer_segment,product_category,sub_category,revenue,profit,units,discount
2024-01-15,North,SMB,Office,Paper,0,20,10,0
`
	path := writeTempCSV(t, csv)

	ds, err := ParseCSV(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if ds.Records[0].GrossMargin.IsFinite() {
		t.Errorf("GrossMargin = %v, want non-finite", ds.Records[0].GrossMargin)
	}
	if !math.IsInf(float64(ds.Records[0].GrossMargin), 1) {
		t.Errorf("GrossMargin = %v, want +Inf for 20/0", ds.Records[0].GrossMargin)
	}
}

func TestParseCSV_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "empty file",
			csv:  "",
		},
		{
			name: "missing required column",
			csv:  "order_date,region,customer_segment,product_category,sub_category,revenue,profit,units\n",
		},
		{
			name: "unparsable date",
			csv: "order_date,region,customer_segment,product_category,sub_category,revenue,profit,units,discount\n" +
				"15/01/2024,North,SMB,Office,Paper,100,20,10,0.05\n",
		},
		{
			name: "unparsable number",
			csv: "order_date,region,customer_segment,product_category,sub_category,revenue,profit,units,discount\n" +
				"2024-01-15,North,SMB,Office,Paper,abc,20,10,0.05\n",
		},
		{
			name: "short row",
			csv: "order_date,region,customer_segment,product_category,sub_category,revenue,profit,units,discount\n" +
				"2024-01-15,North,SMB\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.csv)

			_, err := ParseCSV(context.Background(), path)
			if err == nil {
				t.Fatal("ParseCSV() should fail")
			}
			var dfErr *DataFormatError
			if !errors.As(err, &dfErr) {
				t.Errorf("error = %v, want *DataFormatError", err)
			}
		})
	}
}

func TestDatasetStore_MemoizesPerPath(t *testing.T) {
	path := writeTempCSV(t, validCSV)
	store := NewDatasetStore(filepath.Join(t.TempDir(), "cache"), testLogger())

	first, err := store.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := store.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if first != second {
		t.Error("unchanged source should return the same in-memory dataset")
	}
}

func TestDatasetStore_InvalidatesOnModTimeChange(t *testing.T) {
	path := writeTempCSV(t, validCSV)
	store := NewDatasetStore("", testLogger())

	first, err := store.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	extra := validCSV + "2024-04-01,West,SMB,Office,Paper,10,1,1,0\n"
	if err := os.WriteFile(path, []byte(extra), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	second, err := store.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(second.Records) != len(first.Records)+1 {
		t.Errorf("expected reparse after mod time change, got %d records", len(second.Records))
	}
}

func TestDatasetStore_SnapshotRoundTrip(t *testing.T) {
	path := writeTempCSV(t, validCSV)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	store := NewDatasetStore(cacheDir, testLogger())
	first, err := store.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// A fresh store with the same cache dir must restore from the gob
	// snapshot and agree row for row.
	restored, err := NewDatasetStore(cacheDir, testLogger()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() from snapshot error = %v", err)
	}
	if len(restored.Records) != len(first.Records) {
		t.Fatalf("snapshot records = %d, want %d", len(restored.Records), len(first.Records))
	}
	for i := range first.Records {
		a, b := first.Records[i], restored.Records[i]
		if !a.OrderDate.Equal(b.OrderDate) || a.Region != b.Region || a.Revenue != b.Revenue {
			t.Errorf("record %d differs after snapshot round trip", i)
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
