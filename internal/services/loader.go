package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jafloresayala/analyzer/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10

	dateLayout = "2006-01-02"
)

var requiredColumns = []string{
	"order_date",
	"region",
	"customer_segment",
	"product_category",
	"sub_category",
	"revenue",
	"profit",
	"units",
	"discount",
}

type columnIndex map[string]int

type rawRow struct {
	line int
	text string
}

// ParseCSV reads and fully parses a sales CSV. The header row maps
// column names to positions, so column order in the source does not
// matter. Any missing required column or unparsable value aborts the
// load with a *DataFormatError; rows are never silently skipped.
//
// The returned dataset is sorted ascending by order date (stable, so
// same-day rows keep their source order) with the month bucket and
// gross margin derived per row. A zero-revenue row yields a non-finite
// margin, which is kept as-is.
func ParseCSV(ctx context.Context, path string) (*models.Dataset, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB line cap

	if !scanner.Scan() {
		return nil, &DataFormatError{Path: path, Detail: "empty file"}
	}
	cols, err := parseHeader(path, scanner.Text())
	if err != nil {
		return nil, err
	}

	var records []models.SaleRecord
	batch := make([]rawRow, 0, batchSize)
	lineNo := 1 // header consumed

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		parsed, err := parseBatch(ctx, path, cols, batch)
		if err != nil {
			return err
		}
		records = append(records, parsed...)
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		batch = append(batch, rawRow{line: lineNo, text: line})

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b models.SaleRecord) int {
		return a.OrderDate.Compare(b.OrderDate)
	})

	return &models.Dataset{
		Records: records,
		Source:  path,
		ModTime: fi.ModTime(),
		Loaded:  time.Now(),
	}, nil
}

func parseHeader(path, header string) (columnIndex, error) {
	cols := make(columnIndex)
	for i, name := range strings.Split(header, ",") {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &DataFormatError{
				Path:   path,
				Detail: fmt.Sprintf("missing required column %q", name),
			}
		}
	}
	return cols, nil
}

// parseBatch parses a batch of rows with a bounded worker pool. Each
// row writes into its own slot, so source order survives the fan-out;
// the first bad row fails the whole load.
func parseBatch(ctx context.Context, path string, cols columnIndex, batch []rawRow) ([]models.SaleRecord, error) {
	out := make([]models.SaleRecord, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, row := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rec, err := parseSale(path, cols, row.text, row.line)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseSale(path string, cols columnIndex, line string, lineNo int) (models.SaleRecord, error) {
	fields := strings.Split(line, ",")

	field := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(fields) {
			return "", &DataFormatError{
				Path:   path,
				Line:   lineNo,
				Detail: fmt.Sprintf("row too short for column %q", name),
			}
		}
		return strings.TrimSpace(fields[idx]), nil
	}

	var rec models.SaleRecord
	var firstErr error

	str := func(name string) string {
		if firstErr != nil {
			return ""
		}
		v, err := field(name)
		if err != nil {
			firstErr = err
		}
		return v
	}
	num := func(name string) float64 {
		raw := str(name)
		if firstErr != nil {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			firstErr = &DataFormatError{
				Path:   path,
				Line:   lineNo,
				Detail: fmt.Sprintf("unparsable number in column %q", name),
				Cause:  err,
			}
		}
		return v
	}

	rawDate := str("order_date")
	if firstErr == nil {
		rec.OrderDate, firstErr = parseDate(path, lineNo, rawDate)
	}
	rec.Region = str("region")
	rec.CustomerSegment = str("customer_segment")
	rec.ProductCategory = str("product_category")
	rec.SubCategory = str("sub_category")
	rec.Revenue = num("revenue")
	rec.Profit = num("profit")
	rec.Units = int(num("units"))
	rec.Discount = num("discount")

	if firstErr != nil {
		return models.SaleRecord{}, firstErr
	}

	rec.Month = time.Date(rec.OrderDate.Year(), rec.OrderDate.Month(), 1, 0, 0, 0, 0, rec.OrderDate.Location())
	rec.GrossMargin = models.Metric(rec.Profit / rec.Revenue)
	return rec, nil
}

func parseDate(path string, lineNo int, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &DataFormatError{
			Path:   path,
			Line:   lineNo,
			Detail: "unparsable order_date",
			Cause:  err,
		}
	}
	return t, nil
}
