package services

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ecom-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
	cacheDir     = ".cache"
)

// Column names expected in the source CSV header.
const (
	colOrderID         = "order_id"
	colOrderItemID     = "order_item_id"
	colCustomerID      = "customer_unique_id"
	colPurchasedAt     = "order_purchase_timestamp"
	colPrice           = "price"
	colCategoryEnglish = "product_category_name_english"
	colCategory        = "product_category_name"
	colReviewScore     = "review_score"
	colGeoLat          = "geolocation_lat"
	colGeoLng          = "geolocation_lng"
)

var timestampLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// Dataset is the loaded transaction table plus the column features the
// source happened to carry. Read-only after load.
type Dataset struct {
	Rows          []models.Transaction
	HasItemID     bool
	HasReview     bool
	HasGeo        bool
	MinDate       time.Time
	MaxDate       time.Time
	SourceModTime time.Time
	LoadedAt      time.Time
}

// columnMap resolves header names to field indices. Optional columns map
// to -1 when absent.
type columnMap struct {
	orderID     int
	orderItemID int
	customerID  int
	purchasedAt int
	price       int
	category    int
	reviewScore int
	geoLat      int
	geoLng      int
}

func resolveColumns(header []string) (columnMap, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := columnMap{
		orderID:     lookup(colOrderID),
		orderItemID: lookup(colOrderItemID),
		customerID:  lookup(colCustomerID),
		purchasedAt: lookup(colPurchasedAt),
		price:       lookup(colPrice),
		category:    lookup(colCategoryEnglish),
		reviewScore: lookup(colReviewScore),
		geoLat:      lookup(colGeoLat),
		geoLng:      lookup(colGeoLng),
	}
	if cols.category < 0 {
		cols.category = lookup(colCategory)
	}

	required := map[string]int{
		colOrderID:     cols.orderID,
		colCustomerID:  cols.customerID,
		colPurchasedAt: cols.purchasedAt,
		colPrice:       cols.price,
		"category":     cols.category,
	}
	for name, idx := range required {
		if idx < 0 {
			return columnMap{}, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func parseTransaction(record []string, cols columnMap) (models.Transaction, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	purchasedAt, err := parseTimestamp(field(cols.purchasedAt))
	if err != nil {
		return models.Transaction{}, err
	}

	price, err := strconv.ParseFloat(field(cols.price), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("parse price: %w", err)
	}

	tx := models.Transaction{
		OrderID:     field(cols.orderID),
		OrderItemID: field(cols.orderItemID),
		CustomerID:  field(cols.customerID),
		PurchasedAt: purchasedAt,
		Price:       price,
		Category:    field(cols.category),
	}
	if tx.OrderID == "" || tx.CustomerID == "" {
		return models.Transaction{}, fmt.Errorf("missing order or customer id")
	}

	// Nullable facts: empty cells stay unset rather than failing the row.
	if raw := field(cols.reviewScore); raw != "" {
		if score, err := strconv.ParseFloat(raw, 64); err == nil {
			tx.ReviewScore = int(score)
			tx.HasReview = true
		}
	}
	latRaw, lngRaw := field(cols.geoLat), field(cols.geoLng)
	if latRaw != "" && lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr == nil && lngErr == nil {
			tx.Lat, tx.Lng = lat, lng
			tx.HasGeo = true
		}
	}

	return tx, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// loadDataset streams the CSV through a bounded worker pool, batch by
// batch, preserving input order so first-occurrence dedup stays
// deterministic.
func loadDataset(ctx context.Context, filename string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB buffer

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file")
	}
	cols, err := resolveColumns(strings.Split(scanner.Text(), ","))
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		HasItemID:     cols.orderItemID >= 0,
		HasGeo:        cols.geoLat >= 0 && cols.geoLng >= 0,
		HasReview:     cols.reviewScore >= 0,
		SourceModTime: info.ModTime(),
	}

	batch := make([]string, 0, batchSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())
		if len(batch) >= batchSize {
			if err := parseBatch(ctx, batch, cols, ds); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := parseBatch(ctx, batch, cols, ds); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	if len(ds.Rows) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	for _, tx := range ds.Rows {
		day := dateOf(tx.PurchasedAt)
		if ds.MinDate.IsZero() || day.Before(ds.MinDate) {
			ds.MinDate = day
		}
		if day.After(ds.MaxDate) {
			ds.MaxDate = day
		}
	}
	ds.LoadedAt = time.Now()
	return ds, nil
}

// parseBatch fans the batch out over the worker pool and appends the valid
// rows in input order. Unparseable rows are skipped.
func parseBatch(ctx context.Context, batch []string, cols columnMap, ds *Dataset) error {
	type parsed struct {
		tx    models.Transaction
		valid bool
	}

	results := make([]parsed, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)
	for i, line := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tx, err := parseTransaction(strings.Split(line, ","), cols)
			if err != nil {
				return nil // skip invalid records
			}
			results[i] = parsed{tx: tx, valid: true}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return err
	}

	for _, p := range results {
		if p.valid {
			ds.Rows = append(ds.Rows, p.tx)
		}
	}
	return nil
}

func statSource(filename string) (os.FileInfo, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	return info, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Snapshot cache: parsed rows are persisted to a gob file keyed on the
// source path, its modification time and the cache version. A snapshot is
// reused only when the source modtime matches exactly.

func cacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func saveSnapshot(csvPath string, ds *Dataset) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(ds)
}

func loadSnapshot(csvPath string, modTime time.Time) (*Dataset, error) {
	file, err := os.Open(cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ds Dataset
	if err := gob.NewDecoder(file).Decode(&ds); err != nil {
		return nil, err
	}
	if !ds.SourceModTime.Equal(modTime) {
		return nil, fmt.Errorf("snapshot is stale")
	}
	return &ds, nil
}
