package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ecom-dashboard/internal/models"
)

const (
	defaultGeoSampleCap = 10000
	topBottomN          = 10
)

// Range is an inclusive [Start, End] pair of dates. A zero Start or End
// means "unbounded on that side" and resolves to the data span.
type Range struct {
	Start time.Time
	End   time.Time
}

// Analytics serves every dashboard panel from the in-memory dataset.
// The dataset is read-only after load; each panel is recomputed from
// scratch over the requested date range.
type Analytics struct {
	mu           sync.RWMutex
	ds           *Dataset
	logger       *slog.Logger
	geoSampleCap int
}

func NewAnalytics() *Analytics {
	return &Analytics{
		ds:           &Dataset{},
		logger:       slog.Default(),
		geoSampleCap: defaultGeoSampleCap,
	}
}

// SetGeoSampleCap overrides the geographic sample ceiling. Values < 1 are
// ignored.
func (a *Analytics) SetGeoSampleCap(limit int) {
	if limit < 1 {
		return
	}
	a.mu.Lock()
	a.geoSampleCap = limit
	a.mu.Unlock()
}

// SetData installs rows directly, deriving column features from their
// contents. Intended for tests.
func (a *Analytics) SetData(rows []models.Transaction) {
	ds := &Dataset{Rows: rows, LoadedAt: time.Now()}
	for _, tx := range rows {
		if tx.OrderItemID != "" {
			ds.HasItemID = true
		}
		if tx.HasReview {
			ds.HasReview = true
		}
		if tx.HasGeo {
			ds.HasGeo = true
		}
		day := dateOf(tx.PurchasedAt)
		if ds.MinDate.IsZero() || day.Before(ds.MinDate) {
			ds.MinDate = day
		}
		if day.After(ds.MaxDate) {
			ds.MaxDate = day
		}
	}

	a.mu.Lock()
	a.ds = ds
	a.mu.Unlock()
}

// LoadFromCSV parses the source file, reusing the gob snapshot when its
// recorded modtime matches the file on disk.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	info, err := statSource(filename)
	if err != nil {
		return err
	}

	if cached, err := loadSnapshot(filename, info.ModTime()); err == nil {
		a.mu.Lock()
		a.ds = cached
		a.mu.Unlock()
		a.logger.Info("loaded dataset snapshot", "records", len(cached.Rows))
		return nil
	}

	start := time.Now()
	a.logger.Info("processing CSV file", "filename", filename)

	ds, err := loadDataset(ctx, filename)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	if err := saveSnapshot(filename, ds); err != nil {
		a.logger.Warn("failed to save snapshot", "error", err)
	}

	a.mu.Lock()
	a.ds = ds
	a.mu.Unlock()

	duration := time.Since(start)
	a.logger.Info("csv processing complete",
		"records", len(ds.Rows),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(ds.Rows))/duration.Seconds()))

	return nil
}

// DateSpan reports the full purchase-date span of the data; ok is false
// when nothing is loaded.
func (a *Analytics) DateSpan() (Range, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.ds.Rows) == 0 {
		return Range{}, false
	}
	return Range{Start: a.ds.MinDate, End: a.ds.MaxDate}, true
}

// filtered resolves the range against the data span and returns the rows
// whose purchase date falls inside it, inclusive on both ends. An
// inverted range yields no rows; downstream panels degrade to their
// no-data states.
func (a *Analytics) filtered(r Range) []models.Transaction {
	start, end := r.Start, r.End
	if start.IsZero() {
		start = a.ds.MinDate
	}
	if end.IsZero() {
		end = a.ds.MaxDate
	}
	start, end = dateOf(start), dateOf(end)

	out := make([]models.Transaction, 0, len(a.ds.Rows))
	if start.After(end) {
		return out
	}
	for _, tx := range a.ds.Rows {
		day := dateOf(tx.PurchasedAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (a *Analytics) itemView(rows []models.Transaction) []models.Transaction {
	return Deduplicate(rows, ItemStrategy(a.ds.HasItemID))
}

// Summary reports the headline order count and revenue for the range.
func (a *Analytics) Summary(r Range) models.Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows := a.filtered(r)
	var revenue float64
	for _, tx := range a.itemView(rows) {
		revenue += tx.Price
	}
	return models.Summary{
		TotalOrders:  len(OrderView(rows)),
		TotalRevenue: revenue,
	}
}

// RevenueTrend returns monthly revenue and order counts for the range.
func (a *Analytics) RevenueTrend(r Range) []models.MonthlyRevenue {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return monthlyTrend(a.itemView(a.filtered(r)))
}

// Categories ranks the most and least sold product categories.
func (a *Analytics) Categories(r Range) models.CategoryRanking {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return categoryRanking(a.itemView(a.filtered(r)), topBottomN)
}

// Reviews returns the review-score histogram for the range.
func (a *Analytics) Reviews(r Range) []models.ReviewCount {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return reviewDistribution(a.filtered(r))
}

// GeoSample returns the customer geolocation scatter for the range. When
// the dataset has no geolocation columns the panel degrades to a warning.
func (a *Analytics) GeoSample(r Range) models.GeoSample {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.ds.HasGeo {
		return models.GeoSample{
			Warning: "geolocation columns not present in dataset",
			Points:  []models.GeoPoint{},
		}
	}
	points := samplePoints(geoPoints(a.filtered(r)), a.geoSampleCap)
	return models.GeoSample{Available: true, Points: points}
}

// RFMRecords scores every customer in the range's item view.
func (a *Analytics) RFMRecords(r Range) []models.RFMRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return ComputeRFM(a.itemView(a.filtered(r)))
}

// RFMSegments tallies the customer segmentation panel. An empty range
// surfaces an explicit no-data state instead of scoring nothing.
func (a *Analytics) RFMSegments(r Range) models.RFMSummary {
	records := a.RFMRecords(r)
	if len(records) == 0 {
		return models.RFMSummary{
			Message:  "no transactions in the selected date range",
			Segments: []models.SegmentCount{},
		}
	}
	return models.RFMSummary{Available: true, Segments: SegmentCounts(records)}
}

// Stats exposes dataset-level counters for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":  len(a.ds.Rows),
		"loaded_at":     a.ds.LoadedAt,
		"min_date":      a.ds.MinDate,
		"max_date":      a.ds.MaxDate,
		"has_item_id":   a.ds.HasItemID,
		"has_review":    a.ds.HasReview,
		"has_geo":       a.ds.HasGeo,
		"item_strategy": ItemStrategy(a.ds.HasItemID).Name(),
	}
}
