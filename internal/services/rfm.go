package services

import (
	"sort"
	"time"

	"ecom-dashboard/internal/models"
)

// segmentTiers maps an RFM total to a label via the first tier whose lower
// bound the total meets. Ordered descending; boundaries are inclusive.
var segmentTiers = []struct {
	Min   int
	Label string
}{
	{10, "Best Customers"},
	{7, "Loyal Customers"},
	{5, "Potential Customers"},
	{0, "Lost Customers"},
}

// SegmentFor returns the segment label for an RFM total.
func SegmentFor(total int) string {
	for _, tier := range segmentTiers {
		if total >= tier.Min {
			return tier.Label
		}
	}
	return segmentTiers[len(segmentTiers)-1].Label
}

// ComputeRFM scores every customer present in the item view. Recency is
// measured against a reference date one day past the latest purchase in
// the view, so the most recent customer scores a recency of 1 day.
// Returns nil for an empty view; callers surface that as a no-data state.
func ComputeRFM(items []models.Transaction) []models.RFMRecord {
	if len(items) == 0 {
		return nil
	}

	type customerAgg struct {
		lastPurchase time.Time
		orders       map[string]struct{}
		monetary     float64
	}

	byCustomer := make(map[string]*customerAgg)
	customerIDs := make([]string, 0) // first-seen order
	var maxPurchase time.Time

	for _, tx := range items {
		agg := byCustomer[tx.CustomerID]
		if agg == nil {
			agg = &customerAgg{orders: make(map[string]struct{})}
			byCustomer[tx.CustomerID] = agg
			customerIDs = append(customerIDs, tx.CustomerID)
		}
		if tx.PurchasedAt.After(agg.lastPurchase) {
			agg.lastPurchase = tx.PurchasedAt
		}
		agg.orders[tx.OrderID] = struct{}{}
		agg.monetary += tx.Price
		if tx.PurchasedAt.After(maxPurchase) {
			maxPurchase = tx.PurchasedAt
		}
	}

	referenceDate := maxPurchase.Add(24 * time.Hour)

	records := make([]models.RFMRecord, len(customerIDs))
	recencies := make([]float64, len(customerIDs))
	monetaries := make([]float64, len(customerIDs))

	for i, id := range customerIDs {
		agg := byCustomer[id]
		recency := int(referenceDate.Sub(agg.lastPurchase).Hours() / 24)
		records[i] = models.RFMRecord{
			CustomerID: id,
			Recency:    recency,
			Frequency:  len(agg.orders),
			Monetary:   agg.monetary,
		}
		recencies[i] = float64(recency)
		monetaries[i] = agg.monetary
	}

	rRanks := quartileRanks(recencies, false)
	mRanks := quartileRanks(monetaries, true)

	for i := range records {
		records[i].RRank = rRanks[i]
		records[i].MRank = mRanks[i]
		records[i].FRank = frequencyRank(records[i].Frequency)
		records[i].Total = records[i].RRank + records[i].FRank + records[i].MRank
		records[i].Segment = SegmentFor(records[i].Total)
	}

	return records
}

// SegmentCounts tallies customers per segment in tier order, omitting
// segments with no customers.
func SegmentCounts(records []models.RFMRecord) []models.SegmentCount {
	counts := make(map[string]int, len(segmentTiers))
	for _, rec := range records {
		counts[rec.Segment]++
	}

	out := make([]models.SegmentCount, 0, len(segmentTiers))
	for _, tier := range segmentTiers {
		if n := counts[tier.Label]; n > 0 {
			out = append(out, models.SegmentCount{Segment: tier.Label, Customers: n})
		}
	}
	return out
}

func frequencyRank(freq int) int {
	switch {
	case freq > 3:
		return 4
	case freq > 2:
		return 3
	case freq > 1:
		return 2
	default:
		return 1
	}
}

// quartileRanks buckets values into up to four quantile bins and assigns
// ranks so that the best bin scores highest. highIsBest selects whether
// large values (monetary) or small values (recency) rank best. Duplicate
// bin edges collapse instead of failing, so degenerate distributions
// (many customers sharing one value) produce a compressed rank range.
func quartileRanks(values []float64, highIsBest bool) []int {
	edges := quartileEdges(values)
	bins := len(edges) - 1

	ranks := make([]int, len(values))
	if bins < 1 {
		// All values identical: a single collapsed bin.
		for i := range ranks {
			ranks[i] = 1
		}
		return ranks
	}

	for i, v := range values {
		bin := bucket(v, edges)
		if highIsBest {
			ranks[i] = bin + 1
		} else {
			ranks[i] = bins - bin
		}
	}
	return ranks
}

// quartileEdges returns the deduplicated quartile boundaries of values,
// using linear interpolation between order statistics.
func quartileEdges(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	quantiles := []float64{0, 0.25, 0.5, 0.75, 1}
	edges := make([]float64, 0, len(quantiles))
	for _, q := range quantiles {
		e := quantile(sorted, q)
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges
}

// quantile interpolates the q-th quantile of an ascending-sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// bucket returns the 0-based bin of v; intervals are right-inclusive with
// the lowest edge included in the first bin.
func bucket(v float64, edges []float64) int {
	bins := len(edges) - 1
	for i := 0; i < bins-1; i++ {
		if v <= edges[i+1] {
			return i
		}
	}
	return bins - 1
}
