package services

import (
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"ecom-dashboard/internal/models"
)

// Brazil bounding box; coordinates outside it are geocoding outliers.
const (
	brazilLngMin = -73.9828
	brazilLngMax = -34.7931
	brazilLatMin = -33.7511
	brazilLatMax = 5.2743
)

const geoSampleSeed = 42

// monthlyTrend groups the item view by calendar month: revenue sum and
// distinct-order count per month, ascending. Months with no activity are
// omitted rather than zero-filled.
func monthlyTrend(items []models.Transaction) []models.MonthlyRevenue {
	type monthAgg struct {
		revenue float64
		orders  map[string]struct{}
	}

	byMonth := make(map[string]*monthAgg)
	for _, tx := range items {
		month := tx.PurchasedAt.Format("2006-01")
		agg := byMonth[month]
		if agg == nil {
			agg = &monthAgg{orders: make(map[string]struct{})}
			byMonth[month] = agg
		}
		agg.revenue += tx.Price
		agg.orders[tx.OrderID] = struct{}{}
	}

	out := make([]models.MonthlyRevenue, 0, len(byMonth))
	for month, agg := range byMonth {
		out = append(out, models.MonthlyRevenue{
			Month:   month,
			Revenue: agg.revenue,
			Orders:  len(agg.orders),
		})
	}
	slices.SortFunc(out, func(a, b models.MonthlyRevenue) int {
		return strings.Compare(a.Month, b.Month)
	})
	return out
}

// categoryRanking counts item-view rows per category and returns the top
// and bottom n. Ties break on category name so the ordering is
// deterministic; with few categories the two lists may overlap.
func categoryRanking(items []models.Transaction, n int) models.CategoryRanking {
	counts := make(map[string]int)
	for _, tx := range items {
		counts[tx.Category]++
	}

	all := make([]models.CategoryCount, 0, len(counts))
	for category, count := range counts {
		all = append(all, models.CategoryCount{Category: category, Count: count})
	}

	top := append([]models.CategoryCount(nil), all...)
	slices.SortFunc(top, func(a, b models.CategoryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Category, b.Category)
	})

	bottom := append([]models.CategoryCount(nil), all...)
	slices.SortFunc(bottom, func(a, b models.CategoryCount) int {
		if a.Count != b.Count {
			return a.Count - b.Count
		}
		return strings.Compare(a.Category, b.Category)
	})

	if len(top) > n {
		top = top[:n]
	}
	if len(bottom) > n {
		bottom = bottom[:n]
	}
	return models.CategoryRanking{Top: top, Bottom: bottom}
}

// reviewDistribution drops rows without a review, keeps one row per order
// and counts occurrences per score, ascending. Scores absent from the
// filtered data are omitted.
func reviewDistribution(rows []models.Transaction) []models.ReviewCount {
	reviewed := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		if tx.HasReview {
			reviewed = append(reviewed, tx)
		}
	}

	counts := make(map[int]int)
	for _, tx := range OrderView(reviewed) {
		counts[tx.ReviewScore]++
	}

	out := make([]models.ReviewCount, 0, len(counts))
	for score := 1; score <= 5; score++ {
		if n := counts[score]; n > 0 {
			out = append(out, models.ReviewCount{Score: score, Count: n})
		}
	}
	return out
}

// geoPoints deduplicates customer coordinates inside the Brazil bounding
// box, first occurrence wins.
func geoPoints(rows []models.Transaction) []models.GeoPoint {
	seen := make(map[string]struct{})
	out := make([]models.GeoPoint, 0)
	for _, tx := range rows {
		if !tx.HasGeo {
			continue
		}
		if tx.Lng < brazilLngMin || tx.Lng > brazilLngMax ||
			tx.Lat < brazilLatMin || tx.Lat > brazilLatMax {
			continue
		}
		key := tx.CustomerID + "|" + formatCoord(tx.Lat) + "|" + formatCoord(tx.Lng)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.GeoPoint{Lat: tx.Lat, Lng: tx.Lng})
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// samplePoints bounds the render cost: at most limit points, drawn with a
// fixed seed so repeated requests over the same filtered input return the
// identical sample.
func samplePoints(points []models.GeoPoint, limit int) []models.GeoPoint {
	if len(points) <= limit {
		return points
	}

	rng := rand.New(rand.NewSource(geoSampleSeed))
	perm := rng.Perm(len(points))

	out := make([]models.GeoPoint, limit)
	for i := 0; i < limit; i++ {
		out[i] = points[perm[i]]
	}
	return out
}
