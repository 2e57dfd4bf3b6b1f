package models

import "time"

// Transaction is one row of the denormalized source table: an
// (order, line item) pair joined with review and geolocation facts.
// The table mixes grains, so metrics must deduplicate before aggregating.
type Transaction struct {
	OrderID     string
	OrderItemID string // empty when the source has no line-item column
	CustomerID  string // customer_unique_id
	PurchasedAt time.Time
	Price       float64
	Category    string
	ReviewScore int
	HasReview   bool
	Lat         float64
	Lng         float64
	HasGeo      bool
}

type Summary struct {
	TotalOrders  int     `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CategoryRanking struct {
	Top    []CategoryCount `json:"top"`
	Bottom []CategoryCount `json:"bottom"`
}

type ReviewCount struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type GeoSample struct {
	Available bool       `json:"available"`
	Warning   string     `json:"warning,omitempty"`
	Points    []GeoPoint `json:"points"`
}

// RFMRecord is the per-customer scoring row behind the segmentation panel.
type RFMRecord struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`
	RRank      int     `json:"r_rank"`
	FRank      int     `json:"f_rank"`
	MRank      int     `json:"m_rank"`
	Total      int     `json:"total"`
	Segment    string  `json:"segment"`
}

type SegmentCount struct {
	Segment   string `json:"segment"`
	Customers int    `json:"customers"`
}

type RFMSummary struct {
	Available bool           `json:"available"`
	Message   string         `json:"message,omitempty"`
	Segments  []SegmentCount `json:"segments"`
}

type DateSpan struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`
}
