package services

import (
	"strconv"
	"strings"

	"ecom-dashboard/internal/models"
)

// DedupStrategy projects a mixed-grain transaction row onto the key that
// identifies one line item. The source table is a join of orders, items,
// reviews and geolocation, so rows repeat per order and aggregating
// without a projection double-counts.
type DedupStrategy interface {
	Name() string
	Key(tx models.Transaction) string
}

// preciseItemKey keys on (order, line item). Immune to two distinct items
// in one order sharing price and category.
type preciseItemKey struct{}

func (preciseItemKey) Name() string { return "precise" }

func (preciseItemKey) Key(tx models.Transaction) string {
	return tx.OrderID + "|" + tx.OrderItemID
}

// coarseItemKey keys on (order, price, category). Fallback for datasets
// without a line-item column; merges items that share price and category
// within one order.
type coarseItemKey struct{}

func (coarseItemKey) Name() string { return "coarse" }

func (coarseItemKey) Key(tx models.Transaction) string {
	var b strings.Builder
	b.WriteString(tx.OrderID)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(tx.Price, 'f', -1, 64))
	b.WriteByte('|')
	b.WriteString(tx.Category)
	return b.String()
}

// ItemStrategy picks the precise key when the dataset carries a line-item
// column and falls back to the coarse key otherwise.
func ItemStrategy(hasItemID bool) DedupStrategy {
	if hasItemID {
		return preciseItemKey{}
	}
	return coarseItemKey{}
}

// Deduplicate keeps the first occurrence per key, preserving input order.
func Deduplicate(rows []models.Transaction, strategy DedupStrategy) []models.Transaction {
	seen := make(map[string]struct{}, len(rows))
	out := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		key := strategy.Key(tx)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}
	return out
}

// OrderView keeps one row per order, first occurrence wins.
func OrderView(rows []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(rows))
	out := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		if _, ok := seen[tx.OrderID]; ok {
			continue
		}
		seen[tx.OrderID] = struct{}{}
		out = append(out, tx)
	}
	return out
}
