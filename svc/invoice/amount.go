package invoice

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

// itemsTotal computes the invoice amount from its items:
// Σ(quantity × price + taxAmount), rounded to currency precision.
func itemsTotal(items []tstore.Record) float64 {
	var total float64
	for _, item := range items {
		qty := toFloat(item["quantity"])
		price := toFloat(item["price"])
		tax := toFloat(item["taxAmount"])
		total += qty*price + tax
	}
	return math.Round(total*100) / 100
}

// toFloat best-effort converts the loosely typed values JSON decoding and
// row scanning produce. Unknown types count as zero.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
