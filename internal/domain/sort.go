package domain

import (
	"sort"
	"strconv"
	"strings"
)

type SortKey string

const (
	SortByCreatedAt SortKey = "created_at"
	SortByQuantity  SortKey = "quantity"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

type Sort struct {
	Key   SortKey
	Order SortOrder
}

// QuantityValue parses the leading number out of the free-text quantity
// ("5 kg" -> 5, "2.5 l" -> 2.5). Anything without a numeric prefix counts as 0.
func QuantityValue(q string) float64 {
	q = strings.TrimSpace(q)
	end := 0
	for end < len(q) && (q[end] >= '0' && q[end] <= '9' || q[end] == '.') {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(q[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// SortListings orders in place. Stable, so equal keys keep insertion (id) order.
// Both stores use it: Mongo cannot sort by a parsed quantity prefix server-side.
func SortListings(ls []Listing, s Sort) {
	var less func(a, b *Listing) bool
	switch s.Key {
	case SortByQuantity:
		less = func(a, b *Listing) bool { return QuantityValue(a.Quantity) < QuantityValue(b.Quantity) }
	case SortByCreatedAt:
		less = func(a, b *Listing) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}
	sort.SliceStable(ls, func(i, j int) bool {
		if s.Order == OrderDesc {
			return less(&ls[j], &ls[i])
		}
		return less(&ls[i], &ls[j])
	})
}
