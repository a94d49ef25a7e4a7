package models

// CartSnapshot maps product identifiers to requested quantities. It is the
// value object the checkout freezes into an order's item list.
type CartSnapshot map[string]int

// MergeCarts merges a guest cart into an account cart additively: quantities
// for the same product are summed and capped per product. Neither input is
// modified.
func MergeCarts(account, guest CartSnapshot) CartSnapshot {
	merged := make(CartSnapshot, len(account)+len(guest))
	for id, qty := range account {
		if qty > 0 {
			merged[id] = qty
		}
	}
	for id, qty := range guest {
		if qty <= 0 {
			continue
		}
		merged[id] += qty
		if merged[id] > MaxQuantityPerItem {
			merged[id] = MaxQuantityPerItem
		}
	}
	return merged
}

// TotalQuantity returns the number of units across the whole cart.
func (c CartSnapshot) TotalQuantity() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}
