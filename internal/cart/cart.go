package cart

import "time"

// Line is one product in a user's cart. Product is filled from the live
// catalog on every read and is never persisted with the line.
type Line struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

type ProductSnapshot struct {
	Name          string  `json:"name"`
	Price         int64   `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	IsActive      bool    `json:"isActive"`
	Category      *string `json:"category,omitempty"`
}

type Summary struct {
	LineCount     int   `json:"lineCount"`
	TotalQuantity int   `json:"totalQuantity"`
	TotalAmount   int64 `json:"totalAmount"`
}

type View struct {
	Items   []Line  `json:"items"`
	Summary Summary `json:"summary"`
}

// Summarize totals the lines at their current catalog prices.
func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		s.LineCount++
		s.TotalQuantity += l.Quantity
		if l.Product != nil {
			s.TotalAmount += l.Product.Price * int64(l.Quantity)
		}
	}
	return s
}
