package order

import "time"

// Order is a placed order. TotalAmount always equals the sum of its line subtotals.
type Order struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	OrderNumber string    `json:"orderNumber"`
	TotalAmount int64     `json:"totalAmount"`
	Status      Status    `json:"status"`
	Shipping    Shipping  `json:"shipping"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Lines       []Line    `json:"items,omitempty"`
}

// Shipping is copied onto the order; it does not reference an address book.
type Shipping struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Address string  `json:"address" validate:"required,max=500"`
	Phone   string  `json:"phone" validate:"required,max=30"`
	Note    *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Line records the unit price at the time the order was placed.
type Line struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (l Line) Subtotal() int64 { return l.Price * int64(l.Quantity) }

// ProductState is a product row as seen (and locked) while an order is placed.
type ProductState struct {
	ID            string
	Name          string
	Price         int64
	StockQuantity int
	IsActive      bool
}
