package product

import (
	"math"
	"time"
)

// Product maps to the `products` table. Price is in whole currency units.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	IsActive      bool      `json:"isActive"`
	Category      *string   `json:"category,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Sort string

const (
	SortLatest Sort = "latest"
	SortName   Sort = "name"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// MaxPage keeps Offset from overflowing.
	MaxPage = math.MaxInt / MaxPageSize
)

// Filter narrows a catalog listing. Category "all" means no category filter.
type Filter struct {
	Category        string
	Search          string
	Sort            Sort
	Page            int
	PageSize        int
	IncludeInactive bool
}

func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Sort != SortName {
		f.Sort = SortLatest
	}
	if f.Category == "all" {
		f.Category = ""
	}
	return f
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type Page struct {
	Items      []Product `json:"products"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

func newPage(items []Product, total int, f Filter) Page {
	if items == nil {
		items = []Product{}
	}
	pages := 0
	if f.PageSize > 0 {
		pages = (total + f.PageSize - 1) / f.PageSize
	}
	return Page{Items: items, TotalCount: total, Page: f.Page, TotalPages: pages}
}

// Input is the admin payload for creating or replacing a product.
type Input struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   *string `json:"description"`
	Price         int64   `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	Category      *string `json:"category"`
	IsActive      *bool   `json:"isActive"`
}
