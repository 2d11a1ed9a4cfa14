package domain

import (
	"errors"
	"strings"
	"time"

	ordersdomain "checkout-engine/internal/features/orders/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyImport is returned when an import carries no products.
	ErrEmptyImport = errors.New("no products to import")
)

// ProductInput is an admin-provided catalog entry.
type ProductInput struct {
	ID     string          `json:"id" validate:"required,max=64"`
	Name   string          `json:"name" validate:"required,max=200"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock" validate:"min=0"`
	Active *bool           `json:"active,omitempty"`
	Image  string          `json:"image,omitempty" validate:"omitempty,url"`
}

// Product converts the input to the stored model. Entries are active unless stated otherwise.
func (in ProductInput) Product() ordersdomain.Product {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return ordersdomain.Product{
		ID:     strings.TrimSpace(in.ID),
		Name:   strings.TrimSpace(in.Name),
		Price:  in.Price.Round(2),
		Stock:  in.Stock,
		Active: active,
		Image:  in.Image,
	}
}

// Listing is the public catalog snapshot served to the storefront.
type Listing struct {
	Products    []ordersdomain.Product `json:"products"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// NewListing snapshots products now.
func NewListing(products []ordersdomain.Product) *Listing {
	if products == nil {
		products = []ordersdomain.Product{}
	}
	return &Listing{
		Products:    products,
		GeneratedAt: time.Now().UTC(),
	}
}
