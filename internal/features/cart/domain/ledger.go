package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a single cart line can hold.
const MaxQuantity = 999

var (
	// ErrInvalidQuantity is returned when a quantity below 1 would be stored.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrQuantityTooLarge is returned when a line would hold more than MaxQuantity units.
	ErrQuantityTooLarge = fmt.Errorf("quantity must be at most %d", MaxQuantity)
	// ErrInvalidPrice is returned for negative unit prices.
	ErrInvalidPrice = errors.New("unit price must not be negative")
	// ErrMissingProductID is returned when a line has no product id.
	ErrMissingProductID = errors.New("product id is required")
	// ErrLineNotFound is returned when the product is not in the cart.
	ErrLineNotFound = errors.New("product not in cart")
)

// CartLine is one product in the cart. ProductID is the unique key.
type CartLine struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
	StockStatus string          `json:"stock_status,omitempty"`
	Tag         string          `json:"tag,omitempty"`
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) validate() error {
	if l.ProductID == "" {
		return ErrMissingProductID
	}
	if l.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if l.Quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}
	if l.UnitPrice.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// Ledger is the cart's line items plus derived totals.
// Totals are recomputed inside every mutation; a Ledger is not safe for concurrent use.
type Ledger struct {
	lines       []CartLine
	totalItems  int
	totalAmount decimal.Decimal
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{totalAmount: decimal.Zero}
}

// AddItem appends line, or sums quantities when the product is already present.
// A sum above MaxQuantity is refused and leaves the line unchanged.
func (l *Ledger) AddItem(line CartLine) error {
	if err := line.validate(); err != nil {
		return err
	}

	if i := l.index(line.ProductID); i >= 0 {
		if l.lines[i].Quantity > MaxQuantity-line.Quantity {
			return ErrQuantityTooLarge
		}
		l.lines[i].Quantity += line.Quantity
	} else {
		l.lines = append(l.lines, line)
	}

	l.recompute()
	return nil
}

// RemoveItem deletes the product's line. Remaining lines keep their order.
func (l *Ledger) RemoveItem(productID string) error {
	i := l.index(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}

	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	l.recompute()
	return nil
}

// SetQuantity replaces the quantity of a line. Quantities outside [1, MaxQuantity] are refused.
func (l *Ledger) SetQuantity(productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if qty > MaxQuantity {
		return ErrQuantityTooLarge
	}

	i := l.index(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}

	l.lines[i].Quantity = qty
	l.recompute()
	return nil
}

// Clear empties the ledger and zeroes the totals.
func (l *Ledger) Clear() {
	l.lines = nil
	l.recompute()
}

// Lines returns a copy of the line items in insertion order.
func (l *Ledger) Lines() []CartLine {
	out := make([]CartLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Line returns the line of a product.
func (l *Ledger) Line(productID string) (CartLine, bool) {
	if i := l.index(productID); i >= 0 {
		return l.lines[i], true
	}
	return CartLine{}, false
}

// TotalItems is Σ quantity.
func (l *Ledger) TotalItems() int {
	return l.totalItems
}

// TotalAmount is Σ unitPrice × quantity.
func (l *Ledger) TotalAmount() decimal.Decimal {
	return l.totalAmount
}

// IsEmpty reports whether the cart has no lines.
func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

func (l *Ledger) index(productID string) int {
	for i := range l.lines {
		if l.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (l *Ledger) recompute() {
	items := 0
	amount := decimal.Zero
	for _, line := range l.lines {
		items += line.Quantity
		amount = amount.Add(line.Subtotal())
	}
	l.totalItems = items
	l.totalAmount = amount
}

// LedgerView is the JSON rendering of a ledger.
type LedgerView struct {
	Items       []CartLine      `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// View renders the ledger for callers.
func (l *Ledger) View() LedgerView {
	return LedgerView{
		Items:       l.Lines(),
		TotalItems:  l.totalItems,
		TotalAmount: l.totalAmount,
	}
}

// snapshotVersion is bumped whenever the persisted layout changes.
const snapshotVersion = 1

type snapshot struct {
	Version int        `json:"version"`
	Items   []CartLine `json:"items"`
}

// MarshalBinary encodes the persisted form of the ledger. Totals are derived and not stored.
func (l *Ledger) MarshalBinary() ([]byte, error) {
	return json.Marshal(snapshot{Version: snapshotVersion, Items: l.lines})
}

// UnmarshalBinary rehydrates a ledger, dropping lines that violate the line invariants.
func (l *Ledger) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding ledger: %w", err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("unsupported ledger version %d", s.Version)
	}

	l.lines = nil
	for _, line := range s.Items {
		if line.validate() != nil {
			continue
		}
		if i := l.index(line.ProductID); i >= 0 {
			l.lines[i].Quantity = min(l.lines[i].Quantity+line.Quantity, MaxQuantity)
			continue
		}
		l.lines = append(l.lines, line)
	}
	l.recompute()
	return nil
}
