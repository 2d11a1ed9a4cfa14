package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPayerLocked is returned when the payer is changed outside the AUTH step.
	ErrPayerLocked = errors.New("payer can only be changed on the AUTH step")
	// ErrEmptyCart is returned when continuing from CART with no items.
	ErrEmptyCart = errors.New("the cart is empty")
	// ErrPayerRequired is returned when continuing from AUTH without a payer.
	ErrPayerRequired = errors.New("payer is required")
	// ErrShippingRequired is returned when continuing from SHIPPING without an address.
	ErrShippingRequired = errors.New("shipping address is required")
	// ErrTransactionRequired is returned when opening the status view without a transaction.
	ErrTransactionRequired = errors.New("no transaction to show")
)

// Address is the shipping destination.
type Address struct {
	AddressLine string `json:"address_line" validate:"required,max=200"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"required,max=100"`
	PostalCode  string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country     string `json:"country" validate:"required,len=2"`
	Phone       string `json:"phone" validate:"required,min=7,max=20"`
}

// Payer identifies who pays. UserID is set when the shopper is authenticated.
type Payer struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=150"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	UserID   string `json:"user_id,omitempty"`
}

// Container is the checkout state of one session.
// TransactionID and PaymentMethod live only in memory; Snapshot drops them.
type Container struct {
	ActiveStep    Step     `json:"active_step"`
	ShippingData  *Address `json:"shipping_data"`
	Payer         *Payer   `json:"payer"`
	PaymentMethod string   `json:"payment_method,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
}

// NewContainer returns a container on the CART step.
func NewContainer() *Container {
	return &Container{ActiveStep: StepCart}
}

// Clone returns a deep copy.
func (c *Container) Clone() *Container {
	cp := *c
	if c.ShippingData != nil {
		addr := *c.ShippingData
		cp.ShippingData = &addr
	}
	if c.Payer != nil {
		payer := *c.Payer
		cp.Payer = &payer
	}
	return &cp
}

// SetPayer records the payer. Only allowed while the active step is AUTH.
func (c *Container) SetPayer(p Payer) error {
	if c.ActiveStep != StepAuth {
		return ErrPayerLocked
	}
	c.Payer = &p
	return nil
}

// ClearPayer forgets the payer, as on sign-out. Guards then send the session back to AUTH.
func (c *Container) ClearPayer() {
	c.Payer = nil
}

// SetShipping records the shipping address.
func (c *Container) SetShipping(a Address) {
	c.ShippingData = &a
}

// SetTransaction records the transaction created by a submission.
func (c *Container) SetTransaction(id, method string) {
	c.TransactionID = id
	c.PaymentMethod = method
}

// ClearTransaction forgets the current transaction.
func (c *Container) ClearTransaction() {
	c.TransactionID = ""
	c.PaymentMethod = ""
}

// Reset returns the container to its initial state.
func (c *Container) Reset() {
	*c = Container{ActiveStep: StepCart}
}

// Continue advances one step after checking the step's exit precondition.
func (c *Container) Continue(ledgerEmpty bool) error {
	to, err := Transition(c.ActiveStep, ActionContinue)
	if err != nil {
		return err
	}

	switch c.ActiveStep {
	case StepCart:
		if ledgerEmpty {
			return ErrEmptyCart
		}
	case StepAuth:
		if c.Payer == nil {
			return ErrPayerRequired
		}
	case StepShipping:
		if c.ShippingData == nil {
			return ErrShippingRequired
		}
	case StepPayment:
		if c.TransactionID == "" {
			return ErrTransactionRequired
		}
	}

	c.moveTo(to)
	return nil
}

// Back returns to the previous step.
func (c *Container) Back() error {
	to, err := Transition(c.ActiveStep, ActionBack)
	if err != nil {
		return err
	}
	c.moveTo(to)
	return nil
}

// GoTo jumps to an earlier step.
func (c *Container) GoTo(step Step) error {
	if step.index() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
	if !step.Before(c.ActiveStep) {
		return ErrForwardJump
	}
	c.moveTo(step)
	return nil
}

// ApplyGuards moves the container to NextStep and reports whether the step changed.
func (c *Container) ApplyGuards(ledgerEmpty bool) bool {
	next := NextStep(ledgerEmpty, *c)
	if next == c.ActiveStep {
		return false
	}
	c.moveTo(next)
	return true
}

// moveTo sets the active step. A transaction only survives on PAYMENT and STATUS.
func (c *Container) moveTo(step Step) {
	c.ActiveStep = step
	if step.Before(StepPayment) {
		c.ClearTransaction()
	}
}

// snapshotVersion is bumped whenever the persisted layout changes.
const snapshotVersion = 1

// Snapshot is the persisted subset of a container.
type Snapshot struct {
	Version      int      `json:"version"`
	ActiveStep   Step     `json:"active_step"`
	ShippingData *Address `json:"shipping_data"`
	Payer        *Payer   `json:"payer"`
}

// Snapshot returns the persisted form. STATUS is stored as PAYMENT since the
// transaction it shows is not persisted.
func (c *Container) Snapshot() Snapshot {
	cp := c.Clone()
	step := cp.ActiveStep
	if step == StepStatus {
		step = StepPayment
	}
	return Snapshot{
		Version:      snapshotVersion,
		ActiveStep:   step,
		ShippingData: cp.ShippingData,
		Payer:        cp.Payer,
	}
}

// Rehydrate rebuilds a container from a snapshot. Unknown versions or steps start over at CART
// while keeping the payer and address.
func Rehydrate(s Snapshot) *Container {
	c := &Container{
		ActiveStep:   s.ActiveStep,
		ShippingData: s.ShippingData,
		Payer:        s.Payer,
	}
	if s.Version != snapshotVersion || c.ActiveStep.index() < 0 {
		c.ActiveStep = StepCart
	}
	if c.ActiveStep == StepStatus {
		c.ActiveStep = StepPayment
	}
	return c.Clone()
}
