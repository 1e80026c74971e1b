package domain

import (
	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
)

// State is a step of the checkout flow.
type State string

const (
	StateBuilding             State = "BUILDING"
	StateAwaitingCustomerInfo State = "AWAITING_CUSTOMER_INFO"
	StateSubmitting           State = "SUBMITTING"
	StateAwaitingPayment      State = "AWAITING_PAYMENT"
	StateComplete             State = "COMPLETE"
	StateCancelled            State = "CANCELLED"
)

// Composer owns one terminal's cart and walks it through checkout. The cart
// can only change while BUILDING; later steps work on a frozen snapshot.
// A Composer is not safe for concurrent use.
type Composer struct {
	cart   *Cart
	rate   TaxRate
	newKey func() string

	state        State
	snapshot     []CartLine
	totals       Totals
	details      CustomerDetails
	attemptKey   string
	orderID      string
	clientSecret string
	lastErr      error
	outcome      State
}

// NewComposer returns a composer in BUILDING with an empty cart. newKey
// mints the idempotency key for each distinct submission attempt.
func NewComposer(policy MergePolicy, rate TaxRate, newKey func() string) *Composer {
	return &Composer{
		cart:   NewCart(policy),
		rate:   rate,
		newKey: newKey,
		state:  StateBuilding,
	}
}

func (c *Composer) State() State { return c.state }

// Add puts one unit of the selection into the cart.
func (c *Composer) Add(item catalog.Item, variation *catalog.Variation, addons []catalog.Addon) (CartLine, error) {
	if c.state != StateBuilding {
		return CartLine{}, invalidTransition("add to cart", c.state)
	}
	return c.cart.Add(item, variation, addons)
}

func (c *Composer) UpdateQuantity(key SelectionKey, delta int) (bool, error) {
	if c.state != StateBuilding {
		return false, invalidTransition("update quantity", c.state)
	}
	return c.cart.UpdateQuantity(key, delta), nil
}

// Reset empties the cart.
func (c *Composer) Reset() error {
	if c.state != StateBuilding {
		return invalidTransition("reset cart", c.state)
	}
	c.cart.Clear()
	c.lastErr = nil
	return nil
}

func (c *Composer) Reprice(menu catalog.Menu) ([]PriceChange, error) {
	if c.state != StateBuilding {
		return nil, invalidTransition("reprice cart", c.state)
	}
	return c.cart.Reprice(menu), nil
}

func (c *Composer) QuantityForItem(itemID string) int { return c.cart.QuantityForItem(itemID) }

// Lines returns the live cart while building and the frozen snapshot
// afterwards.
func (c *Composer) Lines() []CartLine {
	if c.snapshot != nil {
		out := make([]CartLine, 0, len(c.snapshot))
		for _, l := range c.snapshot {
			out = append(out, l.clone())
		}
		return out
	}
	return c.cart.Lines()
}

func (c *Composer) Totals() Totals {
	if c.snapshot != nil {
		return c.totals
	}
	return c.cart.Totals(c.rate)
}

// BeginCheckout freezes the cart and moves to the customer details step.
func (c *Composer) BeginCheckout() error {
	if c.state != StateBuilding {
		return invalidTransition("begin checkout", c.state)
	}
	if c.cart.IsEmpty() {
		return ErrEmptyCart
	}
	c.snapshot = c.cart.Lines()
	c.totals = ComputeTotals(c.snapshot, c.rate)
	c.attemptKey = c.newKey()
	c.orderID = ""
	c.outcome = ""
	c.lastErr = nil
	c.state = StateAwaitingCustomerInfo
	return nil
}

// Back returns from the details step to editing the cart.
func (c *Composer) Back() error {
	if c.state != StateAwaitingCustomerInfo {
		return invalidTransition("go back", c.state)
	}
	c.unfreeze()
	c.state = StateBuilding
	return nil
}

// Cancel aborts the current attempt. From the details step the operator
// lands back in the cart; from the payment step back at the details, with
// the unpaid order id still reported. The cart is never cleared.
func (c *Composer) Cancel() error {
	switch c.state {
	case StateAwaitingCustomerInfo:
		c.unfreeze()
		c.state = StateBuilding
	case StateAwaitingPayment:
		c.clientSecret = ""
		c.state = StateAwaitingCustomerInfo
	default:
		return invalidTransition("cancel", c.state)
	}
	c.outcome = StateCancelled
	return nil
}

// SetDetails stores the form even when it is invalid, so the terminal can
// redisplay it, and returns the validation result.
func (c *Composer) SetDetails(d CustomerDetails) error {
	if c.state != StateAwaitingCustomerInfo {
		return invalidTransition("set customer details", c.state)
	}
	if d != c.details {
		c.attemptKey = c.newKey()
	}
	c.details = d
	return d.Validate()
}

func (c *Composer) Details() CustomerDetails { return c.details }

// VerifyPrices fails when the frozen lines no longer match menu.
func (c *Composer) VerifyPrices(menu catalog.Menu) error {
	if c.state != StateAwaitingCustomerInfo {
		return invalidTransition("verify prices", c.state)
	}
	if err := StalePrices(c.snapshot, menu); err != nil {
		c.lastErr = err
		return err
	}
	return nil
}

// StartSubmit validates the details and enters SUBMITTING. It returns the
// draft to send and the attempt's idempotency key. While SUBMITTING any
// further call fails with ErrSubmissionInFlight.
func (c *Composer) StartSubmit() (OrderDraft, string, error) {
	switch c.state {
	case StateSubmitting:
		return OrderDraft{}, "", ErrSubmissionInFlight
	case StateAwaitingCustomerInfo:
	default:
		return OrderDraft{}, "", invalidTransition("submit", c.state)
	}
	if err := c.details.Validate(); err != nil {
		c.lastErr = err
		return OrderDraft{}, "", err
	}
	c.lastErr = nil
	c.state = StateSubmitting
	return NewOrderDraft(c.snapshot, c.totals, c.details), c.attemptKey, nil
}

// SubmitFailed returns to the details step with the failure recorded.
func (c *Composer) SubmitFailed(cause error) error {
	if c.state != StateSubmitting {
		return invalidTransition("record submission failure", c.state)
	}
	err := &SubmissionError{Err: cause}
	c.lastErr = err
	c.state = StateAwaitingCustomerInfo
	return err
}

// SubmitSucceeded records the created order. Cash orders complete at once
// and the cart is cleared; card and online orders wait for payment.
func (c *Composer) SubmitSucceeded(orderID string) (needsPayment bool, err error) {
	if c.state != StateSubmitting {
		return false, invalidTransition("record submission", c.state)
	}
	c.orderID = orderID
	if c.details.PaymentMethod.RequiresIntent() {
		c.state = StateAwaitingPayment
		return true, nil
	}
	c.complete()
	return false, nil
}

func (c *Composer) AttachPaymentIntent(clientSecret string) error {
	if c.state != StateAwaitingPayment {
		return invalidTransition("attach payment intent", c.state)
	}
	c.clientSecret = clientSecret
	c.lastErr = nil
	return nil
}

func (c *Composer) PaymentIntentFailed(cause error) error {
	return c.paymentFailed("record payment intent failure", cause)
}

func (c *Composer) PaymentFailed(cause error) error {
	return c.paymentFailed("record payment failure", cause)
}

func (c *Composer) paymentFailed(action string, cause error) error {
	if c.state != StateAwaitingPayment {
		return invalidTransition(action, c.state)
	}
	err := &PaymentError{OrderID: c.orderID, Err: cause}
	c.lastErr = err
	return err
}

func (c *Composer) PaymentSucceeded() error {
	if c.state != StateAwaitingPayment {
		return invalidTransition("record payment", c.state)
	}
	c.complete()
	return nil
}

// PendingOrder is the order created by the current attempt, if any.
func (c *Composer) PendingOrder() (orderID string, amount Totals) {
	return c.orderID, c.totals
}

func (c *Composer) complete() {
	c.cart.Clear()
	c.unfreeze()
	c.clientSecret = ""
	c.lastErr = nil
	c.outcome = StateComplete
	c.state = StateBuilding
}

func (c *Composer) unfreeze() {
	c.snapshot = nil
	c.totals = Totals{}
	c.attemptKey = ""
}

// View is a read-only picture of the composer for the terminal.
type View struct {
	State        State           `json:"state"`
	Lines        []CartLine      `json:"lines"`
	ItemCounts   map[string]int  `json:"itemCounts"`
	Totals       Totals          `json:"totals"`
	Details      CustomerDetails `json:"details"`
	OrderID      string          `json:"orderId,omitempty"`
	ClientSecret string          `json:"clientSecret,omitempty"`
	LastError    string          `json:"lastError,omitempty"`
	LastOutcome  State           `json:"lastOutcome,omitempty"`
}

func (c *Composer) View() View {
	lines := c.Lines()
	counts := make(map[string]int, len(lines))
	for _, l := range lines {
		counts[l.ItemID] += l.Quantity
	}
	v := View{
		State:        c.state,
		Lines:        lines,
		ItemCounts:   counts,
		Totals:       c.Totals(),
		Details:      c.details,
		OrderID:      c.orderID,
		ClientSecret: c.clientSecret,
		LastOutcome:  c.outcome,
	}
	if c.lastErr != nil {
		v.LastError = c.lastErr.Error()
	}
	return v
}
