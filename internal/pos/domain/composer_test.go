package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/restaurant-pos/pkg/money"
)

func newTestComposer(policy MergePolicy) *Composer {
	n := 0
	return NewComposer(policy, DefaultTaxRate, func() string {
		n++
		return fmt.Sprintf("attempt-%d", n)
	})
}

func dineIn() CustomerDetails {
	return CustomerDetails{OrderType: DineIn, BranchID: "b1", PaymentMethod: PaymentCash, TableNumber: "7"}
}

func TestCheckoutRequiresNonEmptyCart(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	assert.ErrorIs(t, c.BeginCheckout(), ErrEmptyCart)
	assert.Equal(t, StateBuilding, c.State())
}

func TestDeliveryRequiresContactFields(t *testing.T) {
	d := CustomerDetails{OrderType: Delivery, BranchID: "b1", PaymentMethod: PaymentCash}
	err := d.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 3)
	assert.True(t, verr.Has("customerName"))
	assert.True(t, verr.Has("customerPhone"))
	assert.True(t, verr.Has("deliveryAddress"))

	d.OrderType = DineIn
	assert.NoError(t, d.Validate())
	d.OrderType = TakeAway
	assert.NoError(t, d.Validate())
}

func TestBranchAlwaysRequired(t *testing.T) {
	err := CustomerDetails{OrderType: TakeAway, PaymentMethod: PaymentCard}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{{Field: "branchId", Message: "branch is required"}}, verr.Fields)
}

func TestCashCheckoutEndToEnd(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	x := burgerX()
	_, err := c.Add(x, nil, nil)
	require.NoError(t, err)
	_, err = c.Add(x, nil, x.Addons)
	require.NoError(t, err)

	require.NoError(t, c.BeginCheckout())
	assert.Equal(t, StateAwaitingCustomerInfo, c.State())

	_, err = c.Add(x, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cart is frozen during checkout")

	require.NoError(t, c.SetDetails(dineIn()))
	draft, key, err := c.StartSubmit()
	require.NoError(t, err)
	assert.Equal(t, "attempt-2", key)
	assert.Equal(t, StateSubmitting, c.State())

	assert.Equal(t, money.FromMajor(315), draft.Total)
	assert.Equal(t, SourcePOS, draft.Source)
	assert.Equal(t, DineIn, draft.Type)
	assert.Equal(t, "7", draft.TableNumber)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, DraftItem{MenuItemID: "X", Quantity: 2, Price: money.FromMajor(150)}, draft.Items[0])

	_, _, err = c.StartSubmit()
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	needsPayment, err := c.SubmitSucceeded("order-1")
	require.NoError(t, err)
	assert.False(t, needsPayment)

	v := c.View()
	assert.Equal(t, StateBuilding, v.State)
	assert.Equal(t, StateComplete, v.LastOutcome)
	assert.Equal(t, "order-1", v.OrderID)
	assert.Empty(t, v.Lines)
	assert.Equal(t, Totals{}, v.Totals)
}

func TestSubmissionFailureKeepsCart(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	_, err := c.Add(burgerX(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.BeginCheckout())
	require.NoError(t, c.SetDetails(dineIn()))
	_, key1, err := c.StartSubmit()
	require.NoError(t, err)

	cause := errors.New("connection refused")
	err = c.SubmitFailed(cause)
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateAwaitingCustomerInfo, c.State())
	assert.Len(t, c.Lines(), 1)
	assert.Contains(t, c.View().LastError, "connection refused")

	_, key2, err := c.StartSubmit()
	require.NoError(t, err)
	assert.Equal(t, key1, key2, "a plain retry reuses the idempotency key")
}

func TestChangedDetailsGetNewAttemptKey(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	_, _ = c.Add(burgerX(), nil, nil)
	require.NoError(t, c.BeginCheckout())
	require.NoError(t, c.SetDetails(dineIn()))
	_, key1, _ := c.StartSubmit()
	_ = c.SubmitFailed(errors.New("timeout"))

	d := dineIn()
	d.TableNumber = "9"
	require.NoError(t, c.SetDetails(d))
	_, key2, err := c.StartSubmit()
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)
}

func TestInvalidDetailsBlockSubmit(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	_, _ = c.Add(burgerX(), nil, nil)
	require.NoError(t, c.BeginCheckout())

	err := c.SetDetails(CustomerDetails{OrderType: Delivery, BranchID: "b1", PaymentMethod: PaymentCash})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Delivery, c.Details().OrderType, "invalid form is still kept")

	_, _, err = c.StartSubmit()
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, StateAwaitingCustomerInfo, c.State())
}

func TestCardPaymentFlow(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	_, _ = c.Add(burgerX(), nil, nil)
	require.NoError(t, c.BeginCheckout())
	d := dineIn()
	d.PaymentMethod = PaymentCard
	require.NoError(t, c.SetDetails(d))
	_, _, err := c.StartSubmit()
	require.NoError(t, err)

	needsPayment, err := c.SubmitSucceeded("order-7")
	require.NoError(t, err)
	assert.True(t, needsPayment)
	assert.Equal(t, StateAwaitingPayment, c.State())

	orderID, totals := c.PendingOrder()
	assert.Equal(t, "order-7", orderID)
	assert.Equal(t, money.FromMajor(157.5), totals.Total)

	require.NoError(t, c.AttachPaymentIntent("pi_secret"))
	assert.Equal(t, "pi_secret", c.View().ClientSecret)

	err = c.PaymentFailed(errors.New("card declined"))
	var perr *PaymentError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "order-7", perr.OrderID)
	assert.Contains(t, err.Error(), "unpaid")
	assert.Equal(t, StateAwaitingPayment, c.State())
	assert.Len(t, c.Lines(), 1)

	require.NoError(t, c.PaymentSucceeded())
	assert.Equal(t, StateBuilding, c.State())
	assert.Equal(t, StateComplete, c.View().LastOutcome)
	assert.Empty(t, c.Lines())
}

func TestCancelPreservesCart(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	_, _ = c.Add(burgerX(), nil, nil)
	require.NoError(t, c.BeginCheckout())
	require.NoError(t, c.Cancel())
	assert.Equal(t, StateBuilding, c.State())
	assert.Equal(t, StateCancelled, c.View().LastOutcome)
	assert.Len(t, c.Lines(), 1)

	require.NoError(t, c.BeginCheckout())
	d := dineIn()
	d.PaymentMethod = PaymentOnline
	require.NoError(t, c.SetDetails(d))
	_, _, _ = c.StartSubmit()
	_, _ = c.SubmitSucceeded("order-3")
	require.NoError(t, c.Cancel())
	assert.Equal(t, StateAwaitingCustomerInfo, c.State())
	assert.Equal(t, "order-3", c.View().OrderID)
	assert.Len(t, c.Lines(), 1)

	assert.ErrorIs(t, newTestComposer(MergeByItemVariation).Cancel(), ErrInvalidTransition)
}

func TestBackUnfreezesCart(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	x := burgerX()
	_, _ = c.Add(x, nil, nil)
	require.NoError(t, c.BeginCheckout())
	require.NoError(t, c.Back())

	ok, err := c.UpdateQuantity("X-base", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, c.QuantityForItem("X"))
	assert.ErrorIs(t, c.Back(), ErrInvalidTransition)
}

func TestResetOnlyWhileBuilding(t *testing.T) {
	c := newTestComposer(MergeByItemVariation)
	_, _ = c.Add(burgerX(), nil, nil)
	require.NoError(t, c.BeginCheckout())
	assert.ErrorIs(t, c.Reset(), ErrInvalidTransition)
	require.NoError(t, c.Back())
	require.NoError(t, c.Reset())
	assert.Empty(t, c.Lines())
}
