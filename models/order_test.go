package models

import (
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
    v, _ := decimal.NewFromString(s)
    return v
}

func TestOrderComputeTotal(t *testing.T) {
    order := Order{
        Subtotal:     d("50.00"),
        Tax:          d("10.50"),
        ShippingCost: d("4.99"),
        Discount:     d("5.00"),
    }
    assert.True(t, order.ComputeTotal().Equal(d("60.49")))
}

func TestOrderTotalItems(t *testing.T) {
    order := Order{
        Items: []OrderItem{
            {Quantity: 2},
            {Quantity: 3},
        },
    }
    assert.Equal(t, 5, order.TotalItems())
}

func TestOrderStatusTransitions(t *testing.T) {
    cases := []struct {
        from  string
        to    string
        valid bool
    }{
        {OrderStatusPending, OrderStatusConfirmed, true},
        {OrderStatusConfirmed, OrderStatusShipped, true},
        {OrderStatusShipped, OrderStatusDelivered, true},
        {OrderStatusPending, OrderStatusCancelled, true},
        {OrderStatusConfirmed, OrderStatusCancelled, true},

        {OrderStatusPending, OrderStatusShipped, false},
        {OrderStatusPending, OrderStatusDelivered, false},
        {OrderStatusShipped, OrderStatusCancelled, false},
        {OrderStatusDelivered, OrderStatusCancelled, false},
        {OrderStatusCancelled, OrderStatusPending, false},
        {OrderStatusDelivered, OrderStatusPending, false},
        {OrderStatusConfirmed, "inventado", false},
    }

    for _, tc := range cases {
        order := Order{Status: tc.from}
        assert.Equal(t, tc.valid, order.NextStatusValid(tc.to),
            "%s -> %s", tc.from, tc.to)
    }
}

func TestOrderCanCancel(t *testing.T) {
    assert.True(t, (&Order{Status: OrderStatusPending}).CanCancel())
    assert.True(t, (&Order{Status: OrderStatusConfirmed}).CanCancel())
    assert.False(t, (&Order{Status: OrderStatusShipped}).CanCancel())
    assert.False(t, (&Order{Status: OrderStatusDelivered}).CanCancel())
    assert.False(t, (&Order{Status: OrderStatusCancelled}).CanCancel())
}

func TestOrderCanModify(t *testing.T) {
    assert.True(t, (&Order{Status: OrderStatusPending}).CanModify())
    assert.False(t, (&Order{Status: OrderStatusConfirmed}).CanModify())
}
