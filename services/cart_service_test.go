package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAdd_SnapshotsPriceAndTotals(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, _ := s.seedRestaurant(t)
	p := s.seedProduct(t, "Tomatoes", 1000, 10)

	require.NoError(t, s.carts.Add(u.ID, &AddToCartIn{ProductID: p.ID, Qty: 2}))

	// a later price change must not touch the line
	require.NoError(t, s.db.Model(p).Update("unit_price", "1500").Error)
	require.NoError(t, s.carts.Add(u.ID, &AddToCartIn{ProductID: p.ID, Qty: 1}))

	c, err := s.carts.Get(u.ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1) // same product merges into one line
	assert.Equal(t, 3, c.Items[0].Qty)
	requireDecimalEqual(t, 1000, c.Items[0].UnitPrice)
	requireDecimalEqual(t, 3000, c.Items[0].Subtotal)
	requireDecimalEqual(t, 3000, c.TotalAmount)
}

func TestCartAdd_RejectsUnavailableProduct(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, _ := s.seedRestaurant(t)

	p := s.seedProduct(t, "Cabbage", 400, 2)
	err := s.carts.Add(u.ID, &AddToCartIn{ProductID: p.ID, Qty: 5})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, s.db.Model(p).Update("status", "INACTIVE").Error)
	err = s.carts.Add(u.ID, &AddToCartIn{ProductID: p.ID, Qty: 1})
	assert.ErrorAs(t, err, &ve)

	assert.ErrorIs(t, s.carts.Add(u.ID, &AddToCartIn{ProductID: 999, Qty: 1}), ErrNotFound)
}

func TestCartUpdateAndRemove(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, _ := s.seedRestaurant(t)
	tomatoes := s.seedProduct(t, "Tomatoes", 1000, 10)
	onions := s.seedProduct(t, "Onions", 500, 5)

	require.NoError(t, s.carts.Add(u.ID, &AddToCartIn{ProductID: tomatoes.ID, Qty: 3}))
	require.NoError(t, s.carts.Add(u.ID, &AddToCartIn{ProductID: onions.ID, Qty: 1}))

	c, err := s.carts.Get(u.ID)
	require.NoError(t, err)
	requireDecimalEqual(t, 3500, c.TotalAmount)

	var tomatoLine, onionLine uint
	for _, it := range c.Items {
		if it.ProductID == tomatoes.ID {
			tomatoLine = it.ID
		} else {
			onionLine = it.ID
		}
	}

	require.NoError(t, s.carts.UpdateQty(u.ID, tomatoLine, 1))
	c, err = s.carts.Get(u.ID)
	require.NoError(t, err)
	requireDecimalEqual(t, 1500, c.TotalAmount)

	require.NoError(t, s.carts.RemoveItem(u.ID, onionLine))
	c, err = s.carts.Get(u.ID)
	require.NoError(t, err)
	requireDecimalEqual(t, 1000, c.TotalAmount)

	require.NoError(t, s.carts.Clear(u.ID))
	c, err = s.carts.Get(u.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	requireDecimalEqual(t, 0, c.TotalAmount)
}

func TestCartGet_NoCartYet(t *testing.T) {
	s := newTestStack(t, deadGateway(t))
	u, _ := s.seedRestaurant(t)

	c, err := s.carts.Get(u.ID)
	require.NoError(t, err)
	assert.Zero(t, c.ID)
	assert.Empty(t, c.Items)
}
