package service

import (
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (suite *ServiceTestSuite) TestCart_IncrementAndSet() {
	p := suite.createProduct("Bra", 199)

	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 1, constants.CartModeIncrement))
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 2, ""))

	view, err := suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Items, 1)
	require.Equal(suite.T(), 3, view.Count)
	require.Equal(suite.T(), "Bra", view.Items[0].Product.Name)
	require.True(suite.T(), view.Items[0].Product.Price.Equal(decimal.NewFromInt(199)))

	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 5, constants.CartModeSet))
	view, err = suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 5, view.Count)

	// 累加到 <= 0 時移除
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, -5, ""))
	view, err = suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), view.Items)
	require.Equal(suite.T(), 0, view.Count)
}

func (suite *ServiceTestSuite) TestCart_SetQtyZeroRemoves() {
	p := suite.createProduct("Bra", 199)
	require.NoError(suite.T(), suite.cart.SetQty(suite.ctx, suite.alice, p.ID, 4))

	view, err := suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 4, view.Count)

	require.NoError(suite.T(), suite.cart.SetQty(suite.ctx, suite.alice, p.ID, 0))
	view, err = suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), view.Items)
}

func (suite *ServiceTestSuite) TestCart_RemoveIsIdempotent() {
	p := suite.createProduct("Bra", 199)
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 1, ""))

	require.NoError(suite.T(), suite.cart.RemoveItem(suite.ctx, suite.alice, p.ID))
	require.NoError(suite.T(), suite.cart.RemoveItem(suite.ctx, suite.alice, p.ID))

	view, err := suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), view.Items)
}

func (suite *ServiceTestSuite) TestCart_Validation() {
	p := suite.createProduct("Bra", 199)

	err := suite.cart.AddItem(suite.ctx, suite.alice, "", 1, "")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	err = suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 0, "")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	err = suite.cart.AddItem(suite.ctx, suite.alice, p.ID, constants.MaxLineQty+1, "")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	err = suite.cart.AddItem(suite.ctx, suite.alice, p.ID, -constants.MaxLineQty-1, "")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	err = suite.cart.SetQty(suite.ctx, suite.alice, p.ID, constants.MaxLineQty+1)
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	err = suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 1, "replace")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	err = suite.cart.AddItem(suite.ctx, suite.alice, "missing", 1, "")
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonProductNotFound))

	err = suite.cart.AddItem(suite.ctx, nil, p.ID, 1, "")
	require.Equal(suite.T(), apperr.Unauthorized, apperr.CodeOf(err))

	_, err = suite.cart.GetCart(suite.ctx, nil)
	require.Equal(suite.T(), apperr.Unauthorized, apperr.CodeOf(err))
}

func (suite *ServiceTestSuite) TestCart_IsolatedPerUser() {
	p := suite.createProduct("Bra", 199)
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.alice, p.ID, 2, ""))
	require.NoError(suite.T(), suite.cart.AddItem(suite.ctx, suite.bob, p.ID, 1, ""))

	require.NoError(suite.T(), suite.cart.ClearCart(suite.ctx, suite.bob))

	aliceCart, err := suite.cart.GetCart(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2, aliceCart.Count)

	bobCart, err := suite.cart.GetCart(suite.ctx, suite.bob)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 0, bobCart.Count)
}
