package service

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
)

func (suite *ServiceTestSuite) TestRegisterAndLogin() {
	result, err := suite.auth.Register(suite.ctx, "carol", "secret")
	require.NoError(suite.T(), err)
	require.NotEmpty(suite.T(), result.Token)
	require.Equal(suite.T(), constants.RoleUser, result.User.Role)
	require.NotEqual(suite.T(), "secret", result.User.PasswordHash)
	require.Greater(suite.T(), result.ExpiresAt, int64(0))

	payload, err := suite.tokenMaker.VerifyToken(result.Token)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), result.User.ID, payload.UserID)

	_, err = suite.auth.Register(suite.ctx, "carol", "other")
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonUsernameTaken))
	require.Equal(suite.T(), apperr.Conflict, apperr.CodeOf(err))

	login, err := suite.auth.Login(suite.ctx, "carol", "secret")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), result.User.ID, login.User.ID)

	_, err = suite.auth.Login(suite.ctx, "carol", "wrong")
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonInvalidCredentials))

	_, err = suite.auth.Login(suite.ctx, "nobody", "secret")
	require.True(suite.T(), apperr.HasReason(err, apperr.ReasonInvalidCredentials))
}

func (suite *ServiceTestSuite) TestRegister_Validation() {
	_, err := suite.auth.Register(suite.ctx, " ", "secret")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	_, err = suite.auth.Register(suite.ctx, "dave", "")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	_, err = suite.auth.Register(suite.ctx, "dave", strings.Repeat("x", 73))
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))
}

func (suite *ServiceTestSuite) TestMe() {
	user, err := suite.auth.Me(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "alice", user.Username)

	_, err = suite.auth.Me(suite.ctx, nil)
	require.Equal(suite.T(), apperr.Unauthorized, apperr.CodeOf(err))
}

func (suite *ServiceTestSuite) TestIdentityResolver() {
	login, err := suite.auth.Login(suite.ctx, "admin", "password")
	require.NoError(suite.T(), err)

	strict := NewIdentityResolver(suite.store, suite.tokenMaker, false)
	legacy := NewIdentityResolver(suite.store, suite.tokenMaker, true)

	newRequest := func(headers map[string]string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r
	}

	suite.Run("bearer token", func() {
		identity, err := strict.Resolve(suite.ctx, newRequest(map[string]string{"Authorization": "Bearer " + login.Token}))
		require.NoError(suite.T(), err)
		require.NotNil(suite.T(), identity)
		require.Equal(suite.T(), suite.admin.ID, identity.ID)
		require.True(suite.T(), identity.IsAdmin())
	})

	suite.Run("tampered token", func() {
		identity, err := strict.Resolve(suite.ctx, newRequest(map[string]string{"Authorization": "Bearer " + login.Token + "x"}))
		require.NoError(suite.T(), err)
		require.Nil(suite.T(), identity)
	})

	suite.Run("wrong scheme", func() {
		identity, err := strict.Resolve(suite.ctx, newRequest(map[string]string{"Authorization": "Basic " + login.Token}))
		require.NoError(suite.T(), err)
		require.Nil(suite.T(), identity)
	})

	suite.Run("legacy header disabled", func() {
		identity, err := strict.Resolve(suite.ctx, newRequest(map[string]string{constants.LegacyUserIDHeader: suite.alice.ID}))
		require.NoError(suite.T(), err)
		require.Nil(suite.T(), identity)
	})

	suite.Run("legacy header enabled", func() {
		identity, err := legacy.Resolve(suite.ctx, newRequest(map[string]string{constants.LegacyUserIDHeader: suite.alice.ID}))
		require.NoError(suite.T(), err)
		require.NotNil(suite.T(), identity)
		require.Equal(suite.T(), "alice", identity.Username)
	})

	suite.Run("legacy header unknown user", func() {
		identity, err := legacy.Resolve(suite.ctx, newRequest(map[string]string{constants.LegacyUserIDHeader: "ghost"}))
		require.NoError(suite.T(), err)
		require.Nil(suite.T(), identity)
	})
}

func (suite *ServiceTestSuite) TestAddress() {
	got, err := suite.addresses.GetAddress(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Nil(suite.T(), got)

	_, err = suite.addresses.UpsertAddress(suite.ctx, suite.alice, "somewhere", "")
	require.Equal(suite.T(), apperr.InvalidInput, apperr.CodeOf(err))

	_, err = suite.addresses.UpsertAddress(suite.ctx, suite.alice, "  1 Road  ", "555")
	require.NoError(suite.T(), err)
	_, err = suite.addresses.UpsertAddress(suite.ctx, suite.alice, "2 Road", "666")
	require.NoError(suite.T(), err)

	got, err = suite.addresses.GetAddress(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), got)
	require.Equal(suite.T(), "2 Road", got.Address)
	require.Equal(suite.T(), "666", got.Contact)

	_, err = suite.addresses.GetAddress(suite.ctx, nil)
	require.Equal(suite.T(), apperr.Unauthorized, apperr.CodeOf(err))
}
