package controllers

import (
	"capsulifyapi/models"
	"capsulifyapi/test"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGoogle(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)

	param := models.GoogleAuthSignIn{IdToken: "google-id-token", Platform: "ios"}
	rec := serve(e, test.NewJSONRequest("POST", "/auth/google", param))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.SignInOut](t, rec)
	assert.Equal(t, "fake@example.com", resp.Email)
	assert.Equal(t, "Fake Person", resp.Name)
	assert.Equal(t, "pictureurl", resp.Avatar)
	assert.True(t, resp.New)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	var user models.UserAccount
	require.NoError(t, db.First(&user, "email = ?", "fake@example.com").Error)
	assert.Equal(t, "123googleid", user.GoogleID)
	assert.Equal(t, models.PlatformIOS, user.Platform)

	// second sign in finds the same account
	rec = serve(e, test.NewJSONRequest("POST", "/auth/google", param))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	again := decode[models.SignInOut](t, rec)
	assert.Equal(t, resp.Id, again.Id)

	var total int64
	db.Model(&models.UserAccount{}).Count(&total)
	assert.Equal(t, int64(1), total)
}

func TestAuthGoogleLinksExistingEmail(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	existing := test.FakeUserV2(db, "Old Name", "fake@example.com")
	db.Model(existing).Update("google_id", "")

	rec := serve(e, test.NewJSONRequest("POST", "/auth/google", models.GoogleAuthSignIn{IdToken: "token", Platform: "android"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[models.SignInOut](t, rec)
	assert.Equal(t, existing.ID, resp.Id)
	assert.False(t, resp.New)

	var user models.UserAccount
	db.First(&user, existing.ID)
	assert.Equal(t, "123googleid", user.GoogleID)
	assert.Equal(t, models.PlatformAndroid, user.Platform)
}

func TestAuthGoogleBadPlatform(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)

	rec := serve(e, test.NewJSONRequest("POST", "/auth/google", models.GoogleAuthSignIn{IdToken: "token", Platform: "symbian"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUserV2(db, "name", "refresh@example.com")

	refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
	require.NoError(t, err)
	rec := serve(e, test.NewJSONRequest("POST", "/auth/refresh", echo.Map{"refresh_token": refreshToken}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.SignInOut](t, rec)
	assert.Equal(t, user.ID, resp.Id)
	assert.NotEmpty(t, resp.AccessToken)

	// the new access token works against the api
	req := test.NewJSONRequest("GET", "/api/profile/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)

	rec := serve(e, test.NewJSONRequest("POST", "/auth/refresh", echo.Map{"refresh_token": test.GenerateUserToken(uid(user.ID))}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)

	refreshToken, err := GenerateRefreshToken(uid(user.ID))
	require.NoError(t, err)
	req := test.NewJSONRequest("GET", "/api/profile/me", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestBannedUserIsLocked(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	db.Model(user).Update("banned", true)

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/profile/me", uid(user.ID), nil))
	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList(" 3, 1,2 ")
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDList("1,x")
	assert.Error(t, err)
	_, err = parseIDList("0")
	assert.Error(t, err)
}
