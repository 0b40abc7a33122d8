package controllers

import (
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"capsulifyapi/test"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileOk(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 2, outfits.Shoe: 1})

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/profile/me", uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	payload := decode[models.UserMeOut](t, rec)
	assert.Equal(t, user.Name, payload.Name)
	assert.Equal(t, user.Email, payload.Email)
	assert.Equal(t, map[string]int{"top": 2, "shoe": 1}, payload.WardrobeCounts)
	assert.Equal(t, int64(0), payload.FavouriteCount)
}

func TestGetProfileUnauthorized(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)

	rec := serve(e, test.NewJSONRequest("GET", "/api/profile/me", nil))
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnauthorized}, rec.Code)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/profile/me", "987654", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPushToken(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)

	in := models.UserPushIn{Token: "new-device-token", Platform: "web"}
	rec := serve(e, test.NewJSONAuthRequest("POST", "/api/profile/push-token", uid(user.ID), in))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	// same token again updates in place
	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/profile/push-token", uid(user.ID), in))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	var tokens []models.UserPushToken
	db.Where("user_account_id = ? AND token = ?", user.ID, "new-device-token").Find(&tokens)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].Active)
	assert.Equal(t, models.PlatformWeb, tokens[0].Platform)

	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/profile/push-token", uid(user.ID), models.UserPushIn{Token: "x", Platform: "fax"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
