package controllers

import (
	"capsulifyapi/dbhelper"
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"capsulifyapi/services"
	"capsulifyapi/test"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func generatedKeys(t *testing.T, db *gorm.DB, userID uint) []string {
	t.Helper()
	items, err := dbhelper.OwnedWardrobeItems(db, userID)
	require.NoError(t, err)
	var keys []string
	for _, o := range outfits.Generate(items, services.OutfitSeed()) {
		keys = append(keys, o.Key())
	}
	return keys
}

func TestListOutfits(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 2, outfits.Bottom: 2, outfits.Bag: 1, outfits.Shoe: 1})
	expected := generatedKeys(t, db, user.ID)
	require.Len(t, expected, 4)

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?page=1&page_size=3", uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[outfits.Page[models.OutfitOut]](t, rec)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	require.Len(t, page.Items, 3)
	for i, o := range page.Items {
		assert.Equal(t, expected[i], o.Key)
		assert.Equal(t, uint8(outfits.TopBottom), o.ArchetypeID)
		assert.False(t, o.Favourite)
		require.Len(t, o.Items, 4)
		assert.Equal(t, "top", o.Items[0].Category)
		assert.Equal(t, "shoe", o.Items[3].Category)
		assert.NotEmpty(t, o.Items[0].ImageURL)
	}

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?page=2&page_size=3", uid(user.ID), nil))
	page = decode[outfits.Page[models.OutfitOut]](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, expected[3], page.Items[0].Key)
	assert.False(t, page.HasNext)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?page=9", uid(user.ID), nil))
	page = decode[outfits.Page[models.OutfitOut]](t, rec)
	assert.Empty(t, page.Items)
	assert.Equal(t, 4, page.Total)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?page=0", uid(user.ID), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOutfitsEmptyWardrobe(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 3})

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/outfits", uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[outfits.Page[models.OutfitOut]](t, rec)
	assert.Equal(t, 0, page.Total)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestListOutfitsFollowsWardrobeChanges(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 1, outfits.Bottom: 1, outfits.Bag: 1, outfits.Shoe: 1})

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/outfits", uid(user.ID), nil))
	assert.Equal(t, 1, decode[outfits.Page[models.OutfitOut]](t, rec).Total)

	dress := test.FakeVariant(db, outfits.Dress, "slip-dress")
	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/wardrobe/variants", uid(user.ID), models.AddVariantIn{VariantID: dress.ID}))
	require.Equal(t, http.StatusCreated, rec.Code)

	// top bottom bag shoe plus dress bag shoe
	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits", uid(user.ID), nil))
	assert.Equal(t, 2, decode[outfits.Page[models.OutfitOut]](t, rec).Total)
}

func TestListOutfitsFilters(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	variants := test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 2, outfits.Bottom: 2, outfits.Bag: 1, outfits.Shoe: 1})
	top1, top2, bottom1, bag, shoe := variants[0], variants[1], variants[2], variants[4], variants[5]

	rec := serve(e, test.NewJSONAuthRequest("GET", fmt.Sprintf("/api/outfits?items=%d", top2.ID), uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[outfits.Page[models.OutfitOut]](t, rec)
	assert.Equal(t, 2, page.Total)
	for _, o := range page.Items {
		assert.Equal(t, top2.ID, o.Items[0].VariantID)
	}

	rec = serve(e, test.NewJSONAuthRequest("GET", fmt.Sprintf("/api/outfits?items=%d,%d,%d", top1.ID, top2.ID, bottom1.ID), uid(user.ID), nil))
	assert.Equal(t, 2, decode[outfits.Page[models.OutfitOut]](t, rec).Total)

	ids := []uint{top1.ID, bottom1.ID, bag.ID, shoe.ID}
	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/outfits/favourites", uid(user.ID), models.ToggleFavouriteIn{VariantIDs: ids}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	toggled := decode[models.ToggleFavouriteOut](t, rec)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?favourites=true", uid(user.ID), nil))
	page = decode[outfits.Page[models.OutfitOut]](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, toggled.Key, page.Items[0].Key)
	assert.True(t, page.Items[0].Favourite)

	rec = serve(e, test.NewJSONAuthRequest("GET", fmt.Sprintf("/api/outfits?favourites=true&items=%d", top2.ID), uid(user.ID), nil))
	assert.Equal(t, 0, decode[outfits.Page[models.OutfitOut]](t, rec).Total)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?items=99999", uid(user.ID), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits?items=abc", uid(user.ID), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOutfitsTooMany(t *testing.T) {
	db := test.SetupDB(t)
	t.Setenv("MAX_OUTFITS", "3")
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 2, outfits.Bottom: 2, outfits.Bag: 1, outfits.Shoe: 1})

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/outfits", uid(user.ID), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestToggleFavourite(t *testing.T) {
	db := test.SetupDB(t)
	e := newTestServer(t, db, nil, nil)
	user := test.FakeUser(db)
	variants := test.FakeWardrobe(db, user.ID, map[outfits.Category]int{outfits.Top: 2, outfits.Bottom: 1, outfits.Bag: 1, outfits.Shoe: 1})
	top1, top2, bottom, bag, shoe := variants[0], variants[1], variants[2], variants[3], variants[4]

	// any order, the outfit is arranged by role
	in := models.ToggleFavouriteIn{VariantIDs: []uint{shoe.ID, top1.ID, bag.ID, bottom.ID}}
	rec := serve(e, test.NewJSONAuthRequest("POST", "/api/outfits/favourites", uid(user.ID), in))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[models.ToggleFavouriteOut](t, rec)
	assert.True(t, out.Favourite)
	assert.Equal(t, fmt.Sprintf("%d-%d-0-0-%d-%d", top1.ID, bottom.ID, bag.ID, shoe.ID), out.Key)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits/favourites", uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	favourites := decode[[]models.OutfitFavourite](t, rec)
	require.Len(t, favourites, 1)
	assert.Equal(t, out.Key, favourites[0].OutfitKey)
	assert.Equal(t, uint8(outfits.TopBottom), favourites[0].ArchetypeID)

	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/outfits/favourites", uid(user.ID), in))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.ToggleFavouriteOut](t, rec).Favourite)

	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits/favourites", uid(user.ID), nil))
	assert.Equal(t, "[]\n", rec.Body.String())

	notAnOutfit := models.ToggleFavouriteIn{VariantIDs: []uint{top1.ID, top2.ID, bag.ID, shoe.ID}}
	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/outfits/favourites", uid(user.ID), notAnOutfit))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	notOwned := models.ToggleFavouriteIn{VariantIDs: []uint{top1.ID, bottom.ID, bag.ID, 99999}}
	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/outfits/favourites", uid(user.ID), notOwned))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tooFew := models.ToggleFavouriteIn{VariantIDs: []uint{top1.ID, bottom.ID}}
	rec = serve(e, test.NewJSONAuthRequest("POST", "/api/outfits/favourites", uid(user.ID), tooFew))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUploadedOutfits(t *testing.T) {
	db := test.SetupDB(t)
	user := test.FakeUser(db)
	prefix := services.UploadedPrefix(user.ID)
	aws := &test.AWSProviderMock{Keys: []string{
		prefix + "top/t1.png",
		prefix + "top/t2.png",
		prefix + "bottom/b1.png",
		prefix + "bag/g1.png",
		prefix + "shoe/s1.png",
		prefix + "hats/h1.png",
		"uploads/999/top/other.png",
	}}
	e := newTestServer(t, db, aws, nil)

	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/outfits/uploaded", uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[[]outfits.Outfit[models.UploadedItem]](t, rec)
	require.Len(t, list, 2)
	for _, o := range list {
		assert.Equal(t, outfits.TopBottom, o.ArchetypeID)
		require.Len(t, o.Items, 4)
		assert.Equal(t, "b1", o.Items[1].ID)
		assert.Equal(t, "https://cdn.capsulify.test/"+prefix+"shoe/s1.png", o.Items[3].ImageURL)
	}
	assert.ElementsMatch(t, []string{"t1", "t2"}, []string{list[0].Items[0].ID, list[1].Items[0].ID})
}

func TestListUploadedOutfitsEmptyAndFailure(t *testing.T) {
	db := test.SetupDB(t)
	user := test.FakeUser(db)

	e := newTestServer(t, db, &test.AWSProviderMock{}, nil)
	rec := serve(e, test.NewJSONAuthRequest("GET", "/api/outfits/uploaded", uid(user.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	e = newTestServer(t, db, &test.AWSProviderMock{ListErr: errors.New("bucket gone")}, nil)
	rec = serve(e, test.NewJSONAuthRequest("GET", "/api/outfits/uploaded", uid(user.ID), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}
