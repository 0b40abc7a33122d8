package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"capsulifyapi/outfits"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type garment struct {
	id  string
	cat outfits.Category
}

func (g garment) ItemID() string                 { return g.id }
func (g garment) ItemCategory() outfits.Category { return g.cat }

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(OutfitsGenerated.WithLabelValues(SourceWardrobe, "4"))

	list := []outfits.Outfit[garment]{
		{ArchetypeID: outfits.DressOnly},
		{ArchetypeID: outfits.DressOnly},
		{ArchetypeID: outfits.TopBottom},
	}
	ObserveGeneration(SourceWardrobe, time.Now(), list)

	assert.Equal(t, before+2, testutil.ToFloat64(OutfitsGenerated.WithLabelValues(SourceWardrobe, "4")))
}

func TestObserveCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(OutfitCacheLookups.WithLabelValues(SourceUploaded, "hit"))
	ObserveCacheLookup(SourceUploaded, true)
	assert.Equal(t, hits+1, testutil.ToFloat64(OutfitCacheLookups.WithLabelValues(SourceUploaded, "hit")))
}

func TestMiddlewareLabelsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/items/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "no")
	})

	ok := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))
	teapot := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/broken", "418"))

	for _, path := range []string{"/items/1", "/items/2", "/broken"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, ok+2, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204")))
	assert.Equal(t, teapot+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/broken", "418")))
}
