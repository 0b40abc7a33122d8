package controllers

import (
	"capsulifyapi/dbhelper"
	"capsulifyapi/metrics"
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"capsulifyapi/services"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPageSize = 100

type OutfitController struct {
	AWSService    services.AWSServiceProvider
	URLCache      services.URLCacheServiceProvider
	WardrobeCache services.OutfitCacheProvider[models.WardrobeItem]
	UploadedCache services.OutfitCacheProvider[models.UploadedItem]
	Seed          uint32
	PageSize      int
	// largest outfit list generated for one wardrobe, 0 for no limit
	MaxOutfits int
}

func (controller *OutfitController) OutfitRoutes(g *echo.Group) {
	g.GET("", controller.ListOutfits)
	g.GET("/uploaded", controller.ListUploadedOutfits)
	g.GET("/favourites", controller.ListFavourites)
	g.POST("/favourites", controller.ToggleFavourite)
}

func (controller *OutfitController) ListOutfits(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	ctx := c.Request().Context()

	page, err := intQueryParam(c, "page", 1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	pageSize, err := intQueryParam(c, "page_size", controller.PageSize)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	pageSize = min(pageSize, maxPageSize)
	filterIDs, err := parseIDList(c.QueryParam("items"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	list, hit := controller.WardrobeCache.Get(ctx, user.ID, user.WardrobeVersion)
	metrics.ObserveCacheLookup(metrics.SourceWardrobe, hit)
	if !hit {
		started := time.Now()
		items, err := dbhelper.OwnedWardrobeItems(db, user.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load wardrobe"})
		}
		if total := outfits.CombinationCount(outfits.CountItems(items)); controller.MaxOutfits > 0 && total > controller.MaxOutfits {
			zap.L().Warn("wardrobe produces too many outfits", zap.Uint("user_id", user.ID), zap.Int("total", total))
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Your wardrobe is too large to combine, please remove some items"})
		}
		list = outfits.Generate(items, controller.Seed)
		metrics.ObserveGeneration(metrics.SourceWardrobe, started, list)
		controller.WardrobeCache.Set(ctx, user.ID, user.WardrobeVersion, list)
	}

	favouriteKeys, err := dbhelper.FavouriteKeys(db, user.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load favourites"})
	}
	if c.QueryParam("favourites") == "true" {
		list = outfits.FilterByKeys(list, favouriteKeys)
	}
	if len(filterIDs) > 0 {
		filter, err := dbhelper.WardrobeItemsByID(db, user.ID, filterIDs)
		if errors.Is(err, dbhelper.ErrVariantNotFound) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Filter items must be in your wardrobe"})
		}
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load wardrobe"})
		}
		list = outfits.FilterByItems(list, filter)
	}

	result := outfits.Paginate(list, page, pageSize)
	out := outfits.Page[models.OutfitOut]{
		Items:      make([]models.OutfitOut, 0, len(result.Items)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
		HasNext:    result.HasNext,
	}
	for _, o := range result.Items {
		// cached outfits are shared, sign a copy
		items := slices.Clone(o.Items)
		if err := signWardrobeItems(ctx, controller.URLCache, items); err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load images"})
		}
		key := o.Key()
		out.Items = append(out.Items, models.OutfitOut{
			ArchetypeID: uint8(o.ArchetypeID),
			Key:         key,
			Favourite:   favouriteKeys[key],
			Items:       items,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *OutfitController) ListUploadedOutfits(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	ctx := c.Request().Context()

	list, hit := controller.UploadedCache.Get(ctx, user.ID, user.WardrobeVersion)
	metrics.ObserveCacheLookup(metrics.SourceUploaded, hit)
	if !hit {
		started := time.Now()
		bucketName := services.GetEnv("R2_BUCKET_NAME", "")
		items, err := services.ListUploadedItems(ctx, controller.AWSService, bucketName, user.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load uploaded clothes"})
		}
		if total := outfits.CombinationCount(outfits.CountItems(items)); controller.MaxOutfits > 0 && total > controller.MaxOutfits {
			zap.L().Warn("uploads produce too many outfits", zap.Uint("user_id", user.ID), zap.Int("total", total))
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Too many uploaded clothes to combine, please remove some items"})
		}
		list = outfits.Generate(items, controller.Seed)
		metrics.ObserveGeneration(metrics.SourceUploaded, started, list)
		controller.UploadedCache.Set(ctx, user.ID, user.WardrobeVersion, list)
	}

	out := make([]outfits.Outfit[models.UploadedItem], 0, len(list))
	for _, o := range list {
		items := slices.Clone(o.Items)
		if err := services.SignUploadedItems(ctx, controller.URLCache, items); err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load images"})
		}
		out = append(out, outfits.Outfit[models.UploadedItem]{ArchetypeID: o.ArchetypeID, Items: items})
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *OutfitController) ToggleFavourite(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	var req models.ToggleFavouriteIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	items, err := dbhelper.WardrobeItemsByID(db, user.ID, req.VariantIDs)
	if errors.Is(err, dbhelper.ErrVariantNotFound) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Outfit items must be in your wardrobe"})
	}
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load wardrobe"})
	}
	outfit, ok := outfits.NewOutfit(items)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "These items don't make an outfit"})
	}

	favourite, err := dbhelper.ToggleFavourite(db, user.ID, outfit)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("toggle favourite %s of user %d: %w", outfit.Key(), user.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to save favourite"})
	}
	return c.JSON(http.StatusOK, models.ToggleFavouriteOut{Key: outfit.Key(), Favourite: favourite})
}

func (controller *OutfitController) ListFavourites(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	favourites, err := dbhelper.ListFavourites(db, user.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load favourites"})
	}
	return c.JSON(http.StatusOK, favourites)
}

func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%s must be a positive number", name)
	}
	return value, nil
}
