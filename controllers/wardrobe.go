package controllers

import (
	"capsulifyapi/dbhelper"
	"capsulifyapi/languageutil"
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"capsulifyapi/services"
	"capsulifyapi/tasks"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WardrobeController struct {
	AWSService     services.AWSServiceProvider
	URLCache       services.URLCacheServiceProvider
	MaxPerCategory int
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {
	g.GET("/catalog", controller.Catalog)
	g.GET("/list", controller.ListWardrobe)
	g.POST("/variants", controller.AddVariant)
	g.DELETE("/variants/:variantId", controller.RemoveVariant)

	g.POST("/uploads", controller.CreateUpload)
	g.GET("/uploads", controller.ListUploads)
	g.POST("/uploads/:id/process", controller.ProcessUpload)
	g.DELETE("/uploads/:id", controller.DeleteUpload)
}

func (controller *WardrobeController) Catalog(c echo.Context) error {
	db := c.Get("__db").(*gorm.DB)
	var category outfits.Category
	if raw := c.QueryParam("category"); raw != "" {
		parsed, ok := outfits.ParseCategory(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown category"})
		}
		category = parsed
	}

	variants, err := dbhelper.CatalogVariants(db, category)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load catalog"})
	}
	items := make([]models.WardrobeItem, 0, len(variants))
	for _, v := range variants {
		items = append(items, models.NewWardrobeItem(v))
	}
	if err := signWardrobeItems(c.Request().Context(), controller.URLCache, items); err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load images"})
	}
	return c.JSON(http.StatusOK, items)
}

func (controller *WardrobeController) ListWardrobe(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	items, err := dbhelper.OwnedWardrobeItems(db, user.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load wardrobe"})
	}
	if err := signWardrobeItems(c.Request().Context(), controller.URLCache, items); err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load images"})
	}

	out := models.WardrobeListOut{
		Tops:    []models.WardrobeItem{},
		Bottoms: []models.WardrobeItem{},
		Dresses: []models.WardrobeItem{},
		Layers:  []models.WardrobeItem{},
		Bags:    []models.WardrobeItem{},
		Shoes:   []models.WardrobeItem{},
	}
	for _, item := range items {
		switch item.CategoryID {
		case outfits.Top:
			out.Tops = append(out.Tops, item)
		case outfits.Bottom:
			out.Bottoms = append(out.Bottoms, item)
		case outfits.Dress:
			out.Dresses = append(out.Dresses, item)
		case outfits.Layer:
			out.Layers = append(out.Layers, item)
		case outfits.Bag:
			out.Bags = append(out.Bags, item)
		case outfits.Shoe:
			out.Shoes = append(out.Shoes, item)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *WardrobeController) AddVariant(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	var req models.AddVariantIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	added, err := dbhelper.AddVariant(db, user.ID, req.VariantID, controller.MaxPerCategory)
	switch {
	case errors.Is(err, dbhelper.ErrVariantNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Clothing variant not found"})
	case errors.Is(err, dbhelper.ErrCategoryFull):
		return c.JSON(http.StatusConflict, map[string]string{"error": fmt.Sprintf("You can keep at most %d items per category", controller.MaxPerCategory)})
	case err != nil:
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to update wardrobe"})
	}
	if !added {
		return c.JSON(http.StatusOK, map[string]interface{}{"variant_id": req.VariantID, "added": false})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"variant_id": req.VariantID, "added": true})
}

func (controller *WardrobeController) RemoveVariant(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	variantID, err := strconv.ParseUint(c.Param("variantId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid variant id"})
	}

	err = dbhelper.RemoveVariant(db, user.ID, uint(variantID))
	if errors.Is(err, dbhelper.ErrVariantNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Variant is not in your wardrobe"})
	}
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to update wardrobe"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (controller *WardrobeController) CreateUpload(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	var req models.CreateUploadIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	category, _ := outfits.ParseCategory(req.Category)
	ext, ok := services.ImageExtension(req.FileName)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported image format"})
	}

	active, err := dbhelper.CountActiveUploads(db, user.ID, category)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get clothes data"})
	}
	if controller.MaxPerCategory > 0 && active >= int64(controller.MaxPerCategory) {
		return c.JSON(http.StatusConflict, map[string]string{"error": fmt.Sprintf("You can keep at most %d items per category", controller.MaxPerCategory)})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = languageutil.GarmentName(category.Slug())
	}
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	sourceKey := services.OriginalImageKey(user.ID, ext)
	uploadUrl, err := controller.AWSService.PresignLink(c.Request().Context(), bucketName, sourceKey)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	clothing := models.Clothing{
		Name:             name,
		CategoryID:       category,
		OwnerID:          user.ID,
		SourceImageKey:   sourceKey,
		ProcessingStatus: models.ProcessingDraft,
	}
	if err := db.Create(&clothing).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to create clothing"})
	}
	zap.L().Info("upload created", zap.Uint("user_id", user.ID), zap.Uint("clothing_id", clothing.ID), zap.String("category", category.Slug()))

	return c.JSON(http.StatusCreated, models.UploadCreatedOut{
		Clothing:      controller.clothingOut(c.Request().Context(), clothing),
		FileUploadUrl: uploadUrl,
	})
}

func (controller *WardrobeController) ProcessUpload(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	asynqClient, ok := c.Get("__asynqclient").(TaskEnqueuer)
	if !ok || asynqClient == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	clothing, err := controller.ownedClothing(c, db, user.ID)
	if clothing == nil {
		return err
	}
	if clothing.ProcessingStatus != models.ProcessingDraft && clothing.ProcessingStatus != models.ProcessingFailed {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Clothing is already " + clothing.ProcessingStatus})
	}

	task, err := tasks.NewGarmentExtractionTask(clothing.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to schedule processing"})
	}
	err = db.Model(clothing).Updates(map[string]interface{}{
		"processing_status":     models.ProcessingPending,
		"process_retry_times":   0,
		"process_error_message": nil,
	}).Error
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to schedule processing"})
	}
	if _, err := asynqClient.EnqueueContext(c.Request().Context(), task); err != nil {
		sentry.CaptureException(err)
		if err := db.Model(clothing).Update("processing_status", models.ProcessingDraft).Error; err != nil {
			zap.L().Warn("failed to revert upload to draft", zap.Uint("clothing_id", clothing.ID), zap.Error(err))
		}
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"message": "Service is not available, please try again a bit later"})
	}
	clothing.ProcessingStatus = models.ProcessingPending
	clothing.ProcessErrorMessage = nil
	return c.JSON(http.StatusAccepted, controller.clothingOut(c.Request().Context(), *clothing))
}

func (controller *WardrobeController) ListUploads(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var clothes []models.Clothing
	if err := db.Where("owner_id = ?", user.ID).Order("id desc").Find(&clothes).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get clothes data"})
	}
	out := make([]models.ClothingOut, 0, len(clothes))
	for _, clothing := range clothes {
		out = append(out, controller.clothingOut(c.Request().Context(), clothing))
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *WardrobeController) DeleteUpload(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)
	clothing, err := controller.ownedClothing(c, db, user.ID)
	if clothing == nil {
		return err
	}
	if clothing.ProcessingStatus == models.ProcessingPending || clothing.ProcessingStatus == models.ProcessingInProgress {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Clothing is still " + clothing.ProcessingStatus})
	}

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	ctx := c.Request().Context()
	keys := []string{clothing.SourceImageKey}
	if clothing.ExtractedImageKey != nil {
		keys = append(keys, *clothing.ExtractedImageKey)
	}
	for _, key := range keys {
		if err := controller.AWSService.DeleteObject(ctx, bucketName, key); err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to delete clothing image"})
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(clothing).Error; err != nil {
			return err
		}
		if clothing.ExtractedImageKey == nil {
			return nil
		}
		return dbhelper.BumpWardrobeVersion(tx, user.ID)
	})
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to delete clothing"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedClothing loads the :id upload of the user. A nil result means the
// error response was already written.
func (controller *WardrobeController) ownedClothing(c echo.Context, db *gorm.DB, userID uint) (*models.Clothing, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid clothing id"})
	}
	var clothing models.Clothing
	err = db.Where("id = ? AND owner_id = ?", id, userID).Take(&clothing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, c.JSON(http.StatusNotFound, map[string]string{"error": "Clothing not found"})
	}
	if err != nil {
		sentry.CaptureException(err)
		return nil, c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get clothes data"})
	}
	return &clothing, nil
}

func (controller *WardrobeController) clothingOut(ctx context.Context, clothing models.Clothing) models.ClothingOut {
	out := models.ClothingOut{
		ID:               clothing.ID,
		Name:             clothing.Name,
		Category:         clothing.CategoryID.Slug(),
		ProcessingStatus: clothing.ProcessingStatus,
		ErrorMessage:     clothing.ProcessErrorMessage,
		CreatedAt:        clothing.CreatedAt.Format(time.RFC3339),
	}
	if clothing.ExtractedImageKey != nil {
		url, err := controller.URLCache.GetReadURL(ctx, *clothing.ExtractedImageKey)
		if err != nil {
			zap.L().Warn("failed to sign clothing image", zap.Uint("clothing_id", clothing.ID), zap.Error(err))
		} else {
			out.ImageURL = &url
		}
	}
	return out
}

func signWardrobeItems(ctx context.Context, urls services.URLCacheServiceProvider, items []models.WardrobeItem) error {
	for i := range items {
		key := items[i].ImageKey()
		if key == "" {
			continue
		}
		url, err := urls.GetReadURL(ctx, key)
		if err != nil {
			return fmt.Errorf("sign image of variant %d: %w", items[i].VariantID, err)
		}
		items[i].ImageURL = url
	}
	return nil
}
