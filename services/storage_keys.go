package services

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"capsulifyapi/models"
	"capsulifyapi/outfits"

	"github.com/google/uuid"
)

var (
	ErrUnknownCategoryPrefix = errors.New("unknown category prefix")
	ErrMalformedUploadKey    = errors.New("malformed upload key")
)

// OriginalImageKey is where the client uploads the raw photo.
func OriginalImageKey(userID uint, ext string) string {
	return fmt.Sprintf("originals/%d/%s%s", userID, uuid.NewString(), ext)
}

// ExtractedImageKey is where the worker stores an extracted garment. Ids are
// time ordered UUIDs so listing a category returns items in upload order.
func ExtractedImageKey(userID uint, category outfits.Category) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("uploads/%d/%s/%s.png", userID, category.Slug(), id.String())
}

func UploadedPrefix(userID uint) string {
	return fmt.Sprintf("uploads/%d/", userID)
}

// ParseUploadedKey turns "uploads/{user}/{category}/{id}.{ext}" into an item.
// The category comes from the folder name, the id from the file stem.
func ParseUploadedKey(userID uint, key string) (models.UploadedItem, error) {
	rest, ok := strings.CutPrefix(key, UploadedPrefix(userID))
	if !ok {
		return models.UploadedItem{}, fmt.Errorf("%w: %s", ErrMalformedUploadKey, key)
	}
	folder, file, ok := strings.Cut(rest, "/")
	if !ok || file == "" || strings.Contains(file, "/") {
		return models.UploadedItem{}, fmt.Errorf("%w: %s", ErrMalformedUploadKey, key)
	}
	category, ok := outfits.ParseCategory(folder)
	if !ok {
		return models.UploadedItem{}, fmt.Errorf("%w: %s", ErrUnknownCategoryPrefix, folder)
	}
	id := strings.TrimSuffix(file, path.Ext(file))
	if id == "" {
		return models.UploadedItem{}, fmt.Errorf("%w: %s", ErrMalformedUploadKey, key)
	}
	return models.UploadedItem{
		ID:         id,
		CategoryID: category,
		Category:   category.Slug(),
		ImageKey:   key,
	}, nil
}
