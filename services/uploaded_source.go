package services

import (
	"context"
	"errors"
	"fmt"

	"capsulifyapi/models"

	"go.uber.org/zap"
)

// ListUploadedItems reads the user's extracted garments from storage, in
// listing order. Keys that do not belong to a known category are skipped.
func ListUploadedItems(ctx context.Context, storage AWSServiceProvider, bucketName string, userID uint) ([]models.UploadedItem, error) {
	keys, err := storage.ListObjectKeys(ctx, bucketName, UploadedPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("list uploaded garments: %w", err)
	}

	items := make([]models.UploadedItem, 0, len(keys))
	for _, key := range keys {
		item, err := ParseUploadedKey(userID, key)
		if err != nil {
			if errors.Is(err, ErrUnknownCategoryPrefix) {
				zap.L().Warn("skipping upload in unknown category", zap.String("key", key))
			}
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// SignUploadedItems fills ImageURL on every item.
func SignUploadedItems(ctx context.Context, urls URLCacheServiceProvider, items []models.UploadedItem) error {
	for i := range items {
		url, err := urls.GetReadURL(ctx, items[i].ImageKey)
		if err != nil {
			return fmt.Errorf("sign %s: %w", items[i].ImageKey, err)
		}
		items[i].ImageURL = url
	}
	return nil
}
