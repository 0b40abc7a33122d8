package dbhelper

import (
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CountActiveUploads counts uploads in a category that are not failed.
func CountActiveUploads(db *gorm.DB, userID uint, category outfits.Category) (int64, error) {
	var total int64
	err := db.Model(&models.Clothing{}).
		Where("owner_id = ? AND category_id = ? AND processing_status <> ?", userID, category, models.ProcessingFailed).
		Count(&total).Error
	return total, err
}

// MarkStaleUploadsFailed fails uploads stuck before completion since before
// the cutoff and returns how many were touched.
func MarkStaleUploadsFailed(db *gorm.DB, cutoff time.Time) (int64, error) {
	message := "processing timed out"
	result := db.Model(&models.Clothing{}).
		Where("processing_status IN ? AND updated_at < ?",
			[]string{models.ProcessingPending, models.ProcessingInProgress}, cutoff).
		Updates(map[string]interface{}{
			"processing_status":     models.ProcessingFailed,
			"process_error_message": message,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("fail stale uploads: %w", result.Error)
	}
	return result.RowsAffected, nil
}
