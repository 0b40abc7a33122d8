package tasks

import (
	"capsulifyapi/dbhelper"
	"capsulifyapi/metrics"
	"capsulifyapi/models"
	"capsulifyapi/services"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	TypeGarmentExtraction = "generate:extract_garment"
	TypeStaleUploads      = "cleanup:stale_uploads"

	QueueGenerate = "generate"
	QueueDefault  = "default"

	maxExtractionRetries = 3
	staleUploadAge       = 2 * time.Hour
)

type GarmentExtractionPayload struct {
	ClothingID uint `json:"clothing_id"`
}

func NewGarmentExtractionTask(clothingID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(GarmentExtractionPayload{ClothingID: clothingID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGarmentExtraction, payload,
		asynq.Queue(QueueGenerate),
		asynq.MaxRetry(maxExtractionRetries),
		asynq.Timeout(5*time.Minute),
	), nil
}

func NewStaleUploadsTask() *asynq.Task {
	return asynq.NewTask(TypeStaleUploads, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(0))
}

func downloadOriginal(ctx context.Context, awsService services.AWSServiceProvider, clothing models.Clothing) ([]byte, error) {
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	fileUrl, err := awsService.GetPresignedR2FileReadURL(ctx, bucketName, clothing.SourceImageKey)
	if err != nil {
		return nil, err
	}
	return services.ReadFileFromUrl(ctx, fileUrl)
}

// errClothingGone means the upload was deleted while the worker held it.
var errClothingGone = errors.New("clothing deleted during processing")

// updateClothing writes fields onto an existing row only. Save would insert
// a row the user already deleted.
func updateClothing(db *gorm.DB, clothingID uint, fields map[string]interface{}) error {
	result := db.Model(&models.Clothing{}).Where("id = ?", clothingID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errClothingGone
	}
	return nil
}

// saveClothingProcessingFail records the failure. The upload only turns
// failed once retries are exhausted or the error is permanent.
func saveClothingProcessingFail(db *gorm.DB, clothing *models.Clothing, msg string, shouldRetry bool) error {
	clothing.ProcessRetryTimes++
	clothing.ProcessErrorMessage = &msg
	if !shouldRetry || clothing.ProcessRetryTimes >= maxExtractionRetries {
		clothing.ProcessingStatus = models.ProcessingFailed
	}
	err := updateClothing(db, clothing.ID, map[string]interface{}{
		"processing_status":     clothing.ProcessingStatus,
		"process_retry_times":   clothing.ProcessRetryTimes,
		"process_error_message": msg,
	})
	if errors.Is(err, errClothingGone) {
		zap.L().Info("clothing deleted before failure was saved", zap.Uint("clothing_id", clothing.ID))
		return nil
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Clothing %v] saving failed status: %w", clothing.ID, err))
		return err
	}
	return nil
}

func warnUnsaved(logger *zap.Logger, err error) {
	if err != nil {
		logger.Warn("failed to save processing failure", zap.Error(err))
	}
}

// HandleGarmentExtractionTask turns an uploaded photo into a clean garment
// image stored under the user's uploads, where the uploaded outfit source
// picks it up.
func HandleGarmentExtractionTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, processor services.GarmentProcessor,
	awsService services.AWSServiceProvider, notifier services.Notifier) error {
	var payload GarmentExtractionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := zap.L().With(zap.Uint("clothing_id", payload.ClothingID))

	var clothing models.Clothing
	if err := db.First(&clothing, payload.ClothingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("clothing vanished before extraction")
			return nil
		}
		return err
	}
	if clothing.ProcessingStatus == models.ProcessingCompleted || clothing.ProcessingStatus == models.ProcessingFailed {
		logger.Info("clothing already processed", zap.String("status", clothing.ProcessingStatus))
		return nil
	}

	clothing.ProcessingStatus = models.ProcessingInProgress
	if err := db.Model(&clothing).Update("processing_status", models.ProcessingInProgress).Error; err != nil {
		return err
	}

	original, err := downloadOriginal(ctx, awsService, clothing)
	if err != nil {
		logger.Error("failed to download original", zap.Error(err))
		warnUnsaved(logger, saveClothingProcessingFail(db, &clothing, "Failed to read the uploaded photo", true))
		metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeRetry).Inc()
		return err
	}

	photoName := filepath.Base(clothing.SourceImageKey)
	if prepared, err := services.PreparePhoto(original, services.MaxPhotoSide); err == nil {
		original = prepared
		photoName = strings.TrimSuffix(photoName, filepath.Ext(photoName)) + ".jpg"
	} else {
		logger.Debug("sending photo unprepared", zap.Error(err))
	}
	photoPath, err := services.CreateTempFile(original, photoName)
	if err != nil {
		return err
	}
	defer os.Remove(photoPath)

	model := services.Flash25Image
	started := time.Now()
	response, err := processor.ExtractGarment(ctx, photoPath, clothing.CategoryID, model)
	elapsed := time.Since(started)
	metrics.GarmentExtractionTime.Observe(elapsed.Seconds())
	if err != nil {
		if errors.Is(err, services.ErrContentBlocked) || errors.Is(err, services.ErrNoGarmentImage) {
			logger.Info("garment not extractable", zap.Error(err))
			metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeFailed).Inc()
			notifier.Notify(ctx, clothing.OwnerID, "We couldn't find a garment",
				"Try another photo with the item clearly visible.",
				map[string]string{"type": "garment_failed", "clothing_id": strconv.Itoa(int(clothing.ID))})
			return saveClothingProcessingFail(db, &clothing, "No garment could be found in the photo", false)
		}
		logger.Error("garment extraction failed", zap.Error(err))
		sentry.CaptureException(fmt.Errorf("[Clothing %v] extraction: %w", clothing.ID, err))
		metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeRetry).Inc()
		warnUnsaved(logger, saveClothingProcessingFail(db, &clothing, "Failed to process the photo", true))
		return err
	}

	cleaned, err := services.WhitenBackgroundFeathered(response.Images[0], services.DefaultWhitenOptions)
	if err != nil {
		logger.Error("garment image unreadable", zap.Error(err))
		metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return saveClothingProcessingFail(db, &clothing, "The processed image was unreadable", false)
	}

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	extractedKey := services.ExtractedImageKey(clothing.OwnerID, clothing.CategoryID)
	uploadURL, err := awsService.PresignLink(ctx, bucketName, extractedKey)
	if err == nil {
		_, err = awsService.UploadToPresignedURL(ctx, uploadURL, cleaned)
	}
	if err != nil {
		logger.Error("failed to store garment", zap.Error(err))
		metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeRetry).Inc()
		warnUnsaved(logger, saveClothingProcessingFail(db, &clothing, "Failed to store the processed image", true))
		return err
	}

	duration := elapsed.Seconds()
	modelName := model.String()
	clothing.ProcessingStatus = models.ProcessingCompleted
	clothing.ExtractedImageKey = &extractedKey
	clothing.ProcessErrorMessage = nil
	clothing.Duration = &duration
	clothing.LLMModel = &modelName
	clothing.LLMInputTokenCount = &response.InputTokenCount
	clothing.LLMOutputTokenCount = &response.OutputTokenCount
	clothing.LLMTotalTokenCount = &response.TotalTokenCount
	err = db.Transaction(func(tx *gorm.DB) error {
		err := updateClothing(tx, clothing.ID, map[string]interface{}{
			"processing_status":     clothing.ProcessingStatus,
			"extracted_image_key":   extractedKey,
			"process_error_message": nil,
			"duration":              duration,
			"LLMModel":              modelName,
			"LLMInputTokenCount":    response.InputTokenCount,
			"LLMOutputTokenCount":   response.OutputTokenCount,
			"LLMTotalTokenCount":    response.TotalTokenCount,
		})
		if err != nil {
			return err
		}
		return dbhelper.BumpWardrobeVersion(tx, clothing.OwnerID)
	})
	if errors.Is(err, errClothingGone) {
		logger.Info("clothing deleted during extraction, dropping result", zap.String("key", extractedKey))
		if err := awsService.DeleteObject(ctx, bucketName, extractedKey); err != nil {
			logger.Warn("failed to delete orphaned garment", zap.String("key", extractedKey), zap.Error(err))
		}
		metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil
	}
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Clothing %v] saving result: %w", clothing.ID, err))
		return err
	}

	metrics.GarmentExtractions.WithLabelValues(metrics.OutcomeCompleted).Inc()
	logger.Info("garment extracted", zap.String("key", extractedKey), zap.Duration("elapsed", elapsed))

	title := "Your item is ready"
	if clothing.Name != "" {
		title = fmt.Sprintf("%s is ready", clothing.Name)
	}
	notifier.Notify(ctx, clothing.OwnerID, title, "New outfits are waiting in your wardrobe.",
		map[string]string{"type": "garment_ready", "clothing_id": strconv.Itoa(int(clothing.ID))})
	return nil
}

// HandleStaleUploadsTask fails uploads that never made it through the worker.
func HandleStaleUploadsTask(ctx context.Context, t *asynq.Task, db *gorm.DB) error {
	touched, err := dbhelper.MarkStaleUploadsFailed(db.WithContext(ctx), time.Now().Add(-staleUploadAge))
	if err != nil {
		sentry.CaptureException(err)
		return err
	}
	if touched > 0 {
		metrics.StaleUploadsFailed.Add(float64(touched))
		zap.L().Info("stale uploads failed", zap.Int64("count", touched))
	}
	return nil
}
