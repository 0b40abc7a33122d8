package models

import (
	"strconv"

	"capsulifyapi/outfits"

	"github.com/lib/pq"
)

// ClothingVariant is a catalog entry of the capsule wardrobe: a specific
// garment in a specific colour that users can add to their wardrobe.
type ClothingVariant struct {
	JsonModel
	CategoryID  outfits.Category `gorm:"index;not null" json:"category_id"`
	Subcategory string           `json:"subcategory"`
	Name        string           `json:"name"`
	Color       string           `json:"color"`
	// object key in storage
	ImageKey *string `json:"-"`
}

// UserClothingVariant marks a catalog variant as owned by a user.
type UserClothingVariant struct {
	JsonModel
	UserAccountID     uint            `gorm:"uniqueIndex:idx_user_variant;not null" json:"-"`
	UserAccount       UserAccount     `json:"-"`
	ClothingVariantID uint            `gorm:"uniqueIndex:idx_user_variant;not null" json:"variant_id"`
	ClothingVariant   ClothingVariant `gorm:"constraint:OnDelete:CASCADE;" json:"variant"`
}

// Clothing is a photo the user uploaded. The worker extracts the garment and
// stores it under uploads/{user}/{category}/, which is where the uploaded
// outfit source reads from.
type Clothing struct {
	JsonModel
	Name                string           `json:"name"`
	CategoryID          outfits.Category `json:"category_id"`
	Owner               UserAccount      `json:"-"`
	OwnerID             uint             `gorm:"index" json:"-"`
	SourceImageKey      string           `json:"-"`
	ExtractedImageKey   *string          `json:"-"`
	ProcessingStatus    string           `json:"processing_status"` // draft, pending, processing, completed, failed
	ProcessRetryTimes   int              `json:"process_retry_times"`
	ProcessErrorMessage *string          `json:"process_error_message"`

	Duration            *float64 `json:"-"`
	LLMModel            *string  `json:"-"`
	LLMInputTokenCount  *int32   `json:"-"`
	LLMOutputTokenCount *int32   `json:"-"`
	LLMTotalTokenCount  *int32   `json:"-"`
}

const (
	ProcessingDraft      = "draft"
	ProcessingPending    = "pending"
	ProcessingInProgress = "processing"
	ProcessingCompleted  = "completed"
	ProcessingFailed     = "failed"
)

// OutfitFavourite is a saved outfit, matched against generated outfits by key.
type OutfitFavourite struct {
	JsonModel
	UserAccountID uint          `gorm:"uniqueIndex:idx_user_outfit_key;not null" json:"-"`
	UserAccount   UserAccount   `json:"-"`
	OutfitKey     string        `gorm:"uniqueIndex:idx_user_outfit_key;not null" json:"key"`
	ArchetypeID   uint8         `json:"archetype_id"`
	VariantIDs    pq.Int64Array `gorm:"type:bigint[]" json:"variant_ids"`
}

// WardrobeItem is an owned catalog variant as fed to the outfit generator and
// returned to clients.
type WardrobeItem struct {
	VariantID   uint             `json:"variant_id"`
	CategoryID  outfits.Category `json:"category_id"`
	Category    string           `json:"category"`
	Subcategory string           `json:"subcategory"`
	Name        string           `json:"name"`
	Color       string           `json:"color"`
	ImageURL    string           `json:"image_url"`
	imageKey    string
}

func NewWardrobeItem(v ClothingVariant) WardrobeItem {
	item := WardrobeItem{
		VariantID:   v.ID,
		CategoryID:  v.CategoryID,
		Category:    v.CategoryID.Slug(),
		Subcategory: v.Subcategory,
		Name:        v.Name,
		Color:       v.Color,
	}
	if v.ImageKey != nil {
		item.imageKey = *v.ImageKey
	}
	return item
}

func (w WardrobeItem) ItemID() string                 { return strconv.FormatUint(uint64(w.VariantID), 10) }
func (w WardrobeItem) ItemCategory() outfits.Category { return w.CategoryID }
func (w WardrobeItem) ImageKey() string               { return w.imageKey }

// UploadedItem is a processed garment image found in storage.
type UploadedItem struct {
	ID         string           `json:"id"`
	CategoryID outfits.Category `json:"category_id"`
	Category   string           `json:"category"`
	ImageKey   string           `json:"-"`
	ImageURL   string           `json:"image_url"`
}

func (u UploadedItem) ItemID() string                 { return u.ID }
func (u UploadedItem) ItemCategory() outfits.Category { return u.CategoryID }
