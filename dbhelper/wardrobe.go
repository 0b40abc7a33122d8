package dbhelper

import (
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrVariantNotFound = errors.New("clothing variant not found")
	ErrCategoryFull    = errors.New("category is full")
)

// CatalogVariants lists the catalog, optionally only one category.
func CatalogVariants(db *gorm.DB, category outfits.Category) ([]models.ClothingVariant, error) {
	query := db.Model(&models.ClothingVariant{}).Order("category_id asc, id asc")
	if category.Valid() {
		query = query.Where("category_id = ?", category)
	}
	var variants []models.ClothingVariant
	if err := query.Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return variants, nil
}

// OwnedWardrobeItems returns the user's variants in the order they were added.
func OwnedWardrobeItems(db *gorm.DB, userID uint) ([]models.WardrobeItem, error) {
	var owned []models.UserClothingVariant
	err := db.Preload("ClothingVariant").
		Where("user_account_id = ?", userID).
		Order("id asc").
		Find(&owned).Error
	if err != nil {
		return nil, fmt.Errorf("load wardrobe of user %d: %w", userID, err)
	}
	items := make([]models.WardrobeItem, 0, len(owned))
	for _, o := range owned {
		items = append(items, models.NewWardrobeItem(o.ClothingVariant))
	}
	return items, nil
}

// WardrobeItemsByID returns the owned variants among ids, keeping the order of ids.
func WardrobeItemsByID(db *gorm.DB, userID uint, ids []uint) ([]models.WardrobeItem, error) {
	owned, err := OwnedWardrobeItems(db, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.WardrobeItem, len(owned))
	for _, item := range owned {
		byID[item.VariantID] = item
	}
	items := make([]models.WardrobeItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrVariantNotFound, id)
		}
		items = append(items, item)
	}
	return items, nil
}

func WardrobeCounts(db *gorm.DB, userID uint) (map[outfits.Category]int, error) {
	var rows []struct {
		CategoryID outfits.Category
		Total      int
	}
	err := db.Model(&models.UserClothingVariant{}).
		Select("clothing_variants.category_id, count(*) as total").
		Joins("JOIN clothing_variants ON clothing_variants.id = user_clothing_variants.clothing_variant_id").
		Where("user_clothing_variants.user_account_id = ?", userID).
		Group("clothing_variants.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count wardrobe of user %d: %w", userID, err)
	}
	counts := make(map[outfits.Category]int, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}

// AddVariant puts a catalog variant into the wardrobe. Adding an owned variant
// again is a no-op and reports added=false.
func AddVariant(db *gorm.DB, userID, variantID uint, maxPerCategory int) (added bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		var variant models.ClothingVariant
		if err := tx.First(&variant, variantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return err
		}

		var existing int64
		err := tx.Model(&models.UserClothingVariant{}).
			Where("user_account_id = ? AND clothing_variant_id = ?", userID, variantID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var inCategory int64
		err = tx.Model(&models.UserClothingVariant{}).
			Joins("JOIN clothing_variants ON clothing_variants.id = user_clothing_variants.clothing_variant_id").
			Where("user_clothing_variants.user_account_id = ? AND clothing_variants.category_id = ?", userID, variant.CategoryID).
			Count(&inCategory).Error
		if err != nil {
			return err
		}
		if maxPerCategory > 0 && inCategory >= int64(maxPerCategory) {
			return fmt.Errorf("%w: %s", ErrCategoryFull, variant.CategoryID.Slug())
		}

		if err := tx.Create(&models.UserClothingVariant{UserAccountID: userID, ClothingVariantID: variantID}).Error; err != nil {
			return err
		}
		added = true
		return BumpWardrobeVersion(tx, userID)
	})
	return added, err
}

// RemoveVariant drops a variant from the wardrobe along with every favourite
// outfit that used it.
func RemoveVariant(db *gorm.DB, userID, variantID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_account_id = ? AND clothing_variant_id = ?", userID, variantID).
			Delete(&models.UserClothingVariant{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVariantNotFound
		}
		err := tx.Where("user_account_id = ? AND ? = ANY(variant_ids)", userID, variantID).
			Delete(&models.OutfitFavourite{}).Error
		if err != nil {
			return err
		}
		return BumpWardrobeVersion(tx, userID)
	})
}

func BumpWardrobeVersion(db *gorm.DB, userID uint) error {
	return db.Model(&models.UserAccount{}).
		Where("id = ?", userID).
		UpdateColumn("wardrobe_version", gorm.Expr("wardrobe_version + 1")).Error
}

func WardrobeVersion(db *gorm.DB, userID uint) (uint, error) {
	var user models.UserAccount
	if err := db.Select("id", "wardrobe_version").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.WardrobeVersion, nil
}
