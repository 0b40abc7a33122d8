package dbhelper

import (
	"capsulifyapi/models"
	"capsulifyapi/outfits"
	"errors"
	"strconv"

	"gorm.io/gorm"
)

func FavouriteKeys(db *gorm.DB, userID uint) (map[string]bool, error) {
	var keys []string
	err := db.Model(&models.OutfitFavourite{}).
		Where("user_account_id = ?", userID).
		Pluck("outfit_key", &keys).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return set, nil
}

func ListFavourites(db *gorm.DB, userID uint) ([]models.OutfitFavourite, error) {
	favourites := []models.OutfitFavourite{}
	err := db.Where("user_account_id = ?", userID).Order("id desc").Find(&favourites).Error
	return favourites, err
}

// ToggleFavourite saves the outfit as favourite, or removes it when it
// already is one. It reports the new state.
func ToggleFavourite(db *gorm.DB, userID uint, outfit outfits.Outfit[models.WardrobeItem]) (bool, error) {
	key := outfit.Key()
	favourite := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.OutfitFavourite
		err := tx.Where("user_account_id = ? AND outfit_key = ?", userID, key).First(&existing).Error
		if err == nil {
			return tx.Unscoped().Delete(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		ids := make([]int64, 0, len(outfit.Items))
		for _, item := range outfit.Items {
			id, _ := strconv.ParseInt(item.ItemID(), 10, 64)
			ids = append(ids, id)
		}
		favourite = true
		return tx.Create(&models.OutfitFavourite{
			UserAccountID: userID,
			OutfitKey:     key,
			ArchetypeID:   uint8(outfit.ArchetypeID),
			VariantIDs:    ids,
		}).Error
	})
	return favourite, err
}

func CountFavourites(db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.Model(&models.OutfitFavourite{}).Where("user_account_id = ?", userID).Count(&total).Error
	return total, err
}
