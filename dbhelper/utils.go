package dbhelper

import (
	"capsulifyapi/models"

	"gorm.io/gorm"
)

func SetupCleaner(db *gorm.DB) func() {
	return func() {
		session := db.Session(&gorm.Session{AllowGlobalUpdate: true})
		session.Unscoped().Delete(&models.OutfitFavourite{})
		session.Unscoped().Delete(&models.UserClothingVariant{})
		session.Unscoped().Delete(&models.Clothing{})
		session.Unscoped().Delete(&models.ClothingVariant{})
		session.Unscoped().Delete(&models.UserPushToken{})
		session.Unscoped().Delete(&models.UserAccount{})
	}
}
