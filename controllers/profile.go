package controllers

import (
	"capsulifyapi/dbhelper"
	"capsulifyapi/models"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ProfileController struct{}

func (controller *ProfileController) ProfileRoutes(g *echo.Group) {
	g.GET("/me", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)

		counts, err := dbhelper.WardrobeCounts(db, user.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load wardrobe"})
		}
		favourites, err := dbhelper.CountFavourites(db, user.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to load favourites"})
		}

		bySlug := make(map[string]int, len(counts))
		for category, total := range counts {
			bySlug[category.Slug()] = total
		}
		return c.JSON(http.StatusOK, models.UserMeOut{
			Id:             user.ID,
			Name:           user.Name,
			Email:          user.Email,
			AvatarURL:      user.AvatarURL,
			WardrobeCounts: bySlug,
			FavouriteCount: favourites,
		})
	})

	g.POST("/push-token", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		in := new(models.UserPushIn)
		if err := c.Bind(in); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(in); err != nil {
			return err
		}

		var token models.UserPushToken
		r := db.Where("user_account_id = ? AND token = ?", user.ID, in.Token).Limit(1).Find(&token)
		if r.Error != nil {
			sentry.CaptureException(r.Error)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to save token"})
		}
		token.UserAccountID = user.ID
		token.Token = in.Token
		token.Platform = models.ScanPlatform(in.Platform)
		token.Active = true
		if err := db.Save(&token).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to save token"})
		}
		return c.NoContent(http.StatusNoContent)
	})
}
