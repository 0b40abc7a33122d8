package controllers

import (
	"capsulifyapi/models"
	"capsulifyapi/services"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthController struct {
	Google services.GoogleServiceProvider
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/google", m.GoogleSignIn)
	g.POST("/refresh", m.Refresh)
}

func (m *AuthController) GoogleSignIn(c echo.Context) (err error) {
	googleCreds := new(models.GoogleAuthSignIn)
	if err := c.Bind(googleCreds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if !models.ValidatePlatformRaw(googleCreds.Platform) {
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
	}
	if err = c.Validate(googleCreds); err != nil {
		return err
	}

	payload, err := m.Google.ValidateIdToken(c.Request().Context(), googleCreds.IdToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		zap.L().Info("google token rejected", zap.Error(err))
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	googleId, _ := payload.Claims["sub"].(string)
	googleEmail, _ := payload.Claims["email"].(string)
	if googleId == "" || googleEmail == "" {
		sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data %s", payload.Claims))
		return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
	}
	pictureUrl, _ := payload.Claims["picture"].(string)
	googleName, _ := payload.Claims["name"].(string)

	db := c.Get("__db").(*gorm.DB)
	var user models.UserAccount
	isNew := false
	r := db.Where("google_id = ?", googleId).Limit(1).Find(&user)
	if r.Error != nil {
		sentry.CaptureException(r.Error)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
	}
	if r.RowsAffected == 0 {
		// same person may have been created before google sign in was linked
		r = db.Where("email = ?", googleEmail).Limit(1).Find(&user)
		if r.Error != nil {
			sentry.CaptureException(r.Error)
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
		}
		if r.RowsAffected == 0 {
			isNew = true
			user = models.UserAccount{
				Email:  googleEmail,
				Status: "STARTED_AUTH",
			}
		}
	}
	if user.Banned {
		return echo.ErrForbidden
	}

	user.GoogleID = googleId
	user.Name = googleName
	user.AvatarURL = pictureUrl
	user.LastIp = c.RealIP()
	user.Platform = models.ScanPlatform(googleCreds.Platform)
	if err := db.Save(&user).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
	}
	zap.L().Info("user signed in", zap.Uint("user_id", user.ID), zap.Bool("new", isNew))

	return m.issueTokens(c, user, isNew)
}

func (m *AuthController) Refresh(c echo.Context) error {
	in := new(models.RefreshTokenIn)
	if err := c.Bind(in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(in); err != nil {
		return err
	}
	userId, err := ParseRefreshToken(in.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid refresh token"})
	}

	db := c.Get("__db").(*gorm.DB)
	var user models.UserAccount
	err = db.Where("id = ?", userId).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid refresh token"})
	}
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
	}
	if user.Banned {
		return echo.NewHTTPError(http.StatusLocked)
	}
	return m.issueTokens(c, user, false)
}

func (m *AuthController) issueTokens(c echo.Context, user models.UserAccount, isNew bool) error {
	accessToken, err := GenerateUserToken(fmt.Sprint(user.ID), 72)
	if err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
	if err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	return c.JSON(http.StatusOK, models.SignInOut{
		Id:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		New:          isNew || user.Status == "STARTED_AUTH",
		Avatar:       user.AvatarURL,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
