package controllers

import (
	"capsulifyapi/metrics"
	"capsulifyapi/models"
	"capsulifyapi/services"
	"context"
	"net/http"
	"os"

	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// TaskEnqueuer is the part of the asynq client the handlers use.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("category", models.ValidateCategory)
	return &CustomValidator{validator: v}
}

func SetupServer(
	db *gorm.DB,
	googleService services.GoogleServiceProvider,
	awsService services.AWSServiceProvider,
	asynqClient TaskEnqueuer,
	urlCache services.URLCacheServiceProvider,
) *echo.Echo {
	if err := awsService.InitPresignClient(context.Background()); err != nil {
		zap.L().Fatal("failed to initialize storage client", zap.Error(err))
	}

	wardrobeCache, err := services.NewOutfitCache[models.WardrobeItem]("wardrobe", 2_000_000)
	if err != nil {
		zap.L().Fatal("failed to create outfit cache", zap.Error(err))
	}
	uploadedCache, err := services.NewOutfitCache[models.UploadedItem]("uploaded", 500_000)
	if err != nil {
		zap.L().Fatal("failed to create outfit cache", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db.WithContext(c.Request().Context()))
			c.Set("__asynqclient", asynqClient)
			return next(c)
		}
	})

	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	if services.GetEnv("ENV", "dev") != "test" {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authGroup := e.Group("/auth", middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(5)))
	authController := AuthController{Google: googleService}
	authController.AuthRoutes(authGroup)

	apiGroup := e.Group("/api", echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)

	profileController := ProfileController{}
	profileController.ProfileRoutes(apiGroup.Group("/profile"))

	wardrobeController := WardrobeController{
		AWSService:     awsService,
		URLCache:       urlCache,
		MaxPerCategory: services.GetEnvInt("MAX_ITEMS_PER_CATEGORY", 30),
	}
	wardrobeController.WardrobeRoutes(apiGroup.Group("/wardrobe"))

	outfitController := OutfitController{
		AWSService:    awsService,
		URLCache:      urlCache,
		WardrobeCache: wardrobeCache,
		UploadedCache: uploadedCache,
		Seed:          services.OutfitSeed(),
		PageSize:      services.GetEnvInt("OUTFIT_PAGE_SIZE", 12),
		MaxOutfits:    services.GetEnvInt("MAX_OUTFITS", 50_000),
	}
	outfitController.OutfitRoutes(apiGroup.Group("/outfits"))

	return e
}
