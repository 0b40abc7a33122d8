package main

import (
	"capsulifyapi/controllers"
	"capsulifyapi/dbhelper"
	"capsulifyapi/services"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	services.LoadEnv()
	logger, err := services.SetupLogger(services.GetEnv("LOG_LEVEL", "info"), services.GetEnv("LOG_FORMAT", "json"))
	if err != nil {
		log.Fatalf("logger: %s", err)
	}
	defer logger.Sync()

	if os.Getenv("JWT_SECRET") == "" {
		logger.Fatal("JWT_SECRET environment variable is not set!")
	}
	err = sentry.Init(sentry.ClientOptions{
		// empty DSN disables reporting
		Dsn:              os.Getenv("SENTRY_DSN"),
		Environment:      services.GetEnv("ENV", "local"),
		Release:          "capsulifyapi@1.0.0",
		TracesSampleRate: 0.2,
	})
	if err != nil {
		logger.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	db := dbhelper.SetupDB()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")})
	defer asynqClient.Close()
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	awsService := &services.AWSService{}
	urlCache, err := services.NewURLCacheService(awsService, bucketName)
	if err != nil {
		logger.Fatal("Failed to initialize URL cache service", zap.Error(err))
	}

	e := controllers.SetupServer(db, services.GoogleService{}, awsService, asynqClient, urlCache)
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	port := services.GetEnv("PORT", "8083")
	logger.Info("api listening", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
