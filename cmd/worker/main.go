package main

import (
	"capsulifyapi/dbhelper"
	"capsulifyapi/services"
	"capsulifyapi/tasks"
	"capsulifyapi/telegram"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func runScheduler(redis asynq.RedisClientOpt, logger *zap.Logger) {
	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{
		Logger:   logger.Sugar(),
		LogLevel: asynq.InfoLevel,
	})

	jobs := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 * * * *", // hourly
			task: tasks.NewStaleUploadsTask(),
			desc: "Fail stale garment uploads",
		},
	}

	for _, j := range jobs {
		entryID, err := scheduler.Register(j.cron, j.task)
		if err != nil {
			logger.Fatal("Failed to register task", zap.String("task", j.desc), zap.Error(err))
		}
		logger.Info("Registered task", zap.String("task", j.desc), zap.String("entry_id", entryID), zap.String("cron", j.cron))
	}

	if err := scheduler.Run(); err != nil {
		logger.Fatal("Scheduler failed", zap.Error(err))
	}
}

func main() {
	services.LoadEnv()
	logger, err := services.SetupLogger(services.GetEnv("LOG_LEVEL", "info"), services.GetEnv("LOG_FORMAT", "json"))
	if err != nil {
		log.Fatalf("logger: %s", err)
	}
	defer logger.Sync()

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         os.Getenv("SENTRY_DSN"),
		Environment: services.GetEnv("ENV", "local"),
		Release:     "capsulifyworker@1.0.0",
	})
	if err != nil {
		logger.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	alerter, err := telegram.NewAlerter(os.Getenv("TG_TOKEN"), os.Getenv("TG_ADMIN_CHATS"))
	if err != nil {
		logger.Fatal("telegram alerts", zap.Error(err))
	}

	redis := asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}
	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: services.GetEnvInt("WORKER_CONCURRENCY", 10),
		Queues: map[string]int{
			tasks.QueueGenerate: 7,
			tasks.QueueDefault:  3,
		},
		Logger: logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retried >= maxRetry {
				sentry.CaptureException(fmt.Errorf("task %s gave up after %d retries: %w", task.Type(), retried, err))
				alerter.Alert(telegram.TaskFailureMessage(task.Type(), task.Payload(), retried, err))
			}
		}),
	})

	awsService := &services.AWSService{}
	if err := awsService.InitPresignClient(context.Background()); err != nil {
		logger.Fatal("[Queue] Failed to initialize AWS provider: S3", zap.Error(err))
	}
	db := dbhelper.SetupDB()

	var app *firebase.App
	if os.Getenv("PUSH_DISABLED") != "true" {
		app, err = firebase.NewApp(context.Background(), nil)
		if err != nil {
			logger.Fatal("error initializing firebase app", zap.Error(err))
		}
	}
	notifier := services.FirebaseNotifier{App: app, DB: db}
	processor := services.GoogleGarmentProcessor{APIKey: os.Getenv("GOOGLE_API_KEY")}

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeGarmentExtraction, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleGarmentExtractionTask(ctx, t, db, processor, awsService, notifier)
	})
	mux.HandleFunc(tasks.TypeStaleUploads, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleStaleUploadsTask(ctx, t, db)
	})

	go runScheduler(redis, logger)
	if err := srv.Run(mux); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
