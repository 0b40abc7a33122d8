package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"capsulifyapi/models"
)

// Notifier delivers push messages to a user's devices.
type Notifier interface {
	Notify(ctx context.Context, userID uint, title, body string, data map[string]string)
}

type FirebaseNotifier struct {
	App *firebase.App
	DB  *gorm.DB
}

func stringMapToInterfaceMap(stringMap map[string]string) map[string]interface{} {
	interfaceMap := make(map[string]interface{}, len(stringMap))
	for key, value := range stringMap {
		interfaceMap[key] = value
	}
	return interfaceMap
}

func pushMessage(token models.UserPushToken, title, body string, data map[string]string) *messaging.Message {
	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		APNS: &messaging.APNSConfig{
			FCMOptions: &messaging.APNSFCMOptions{
				AnalyticsLabel: "capsulify",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
				CustomData: stringMapToInterfaceMap(data),
			},
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Priority:  messaging.PriorityHigh,
				ChannelID: "capsulify-wardrobe",
			},
			Data: data,
		},
		Token: token.Token,
	}
}

// Notify sends to every active token of the user. Failures are logged, never
// returned: a missed push must not fail the job that triggered it.
func (n FirebaseNotifier) Notify(ctx context.Context, userID uint, title, body string, data map[string]string) {
	logger := zap.L().With(zap.Uint("user_id", userID))
	if n.App == nil {
		logger.Debug("push disabled, skipping", zap.String("title", title))
		return
	}

	var tokens []models.UserPushToken
	if err := n.DB.WithContext(ctx).Where("user_account_id = ? and active = true", userID).Find(&tokens).Error; err != nil {
		logger.Error("failed to load push tokens", zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	client, err := n.App.Messaging(ctx)
	if err != nil {
		logger.Error("failed to init messaging client", zap.Error(err))
		sentry.CaptureException(err)
		return
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage(token, title, body, data))
	}
	br, err := client.SendEach(ctx, messages)
	if err != nil {
		logger.Error("failed to send push", zap.Error(err))
		sentry.CaptureException(err)
		return
	}
	for i, resp := range br.Responses {
		if resp.Success {
			continue
		}
		logger.Warn("push rejected", zap.Uint("token_id", tokens[i].ID), zap.Error(resp.Error))
		if messaging.IsUnregistered(resp.Error) {
			n.DB.WithContext(ctx).Model(&tokens[i]).Update("active", false)
		}
	}
	logger.Info("push sent", zap.Int("success", br.SuccessCount), zap.Int("failure", br.FailureCount))
}
