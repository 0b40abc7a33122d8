package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

// Alerter posts operational alerts to the admin chats. A nil Alerter drops
// every alert, so callers don't need to check whether alerts are configured.
type Alerter struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

// NewAlerter connects the bot. chatIDs is a comma separated list (TG_ADMIN_CHATS).
// An empty token disables alerts and returns a nil Alerter.
func NewAlerter(token, chatIDs string) (*Alerter, error) {
	if token == "" {
		return nil, nil
	}
	ids, err := ParseChatIDs(chatIDs)
	if err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	zap.L().Info("telegram alerts enabled", zap.String("bot", bot.Self.UserName), zap.Int("chats", len(ids)))
	return &Alerter{bot: bot, chatIDs: ids}, nil
}

func ParseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *Alerter) Alert(text string) {
	if a == nil {
		return
	}
	for _, chatID := range a.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = "markdown"
		if _, err := a.bot.Send(msg); err != nil {
			zap.L().Warn("telegram alert not sent", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

// TaskFailureMessage describes a background task that ran out of retries.
func TaskFailureMessage(taskType string, payload []byte, retried int, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Task gave up:* %s\n", EscapeMessage(taskType))
	fmt.Fprintf(&b, "Retries: %d\n", retried)
	if len(payload) > 0 {
		fmt.Fprintf(&b, "Payload: `%s`\n", strings.ReplaceAll(string(payload), "`", "'"))
	}
	if err != nil {
		fmt.Fprintf(&b, "Error: %s", EscapeMessage(err.Error()))
	}
	return b.String()
}
