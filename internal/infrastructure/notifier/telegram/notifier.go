package telegramnotifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ark-network/raffle/internal/core/ports"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	log "github.com/sirupsen/logrus"
)

type notifier struct {
	bot           *tgbotapi.BotAPI
	defaultChatId int64
}

// NewNotifier returns a notifier that posts markdown messages through a
// telegram bot. Messages without recipient go to defaultChatId.
func NewNotifier(token string, defaultChatId int64) (ports.Notifier, error) {
	return NewNotifierWithClient(token, defaultChatId, &http.Client{})
}

func NewNotifierWithClient(
	token string, defaultChatId int64, client *http.Client,
) (ports.Notifier, error) {
	if len(token) <= 0 {
		return nil, fmt.Errorf("missing telegram bot token")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, client)
	if err != nil {
		return nil, fmt.Errorf("can not create telegram bot: %s", err)
	}
	log.Debugf("telegram notifier: authorized as %s", bot.Self.UserName)

	return &notifier{bot, defaultChatId}, nil
}

func (n *notifier) Notify(_ context.Context, to any, message string) error {
	chatId, err := n.parseRecipient(to)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatId, message)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message to %d: %s", chatId, err)
	}
	return nil
}

func (n *notifier) parseRecipient(to any) (int64, error) {
	switch v := to.(type) {
	case nil:
		if n.defaultChatId == 0 {
			return 0, fmt.Errorf("missing recipient and no default chat configured")
		}
		return n.defaultChatId, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		chatId, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid chat id %s", v)
		}
		return chatId, nil
	default:
		return 0, fmt.Errorf("invalid recipient type %T", to)
	}
}
