package notify

import (
	"fmt"
	"sync"

	"github.com/dswatch/dswatch/internal/logutils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// TelegramNotifier relays notifications to a Telegram chat. Update-in-place
// is mapped onto message editing.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64

	mu   sync.Mutex
	sent map[string]int // notification id -> telegram message id
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating bot: %w", err)
	}
	logutils.Log.Infof("Authorized on account %s", api.Self.UserName)
	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		sent:   make(map[string]int),
	}, nil
}

func (t *TelegramNotifier) Notify(id, title, body string) string {
	if id == "" {
		id = uuid.New().String()
	}
	text := title
	if body != "" {
		text = title + "\n" + body
	}

	t.mu.Lock()
	messageID, exists := t.sent[id]
	t.mu.Unlock()

	if exists {
		edit := tgbotapi.NewEditMessageText(t.chatID, messageID, text)
		if _, err := t.api.Send(edit); err != nil {
			logutils.Log.WithError(err).Errorf("Message (%s) not updated", text)
		}
		return id
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	sent, err := t.api.Send(msg)
	if err != nil {
		logutils.Log.WithError(err).Errorf("Message (%s) not sent", text)
		return id
	}
	t.mu.Lock()
	t.sent[id] = sent.MessageID
	t.mu.Unlock()
	return id
}
