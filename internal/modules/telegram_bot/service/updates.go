package service

import (
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_bridge/internal/models"
)

// messageFromUpdate достаёт текст поста. Пустой allow пропускает всё.
func messageFromUpdate(update tgbot.Update, allow map[int64]struct{}) (models.Message, bool) {
	m := update.ChannelPost
	if m == nil {
		m = update.Message
	}
	if m == nil || m.Chat == nil {
		return models.Message{}, false
	}

	if len(allow) > 0 {
		if _, ok := allow[m.Chat.ID]; !ok {
			return models.Message{}, false
		}
	}

	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if text == "" {
		return models.Message{}, false
	}

	received := time.Now()
	if m.Date > 0 {
		received = time.Unix(int64(m.Date), 0)
	}

	return models.Message{
		ChannelID:  m.Chat.ID,
		Text:       text,
		ReceivedAt: received,
	}, true
}
