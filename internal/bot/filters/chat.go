// Package filters — фильтры входящих апдейтов.
// Бот работает только в групповых чатах из белого списка: игра
// «пидор дня» в личке не имеет смысла, а в чужих чатах бот молчит.
package filters

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// ChatFilter пропускает апдейты только из разрешённых групповых чатов.
type ChatFilter struct {
	allowed map[int64]bool
}

// NewChatFilter создаёт фильтр по белому списку чатов.
func NewChatFilter(chatIDs []int64) *ChatFilter {
	allowed := make(map[int64]bool, len(chatIDs))
	for _, id := range chatIDs {
		allowed[id] = true
	}
	return &ChatFilter{allowed: allowed}
}

// Allow сообщает, надо ли обрабатывать апдейт.
func (f *ChatFilter) Allow(update tgbotapi.Update) bool {
	chat := extractChat(update)
	if chat == nil {
		return false
	}
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return false
	}
	return f.allowed[chat.ID]
}

func extractChat(update tgbotapi.Update) *tgbotapi.Chat {
	switch {
	case update.Message != nil:
		return update.Message.Chat
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat
	default:
		return nil
	}
}
