package middleware

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Sender is the part of *tgbotapi.BotAPI the middlewares reply through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Next is the rest of the chain.
type Next func(tgbotapi.Update)

func updateIDs(update tgbotapi.Update) (userID, chatID int64, ok bool) {
	if update.Message == nil {
		return 0, 0, false
	}
	if update.Message.From != nil {
		userID = update.Message.From.ID
	}
	return userID, update.Message.Chat.ID, true
}
