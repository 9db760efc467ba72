package handlers

import (
	"context"

	"github.com/futig/askdocs/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the handlers use.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// QueryUsecase answers questions
type QueryUsecase interface {
	Query(ctx context.Context, req *entity.QueryRequest) *entity.QueryResponse
}

// Message represents a normalized Telegram message
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

// Handler processes a plain text message
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}
