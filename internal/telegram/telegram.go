package telegram

import (
	"context"
	"fmt"

	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/telegram/bot"
	"github.com/futig/askdocs/internal/telegram/handlers"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot creates a bot that answers questions through the query usecase
func NewBot(cfg *config.TelegramConfig, usecase handlers.QueryUsecase, logger *zap.Logger) (Bot, error) {
	b, err := bot.New(cfg, usecase, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")
	return b, nil
}
