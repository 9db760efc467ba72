package handlers

import (
	"context"
	"fmt"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/logger"
	"github.com/futig/askdocs/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// QuestionHandler answers free text messages through the query pipeline
type QuestionHandler struct {
	bot     BotAPI
	usecase QueryUsecase
	sender  *MessageSender
	logger  *zap.Logger
}

func NewQuestionHandler(bot BotAPI, usecase QueryUsecase, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		bot:     bot,
		usecase: usecase,
		sender:  NewMessageSender(bot, logger),
		logger:  logger,
	}
}

func (h *QuestionHandler) Handle(ctx context.Context, msg *Message) error {
	ctx = logger.WithAction(ctx, "TelegramQuestion")
	ctx = logger.AddFields(ctx, zap.Int64("user_id", msg.UserID), zap.Int64("chat_id", msg.ChatID))

	typing := NewTypingNotifier(h.bot, msg.ChatID, h.logger)
	typing.Start(ctx)
	resp := h.usecase.Query(ctx, &entity.QueryRequest{Question: msg.Text})
	typing.Stop()

	if resp.Failed() {
		ctxzap.Warn(ctx, "question failed",
			zap.String("error_type", string(resp.ErrorType)),
			zap.String("technical_error", resp.TechnicalError),
		)
	} else {
		ctxzap.Info(ctx, "question answered",
			zap.Bool("cache_hit", resp.CacheHit),
			zap.Bool("used_second_stage", resp.UsedSecondStage),
		)
	}

	if err := h.sender.Send(msg.ChatID, msg.MessageID, render.Response(resp)); err != nil {
		return fmt.Errorf("send answer: %w", err)
	}
	return nil
}
