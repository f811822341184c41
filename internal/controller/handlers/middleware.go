package handlers

import (
	"bytes"
	"context"
	"errors"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

var errNotCoach = errors.New("telegram account is not linked to a coach")

// coachFor находит тренера, к которому привязан telegram аккаунт
func (h *Handlers) coachFor(ctx context.Context, telegramID int64) (*model.Coach, error) {
	coach, err := h.coaches.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get coach", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	if coach == nil {
		return nil, errNotCoach
	}
	return coach, nil
}

// requireCoach проверяет что пользователь является тренером
// Возвращает coach и true если OK, nil и false если нет
func (h *Handlers) requireCoach(ctx context.Context, b *bot.Bot, update *models.Update) (*model.Coach, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	coach, err := h.coachFor(ctx, update.Message.From.ID)
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, h.errorText(err))
		return nil, false
	}
	return coach, true
}

// errorText текст ошибки для пользователя
func (h *Handlers) errorText(err error) string {
	if errors.Is(err, errNotCoach) {
		return "❌ This command is available to coaches only.\n\nLink your Telegram account in the coach profile first."
	}

	return "❌ " + service.Describe(err).Message
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendPhoto отправляет картинку с подписью
func (h *Handlers) sendPhoto(ctx context.Context, b *bot.Bot, chatID int64, name string, data []byte, caption string) {
	_, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: name,
			Data:     bytes.NewReader(data),
		},
		Caption: caption,
	})
	if err != nil {
		h.logger.Error("Failed to send photo",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// commandArgs аргументы команды без самой команды
func commandArgs(update *models.Update) []string {
	if update.Message == nil {
		return nil
	}
	return splitArgs(update.Message.Text)
}
