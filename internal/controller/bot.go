package controller

import (
	"context"
	"strings"

	"github.com/Freeeeeet/lesson_slots/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// BotController консоль бронирования в Telegram поверх тех же сервисов, что и HTTP API
type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, h *handlers.Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: h,
		logger:   logger,
	}
}

type command struct {
	name        string
	description string
	handler     bot.HandlerFunc
}

func (c *BotController) commands() []command {
	h := c.handlers
	return []command{
		{"start", "🚀 Start", h.HandleStart},
		{"help", "❓ Commands", h.HandleHelp},
		{"coaches", "👥 List coaches", h.HandleCoaches},
		{"request", "📨 Ask a coach for lessons", h.HandleRequest},
		{"slot", "📅 Show a slot", h.HandleSlot},
		{"book", "✅ Book a slot", h.HandleBook},
		{"status", "🔎 Check a booking", h.HandleStatus},

		// Команды для тренеров
		{"open", "➕ Open a slot (coach)", h.HandleOpen},
		{"week", "🗓 Week schedule (coach)", h.HandleWeek},
		{"delete", "🗑 Delete an open slot (coach)", h.HandleDelete},
		{"pending", "📬 Pending requests (coach)", h.HandlePending},
		{"approve", "👍 Approve a client (coach)", h.HandleApprove},
		{"reject", "🚫 Reject a client (coach)", h.HandleReject},
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	for _, cmd := range c.commands() {
		c.bot.RegisterHandlerMatchFunc(matchCommand(cmd.name), cmd.handler)
	}

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// matchCommand совпадает с "/name", "/name args" и "/name@bot args"
func matchCommand(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		fields := strings.Fields(update.Message.Text)
		if len(fields) == 0 {
			return false
		}
		cmd, _, _ := strings.Cut(fields[0], "@")
		return cmd == "/"+name
	}
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	cmds := c.commands()
	menu := make([]models.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		menu = append(menu, models.BotCommand{Command: cmd.name, Description: cmd.description})
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: menu,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Name имя фонового процесса для планировщика
func (c *BotController) Name() string {
	return "telegram-bot"
}

// Run запускает long polling до отмены контекста
func (c *BotController) Run(ctx context.Context) error {
	if err := c.RegisterHandlers(ctx); err != nil {
		c.logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
