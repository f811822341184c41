package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_slots/internal/controller/render"
	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleOpen обрабатывает команду /open <YYYY-MM-DD> <HH:MM> <HH:MM>
func (h *Handlers) HandleOpen(ctx context.Context, b *bot.Bot, update *models.Update) {
	coach, ok := h.requireCoach(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.openReply(ctx, coach, commandArgs(update)))
}

func (h *Handlers) openReply(ctx context.Context, coach *model.Coach, args []string) string {
	if len(args) != 3 {
		return "Usage: /open <YYYY-MM-DD> <HH:MM> <HH:MM>"
	}

	start, end, err := parseSlotTimes(args, h.publisher.Location())
	if err != nil {
		return h.errorText(err)
	}

	result, err := h.publisher.OpenSlot(ctx, coach.ID, start, end)
	if err != nil {
		return h.errorText(err)
	}

	text := fmt.Sprintf("✅ Slot opened\n\n%s\n\n🆔 %s", h.describeSlot(result.Slot), result.Slot.ID)
	if result.Recipients == 0 && result.Notification.Failed == 0 {
		return text + "\n\n📭 No approved clients to notify."
	}
	text += fmt.Sprintf("\n\n📣 Notified: %d, failed: %d", result.Notification.Sent, result.Notification.Failed)
	return text
}

// HandleWeek обрабатывает команду /week: картинка с расписанием текущей недели
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	coach, ok := h.requireCoach(ctx, b, update)
	if !ok {
		return
	}

	chatID := update.Message.Chat.ID
	img, caption, err := h.weekImage(ctx, coach)
	if err != nil {
		h.sendError(ctx, b, chatID, h.errorText(err))
		return
	}
	h.sendPhoto(ctx, b, chatID, "week.png", img, caption)
}

func (h *Handlers) weekImage(ctx context.Context, coach *model.Coach) ([]byte, string, error) {
	now := h.now()
	weekStart, slots, err := h.publisher.WeekSlots(ctx, coach.ID, now)
	if err != nil {
		return nil, "", err
	}

	img, err := render.WeekImage(weekStart, h.publisher.Location(), slots, now)
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Error(err), zap.String("coach_id", coach.ID.String()))
		return nil, "", err
	}

	open := 0
	for _, s := range slots {
		if s.IsOpen() {
			open++
		}
	}
	caption := fmt.Sprintf("🗓 Week of %s\nSlots: %d, open: %d", weekStart.Format("January 2"), len(slots), open)
	return img, caption, nil
}

// HandleDelete обрабатывает команду /delete <slot-id>
func (h *Handlers) HandleDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	coach, ok := h.requireCoach(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.deleteReply(ctx, coach, commandArgs(update)))
}

func (h *Handlers) deleteReply(ctx context.Context, coach *model.Coach, args []string) string {
	if len(args) != 1 {
		return "Usage: /delete <slot-id>"
	}
	slotID, err := parseID(args[0], "slot id")
	if err != nil {
		return h.errorText(err)
	}

	if err := h.publisher.DeleteSlot(ctx, coach.ID, slotID); err != nil {
		return h.errorText(err)
	}
	return "🗑 Slot deleted."
}

// HandlePending обрабатывает команду /pending
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	coach, ok := h.requireCoach(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.pendingReply(ctx, coach))
}

func (h *Handlers) pendingReply(ctx context.Context, coach *model.Coach) string {
	clients, err := h.clients.List(ctx, coach.ID, model.ClientStatusPending)
	if err != nil {
		return h.errorText(err)
	}
	if len(clients) == 0 {
		return "📭 No pending requests."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📬 Pending requests (%d):\n", len(clients)))
	for _, c := range clients {
		sb.WriteString(fmt.Sprintf("\n• %s <%s>\n  /approve %s\n  /reject %s", c.Name, c.Email, c.ID, c.ID))
	}
	return sb.String()
}

// HandleApprove обрабатывает команду /approve <client-id>
func (h *Handlers) HandleApprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleSetStatus(ctx, b, update, model.ClientStatusApproved)
}

// HandleReject обрабатывает команду /reject <client-id>
func (h *Handlers) HandleReject(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleSetStatus(ctx, b, update, model.ClientStatusRejected)
}

func (h *Handlers) handleSetStatus(ctx context.Context, b *bot.Bot, update *models.Update, status model.ClientStatus) {
	coach, ok := h.requireCoach(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.setStatusReply(ctx, coach, commandArgs(update), status))
}

func (h *Handlers) setStatusReply(ctx context.Context, coach *model.Coach, args []string, status model.ClientStatus) string {
	if len(args) != 1 {
		return fmt.Sprintf("Usage: /%s <client-id>", statusCommand(status))
	}
	clientID, err := parseID(args[0], "client id")
	if err != nil {
		return h.errorText(err)
	}

	client, err := h.clients.SetStatus(ctx, coach.ID, clientID, status)
	if err != nil {
		return h.errorText(err)
	}

	if client.IsApproved() {
		return fmt.Sprintf("✅ %s <%s> can now book your slots.", client.Name, client.Email)
	}
	return fmt.Sprintf("🚫 %s <%s> was rejected.", client.Name, client.Email)
}

func statusCommand(status model.ClientStatus) string {
	if status == model.ClientStatusApproved {
		return "approve"
	}
	return "reject"
}
