package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = "📚 Commands:\n\n" +
	"For clients:\n" +
	"/coaches - List coaches\n" +
	"/request <coach-id> <email> <full name> - Ask a coach for lessons\n" +
	"/slot <slot-id> - Show a slot\n" +
	"/book <slot-id> <email> <full name> - Book a slot\n" +
	"/status <slot-id> <email> - Check a booking\n\n" +
	"For coaches:\n" +
	"/open <YYYY-MM-DD> <HH:MM> <HH:MM> - Open a slot\n" +
	"/week - This week's schedule\n" +
	"/delete <slot-id> - Delete an open slot\n" +
	"/pending - Pending lesson requests\n" +
	"/approve <client-id> - Approve a client\n" +
	"/reject <client-id> - Reject a client"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	name := "there"
	if update.Message.From != nil && update.Message.From.FirstName != "" {
		name = update.Message.From.FirstName
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Hi, %s!\n\nBook lessons with your coach right here.\n\n%s", name, helpText,
	))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCoaches обрабатывает команду /coaches
func (h *Handlers) HandleCoaches(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.coachesReply(ctx))
}

func (h *Handlers) coachesReply(ctx context.Context) string {
	coaches, err := h.coaches.List(ctx)
	if err != nil {
		return h.errorText(err)
	}
	if len(coaches) == 0 {
		return "📭 No coaches yet."
	}

	var sb strings.Builder
	sb.WriteString("👥 Coaches:\n")
	for _, c := range coaches {
		sb.WriteString(fmt.Sprintf("\n• %s", c.Name))
		if c.Sport != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", c.Sport))
		}
		sb.WriteString(fmt.Sprintf("\n  ID: %s", c.ID))
	}
	return sb.String()
}

// HandleSlot обрабатывает команду /slot <slot-id>
func (h *Handlers) HandleSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.slotReply(ctx, commandArgs(update)))
}

func (h *Handlers) slotReply(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /slot <slot-id>"
	}
	slotID, err := parseID(args[0], "slot id")
	if err != nil {
		return h.errorText(err)
	}

	slot, err := h.publisher.GetSlot(ctx, slotID)
	if err != nil {
		return h.errorText(err)
	}
	return h.describeSlot(slot)
}

func (h *Handlers) describeSlot(slot *model.Slot) string {
	summary := h.publisher.Summarize(slot)

	status := "🟢 Open"
	if !slot.IsOpen() {
		status = "🔴 Reserved"
	}
	return fmt.Sprintf("📅 %s\n🕐 %s\n%s\n\n🔗 %s", summary.Date, summary.Time, status, summary.BookingURL)
}

// HandleBook обрабатывает команду /book <slot-id> <email> <full name>
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.bookReply(ctx, commandArgs(update)))
}

func (h *Handlers) bookReply(ctx context.Context, args []string) string {
	const usage = "Usage: /book <slot-id> <email> <full name>"
	if len(args) < 3 {
		return usage
	}
	slotID, err := parseID(args[0], "slot id")
	if err != nil {
		return h.errorText(err)
	}
	identity, _ := parseIdentity(args[1:])

	slot, err := h.booking.ReserveSlot(ctx, slotID, identity)
	if err != nil {
		return h.errorText(err)
	}

	summary := h.publisher.Summarize(slot)
	return fmt.Sprintf("✅ Booked!\n\n📅 %s\n🕐 %s", summary.Date, summary.Time)
}

// HandleRequest обрабатывает команду /request <coach-id> <email> <full name>
func (h *Handlers) HandleRequest(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.requestReply(ctx, commandArgs(update)))
}

func (h *Handlers) requestReply(ctx context.Context, args []string) string {
	if len(args) < 3 {
		return "Usage: /request <coach-id> <email> <full name>"
	}
	coachID, err := parseID(args[0], "coach id")
	if err != nil {
		return h.errorText(err)
	}
	identity, _ := parseIdentity(args[1:])

	if _, err := h.clients.RequestLessons(ctx, coachID, identity); err != nil {
		return h.errorText(err)
	}
	return "📨 Request sent. You will be able to book once the coach approves it."
}

// HandleStatus обрабатывает команду /status <slot-id> <email>
func (h *Handlers) HandleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.statusReply(ctx, commandArgs(update)))
}

func (h *Handlers) statusReply(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Usage: /status <slot-id> <email>"
	}
	slotID, err := parseID(args[0], "slot id")
	if err != nil {
		return h.errorText(err)
	}

	state, err := h.booking.ReservationStatus(ctx, slotID, args[1])
	if err != nil {
		return h.errorText(err)
	}

	switch state {
	case service.ReservationReservedByYou:
		return "✅ This slot is booked for you."
	case service.ReservationReservedOther:
		return "🔴 This slot is booked by someone else."
	default:
		return "🟢 This slot is still open."
	}
}
