package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/notify"
)

// Constants for callback data
const (
	callbackDue   = "due"
	callbackStats = "stats"
)

func mainMenu() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📚 Due today", CallbackData: callbackDue},
			{Text: "📊 Stats", CallbackData: callbackStats},
		},
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		chatID := update.Message.Chat.ID
		if !update.Message.IsCommand() {
			b.reply(chatID, "I don't understand. Use /help to see the commands.")
			return
		}
		b.handleCommand(ctx, chatID, update.Message.Command())
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string) {
	switch command {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.reply(chatID, helpText)
	case callbackDue:
		b.handleDue(ctx, chatID)
	case callbackStats:
		b.handleStats(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help to see the commands.")
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// acknowledge so the client stops the spinner
	if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Warn("telegram callback ack failed", "error", err)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID
	switch query.Data {
	case callbackDue:
		b.handleDue(ctx, chatID)
	case callbackStats:
		b.handleStats(ctx, chatID)
	}
}

const helpText = `Available commands:
/start - Show how to link this chat
/due - Topics to review today
/stats - Your study statistics
/help - This message`

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	user, err := b.accounts.UserByTelegramChat(ctx, chatID)
	if err == nil {
		b.reply(chatID, fmt.Sprintf("Welcome back, %s! You'll get your review digest here.\n\n%s", user.Name, helpText))
		return
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		b.fail(chatID, err)
		return
	}
	text := fmt.Sprintf("Welcome! 🎓\n\nTo get review reminders here, save this chat ID in your preferences:\n\n%d", chatID)
	b.reply(chatID, b.withLink(text))
}

// linkedUser returns the user ID of the chat or tells the chat how to link
func (b *Bot) linkedUser(ctx context.Context, chatID int64) (string, bool) {
	user, err := b.accounts.UserByTelegramChat(ctx, chatID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			b.reply(chatID, "This chat is not linked yet. Send /start to see how.")
		} else {
			b.fail(chatID, err)
		}
		return "", false
	}
	return user.ID, true
}

func (b *Bot) handleDue(ctx context.Context, chatID int64) {
	userID, ok := b.linkedUser(ctx, chatID)
	if !ok {
		return
	}
	due, err := b.accounts.ResolveDue(ctx, userID)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	if !notify.HasContent(due) {
		b.reply(chatID, "🎉 Nothing due today.")
		return
	}
	b.reply(chatID, b.withLink(notify.DigestSubject(due)+"\n\n"+notify.FormatDigest(due)))
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	userID, ok := b.linkedUser(ctx, chatID)
	if !ok {
		return
	}
	stats, err := b.accounts.Stats(ctx, userID)
	if err != nil {
		b.fail(chatID, err)
		return
	}

	var text strings.Builder
	text.WriteString("📊 Your statistics\n\n")
	fmt.Fprintf(&text, "Topics: %d\n", stats.TotalTopics)
	fmt.Fprintf(&text, "Explain sessions: %d\n", stats.TotalExplains)
	fmt.Fprintf(&text, "Average confidence: %.1f\n", stats.AverageConfidence)
	if stats.Analytics != nil {
		fmt.Fprintf(&text, "Current streak: %d days\n", stats.Analytics.CurrentStreak)
		fmt.Fprintf(&text, "Longest streak: %d days\n", stats.Analytics.LongestStreak)
	}
	b.reply(chatID, text.String())
}

func (b *Bot) fail(chatID int64, err error) {
	b.log.Error("telegram command failed", "chat_id", chatID, "error", err)
	b.reply(chatID, "❌ Something went wrong. Please try again later.")
}
