// Package bot is the Telegram front of the study tracker. It answers a few
// commands for linked chats and delivers due digests as a notify.Notifier.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/notify"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/internal/study"
	"github.com/example/studycore/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Sender is the part of the Telegram API the bot talks to
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Accounts resolves chats to users and reads their study data
type Accounts interface {
	UserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error)
	ResolveDue(ctx context.Context, userID string) (spaced_repetition.DueSet, error)
	Stats(ctx context.Context, userID string) (*study.Stats, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	accounts Accounts
	config   *Config
	log      *logger.Logger
}

var _ notify.Notifier = (*Bot)(nil)

// New authorizes against the Telegram API with cfg.Token
func New(cfg *Config, accounts Accounts, log *logger.Logger) (*Bot, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := newBot(api, cfg, accounts, log)
	b.api = api
	b.log.Info("telegram bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(sender Sender, cfg *Config, accounts Accounts, log *logger.Logger) *Bot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Bot{
		sender:   sender,
		accounts: accounts,
		config:   cfg,
		log:      log.With("component", "telegram"),
	}
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot is not connected")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// NotifyDue implements notify.Notifier. Users without a linked chat are skipped.
func (b *Bot) NotifyDue(ctx context.Context, user models.User, due spaced_repetition.DueSet) error {
	if user.TelegramChatID == nil {
		return nil
	}
	text := notify.DigestSubject(due) + "\n\n" + notify.FormatDigest(due)
	msg := tgbotapi.NewMessage(*user.TelegramChatID, b.withLink(text))
	msg.ReplyMarkup = createKeyboard(mainMenu())
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram digest: %w", err)
	}
	b.log.Debug("telegram digest sent", "user_id", user.ID, "total_due", due.TotalDue)
	return nil
}

// reply sends text to a chat with the main menu attached
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(mainMenu())
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Warn("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) withLink(text string) string {
	if b.config.AppURL == "" {
		return text
	}
	return strings.TrimRight(text, "\n") + "\n\n" + b.config.AppURL
}
