package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediabot/internal/models"
)

// Bot adapts the Telegram Bot API to the dispatcher's Messenger.
type Bot struct {
	api *tgbotapi.BotAPI
	log *slog.Logger
}

func New(token string, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	log = log.With(slog.String("component", "telegram"))
	log.Info("authorized", slog.String("bot", api.Self.UserName))

	return &Bot{api: api, log: log}, nil
}

func (b *Bot) SendText(_ context.Context, chatID int64, msg models.OutMessage) (models.MessageRef, error) {
	sent, err := b.api.Send(textConfig(chatID, msg))
	if err != nil {
		return models.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}

	return models.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (b *Bot) EditText(_ context.Context, ref models.MessageRef, msg models.OutMessage) error {
	if _, err := b.api.Request(editConfig(ref, msg)); err != nil {
		return fmt.Errorf("failed to edit message %d: %w", ref.MessageID, err)
	}

	return nil
}

func (b *Bot) SendFile(_ context.Context, chatID int64, file models.OutFile) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Path, err)
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: file.FileName, Reader: f})
	doc.Caption = file.Caption

	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to upload %s: %w", file.FileName, err)
	}

	return nil
}

func (b *Bot) AnswerButton(_ context.Context, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	return nil
}

// Poll long-polls for updates until ctx is done. handle must not block for long.
func (b *Bot) Poll(ctx context.Context, timeout int, handle func(context.Context, models.Event)) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to clear webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.log.Info("polling for updates", slog.Int("timeout", timeout))

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}

			ev, ok := ToEvent(upd)
			if !ok {
				continue
			}

			handle(ctx, ev)
		}
	}
}

func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.log.Info("webhook registered")

	return nil
}

// ParseWebhook decodes one webhook request. ok is false for updates the bot ignores.
func (b *Bot) ParseWebhook(r *http.Request) (ev models.Event, ok bool, err error) {
	upd, err := b.api.HandleUpdate(r)
	if err != nil {
		return models.Event{}, false, err
	}

	ev, ok = ToEvent(*upd)

	return ev, ok, nil
}

// ToEvent converts commands, text messages and button presses. Everything else is dropped.
func ToEvent(upd tgbotapi.Update) (models.Event, bool) {
	if cq := upd.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return models.Event{}, false
		}

		return models.Event{
			Kind:         models.EventButton,
			UserID:       models.UserID(cq.From.ID),
			ChatID:       cq.Message.Chat.ID,
			UserName:     cq.From.UserName,
			FirstName:    cq.From.FirstName,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
			MessageID:    cq.Message.MessageID,
		}, true
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return models.Event{}, false
	}

	ev := models.Event{
		UserID:    models.UserID(msg.From.ID),
		ChatID:    msg.Chat.ID,
		UserName:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}

	if msg.IsCommand() {
		ev.Kind = models.EventCommand
		ev.Command = strings.ToLower(msg.Command())
		ev.Args = strings.Fields(msg.CommandArguments())

		return ev, true
	}

	ev.Kind = models.EventText
	ev.Text = msg.Text

	return ev, true
}

func textConfig(chatID int64, msg models.OutMessage) tgbotapi.MessageConfig {
	c := tgbotapi.NewMessage(chatID, msg.Text)
	if msg.Markdown {
		c.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(msg.Buttons) > 0 {
		c.ReplyMarkup = keyboard(msg.Buttons)
	}

	return c
}

func editConfig(ref models.MessageRef, msg models.OutMessage) tgbotapi.EditMessageTextConfig {
	c := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, msg.Text)
	if msg.Markdown {
		c.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(msg.Buttons) > 0 {
		kb := keyboard(msg.Buttons)
		c.ReplyMarkup = &kb
	}

	return c
}

func keyboard(rows [][]models.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
