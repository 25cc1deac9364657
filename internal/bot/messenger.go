package bot

import (
	"context"
	"fmt"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// SendOptions carries the optional knobs a reply can set.
type SendOptions struct {
	// ReplyTo makes the outgoing message a reply to this message id.
	ReplyTo int64
	// Keyboard, when non-empty, attaches a one-time reply keyboard with one
	// button per cell.
	Keyboard [][]string
	// RemoveKeyboard clears any reply keyboard on the user's side.
	RemoveKeyboard bool
	// InlineURL attaches a single inline button opening a URL.
	InlineURL *InlineURL
}

// InlineURL is a labelled link button.
type InlineURL struct {
	Text string
	URL  string
}

// Messenger is the chat transport as seen by the router: send a message,
// delete a message. Both are treated as best effort by callers.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts *SendOptions) (int64, error)
	Delete(ctx context.Context, chatID, messageID int64) error
}

// Telegram adapts a gotgbot.Bot to the Messenger interface. All outgoing
// text is sent as HTML.
type Telegram struct {
	bot *gotgbot.Bot
}

// NewTelegram wraps b.
func NewTelegram(b *gotgbot.Bot) *Telegram { return &Telegram{bot: b} }

// Send delivers text to chatID and returns the new message's id.
func (t *Telegram) Send(_ context.Context, chatID int64, text string, opts *SendOptions) (int64, error) {
	sendOpts := &gotgbot.SendMessageOpts{ParseMode: "HTML"}
	if opts != nil {
		if opts.ReplyTo != 0 {
			sendOpts.ReplyParameters = &gotgbot.ReplyParameters{MessageId: opts.ReplyTo}
		}
		switch {
		case len(opts.Keyboard) > 0:
			rows := make([][]gotgbot.KeyboardButton, 0, len(opts.Keyboard))
			for _, row := range opts.Keyboard {
				btns := make([]gotgbot.KeyboardButton, 0, len(row))
				for _, label := range row {
					btns = append(btns, gotgbot.KeyboardButton{Text: label})
				}
				rows = append(rows, btns)
			}
			sendOpts.ReplyMarkup = gotgbot.ReplyKeyboardMarkup{
				Keyboard:        rows,
				ResizeKeyboard:  true,
				OneTimeKeyboard: true,
			}
		case opts.RemoveKeyboard:
			sendOpts.ReplyMarkup = gotgbot.ReplyKeyboardRemove{RemoveKeyboard: true}
		case opts.InlineURL != nil:
			sendOpts.ReplyMarkup = gotgbot.InlineKeyboardMarkup{
				InlineKeyboard: [][]gotgbot.InlineKeyboardButton{{
					{Text: opts.InlineURL.Text, Url: opts.InlineURL.URL},
				}},
			}
		}
	}
	msg, err := t.bot.SendMessage(chatID, text, sendOpts)
	if err != nil {
		return 0, fmt.Errorf("telegram send: %w", err)
	}
	return msg.MessageId, nil
}

// Delete removes a message. Telegram refuses deletion of old or foreign
// messages; callers log and move on.
func (t *Telegram) Delete(_ context.Context, chatID, messageID int64) error {
	if _, err := t.bot.DeleteMessage(chatID, messageID, nil); err != nil {
		return fmt.Errorf("telegram delete: %w", err)
	}
	return nil
}
