package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// MaxMessageLength is Telegram's per-message text limit.
const MaxMessageLength = 4096

// ErrNoChatID is returned when a Telegram token is configured without a chat.
var ErrNoChatID = errors.New("telegram: chat ID not configured")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends analyses to a single Telegram chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

// NewTelegramNotifier connects to the Bot API. endpoint may be empty for the
// public API; otherwise it is a tgbotapi endpoint format such as
// "https://host/bot%s/%s".
func NewTelegramNotifier(token string, chatID int64, endpoint string) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram: bot token not configured")
	}
	if chatID == 0 {
		return nil, ErrNoChatID
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	bot.Debug = false
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the formatted analysis, split into parts that fit the limit.
func (t *TelegramNotifier) Notify(ctx context.Context, a *models.Analysis) error {
	for _, part := range SplitMessage(FormatMessage(a), MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, part)); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

// SplitMessage breaks text into chunks of at most limit runes, preferring
// line boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var parts []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			parts = append(parts, string(cur))
			cur = cur[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) <= limit {
			cur = append(cur, r...)
			continue
		}
		flush()
		for len(r) > limit {
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	flush()
	return parts
}
