// Package notify delivers finished analyses to the log and to Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/pkg/models"
)

// Notifier delivers an analysis to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a *models.Analysis) error
}

// FormatMessage renders a compact, phone-friendly summary of a.
func FormatMessage(a *models.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]\n", a.Symbol, a.AssetClass)
	fmt.Fprintf(&sb, "Price: %s\n", a.Snapshot.PriceText())
	fmt.Fprintf(&sb, "Change: %s\n", a.Snapshot.ChangeText())
	fmt.Fprintf(&sb, "RSI(%d): %s\n\n", a.Indicator.Period, a.Indicator.Format())
	sb.WriteString(a.Advisory.Text)
	if a.ShareURL != "" {
		sb.WriteString("\n\n" + a.ShareURL)
	}
	return sb.String()
}

// ── Log notifier ──

// LogNotifier writes a one-line summary of each analysis to the logger.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Notify(_ context.Context, a *models.Analysis) error {
	l.log.Info().
		Str("event", "watch_result").
		Str("request_id", a.RequestID).
		Str("symbol", a.Symbol).
		Str("price", a.Snapshot.PriceText()).
		Str("change", a.Snapshot.ChangeText()).
		Str("rsi", a.Indicator.Format()).
		Str("model", a.Advisory.Model).
		Bool("exhausted", a.Advisory.Exhausted).
		Msg("analysis delivered")
	return nil
}

// ── Fan-out ──

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, ",")
}

func (m Multi) Notify(ctx context.Context, a *models.Analysis) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
