package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dumpfleet/internal/domain"
)

// Telegram sends the end of run summary to a chat. It never carries the
// backup files themselves, dumps are too large for bot uploads.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(botToken, chatID string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	return &Telegram{bot: bot, chatID: id}, nil
}

func (t *Telegram) SendSummary(report domain.Report, runDir string, elapsed time.Duration) error {
	msg := tgbotapi.NewMessage(t.chatID, summaryMessage(report, runDir, elapsed))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

func summaryMessage(report domain.Report, runDir string, elapsed time.Duration) string {
	var b strings.Builder

	if report.Failed == 0 {
		b.WriteString("✅ Backup run complete\n\n")
	} else {
		b.WriteString("⚠️ Backup run finished with failures\n\n")
	}

	fmt.Fprintf(&b, "📁 Destination: %s\n", runDir)
	fmt.Fprintf(&b, "📊 Databases: %d total, %d ok, %d failed\n", report.Total, report.Succeeded, report.Failed)
	fmt.Fprintf(&b, "💾 Total size: %s\n", humanize.IBytes(uint64(report.TotalSizeBytes)))
	fmt.Fprintf(&b, "🕐 Duration: %s", elapsed.Round(time.Second))

	if len(report.Failures) > 0 {
		b.WriteString("\n\nFailed:\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "• %s\n", f.Database)
		}
	}

	return b.String()
}
