package reporter

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobpilot-automation/internal/apply"
	"go-jobpilot-automation/internal/pipeline"
)

// TelegramReporter pushes end-of-run summaries. Delivery is best
// effort; callers log failures and move on.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &TelegramReporter{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramReporter) SendSummary(s *pipeline.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🏁 <b>%s run finished</b>\n", s.Site)
	fmt.Fprintf(&b, "⏱ %s\n", s.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "✅ Sent: %d\n", s.Counts[apply.OutcomeSent])
	fmt.Fprintf(&b, "🚫 Filtered: %d\n", s.Filtered)

	skipped := 0
	for outcome, n := range s.Counts {
		if outcome != apply.OutcomeSent && outcome != apply.OutcomeFailed {
			skipped += n
		}
	}
	fmt.Fprintf(&b, "⏭ Skipped: %d\n", skipped)
	fmt.Fprintf(&b, "❌ Failed: %d\n", s.Counts[apply.OutcomeFailed])
	if s.Stopped != "" {
		fmt.Fprintf(&b, "🛑 Stopped early: %s\n", s.Stopped)
	}

	for i, p := range s.Contacted {
		if i == 0 {
			b.WriteString("\n<b>Contacted:</b>\n")
		}
		if i >= 15 {
			fmt.Fprintf(&b, "… and %d more\n", len(s.Contacted)-i)
			break
		}
		fmt.Fprintf(&b, "• %s @ %s (%s)\n", p.Title, p.CompanyName, p.SalaryText)
	}

	return t.SendMessage(b.String())
}

func (t *TelegramReporter) SendError(errReq error) error {
	return t.SendMessage(fmt.Sprintf("⚠️ <b>JobPilot Error</b>:\n%v", errReq))
}
