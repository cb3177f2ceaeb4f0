// Package notify announces newly stored articles in a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	"github.com/lueurxax/scholarfeed/internal/platform/htmlutils"
)

const (
	// Telegram rejects messages longer than 4096 UTF-16 code units.
	maxMessageUnits = 4096
	maxSummaryUnits = 1500
)

// Sender is the subset of the bot API used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ Sender = (*tgbotapi.BotAPI)(nil)

type TelegramNotifier struct {
	sender Sender
	chatID int64
	logger *zerolog.Logger
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}

	return NewTelegramWithSender(api, chatID, logger), nil
}

func NewTelegramWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	l := logger.With().Str("component", "notify").Logger()

	return &TelegramNotifier{sender: sender, chatID: chatID, logger: &l}
}

// NotifyArticle posts one HTML message describing article.
func (n *TelegramNotifier) NotifyArticle(ctx context.Context, site domain.WebSite, article domain.WebArticle) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify article %d: %w", article.ID, err)
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatArticle(site, article))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("send telegram message for article %d: %w", article.ID, err)
	}

	n.logger.Debug().Int64("article_id", article.ID).Msg("article announced")

	return nil
}

// FormatArticle renders the Telegram HTML body for a saved article.
func FormatArticle(site domain.WebSite, article domain.WebArticle) string {
	var b strings.Builder

	b.WriteString("<b>" + htmlutils.EscapeText(article.Title) + "</b>\n")
	b.WriteString("<i>" + htmlutils.EscapeText(site.Name) + "</i>")

	if tags := RelevanceTags(article.Relevance); len(tags) > 0 {
		b.WriteString(" · " + htmlutils.EscapeText(strings.Join(tags, ", ")))
	}

	if summary := strings.TrimSpace(article.Summary); summary != "" {
		b.WriteString("\n\n" + htmlutils.EscapeText(htmlutils.TruncateUTF16(summary, maxSummaryUnits)))
	}

	b.WriteString("\n\n<a href=\"" + htmlutils.EscapeText(article.URL) + "\">Read</a>")

	return htmlutils.TruncateUTF16(b.String(), maxMessageUnits)
}

// RelevanceTags lists the human-readable names of the set tags.
func RelevanceTags(r domain.Relevance) []string {
	var tags []string

	for _, t := range []struct {
		on   bool
		name string
	}{
		{r.NewTechnology, "new technology"},
		{r.NewProduct, "new product"},
		{r.NewAcademicPaper, "academic paper"},
		{r.AIRelated, "AI"},
		{r.SecurityRelated, "security"},
		{r.ITRelated, "IT"},
	} {
		if t.on {
			tags = append(tags, t.name)
		}
	}

	return tags
}
