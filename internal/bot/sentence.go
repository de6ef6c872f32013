package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wortbot/internal/ai"
	"github.com/example/wortbot/internal/game"
	"github.com/example/wortbot/pkg/models"
)

func (b *Bot) handleSentence(ctx context.Context, chatID, userID int64) {
	if !b.deps.Tutor.Enabled() {
		b.send(chatID, "Sentence mode is not available on this server.", nil)
		return
	}

	cards, err := b.deps.Game.Pick(ctx, userID, ai.MaxSentenceWords)
	if errors.Is(err, game.ErrEmptyPool) {
		b.send(chatID, "Add some words with /add first.", nil)
		return
	}
	if err != nil {
		b.fail(chatID, "could not pick words", err)
		return
	}
	words := make([]models.PlayableWord, 0, len(cards))
	for _, c := range cards {
		words = append(words, c.PlayableWord)
	}

	_, _ = b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	sentence, err := b.deps.Tutor.GenerateSentence(ctx, userID, words)
	if err != nil {
		b.aiError(chatID, "could not generate a sentence", err)
		return
	}

	b.setState(userID, UserState{State: stateAwaitTranslation, Sentence: sentence})
	b.send(chatID, fmt.Sprintf("📝 Translate into Spanish:\n\n%s", sentence.Plain()), nil)
}

func (b *Bot) evaluateTranslation(ctx context.Context, message *tgbotapi.Message, sentence *ai.Sentence) {
	chatID, userID := message.Chat.ID, message.From.ID
	translation := strings.TrimSpace(message.Text)

	_, _ = b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	ev, err := b.deps.Tutor.EvaluateTranslation(ctx, userID, *sentence, translation)
	if err != nil {
		b.aiError(chatID, "could not evaluate the translation", err)
		return
	}

	attempt := &models.SentenceAttempt{
		UserID:           userID,
		Sentence:         sentence.Plain(),
		IdealTranslation: sentence.IdealTranslation,
		UserTranslation:  translation,
		Score:            ev.Score,
		Feedback:         ev.Feedback,
	}
	if err := b.deps.Sentences.Create(ctx, attempt); err != nil {
		b.log.Warn("failed to store sentence attempt", "user_id", userID, "error", err)
	} else {
		b.checkAchievements(ctx, userID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %d/10 %s\n\n%s", ev.Score, progressBar(ev.Score, 10), ev.Feedback)
	better := ev.BetterTranslation
	if better == "" {
		better = sentence.IdealTranslation
	}
	fmt.Fprintf(&sb, "\n\n💡 %s", better)
	b.send(chatID, sb.String(), createKeyboard([][]MenuButton{{
		{Text: "📝 Another one", CallbackData: cbSentence},
		{Text: "🏠 Menu", CallbackData: cbMenu},
	}}))
}

func (b *Bot) aiError(chatID int64, what string, err error) {
	switch {
	case errors.Is(err, ai.ErrRateLimited), errors.Is(err, ai.ErrDisabled):
		b.send(chatID, "⚠️ "+err.Error()+".", nil)
	default:
		b.fail(chatID, what, err)
	}
}
