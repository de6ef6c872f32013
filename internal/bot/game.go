package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/game"
)

func (b *Bot) handlePlay(ctx context.Context, chatID, userID int64, args string) {
	pa, err := ParsePlayArgs(args)
	if err != nil {
		b.send(chatID, "❌ "+err.Error()+"\nExample: /play smart type=noun gender=f", nil)
		return
	}
	if pa.Category != "" {
		c, err := b.deps.Categories.GetByName(ctx, userID, pa.Category)
		if errors.Is(err, database.ErrNotFound) {
			b.send(chatID, fmt.Sprintf("You have no category %q.", pa.Category), nil)
			return
		}
		if err != nil {
			b.fail(chatID, "could not load categories", err)
			return
		}
		pa.Filter.CategoryID = c.ID
	}

	_, err = b.deps.Game.Start(ctx, userID, pa.Mode, pa.Filter)
	if errors.Is(err, game.ErrEmptyPool) {
		b.send(chatID, "No words match these filters. Add words with /add or relax the filters.", b.mainMenu())
		return
	}
	if err != nil {
		b.fail(chatID, "could not start the game", err)
		return
	}
	b.showNextCard(ctx, chatID, userID)
}

func (b *Bot) startFriendPlay(ctx context.Context, chatID, userID, friendID int64) {
	b.startFriendPlayMode(ctx, chatID, userID, friendID, game.ModeRandom)
}

func (b *Bot) startFriendPlayMode(ctx context.Context, chatID, userID, friendID int64, mode game.Mode) {
	words, err := b.deps.Social.FriendWords(ctx, userID, friendID)
	if err != nil {
		b.socialError(chatID, "could not load your friend's words", err)
		return
	}
	_, err = b.deps.Game.StartFriend(userID, friendID, words, mode, game.Filter{})
	if errors.Is(err, game.ErrEmptyPool) {
		b.send(chatID, "Your friend has no words yet.", nil)
		return
	}
	if err != nil {
		b.fail(chatID, "could not start the game", err)
		return
	}
	b.send(chatID, "👥 Playing your friend's latest words. Your progress is not changed.", nil)
	b.showNextCard(ctx, chatID, userID)
}

func cardText(c game.Card, shown, total int, flipped bool) string {
	header := ""
	if total > 0 {
		header = fmt.Sprintf("[%d/%d] ", shown, total)
	}
	text := fmt.Sprintf("%s🇩🇪 %s", header, c.DisplayGerman())
	if c.IsDerived {
		text += fmt.Sprintf("\n(%s + %s)", c.Prefix, c.Word.German)
	}
	if flipped {
		text += "\n\n🇪🇸 " + c.Spanish
		if c.Word.PastTense != "" || c.Word.Participle != "" {
			text += fmt.Sprintf("\n%s, %s", c.Word.PastTense, c.Word.Participle)
		}
		if c.Word.Case != "" {
			text += "\n+ " + c.Word.Case
		}
	}
	return text
}

func (b *Bot) showNextCard(ctx context.Context, chatID, userID int64) {
	card, err := b.deps.Game.Next(userID)
	switch {
	case errors.Is(err, game.ErrReviewComplete):
		b.send(chatID, "🎉 Review complete! Every word was shown once.", createKeyboard([][]MenuButton{{
			{Text: "🔁 Again", CallbackData: cbAgain},
			{Text: "🏁 Finish", CallbackData: cbStop},
		}}))
		return
	case errors.Is(err, game.ErrNoSession):
		b.send(chatID, "No game running. Start one with /play.", b.mainMenu())
		return
	case err != nil:
		b.fail(chatID, "could not draw a word", err)
		return
	}

	shown, total := 0, 0
	if sess, ok := b.deps.Game.Session(userID); ok && sess.Mode == game.ModeReview {
		shown, total = sess.Progress()
	}
	b.send(chatID, cardText(card, shown, total, false), createKeyboard([][]MenuButton{{
		{Text: "🔄 Flip", CallbackData: cbFlip},
		{Text: "🛑 Stop", CallbackData: cbStop},
	}}))
}

func (b *Bot) flipCard(chatID int64, messageID int, userID int64) {
	sess, ok := b.deps.Game.Session(userID)
	if !ok {
		b.send(chatID, "No game running. Start one with /play.", b.mainMenu())
		return
	}
	card, ok := sess.Current()
	if !ok {
		return
	}
	shown, total := 0, 0
	if sess.Mode == game.ModeReview {
		shown, total = sess.Progress()
	}
	markup := createKeyboard([][]MenuButton{{
		{Text: "✅ Knew it", CallbackData: callbackData(cbCorrect, card.Turn)},
		{Text: "❌ Missed", CallbackData: callbackData(cbIncorrect, card.Turn)},
	}})
	b.edit(chatID, messageID, cardText(card, shown, total, true), &markup)
}

func (b *Bot) answerCard(ctx context.Context, chatID int64, messageID int, userID int64, turn int, correct bool) {
	res, err := b.deps.Game.AnswerTurn(ctx, userID, turn, correct)
	switch {
	case errors.Is(err, game.ErrNoSession):
		b.send(chatID, "No game running. Start one with /play.", b.mainMenu())
		return
	case errors.Is(err, game.ErrNoCard):
		return
	case err != nil:
		b.fail(chatID, "could not save your answer", err)
		return
	}

	verdict := "❌"
	if correct {
		verdict = "✅"
	}
	text := fmt.Sprintf("%s %s = %s", verdict, res.Card.DisplayGerman(), res.Card.Spanish)
	if res.NewlyMastered {
		text += "\n⭐ Mastered!"
	}
	// replace the buttons so the card cannot be answered twice
	b.edit(chatID, messageID, text, nil)
	b.showNextCard(ctx, chatID, userID)
}

func (b *Bot) restartReview(ctx context.Context, chatID, userID int64) {
	if err := b.deps.Game.Restart(userID); err != nil {
		b.send(chatID, "No game running. Start one with /play.", b.mainMenu())
		return
	}
	b.showNextCard(ctx, chatID, userID)
}

func (b *Bot) stopGame(ctx context.Context, chatID, userID int64) {
	summary, err := b.deps.Game.Stop(ctx, userID)
	if errors.Is(err, game.ErrNoSession) {
		b.send(chatID, "No game running.", b.mainMenu())
		return
	}
	if err != nil {
		b.log.Warn("failed to store session", "user_id", userID, "error", err)
	}

	text := "🏁 Game over."
	if summary.Answered > 0 {
		text = fmt.Sprintf("🏁 Game over: %d answers, %d correct, %d missed (%.0f%%).",
			summary.Answered, summary.Correct, summary.Incorrect,
			float64(summary.Correct)*100/float64(summary.Answered))
	}
	b.send(chatID, text, b.mainMenu())
}
