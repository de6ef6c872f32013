package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/wortbot/internal/game"
	"github.com/example/wortbot/internal/social"
	"github.com/example/wortbot/pkg/models"
)

var userFacing = []error{
	social.ErrNotFriends, social.ErrForbidden, social.ErrRequestNotFound, social.ErrUserNotFound,
	social.ErrSelfRequest, social.ErrAlreadyFriends, social.ErrRequestExists, social.ErrNameTaken,
	social.ErrInvalidName, social.ErrNoDisplayName,
}

// socialError shows domain errors as they are and logs everything else
func (b *Bot) socialError(chatID int64, what string, err error) {
	for _, known := range userFacing {
		if errors.Is(err, known) {
			b.send(chatID, "⚠️ "+known.Error()+".", nil)
			return
		}
	}
	b.fail(chatID, what, err)
}

func (b *Bot) handleName(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		b.setState(userID, UserState{State: stateAwaitName})
		b.send(chatID, "Send me the display name your friends will find you by (3-24 letters, digits, _ or -).", nil)
		return
	}
	b.setDisplayName(ctx, chatID, userID, args)
}

func (b *Bot) setDisplayName(ctx context.Context, chatID, userID int64, name string) {
	if err := b.deps.Social.SetDisplayName(ctx, userID, name); err != nil {
		b.socialError(chatID, "could not save the display name", err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ Your display name is now %s.", strings.TrimSpace(name)), nil)
}

// friendByName finds one of the user's friends by display name
func (b *Bot) friendByName(ctx context.Context, chatID, userID int64, name string) (models.Friend, bool) {
	friends, err := b.deps.Social.Friends(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load friends", err)
		return models.Friend{}, false
	}
	for _, f := range friends {
		if strings.EqualFold(f.DisplayName, strings.TrimSpace(name)) {
			return f, true
		}
	}
	b.send(chatID, fmt.Sprintf("%q is not in your friends list. See /friends.", name), nil)
	return models.Friend{}, false
}

func (b *Bot) handleFriends(ctx context.Context, chatID, userID int64) {
	friends, err := b.deps.Social.Friends(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load friends", err)
		return
	}
	if len(friends) == 0 {
		b.send(chatID, "You have no friends here yet. Set a name with /name and invite someone with /addfriend <name>.", nil)
		return
	}

	var rows [][]MenuButton
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Friends (%d):\n", len(friends))
	for _, f := range friends {
		fmt.Fprintf(&sb, "- %s, since %s\n", f.DisplayName, models.DayOf(f.Since))
		rows = append(rows, []MenuButton{
			{Text: "🎮 " + f.DisplayName, CallbackData: callbackData(cbFriendPlay, f.FriendID)},
			{Text: "📥 Copy words", CallbackData: callbackData(cbFriendCopy, f.FriendID)},
			{Text: "✖️", CallbackData: callbackData(cbUnfriend, f.FriendID)},
		})
	}
	b.send(chatID, sb.String(), createKeyboard(rows))
}

func (b *Bot) handleAddFriend(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		b.send(chatID, "Usage: /addfriend <display name>", nil)
		return
	}
	req, err := b.deps.Social.SendRequest(ctx, userID, args)
	if errors.Is(err, social.ErrUserNotFound) {
		b.suggestUsers(ctx, chatID, userID, args)
		return
	}
	if err != nil {
		b.socialError(chatID, "could not send the request", err)
		return
	}

	b.send(chatID, fmt.Sprintf("📨 Friend request sent to %s.", req.ToDisplayName), nil)
	b.send(req.ToID, fmt.Sprintf("📨 %s wants to be your friend.", req.FromDisplayName), createKeyboard([][]MenuButton{{
		{Text: "✅ Accept", CallbackData: callbackData(cbAccept, req.ID)},
		{Text: "❌ Decline", CallbackData: callbackData(cbDecline, req.ID)},
	}}))
}

func (b *Bot) suggestUsers(ctx context.Context, chatID, userID int64, prefix string) {
	users, err := b.deps.Social.Search(ctx, userID, prefix)
	if err != nil {
		b.fail(chatID, "could not search users", err)
		return
	}
	if len(users) == 0 {
		b.send(chatID, "⚠️ Nobody is called like that.", nil)
		return
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.DisplayName)
	}
	b.send(chatID, "⚠️ No exact match. Did you mean: "+strings.Join(names, ", ")+"?", nil)
}

func (b *Bot) handleRequests(ctx context.Context, chatID, userID int64) {
	reqs, err := b.deps.Social.Pending(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load friend requests", err)
		return
	}
	if len(reqs) == 0 {
		b.send(chatID, "No pending friend requests.", nil)
		return
	}
	for _, req := range reqs {
		b.send(chatID, fmt.Sprintf("📨 %s wants to be your friend.", req.FromDisplayName), createKeyboard([][]MenuButton{{
			{Text: "✅ Accept", CallbackData: callbackData(cbAccept, req.ID)},
			{Text: "❌ Decline", CallbackData: callbackData(cbDecline, req.ID)},
		}}))
	}
}

func (b *Bot) answerRequest(ctx context.Context, chatID, userID int64, requestID string, accept bool) {
	if !accept {
		if _, err := b.deps.Social.Decline(ctx, userID, requestID); err != nil {
			b.socialError(chatID, "could not decline the request", err)
			return
		}
		b.send(chatID, "Request declined.", nil)
		return
	}

	req, err := b.deps.Social.Accept(ctx, userID, requestID)
	if err != nil {
		b.socialError(chatID, "could not accept the request", err)
		return
	}
	b.send(chatID, fmt.Sprintf("🤝 You and %s are now friends.", req.FromDisplayName), nil)
	b.send(req.FromID, fmt.Sprintf("🤝 %s accepted your friend request.", req.ToDisplayName), nil)
	b.checkAchievements(ctx, req.FromID)
	b.checkAchievements(ctx, req.ToID)
}

func (b *Bot) handleFriendPlay(ctx context.Context, chatID, userID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.send(chatID, "Usage: /friendplay <name> [random|review|smart]", nil)
		return
	}
	f, ok := b.friendByName(ctx, chatID, userID, fields[0])
	if !ok {
		return
	}
	mode := game.ModeRandom
	if len(fields) > 1 {
		mode = game.ParseMode(fields[1])
	}
	b.startFriendPlayMode(ctx, chatID, userID, f.FriendID, mode)
}

func (b *Bot) handleImportFriend(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		b.send(chatID, "Usage: /importfriend <name>", nil)
		return
	}
	f, ok := b.friendByName(ctx, chatID, userID, args)
	if !ok {
		return
	}
	b.copyFriendWords(ctx, chatID, userID, f.FriendID)
}

func (b *Bot) copyFriendWords(ctx context.Context, chatID, userID, friendID int64) {
	res, err := b.deps.Social.ImportWords(ctx, userID, friendID)
	if err != nil {
		b.socialError(chatID, "could not copy the words", err)
		return
	}
	b.send(chatID, fmt.Sprintf("📥 Copied %d words, %d you already had.", res.Imported, res.Skipped), b.mainMenu())
	if res.Imported > 0 {
		b.checkAchievements(ctx, userID)
	}
}

func (b *Bot) handleUnfriend(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		b.send(chatID, "Usage: /unfriend <name>", nil)
		return
	}
	f, ok := b.friendByName(ctx, chatID, userID, args)
	if !ok {
		return
	}
	b.removeFriend(ctx, chatID, userID, f.FriendID)
}

func (b *Bot) removeFriend(ctx context.Context, chatID, userID, friendID int64) {
	if err := b.deps.Social.RemoveFriend(ctx, userID, friendID); err != nil {
		b.socialError(chatID, "could not remove the friend", err)
		return
	}
	b.send(chatID, "Friend removed.", nil)
}
