package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wortbot/internal/achievements"
	"github.com/example/wortbot/internal/ai"
	"github.com/example/wortbot/internal/config"
	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/internal/excel"
	"github.com/example/wortbot/internal/game"
	"github.com/example/wortbot/internal/logger"
	"github.com/example/wortbot/internal/social"
	"github.com/example/wortbot/internal/stats"
	"github.com/example/wortbot/pkg/models"
)

// Callback actions
const (
	cbMenu        = "menu"
	cbPlay        = "play"
	cbFlip        = "flip"
	cbCorrect     = "ok"
	cbIncorrect   = "ko"
	cbStop        = "stop"
	cbAgain       = "again"
	cbAccept      = "accept"
	cbDecline     = "decline"
	cbFriendPlay  = "fplay"
	cbFriendCopy  = "fcopy"
	cbUnfriend    = "unfriend"
	cbHour        = "hour"
	cbNotifyOn    = "notify_on"
	cbNotifyOff   = "notify_off"
	cbStats       = "stats"
	cbAchieve     = "achievements"
	cbFriends     = "friends"
	cbSentence    = "sentence"
	cbSettings    = "settings"
	cbImportStart = "import"
)

// Conversation states
const (
	stateAwaitImport      = "waiting_for_import_file"
	stateAwaitTranslation = "waiting_for_translation"
	stateAwaitName        = "waiting_for_display_name"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// telegramAPI is the part of tgbotapi.BotAPI the bot uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	UpdateNotifications(ctx context.Context, id int64, enabled bool, hour int) error
}

type WordStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Word, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Word, error)
	FindByKey(ctx context.Context, userID int64, german string, wordType models.WordType) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
	Update(ctx context.Context, word *models.Word) error
	Delete(ctx context.Context, userID, id int64) error
}

type CategoryStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Category, error)
	GetByName(ctx context.Context, userID int64, name string) (*models.Category, error)
	GetOrCreate(ctx context.Context, userID int64, name string) (*models.Category, error)
}

type SentenceStore interface {
	Create(ctx context.Context, a *models.SentenceAttempt) error
}

type UnlockStore interface {
	ListUnlocked(ctx context.Context, userID int64) ([]string, error)
}

// AchievementChecker re-evaluates achievements after a state change
type AchievementChecker interface {
	CheckAndNotify(ctx context.Context, userID int64)
}

// Deps are the stores and services the bot talks to
type Deps struct {
	Users      UserStore
	Words      WordStore
	Categories CategoryStore
	Sentences  SentenceStore
	Unlocks    UnlockStore

	Game    *game.Service
	Social  *social.Service
	Stats   *stats.Service
	Tutor   *ai.Tutor
	Excel   *excel.Importer
	Checker AchievementChecker
}

// UserState represents the current state of a user in conversation with the bot
type UserState struct {
	State     string
	Timestamp time.Time
	Sentence  *ai.Sentence
}

// Bot represents the Telegram bot application
type Bot struct {
	api    telegramAPI
	cfg    *config.Config
	botCfg *BotConfig
	deps   Deps
	log    *logger.Logger
	http   *http.Client
	now    func() time.Time

	mu         sync.Mutex
	userStates map[int64]UserState
}

// New creates a new bot instance. Connect must be called before Run.
func New(cfg *config.Config, deps Deps, log *logger.Logger) *Bot {
	return &Bot{
		cfg:        cfg,
		botCfg:     DefaultConfig(),
		deps:       deps,
		log:        log,
		http:       &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		userStates: make(map[int64]UserState),
	}
}

// Connect authorizes against the Telegram API
func (b *Bot) Connect() error {
	if b.cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(b.cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.log.Info("authorized on telegram", "account", botAPI.Self.UserName)
	return nil
}

// Run handles updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	botAPI, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return errors.New("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.botCfg.UpdateTimeout
	updates := botAPI.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			botAPI.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminder implements scheduler.Notifier
func (b *Bot) SendReminder(ctx context.Context, userID int64) error {
	msg := tgbotapi.NewMessage(userID, "⏰ Time for a little German! Some of your words are still waiting to be mastered.")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "▶️ Play smart", CallbackData: callbackData(cbPlay, game.ModeSmart)}}})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.log.Debug("reminder sent", "user_id", userID)
	return nil
}

// NotifyAchievements implements achievements.Notifier
func (b *Bot) NotifyAchievements(ctx context.Context, userID int64, unlocked []achievements.Definition) {
	var sb strings.Builder
	sb.WriteString("🏆 Achievement unlocked!\n")
	for _, d := range unlocked {
		fmt.Fprintf(&sb, "\n%s %s: %s", d.Icon, d.Title, d.Description)
	}
	b.send(userID, sb.String(), nil)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if err := b.ensureUser(ctx, message.From); err != nil {
		b.log.Error("failed to register user", "user_id", message.From.ID, "error", err)
		b.send(message.Chat.ID, "❌ Something went wrong, please try again later.", nil)
		return
	}

	if message.IsCommand() {
		b.clearState(message.From.ID)
		b.handleCommand(ctx, message)
		return
	}

	state, ok := b.state(message.From.ID)
	switch {
	case ok && state.State == stateAwaitImport && message.Document != nil:
		b.clearState(message.From.ID)
		b.processImport(ctx, message)
	case ok && state.State == stateAwaitTranslation && message.Text != "":
		b.clearState(message.From.ID)
		b.evaluateTranslation(ctx, message, state.Sentence)
	case ok && state.State == stateAwaitName && message.Text != "":
		b.clearState(message.From.ID)
		b.setDisplayName(ctx, message.Chat.ID, message.From.ID, message.Text)
	default:
		b.send(message.Chat.ID, "I don't understand. Use /menu to show the main menu or /help for commands.", b.mainMenu())
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID, userID := message.Chat.ID, message.From.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "menu":
		b.showMainMenu(chatID)
	case "add":
		b.handleAdd(ctx, chatID, userID, args)
	case "words":
		b.handleWords(ctx, chatID, userID, args)
	case "edit":
		b.handleEdit(ctx, chatID, userID, args)
	case "delete":
		b.handleDelete(ctx, chatID, userID, args)
	case "play":
		b.handlePlay(ctx, chatID, userID, args)
	case "stop":
		b.stopGame(ctx, chatID, userID)
	case "stats":
		b.handleStats(ctx, chatID, userID)
	case "achievements":
		b.handleAchievements(ctx, chatID, userID)
	case "name":
		b.handleName(ctx, chatID, userID, args)
	case "friends":
		b.handleFriends(ctx, chatID, userID)
	case "addfriend":
		b.handleAddFriend(ctx, chatID, userID, args)
	case "requests":
		b.handleRequests(ctx, chatID, userID)
	case "friendplay":
		b.handleFriendPlay(ctx, chatID, userID, args)
	case "importfriend":
		b.handleImportFriend(ctx, chatID, userID, args)
	case "unfriend":
		b.handleUnfriend(ctx, chatID, userID, args)
	case "sentence":
		b.handleSentence(ctx, chatID, userID)
	case "settings":
		b.handleSettings(ctx, chatID, userID)
	case "notify":
		b.handleNotify(ctx, chatID, userID, args)
	case "import":
		b.handleImport(chatID, userID)
	case "export":
		b.handleExport(ctx, chatID, userID)
	case "admin_stats":
		b.handleAdminStats(ctx, chatID, userID)
	default:
		b.send(chatID, "Unknown command. Use /menu to show the main menu.", b.mainMenu())
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	// stop the loading spinner on the button
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug("failed to answer callback", "error", err)
	}
	if err := b.ensureUser(ctx, callback.From); err != nil {
		b.log.Error("failed to register user", "user_id", userID, "error", err)
		return
	}

	action, arg := splitCallback(callback.Data)
	switch action {
	case cbMenu:
		b.showMainMenu(chatID)
	case cbPlay:
		b.handlePlay(ctx, chatID, userID, arg)
	case cbFlip:
		b.flipCard(chatID, messageID, userID)
	case cbCorrect, cbIncorrect:
		b.answerCard(ctx, chatID, messageID, userID, int(parseID(arg)), action == cbCorrect)
	case cbStop:
		b.stopGame(ctx, chatID, userID)
	case cbAgain:
		b.restartReview(ctx, chatID, userID)
	case cbAccept:
		b.answerRequest(ctx, chatID, userID, arg, true)
	case cbDecline:
		b.answerRequest(ctx, chatID, userID, arg, false)
	case cbFriendPlay:
		b.startFriendPlay(ctx, chatID, userID, parseID(arg))
	case cbFriendCopy:
		b.copyFriendWords(ctx, chatID, userID, parseID(arg))
	case cbUnfriend:
		b.removeFriend(ctx, chatID, userID, parseID(arg))
	case cbHour:
		b.changeNotificationHour(ctx, chatID, userID, arg)
	case cbNotifyOn, cbNotifyOff:
		b.toggleNotifications(ctx, chatID, userID, action == cbNotifyOn)
	case cbStats:
		b.handleStats(ctx, chatID, userID)
	case cbAchieve:
		b.handleAchievements(ctx, chatID, userID)
	case cbFriends:
		b.handleFriends(ctx, chatID, userID)
	case cbSentence:
		b.handleSentence(ctx, chatID, userID)
	case cbSettings:
		b.handleSettings(ctx, chatID, userID)
	case cbImportStart:
		b.handleImport(chatID, userID)
	default:
		b.log.Warn("unknown callback", "data", callback.Data)
	}
}

// ensureUser stores first-time users with default reminder settings
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) error {
	_, err := b.deps.Users.GetByID(ctx, from.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	b.log.Info("new user", "user_id", from.ID, "username", from.UserName)
	return b.deps.Users.Upsert(ctx, &models.User{
		ID:                  from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.cfg.IsAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    b.botCfg.DefaultNotificationHour,
	})
}

func (b *Bot) setState(userID int64, st UserState) {
	st.Timestamp = b.now()
	b.mu.Lock()
	b.userStates[userID] = st
	b.mu.Unlock()
}

// state returns the pending conversation step, dropping it once expired
func (b *Bot) state(userID int64) (UserState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.userStates[userID]
	if ok && b.now().Sub(st.Timestamp) > b.botCfg.StateTTL {
		delete(b.userStates, userID)
		return UserState{}, false
	}
	return st, ok
}

func (b *Bot) clearState(userID int64) {
	b.mu.Lock()
	delete(b.userStates, userID)
	b.mu.Unlock()
}

func (b *Bot) send(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var cfg tgbotapi.EditMessageTextConfig
	if markup != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := b.api.Send(cfg); err != nil {
		b.log.Debug("failed to edit message", "chat_id", chatID, "error", err)
	}
}

// fail logs err and tells the user something went wrong
func (b *Bot) fail(chatID int64, what string, err error) {
	b.log.Error(what, "chat_id", chatID, "error", err)
	b.send(chatID, "❌ Error: "+what+". Please try again later.", b.mainMenu())
}

func (b *Bot) checkAchievements(ctx context.Context, userID int64) {
	if b.deps.Checker != nil {
		b.deps.Checker.CheckAndNotify(ctx, userID)
	}
}

func (b *Bot) handleStart(chatID int64) {
	welcomeText := `Willkommen! 🇩🇪 This bot helps you learn German vocabulary from Spanish.

Add your words with /add, then practise them with /play.
A word counts as mastered after 4 correct answers in a row, or after 5+ answers with less than 20% mistakes.

Use /help to see every command.`
	b.send(chatID, welcomeText, b.mainMenu())
}

func (b *Bot) handleHelp(chatID int64) {
	helpText := `Available commands:
/menu - Show main menu
/add - Add words, one per line: der Bahnhof = estación ; #Reisen
/words - List your words
/edit <id> <word line> - Replace a word, same format as /add
/delete <id> - Delete a word
/play [random|review|smart] [type=noun gender=f case=dativ difficulty=2 perf=new category=Reisen]
/stop - Finish the current game
/stats - Your statistics
/achievements - Your achievements
/name <name> - Set your public display name
/friends - Your friends
/addfriend <name> - Send a friend request
/requests - Pending friend requests
/friendplay <name> [mode] - Play a friend's latest words
/importfriend <name> - Copy a friend's words
/unfriend <name> - Remove a friend
/sentence - Translate an AI generated sentence
/settings - Reminder settings
/notify on|off|<hour> - Change reminders
/import - Upload an .xlsx or .csv word list
/export - Download your words as .xlsx`
	b.send(chatID, helpText, nil)
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) {
	b.send(chatID, "Main Menu - choose an option:", b.mainMenu())
}

func (b *Bot) mainMenu() tgbotapi.InlineKeyboardMarkup {
	return createKeyboard(MainMenuButtons())
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Smart", CallbackData: callbackData(cbPlay, game.ModeSmart)},
			{Text: "🎲 Random", CallbackData: callbackData(cbPlay, game.ModeRandom)},
			{Text: "🔁 Review", CallbackData: callbackData(cbPlay, game.ModeReview)},
		},
		{
			{Text: "📝 Sentence", CallbackData: cbSentence},
			{Text: "📊 Statistics", CallbackData: cbStats},
		},
		{
			{Text: "🏆 Achievements", CallbackData: cbAchieve},
			{Text: "👥 Friends", CallbackData: cbFriends},
		},
		{
			{Text: "📥 Import", CallbackData: cbImportStart},
			{Text: "⚙️ Settings", CallbackData: cbSettings},
		},
	}
}
