package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wortbot/internal/achievements"
	"github.com/example/wortbot/internal/database"
	"github.com/example/wortbot/pkg/models"
)

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// handleAdd stores every "German = Spanish" line of the message
func (b *Bot) handleAdd(ctx context.Context, chatID, userID int64, args string) {
	if args == "" {
		b.send(chatID, `Send your words after /add, one per line:

/add der Bahnhof = estación ; #Reisen
kommen = venir ; verb ; an:llegar|mit:acompañar
mit = con ; prep ; dativ
schnell = rápido ; adj ; d2

Options after ";": a type (noun, verb, adj, prep, other), #category, d1-d5 difficulty, prefix:meaning pairs for verbs, the case for prepositions.`, nil)
		return
	}

	var added, skipped int
	var problems []string
	for _, line := range strings.Split(args, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nw, err := ParseWordLine(line)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		nw.Word.UserID = userID

		if _, err := b.deps.Words.FindByKey(ctx, userID, nw.Word.German, nw.Word.Type); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			b.fail(chatID, "could not check existing words", err)
			return
		}

		if nw.Category != "" {
			c, err := b.deps.Categories.GetOrCreate(ctx, userID, nw.Category)
			if err != nil {
				b.fail(chatID, "could not create category", err)
				return
			}
			nw.Word.CategoryID = c.ID
		}
		if err := b.deps.Words.Create(ctx, &nw.Word); err != nil {
			b.fail(chatID, "could not save word", err)
			return
		}
		added++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Words processed:\n- Added: %d\n- Already known: %d\n", added, skipped)
	if len(problems) > 0 {
		fmt.Fprintf(&sb, "\n❌ Errors (%d):\n", len(problems))
		for _, p := range problems {
			sb.WriteString("- " + p + "\n")
		}
	}
	b.send(chatID, sb.String(), b.mainMenu())
	if added > 0 {
		b.checkAchievements(ctx, userID)
	}
}

func (b *Bot) handleWords(ctx context.Context, chatID, userID int64, args string) {
	words, err := b.deps.Words.ListByUser(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load words", err)
		return
	}
	if len(words) == 0 {
		b.send(chatID, "You have no words yet. Add some with /add.", nil)
		return
	}

	size := b.botCfg.WordsPageSize
	pages := (len(words) + size - 1) / size
	page := int(parseID(args))
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(words) {
		end = len(words)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 Your words (%d), page %d/%d:\n\n", len(words), page, pages)
	for _, w := range words[start:end] {
		pw := models.Expand(w)[0]
		fmt.Fprintf(&sb, "%d. %s = %s (%s)", w.ID, pw.DisplayGerman(), w.Spanish, w.Type)
		if len(w.Prefixes) > 0 {
			sb.WriteString(" +" + strconv.Itoa(len(w.Prefixes)) + " prefixes")
		}
		if w.IsImported() {
			sb.WriteString(" from " + w.ImportedFrom)
		}
		sb.WriteString("\n")
	}
	if page < pages {
		fmt.Fprintf(&sb, "\nNext page: /words %d", page+1)
	}
	b.send(chatID, sb.String(), nil)
}

// handleEdit replaces a word with a line in the /add format.
// The id stays, so the word keeps its progress.
func (b *Bot) handleEdit(ctx context.Context, chatID, userID int64, args string) {
	idArg, line, _ := strings.Cut(args, " ")
	id := parseID(idArg)
	if id == 0 || strings.TrimSpace(line) == "" {
		b.send(chatID, "Usage: /edit <id> der Bahnhof = estación ; #Reisen\nThe ids are shown by /words.", nil)
		return
	}

	existing, err := b.deps.Words.GetByID(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.send(chatID, "No word with that id.", nil)
		return
	}
	if err != nil {
		b.fail(chatID, "could not load the word", err)
		return
	}
	nw, err := ParseWordLine(line)
	if err != nil {
		b.send(chatID, "❌ "+err.Error(), nil)
		return
	}

	other, err := b.deps.Words.FindByKey(ctx, userID, nw.Word.German, nw.Word.Type)
	switch {
	case err == nil && other.ID != id:
		b.send(chatID, fmt.Sprintf("You already have this word as %d.", other.ID), nil)
		return
	case err != nil && !errors.Is(err, database.ErrNotFound):
		b.fail(chatID, "could not check existing words", err)
		return
	}

	w := nw.Word
	w.ID = existing.ID
	w.UserID = userID
	w.ImportedFrom = existing.ImportedFrom
	w.CategoryID = existing.CategoryID
	if nw.Category != "" {
		c, err := b.deps.Categories.GetOrCreate(ctx, userID, nw.Category)
		if err != nil {
			b.fail(chatID, "could not create category", err)
			return
		}
		w.CategoryID = c.ID
	}
	if err := b.deps.Words.Update(ctx, &w); err != nil {
		b.fail(chatID, "could not save word", err)
		return
	}

	pw := models.Expand(w)[0]
	b.send(chatID, fmt.Sprintf("✏️ Word %d updated: %s = %s (%s)", w.ID, pw.DisplayGerman(), w.Spanish, w.Type), nil)
}

func (b *Bot) handleDelete(ctx context.Context, chatID, userID int64, args string) {
	id := parseID(args)
	if id == 0 {
		b.send(chatID, "Usage: /delete <id>. The ids are shown by /words.", nil)
		return
	}
	err := b.deps.Words.Delete(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		b.send(chatID, "No word with that id.", nil)
		return
	}
	if err != nil {
		b.fail(chatID, "could not delete word", err)
		return
	}
	b.send(chatID, "🗑 Word deleted.", nil)
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	sum, err := b.deps.Stats.Summary(ctx, userID, b.botCfg.StatsDays)
	if err != nil {
		b.fail(chatID, "could not load statistics", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Your statistics\n\n")
	fmt.Fprintf(&sb, "Words: %d (%d with prefix variants)\n", sum.BaseWords, sum.TotalWords)
	fmt.Fprintf(&sb, "Mastered: %d %s\n", sum.Mastered, progressBar(sum.Mastered, sum.BaseWords))
	fmt.Fprintf(&sb, "Mastered today: %d\n\n", sum.MasteredToday)
	sb.WriteString("By type:\n")
	for _, t := range models.WordTypes {
		fmt.Fprintf(&sb, "- %s: %d\n", t, sum.MasteredByType[t])
	}
	fmt.Fprintf(&sb, "\nLast %d days (mastered / answers):\n", len(sum.Daily))
	for _, d := range sum.Daily {
		fmt.Fprintf(&sb, "%s  %d / %d\n", d.Day[5:], d.Mastered, d.Played)
	}
	b.send(chatID, sb.String(), b.mainMenu())
}

func (b *Bot) handleAchievements(ctx context.Context, chatID, userID int64) {
	ids, err := b.deps.Unlocks.ListUnlocked(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load achievements", err)
		return
	}
	unlocked := make(map[string]bool, len(ids))
	for _, id := range ids {
		unlocked[id] = true
	}

	var sb strings.Builder
	count := 0
	for _, d := range achievements.Catalog {
		if unlocked[d.ID] {
			count++
		}
	}
	fmt.Fprintf(&sb, "🏆 Achievements: %d/%d\n", count, len(achievements.Catalog))
	for _, cat := range achievements.Categories {
		defs := achievements.InCategory(cat.ID)
		var got []string
		for _, d := range defs {
			if unlocked[d.ID] {
				got = append(got, d.Icon+" "+d.Title)
			}
		}
		fmt.Fprintf(&sb, "\n%s %s (%d/%d)\n", cat.Icon, cat.Name, len(got), len(defs))
		for _, g := range got {
			sb.WriteString("  " + g + "\n")
		}
	}
	b.send(chatID, sb.String(), b.mainMenu())
}

func (b *Bot) handleSettings(ctx context.Context, chatID, userID int64) {
	user, err := b.deps.Users.GetByID(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load settings", err)
		return
	}

	status := "off"
	toggle := MenuButton{Text: "🔔 Turn on", CallbackData: cbNotifyOn}
	if user.NotificationEnabled {
		status = fmt.Sprintf("on, at %02d:00 UTC", user.NotificationHour)
		toggle = MenuButton{Text: "🔕 Turn off", CallbackData: cbNotifyOff}
	}
	name := user.DisplayName
	if name == "" {
		name = "not set (use /name)"
	}

	var rows [][]MenuButton
	var row []MenuButton
	for h := b.cfg.NotificationStartHour; h <= b.cfg.NotificationEndHour; h++ {
		row = append(row, MenuButton{Text: fmt.Sprintf("%02d", h), CallbackData: callbackData(cbHour, h)})
		if len(row) == 6 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []MenuButton{toggle, {Text: "🏠 Menu", CallbackData: cbMenu}})

	text := fmt.Sprintf("⚙️ Settings\n\nDisplay name: %s\nReminders: %s\n\nPick the hour for your daily reminder:", name, status)
	b.send(chatID, text, createKeyboard(rows))
}

func (b *Bot) handleNotify(ctx context.Context, chatID, userID int64, args string) {
	switch strings.ToLower(args) {
	case "on":
		b.toggleNotifications(ctx, chatID, userID, true)
	case "off":
		b.toggleNotifications(ctx, chatID, userID, false)
	case "":
		b.handleSettings(ctx, chatID, userID)
	default:
		b.changeNotificationHour(ctx, chatID, userID, args)
	}
}

func (b *Bot) changeNotificationHour(ctx context.Context, chatID, userID int64, arg string) {
	hour, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || hour < b.cfg.NotificationStartHour || hour > b.cfg.NotificationEndHour {
		b.send(chatID, fmt.Sprintf("Please choose an hour between %d and %d.",
			b.cfg.NotificationStartHour, b.cfg.NotificationEndHour), nil)
		return
	}
	if err := b.deps.Users.UpdateNotifications(ctx, userID, true, hour); err != nil {
		b.fail(chatID, "could not save settings", err)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ You will be reminded at %02d:00 UTC.", hour), b.mainMenu())
}

func (b *Bot) toggleNotifications(ctx context.Context, chatID, userID int64, enabled bool) {
	user, err := b.deps.Users.GetByID(ctx, userID)
	if err != nil {
		b.fail(chatID, "could not load settings", err)
		return
	}
	if err := b.deps.Users.UpdateNotifications(ctx, userID, enabled, user.NotificationHour); err != nil {
		b.fail(chatID, "could not save settings", err)
		return
	}
	if enabled {
		b.send(chatID, "🔔 Reminders are on.", b.mainMenu())
	} else {
		b.send(chatID, "🔕 Reminders are off.", b.mainMenu())
	}
}

func (b *Bot) handleImport(chatID, userID int64) {
	b.setState(userID, UserState{State: stateAwaitImport})
	b.send(chatID, `📥 Send me an .xlsx or .csv file with one word per row:
A German, B Spanish, C type, D gender, E difficulty, F category, G case, H regular, I past tense, J participle, K prefixes (an:llegar|auf:abrir).
The first row is treated as a header. /export produces the same layout.`, nil)
}

func (b *Bot) processImport(ctx context.Context, message *tgbotapi.Message) {
	chatID, userID := message.Chat.ID, message.From.ID
	doc := message.Document
	name := strings.ToLower(doc.FileName)
	if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".csv") {
		b.send(chatID, "Please send an .xlsx or .csv file.", nil)
		return
	}
	if doc.FileSize > b.botCfg.MaxImportBytes {
		b.send(chatID, "The file is too large.", nil)
		return
	}

	data, err := b.download(ctx, doc.FileID)
	if err != nil {
		b.fail(chatID, "could not download the file", err)
		return
	}
	res, err := b.deps.Excel.Import(ctx, userID, doc.FileName, bytes.NewReader(data))
	if err != nil {
		b.fail(chatID, "could not read the file", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Import finished:\n- Rows: %d\n- Added: %d\n- Updated: %d\n- New categories: %d\n",
		res.TotalProcessed, res.Created, res.Updated, res.CategoriesCreated)
	if len(res.Errors) > 0 {
		fmt.Fprintf(&sb, "\n❌ Errors (%d):\n", len(res.Errors))
		for i, e := range res.Errors {
			if i == 10 {
				fmt.Fprintf(&sb, "... and %d more\n", len(res.Errors)-10)
				break
			}
			sb.WriteString("- " + e + "\n")
		}
	}
	b.send(chatID, sb.String(), b.mainMenu())
	if res.Created > 0 {
		b.checkAchievements(ctx, userID)
	}
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, int64(b.botCfg.MaxImportBytes)+1))
}

func (b *Bot) handleExport(ctx context.Context, chatID, userID int64) {
	var buf bytes.Buffer
	n, err := b.deps.Excel.Export(ctx, userID, &buf)
	if err != nil {
		b.fail(chatID, "could not export words", err)
		return
	}
	if n == 0 {
		b.send(chatID, "You have no words to export yet.", nil)
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "wortbot-words.xlsx", Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("📤 %d words", n)
	if _, err := b.api.Send(doc); err != nil {
		b.log.Warn("failed to send export", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleAdminStats(ctx context.Context, chatID, userID int64) {
	if !b.cfg.IsAdmin(userID) {
		b.send(chatID, "This command is only available for administrators.", b.mainMenu())
		return
	}
	users, err := b.deps.Users.GetAll(ctx)
	if err != nil {
		b.fail(chatID, "could not load users", err)
		return
	}
	enabled := 0
	hours := map[int]int{}
	for _, u := range users {
		if u.NotificationEnabled {
			enabled++
			hours[u.NotificationHour]++
		}
	}
	var keys []int
	for h := range hours {
		keys = append(keys, h)
	}
	sort.Ints(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "👮 Users: %d\nReminders on: %d\n", len(users), enabled)
	for _, h := range keys {
		fmt.Fprintf(&sb, "%02d:00 - %d\n", h, hours[h])
	}
	b.send(chatID, sb.String(), nil)
}
