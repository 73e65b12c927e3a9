package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"codewars-tracker/internal/constants"
	"codewars-tracker/internal/domain"
	"codewars-tracker/internal/render"
	"codewars-tracker/internal/report"
)

const joinCallbackPrefix = "join_"

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}

	if len(msg.NewChatMembers) > 0 {
		b.handleNewChatMembers(ctx, msg)
		return
	}

	if !msg.IsCommand() {
		return
	}

	b.logger.Debug().
		Str("command", msg.Command()).
		Int64("chat_id", msg.Chat.ID).
		Int64("from", msg.From.ID).
		Msg("Handling command")

	switch msg.Command() {
	case "start":
		b.reply(msg, report.Welcome())
	case "help":
		b.reply(msg, report.Help())
	case "register":
		b.handleRegister(ctx, msg)
	case "creategroup":
		b.handleCreateGroup(ctx, msg)
	case "joingroup":
		b.handleJoinGroup(ctx, msg)
	case "mystats":
		b.handleMyStats(ctx, msg)
	case "groupstats":
		b.handleGroupStats(ctx, msg)
	case "daily":
		b.handleDaily(ctx, msg)
	case "weekly":
		b.handleWeekly(ctx, msg)
	}
}

// handleNewChatMembers creates a group for the chat the first time the bot
// itself is invited. Repeat invites post the welcome again but keep the
// existing group.
func (b *Bot) handleNewChatMembers(ctx context.Context, msg *tgbotapi.Message) {
	invited := false
	for _, member := range msg.NewChatMembers {
		if member.ID == b.api.Self.ID {
			invited = true
			break
		}
	}
	if !invited {
		return
	}

	// tgbotapi v5 has no forum topic support, so every chat is tracked as a
	// plain group.
	group, created, err := b.groups.AutoCreateOnInvite(ctx, msg.Chat.Title, msg.Chat.ID, false, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to auto-create group")
		return
	}
	if created {
		b.logger.Info().Str("group", group.Name).Int64("chat_id", msg.Chat.ID).Msg("Group auto-created on invite")
	}
	b.reply(msg, report.GroupCreated(group.Name))
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) {
	username := strings.TrimSpace(msg.CommandArguments())
	if username == "" {
		b.reply(msg, report.RegisterHelp())
		return
	}

	user, err := b.users.Register(ctx, msg.From.ID, username)
	if err != nil {
		b.reply(msg, userMessage(err))
		return
	}
	b.reply(msg, report.RegisterSuccess(user.Username))
}

func (b *Bot) handleCreateGroup(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		b.reply(msg, "Please provide a group name: /creategroup [name]")
		return
	}

	if err := b.groups.Create(ctx, name, msg.From.ID); err != nil {
		b.reply(msg, userMessage(err))
		return
	}
	b.reply(msg, fmt.Sprintf("✅ Group '%s' created! Others can join it with /joingroup", name))
}

// handleJoinGroup lists every group as an inline keyboard; picking one fires
// a join_<name> callback.
func (b *Bot) handleJoinGroup(ctx context.Context, msg *tgbotapi.Message) {
	groups, err := b.groups.ListAll(ctx)
	if err != nil {
		b.reply(msg, userMessage(err))
		return
	}
	if len(groups) == 0 {
		b.reply(msg, "No groups exist yet. Create one with /creategroup [name]")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Name, joinCallbackPrefix+g.Name),
		))
	}

	reply := newReply(msg, "Choose a group to join:")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send group list")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to answer callback query")
	}
	if cb.Message == nil || !strings.HasPrefix(cb.Data, joinCallbackPrefix) {
		return
	}

	name := strings.TrimPrefix(cb.Data, joinCallbackPrefix)

	err := b.groups.Join(ctx, name, cb.From.ID)
	switch {
	case errors.Is(err, domain.ErrAlreadyMember):
		b.reply(cb.Message, fmt.Sprintf("You are already a member of '%s'.", name))
	case err != nil:
		b.reply(cb.Message, userMessage(err))
	default:
		b.reply(cb.Message, fmt.Sprintf("✅ You joined '%s'! Use /groupstats to see the leaderboard.", name))
	}
}

func (b *Bot) handleMyStats(ctx context.Context, msg *tgbotapi.Message) {
	stats, err := b.users.MyStats(ctx, msg.From.ID)
	if err != nil {
		b.reply(msg, userMessage(err))
		return
	}

	b.reply(msg, report.PersonalStats(stats))

	if len(stats.History) < 2 {
		return
	}
	dates, series := report.ProgressSeries(stats.History, stats.Report.CumulativeKatas)
	png, err := render.Progress(fmt.Sprintf("%s - Codewars Progress", stats.Profile.Username), dates, series)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to render progress chart")
		return
	}
	b.replyPhoto(msg, "progress.png", png, "Your kata progress")
}

func (b *Bot) handleGroupStats(ctx context.Context, msg *tgbotapi.Message) {
	overviews, err := b.groups.GroupStats(ctx, msg.From.ID)
	if err != nil {
		b.reply(msg, userMessage(err))
		return
	}
	if len(overviews) == 0 {
		b.reply(msg, "You are not in any group yet. Use /joingroup to join one.")
		return
	}
	for _, o := range overviews {
		b.reply(msg, report.GroupOverview(o))

		labels, katas, honor := report.ComparisonSeries(o)
		png, err := render.Comparison(fmt.Sprintf("Group Comparison - %s", o.GroupName), labels, katas, honor)
		if err != nil {
			b.logger.Warn().Err(err).Str("group", o.GroupName).Msg("Failed to render comparison chart")
			continue
		}
		b.replyPhoto(msg, "comparison.png", png, fmt.Sprintf("Katas vs honor for %s", o.GroupName))
	}
}

func (b *Bot) handleDaily(ctx context.Context, msg *tgbotapi.Message) {
	reports, err := b.groups.DailyStats(ctx, msg.From.ID)
	if err != nil {
		b.reply(msg, userMessage(err))
		return
	}
	if len(reports) == 0 {
		b.reply(msg, "You are not in any group yet. Use /joingroup to join one.")
		return
	}
	for _, r := range reports {
		b.reply(msg, report.DailyGroup(r))

		labels, today, yesterday := report.DailyComparisonSeries(r)
		png, err := render.Comparison(fmt.Sprintf("Daily Kata Completions - %s", r.GroupName), labels, today, yesterday)
		if err != nil {
			b.logger.Warn().Err(err).Str("group", r.GroupName).Msg("Failed to render daily chart")
			continue
		}
		b.replyPhoto(msg, "daily.png", png, fmt.Sprintf("Today vs yesterday for %s", r.GroupName))
	}
}

func (b *Bot) handleWeekly(ctx context.Context, msg *tgbotapi.Message) {
	reports, err := b.groups.WeeklyStats(ctx, msg.From.ID)
	if err != nil {
		b.reply(msg, userMessage(err))
		return
	}
	if len(reports) == 0 {
		b.reply(msg, "You are not in any group yet. Use /joingroup to join one.")
		return
	}

	for _, r := range reports {
		b.reply(msg, report.WeeklyGroup(r))

		dates, series := report.WeeklySeries(r)
		if len(series) == 0 {
			continue
		}
		png, err := render.Progress(fmt.Sprintf("%s - Weekly Activity", r.GroupName), dates, series)
		if err != nil {
			b.logger.Warn().Err(err).Str("group", r.GroupName).Msg("Failed to render weekly chart")
			continue
		}
		b.replyPhoto(msg, "weekly.png", png, fmt.Sprintf("Weekly activity for %s", r.GroupName))
	}
}

// userMessage maps service errors to the reply a chat user sees. Unknown
// errors get a generic apology so internals never leak into chats.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "That doesn't look right. Check /help for command usage."
	case errors.Is(err, domain.ErrNotRegistered):
		return "You are not registered yet. Use /register [codewars_username] first."
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "❌ Could not reach Codewars or find that user. Check the username and try again."
	case errors.Is(err, domain.ErrGroupExists):
		return "❌ A group with that name already exists. Pick another name."
	case errors.Is(err, domain.ErrGroupNotFound):
		return "❌ That group does not exist. Use /joingroup to see available groups."
	case errors.Is(err, domain.ErrAlreadyMember):
		return "You are already a member of that group."
	default:
		return "Sorry, something went wrong. Please try again later."
	}
}
