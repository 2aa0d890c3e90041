package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/PranavAsoori/gymgame/internal/models"
	"github.com/PranavAsoori/gymgame/internal/service"
	"github.com/PranavAsoori/gymgame/internal/setup"
)

const commandTimeout = 10 * time.Second

// BotHandler routes incoming Telegram updates to the game service and
// renders the replies.
type BotHandler struct {
	bot         *tgbotapi.BotAPI
	svc         *service.Service
	setup       *setup.Manager
	adminID     int64
	groupChatID int64
	logger      *zap.Logger
}

func NewBotHandler(bot *tgbotapi.BotAPI, svc *service.Service, setupMgr *setup.Manager, adminID, groupChatID int64, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		bot:         bot,
		svc:         svc,
		setup:       setupMgr,
		adminID:     adminID,
		groupChatID: groupChatID,
		logger:      logger,
	}
}

// DisplayName derives a human-readable label from the profile fields.
func DisplayName(u *tgbotapi.User) string {
	switch {
	case u == nil:
		return "Unknown User"
	case u.UserName != "":
		return u.UserName
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return "Unknown User"
}

func (h *BotHandler) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.handleStart(ctx, msg)
		case "cancel":
			h.handleCancel(msg)
		case "claim":
			h.handleClaim(ctx, msg)
		case "join":
			h.handleJoin(ctx, msg)
		case "leaderboard":
			h.handleLeaderboard(ctx, msg)
		case "bot":
			h.handleAdjustPoints(ctx, msg)
		case "setpoints":
			h.handleSetPoints(ctx, msg)
		case "endday":
			h.handleEndDay(ctx, msg)
		case "endgame":
			h.handleEndGame(ctx, msg)
		case "reset":
			h.handleReset(ctx, msg)
		case "listusers":
			h.handleListUsers(ctx, msg)
		case "help":
			h.reply(msg.Chat.ID, helpText)
		case "adminhelp":
			h.handleAdminHelp(msg)
		}
		return
	}

	if h.setup.Active(msg.Chat.ID) {
		h.handleSetupReply(ctx, msg)
	}
}

func (h *BotHandler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	_, err := h.svc.ActiveGame(ctx)
	if err == nil {
		h.reply(msg.Chat.ID, "A game has already been started. Please wait until the current game is ended.")
		return
	}
	if !errors.Is(err, models.ErrNoActiveGame) {
		h.transient(msg.Chat.ID, err)
		return
	}

	if err := h.setup.Begin(msg.Chat.ID, msg.From.ID, DisplayName(msg.From)); err != nil {
		h.reply(msg.Chat.ID, "Only the user who started the game can proceed with the setup.")
		return
	}
	h.replyKeyboard(msg.Chat.ID,
		"Welcome to Gym Game Bot!\nChoose a game mode:\n 1. Individual\n 2. Team",
		[]string{string(models.ModeIndividual), string(models.ModeTeam)})
}

func (h *BotHandler) handleCancel(msg *tgbotapi.Message) {
	initiator, ok := h.setup.Initiator(msg.Chat.ID)
	if !ok {
		h.reply(msg.Chat.ID, "No game setup in progress.")
		return
	}
	if msg.From.ID != initiator {
		h.reply(msg.Chat.ID, "Only the user who started the game can proceed with the setup.")
		return
	}
	h.setup.Abandon(msg.Chat.ID)
	h.reply(msg.Chat.ID, "Game setup cancelled.")
}

func (h *BotHandler) handleSetupReply(ctx context.Context, msg *tgbotapi.Message) {
	step, err := h.setup.Advance(msg.Chat.ID, msg.From.ID, msg.Text, time.Now())
	switch {
	case errors.Is(err, setup.ErrNoSession):
		return
	case errors.Is(err, models.ErrNotInitiator):
		h.reply(msg.Chat.ID, "Only the user who started the game can proceed with the setup.")
		return
	case errors.Is(err, setup.ErrInvalidChoice):
		h.reply(msg.Chat.ID, "Please pick one of the offered options.")
		return
	case err != nil:
		h.transient(msg.Chat.ID, err)
		return
	}

	if step.AssignedTeam != "" {
		h.reply(msg.Chat.ID, fmt.Sprintf("You have been assigned to Team %s, %s.", step.AssignedTeam, DisplayName(msg.From)))
	}

	if step.Game == nil {
		switch step.Next {
		case setup.SetDuration:
			h.replyKeyboard(msg.Chat.ID,
				"How long should the game last? (1 week, 2 weeks, 1 month)",
				[]string{string(models.DurationOneWeek), string(models.DurationTwoWeeks), string(models.DurationOneMonth)})
		case setup.ConfirmPenalties:
			h.replyKeyboard(msg.Chat.ID, "Enable penalty mode? (Yes/No)", []string{"Yes", "No"})
		}
		return
	}

	if err := h.svc.CreateGame(ctx, step.Game); err != nil {
		if errors.Is(err, models.ErrGameAlreadyActive) {
			h.reply(msg.Chat.ID, "A game has already been started. Please wait until the current game is ended.")
			return
		}
		h.transient(msg.Chat.ID, err)
		return
	}

	if step.Game.Mode == models.ModeTeam {
		h.reply(msg.Chat.ID, fmt.Sprintf(
			"Game started in Team mode!\nTeam A: %s\nTeam B: %s\nAnyone who wants to join can type /join to be assigned a team.",
			rosterText(step.Game.TeamA), rosterText(step.Game.TeamB)))
	} else {
		h.reply(msg.Chat.ID, "Game started in Individual mode! Use /claim to log workouts.")
	}
}

func (h *BotHandler) handleClaim(ctx context.Context, msg *tgbotapi.Message) {
	u, err := h.svc.Claim(ctx, msg.From.ID, DisplayName(msg.From), time.Now())
	switch {
	case errors.Is(err, models.ErrAlreadyClaimedToday):
		h.reply(msg.Chat.ID, "You already claimed points today!")
	case err != nil:
		h.transient(msg.Chat.ID, err)
	default:
		h.reply(msg.Chat.ID, fmt.Sprintf(
			"✅ %s claimed 1 point. Current streak: %d days. Total points: %d.",
			u.DisplayName, u.Streak, u.Points))
	}
}

func (h *BotHandler) handleJoin(ctx context.Context, msg *tgbotapi.Message) {
	name := DisplayName(msg.From)
	team, err := h.svc.Join(ctx, msg.From.ID, name)
	switch {
	case errors.Is(err, models.ErrAlreadyJoined):
		h.reply(msg.Chat.ID, "You're already in the game!")
	case errors.Is(err, models.ErrNoActiveGame):
		h.reply(msg.Chat.ID, "No active game found. Use /start to start a new game.")
	case err != nil:
		h.transient(msg.Chat.ID, err)
	case team != "":
		h.reply(msg.Chat.ID, fmt.Sprintf("Welcome, %s! You've been assigned to Team %s.", name, team))
	default:
		h.reply(msg.Chat.ID, fmt.Sprintf("Welcome, %s! You've been added to the game.", name))
	}
}

func (h *BotHandler) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	res, err := h.svc.Leaderboard(ctx)
	switch {
	case errors.Is(err, models.ErrNoGame):
		h.reply(msg.Chat.ID, "No game found.")
	case err != nil:
		h.transient(msg.Chat.ID, err)
	default:
		h.reply(msg.Chat.ID, FormatLeaderboard(res))
	}
}

func (h *BotHandler) handleAdjustPoints(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	name, delta, err := ParseAdjustArgs(msg.CommandArguments())
	if err != nil {
		h.reply(msg.Chat.ID, "❌ Invalid command. Use `/bot add @Name points` or `/bot remove @Name points`.")
		return
	}
	u, err := h.svc.AdjustPoints(ctx, name, delta)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		h.reply(msg.Chat.ID, "❌ User not found.")
	case err != nil:
		h.transient(msg.Chat.ID, err)
	case delta >= 0:
		h.reply(msg.Chat.ID, fmt.Sprintf("✅ Added %d points to %s.", delta, u.DisplayName))
	default:
		h.reply(msg.Chat.ID, fmt.Sprintf("✅ Removed %d points from %s.", -delta, u.DisplayName))
	}
}

func (h *BotHandler) handleSetPoints(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	name, value, err := ParseSetPointsArgs(msg.CommandArguments())
	if err != nil {
		h.reply(msg.Chat.ID, "❌ Invalid command. Use `/setpoints @Name points`.")
		return
	}
	u, err := h.svc.SetPoints(ctx, name, value)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		h.reply(msg.Chat.ID, "❌ User not found.")
	case err != nil:
		h.transient(msg.Chat.ID, err)
	default:
		h.reply(msg.Chat.ID, fmt.Sprintf("✅ Set %d points for %s.", value, u.DisplayName))
	}
}

func (h *BotHandler) handleEndDay(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	res, err := h.svc.EndDay(ctx)
	switch {
	case errors.Is(err, models.ErrNoActiveGame):
		h.reply(msg.Chat.ID, "No active game found.")
		return
	case err != nil:
		h.transient(msg.Chat.ID, err)
		return
	}

	if res.Ended {
		h.reply(msg.Chat.ID, FormatLeaderboard(res.Final))
		h.reply(msg.Chat.ID, "Game Ended.")
		return
	}

	h.reply(msg.Chat.ID, fmt.Sprintf("Day %d ended. Starting Day %d.", res.PrevDay, res.Day))
	h.broadcastDailySummary(ctx)
}

func (h *BotHandler) handleEndGame(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	final, err := h.svc.EndGame(ctx)
	switch {
	case errors.Is(err, models.ErrNoActiveGame):
		h.reply(msg.Chat.ID, "No active game to end.")
	case err != nil:
		h.transient(msg.Chat.ID, err)
	default:
		h.reply(msg.Chat.ID, FormatLeaderboard(final))
		h.reply(msg.Chat.ID, "Game Ended.")
	}
}

func (h *BotHandler) handleReset(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	if err := h.svc.Reset(ctx); err != nil {
		h.transient(msg.Chat.ID, err)
		return
	}
	h.reply(msg.Chat.ID, "All user points and streaks have been reset.")
}

func (h *BotHandler) handleListUsers(ctx context.Context, msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	users, err := h.svc.ListUsers(ctx)
	if err != nil {
		h.transient(msg.Chat.ID, err)
		return
	}
	h.reply(msg.Chat.ID, FormatUserList(users))
}

func (h *BotHandler) handleAdminHelp(msg *tgbotapi.Message) {
	if !h.requireAdmin(msg) {
		return
	}
	h.reply(msg.Chat.ID, adminHelpText)
}

// AnnounceEndDay publishes the outcome of a scheduled day advance to the
// group chat.
func (h *BotHandler) AnnounceEndDay(res *service.EndDayResult) {
	if res.Ended {
		h.send(h.groupChatID, FormatLeaderboard(res.Final))
		h.send(h.groupChatID, "The game has ended due to duration.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	h.send(h.groupChatID, fmt.Sprintf("Day %d ended. Starting Day %d.", res.PrevDay, res.Day))
	h.broadcastDailySummary(ctx)
}

func (h *BotHandler) broadcastDailySummary(ctx context.Context) {
	users, err := h.svc.TopUsers(ctx)
	if err != nil {
		h.logger.Error("daily summary failed", zap.Error(err))
		return
	}
	h.send(h.groupChatID, FormatDailySummary(users))
}

func (h *BotHandler) requireAdmin(msg *tgbotapi.Message) bool {
	if msg.From.ID != h.adminID {
		h.reply(msg.Chat.ID, "❌ You are not authorized to use this command.")
		return false
	}
	return true
}

func (h *BotHandler) transient(chatID int64, err error) {
	h.logger.Error("command failed", zap.Error(err))
	h.reply(chatID, "Something went wrong, please try again.")
}

func (h *BotHandler) reply(chatID int64, text string) {
	h.send(chatID, text)
}

func (h *BotHandler) send(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error("send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (h *BotHandler) replyKeyboard(chatID int64, text string, options []string) {
	var row []tgbotapi.KeyboardButton
	for _, o := range options {
		row = append(row, tgbotapi.NewKeyboardButton(o))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(row)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// ParseAdjustArgs parses "/bot add|remove @Name points" arguments into a
// display name and a signed delta.
func ParseAdjustArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return "", 0, models.ErrInvalidArguments
	}
	value, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, models.ErrInvalidArguments
	}
	name := strings.TrimPrefix(fields[1], "@")
	switch fields[0] {
	case "add":
		return name, value, nil
	case "remove":
		return name, -value, nil
	}
	return "", 0, models.ErrInvalidArguments
}

// ParseSetPointsArgs parses "/setpoints @Name points" arguments.
func ParseSetPointsArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, models.ErrInvalidArguments
	}
	value, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, models.ErrInvalidArguments
	}
	return strings.TrimPrefix(fields[0], "@"), value, nil
}

const helpText = `Start with /start -> choose game mode -> choose length of game
Available commands:

User Commands:
/start - Start a new game and choose a game mode (Individual or Team).
/cancel - Cancel an in-progress game setup (initiator only).
/claim - Claim points for your workouts. You can only claim once per day.
/join - Join a game.
/leaderboard - Display the current leaderboard based on the active game mode.
For admin commands, use /adminhelp (admin only).`

const adminHelpText = `Admin commands:

/bot add @username points - Add a specified number of points to the user.
/bot remove @username points - Remove a specified number of points from the user.
/endgame - End the current game and send a final leaderboard summary.
/reset - Reset all user points and streaks to zero.
/listusers - List all users in the database along with their points and streaks.
/setpoints @username points - Set the exact number of points for a user.
/endday - End the current day, increment the day counter, and send a daily leaderboard summary.
/adminhelp - Display this admin-only help message.`
