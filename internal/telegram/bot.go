package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
	"meal-rotation/internal/history"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/report"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultHistoryWeeks = 4
	maxHistoryWeeks     = 52
	statusRuns          = 5
	requestTimeout      = 30 * time.Second
)

const helpText = "🍽 *Meal Rotation*\n\n" +
	"/plan - pick meals for this week\n" +
	"/plan next - pick meals for next week\n" +
	"/history [weeks] - show recent picks\n" +
	"/clear - forget every recorded pick\n" +
	"/status - recent runs and health"

// Service is the part of the application the bot drives.
type Service interface {
	CurrentWeek() history.WeekIndex
	HasWeek(ctx context.Context, week history.WeekIndex) (bool, error)
	PlanWeek(ctx context.Context, week history.WeekIndex, dryRun bool) (*planner.WeekPlan, error)
	ReplanWeek(ctx context.Context, week history.WeekIndex) (*planner.WeekPlan, error)
	History(ctx context.Context) (history.Record, error)
	ClearHistory(ctx context.Context) error
	Status(ctx context.Context, limit int) (*app.Status, error)
}

// botAPI is satisfied by *tgbotapi.BotAPI.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Bot answers rotation commands sent over a Telegram webhook.
type Bot struct {
	api     botAPI
	service Service
	allowed []int64
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, service Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return newBot(api, service, cfg.TelegramAllowedUserIDs), nil
}

func newBot(api botAPI, service Service, allowed []int64) *Bot {
	return &Bot{api: api, service: service, allowed: allowed}
}

// Handler returns the webhook and health endpoints.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	go b.handleUpdate(*update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if query := update.CallbackQuery; query != nil {
		if query.From == nil || !b.isAllowed(query.From) {
			return
		}
		b.handleCallbackQuery(ctx, query)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.isAllowed(msg.From) {
		return
	}
	b.processMessage(ctx, msg)
}

func (b *Bot) isAllowed(user *tgbotapi.User) bool {
	if slices.Contains(b.allowed, user.ID) {
		return true
	}
	log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", user.ID, user.UserName)
	return false
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	command, args := parseCommand(msg.Text)
	switch command {
	case "plan":
		b.handlePlanCommand(ctx, msg.Chat.ID, args)
	case "history":
		b.handleHistoryCommand(ctx, msg.Chat.ID, args)
	case "clear":
		b.handleClearCommand(ctx, msg.Chat.ID)
	case "status":
		b.handleStatusCommand(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

// parseCommand splits "/cmd@bot arg1 arg2" into "cmd" and its arguments.
// Text that is not a command yields an empty name.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}

func (b *Bot) handlePlanCommand(ctx context.Context, chatID int64, args []string) {
	week := b.service.CurrentWeek()
	if len(args) > 0 && strings.EqualFold(args[0], "next") {
		week++
	}

	exists, err := b.service.HasWeek(ctx, week)
	if err != nil {
		b.replyError(chatID, "loading history", err)
		return
	}
	if !exists {
		plan, err := b.service.PlanWeek(ctx, week, false)
		if err != nil {
			b.replyError(chatID, "generating plan", err)
			return
		}
		b.reply(chatID, report.FormatMarkdown(plan))
		return
	}

	promptText := fmt.Sprintf("🗓️ Week %d (starting *%s*) is already planned.\nWhat would you like to do?",
		week, planner.WeekStart(week).Format("2006-01-02"))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Redo This Week", callbackData(actionRedo, week)),
			tgbotapi.NewInlineKeyboardButtonData("⏭️ Plan Following Week", callbackData(actionNext, week+1)),
		),
	)
	msg := tgbotapi.NewMessage(chatID, promptText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send plan prompt: %v", err)
	}
}

const (
	actionRedo = "redo"
	actionNext = "next"
)

func callbackData(action string, week history.WeekIndex) string {
	return fmt.Sprintf("%s|%d", action, week)
}

func parseCallbackData(data string) (string, history.WeekIndex, error) {
	action, rawWeek, ok := strings.Cut(data, "|")
	if !ok {
		return "", 0, fmt.Errorf("malformed callback data '%s'", data)
	}
	week, err := strconv.Atoi(rawWeek)
	if err != nil {
		return "", 0, fmt.Errorf("malformed week in callback data '%s': %w", data, err)
	}
	switch action {
	case actionRedo, actionNext:
		return action, history.WeekIndex(week), nil
	}
	return "", 0, fmt.Errorf("unknown callback action '%s'", action)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
	if query.Message == nil {
		return
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	action, week, err := parseCallbackData(query.Data)
	if err != nil {
		log.Printf("Ignoring callback: %v", err)
		return
	}

	var plan *planner.WeekPlan
	if action == actionRedo {
		plan, err = b.service.ReplanWeek(ctx, week)
	} else {
		plan, err = b.service.PlanWeek(ctx, week, false)
	}

	text := ""
	if err != nil {
		log.Printf("Error generating plan: %v", err)
		text = errorText("generating plan", err)
	} else {
		text = report.FormatMarkdown(plan)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit plan message: %v", err)
	}
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64, args []string) {
	weeks := defaultHistoryWeeks
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			b.reply(chatID, "Usage: /history [weeks]")
			return
		}
		weeks = min(n, maxHistoryWeeks)
	}

	rec, err := b.service.History(ctx)
	if err != nil {
		b.replyError(chatID, "loading history", err)
		return
	}
	b.reply(chatID, "```\n"+report.FormatHistory(rec, b.service.CurrentWeek(), weeks)+"```")
}

func (b *Bot) handleClearCommand(ctx context.Context, chatID int64) {
	if err := b.service.ClearHistory(ctx); err != nil {
		b.replyError(chatID, "clearing history", err)
		return
	}
	b.reply(chatID, "🧹 History cleared.")
}

func (b *Bot) handleStatusCommand(ctx context.Context, chatID int64) {
	status, err := b.service.Status(ctx, statusRuns)
	if err != nil {
		b.replyError(chatID, "fetching status", err)
		return
	}
	b.reply(chatID, report.FormatStatus(status.Week, status.Weeks, status.Runs, status.Health, time.Now()))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

func (b *Bot) replyError(chatID int64, doing string, err error) {
	log.Printf("Error %s: %v", doing, err)
	b.reply(chatID, errorText(doing, err))
}

func errorText(doing string, err error) string {
	if errors.Is(err, history.ErrConcurrentUpdate) {
		return "⚠️ The history changed while I was working on it. Please try again."
	}
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", doing, safeErr)
}
