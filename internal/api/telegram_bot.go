// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	historyLimit   = 5
	commandTimeout = 30 * time.Second
)

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/leak key=value ... - Score a suspected leak\n" +
	"/daily key=value ... - Score today's pump check\n" +
	"/maintenance key=value ... - Score a pump's maintenance risk\n" +
	"/quality key=value ... - Evaluate a water sample\n" +
	"/history [kind] [subject] - Show recent evaluations\n" +
	"/help - Show this help message\n\n" +
	"Keys use the reading field names, plus subject=<zone or pump>. Example:\n" +
	"/daily subject=pump-1 pump_hours_today=9 pump_hours_previous=6 tank_level_change=NoChange pressure_level=Low flow_rate_level=Low complaints_count=2"

// ChatDiagnostics is what the bot needs from the diagnostics use case
type ChatDiagnostics interface {
	Diagnostics
	FormatEvaluation(e *entities.Evaluation) string
}

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot    *tgbotapi.BotAPI
	diag   ChatDiagnostics
	logger *zap.Logger
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, diag ChatDiagnostics, logger *zap.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:    bot,
		diag:   diag,
		logger: logger,
	}, nil
}

// Start begins listening for and handling Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) {
	t.logger.Info("Authorized on Telegram account", zap.String("username", t.bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info("Bot is now listening for messages")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			t.logger.Debug("Received message",
				zap.String("username", update.Message.From.UserName),
				zap.Int64("user_id", update.Message.From.ID),
				zap.String("text", update.Message.Text),
			)
			t.handleMessage(ctx, update)
		}
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	if update.Message.IsCommand() {
		msg.Text = t.respond(ctx, update.Message.Command(), update.Message.CommandArguments(), update.Message.From.UserName)
	} else {
		msg.Text = t.respondText(ctx, update.Message.Text)
	}
	cancel()

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Error sending message", zap.Error(err))
	}
}

// respond builds the reply to a command
func (t *TelegramBot) respond(ctx context.Context, command, args, user string) string {
	t.logger.Info("Handling command", zap.String("command", command), zap.String("username", user))

	switch command {
	case "start":
		return "Welcome to the Panchayat Water assistant! Report readings and I will score them for leaks, maintenance risk and water quality. Use /help to see how."
	case "help":
		return helpText
	case "leak":
		return chatAssess(ctx, t, args, t.diag.AssessLeak)
	case "daily":
		return chatAssess(ctx, t, args, t.diag.AssessDailyCheck)
	case "maintenance":
		return chatAssess(ctx, t, args, t.diag.AssessMaintenance)
	case "quality":
		return chatAssess(ctx, t, args, t.diag.AssessWaterQuality)
	case "history":
		return t.history(ctx, args)
	}

	t.logger.Info("Received unknown command", zap.String("command", command), zap.String("username", user))
	return "Unknown command. Use /help to see available commands."
}

// respondText treats free text as a subject name and shows its latest
// evaluation
func (t *TelegramBot) respondText(ctx context.Context, text string) string {
	const fallback = "I don't understand. Send a zone, pump or sample point name to see its latest evaluation, or use /help to see available commands."

	subject := strings.TrimSpace(text)
	if subject == "" || strings.ContainsAny(subject, "\n=") {
		return fallback
	}

	evals, err := t.diag.RecentEvaluations(ctx, repository.EvaluationFilter{Subject: subject, Limit: 1})
	if err != nil {
		t.logger.Error("Error fetching evaluations", zap.String("subject", subject), zap.Error(err))
		return "Error fetching evaluations. Please try again later."
	}
	if len(evals) == 0 {
		return fmt.Sprintf("No evaluations recorded for '%s'.\n\n%s", subject, fallback)
	}
	return "Latest evaluation:\n\n" + t.diag.FormatEvaluation(&evals[0])
}

func chatAssess[R, S any](ctx context.Context, t *TelegramBot, args string, assess func(context.Context, string, R) (S, *entities.Evaluation, error)) string {
	if strings.TrimSpace(args) == "" {
		return "Please provide the reading as key=value pairs. Use /help for an example."
	}

	subject, reading, err := parseReading[R](args)
	if err != nil {
		return fmt.Sprintf("Could not read that: %v", err)
	}

	_, e, err := assess(ctx, subject, reading)
	if errors.Is(err, diagnostics.ErrInvalidInput) {
		return fmt.Sprintf("Some values are not valid: %v", err)
	}
	if err != nil {
		t.logger.Error("Error assessing reading", zap.Error(err))
		return "Error scoring the reading. Please try again later."
	}
	return t.diag.FormatEvaluation(e)
}

func (t *TelegramBot) history(ctx context.Context, args string) string {
	filter := repository.EvaluationFilter{Limit: historyLimit}
	fields := strings.Fields(args)
	if len(fields) > 0 {
		filter.Kind = entities.Kind(fields[0])
		if !filter.Kind.Valid() {
			return fmt.Sprintf("Unknown kind '%s'. Use one of: %s", fields[0], kindList())
		}
	}
	if len(fields) > 1 {
		filter.Subject = fields[1]
	}

	evals, err := t.diag.RecentEvaluations(ctx, filter)
	if err != nil {
		t.logger.Error("Error fetching evaluations", zap.Error(err))
		return "Error fetching evaluations. Please try again later."
	}
	if len(evals) == 0 {
		return "No evaluations recorded yet."
	}

	parts := make([]string, len(evals))
	for i := range evals {
		parts[i] = t.diag.FormatEvaluation(&evals[i])
	}
	return strings.Join(parts, "\n\n")
}

func kindList() string {
	names := make([]string, len(entities.Kinds))
	for i, k := range entities.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// parseReading turns "subject=ward-3 pressure_value=8 past_leak_history=true"
// into a subject and a decoded reading. Keys are the reading's JSON field
// names; numbers and booleans are typed, everything else is a string.
func parseReading[R any](args string) (string, R, error) {
	var reading R
	subject := ""
	fields := make(map[string]any)

	for _, pair := range strings.Fields(args) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", reading, fmt.Errorf("expected key=value, got %q", pair)
		}
		if key == "subject" {
			subject = value
			continue
		}
		if _, dup := fields[key]; dup {
			return "", reading, fmt.Errorf("%s given twice", key)
		}
		fields[key] = typedValue(value)
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", reading, err
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&reading); err != nil {
		return "", reading, fmt.Errorf("invalid reading: %w", err)
	}
	return subject, reading, nil
}

func typedValue(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
