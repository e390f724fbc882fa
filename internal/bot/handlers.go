package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutrition-bot/internal/models"
)

// handleCommand processes bot commands.
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID
	userID := message.From.ID

	t.logger.Info("Handling command", "command", command, "user_id", userID)

	switch command {
	case "start":
		profile, err := t.storage.GetProfile(ctx, userID)
		if err != nil {
			t.logger.Error("Failed to load profile", "error", err)
			t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
			return
		}
		if profile == nil {
			t.beginSetup(chatID, userID)
			return
		}
		t.sendText(chatID, fmt.Sprintf(
			"Welcome back! 👋\n\nYour current protein goal: %.0fg per day\n\n"+
				"Send me a food photo or describe a meal to log it, or use /stats to see today's progress!",
			profile.ProteinGoal))

	case "stats":
		t.handleStats(ctx, chatID, userID)

	case "profile":
		profile, err := t.storage.GetProfile(ctx, userID)
		if err != nil {
			t.logger.Error("Failed to load profile", "error", err)
			t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
			return
		}
		if profile == nil {
			t.sendText(chatID, "Please set up your profile first with /start")
			return
		}
		t.sendText(chatID, formatProfile(profile))

	case "delete_last":
		t.handleDeleteLast(ctx, chatID, userID)

	case "set_age":
		t.handleProfileEdit(ctx, chatID, userID, "age", message.CommandArguments())

	case "set_weight":
		t.handleProfileEdit(ctx, chatID, userID, "weight", message.CommandArguments())

	case "set_height":
		t.handleProfileEdit(ctx, chatID, userID, "height", message.CommandArguments())

	case "help":
		t.sendText(chatID,
			"I track your meals and nutrition goals.\n\n"+
				"Send a food photo or a meal description to log a meal.\n\n"+
				"Commands:\n"+
				"/start — set up your profile\n"+
				"/stats — today's totals\n"+
				"/profile — show your profile\n"+
				"/delete_last — delete the most recent meal\n"+
				"/set_age, /set_weight, /set_height — edit your profile")

	default:
		t.sendText(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// handleMessage routes a non-command message by conversation state:
// setup wizard in progress, refinement pending, or extraction.
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID
	state := t.state(userID)

	switch state.CurrentState {
	case models.StateAwaitingAge, models.StateAwaitingWeight, models.StateAwaitingHeight,
		models.StateAwaitingSex, models.StateAwaitingActivity:
		t.handleSetupStep(chatID, state, message.Text)

	case models.StateAwaitingRefinement:
		t.handleRefinementInput(ctx, message, state)

	default:
		profile, err := t.storage.GetProfile(ctx, userID)
		if err != nil {
			t.logger.Error("Failed to load profile", "error", err)
			t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
			return
		}
		if profile == nil {
			t.beginSetup(chatID, userID)
			return
		}
		t.analyzeAndPresent(ctx, message, profile)
	}
}

// beginSetup starts the profile wizard for a user without a profile.
func (t *TelegramBot) beginSetup(chatID, userID int64) {
	t.stateMutex.Lock()
	t.userStates[userID] = &models.UserState{
		UserID:       userID,
		CurrentState: models.StateAwaitingAge,
	}
	t.stateMutex.Unlock()

	t.sendText(chatID,
		"Welcome to your personal nutrition tracker! 🥗\n\n"+
			"I'll help you track your meals and reach your nutrition goals.\n"+
			"First, I need some information about you.\n\n"+
			"What's your age?")
}

// handleSetupStep advances the wizard one step. Unparseable input
// re-prompts and stays on the same step.
func (t *TelegramBot) handleSetupStep(chatID int64, state *models.UserState, text string) {
	switch state.CurrentState {
	case models.StateAwaitingAge:
		age, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || age < 10 || age > 120 {
			t.sendText(chatID, "Please enter a valid age (number only)")
			return
		}
		state.Age = age
		state.CurrentState = models.StateAwaitingWeight
		t.sendText(chatID, "Great! What's your weight in kg?")

	case models.StateAwaitingWeight:
		weight, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || weight < 30 || weight > 300 {
			t.sendText(chatID, "Please enter a valid weight in kg (number only)")
			return
		}
		state.WeightKg = weight
		state.CurrentState = models.StateAwaitingHeight
		t.sendText(chatID, "What's your height in cm?")

	case models.StateAwaitingHeight:
		height, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || height < 100 || height > 250 {
			t.sendText(chatID, "Please enter a valid height in cm (number only)")
			return
		}
		state.HeightCm = height
		state.CurrentState = models.StateAwaitingSex

		msg := tgbotapi.NewMessage(chatID, "What's your sex?")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Male", "sex_male"),
				tgbotapi.NewInlineKeyboardButtonData("Female", "sex_female"),
			),
		)
		if _, err := t.api.Send(msg); err != nil {
			t.logger.Error("Failed to send sex prompt", "error", err)
		}

	case models.StateAwaitingSex:
		t.sendText(chatID, "Please pick your sex with the buttons above.")

	case models.StateAwaitingActivity:
		t.sendText(chatID, "Please pick your activity level with the buttons above.")
	}
}

// handleCallbackQuery processes inline button presses.
func (t *TelegramBot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	data := query.Data

	// Acknowledge the tap; duplicate or stale taps still get an answer.
	if _, err := t.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		t.logger.Error("Failed to answer callback", "error", err)
	}

	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch {
	case strings.HasPrefix(data, "sex_"):
		t.handleSexSelection(chatID, messageID, userID, strings.TrimPrefix(data, "sex_"))

	case strings.HasPrefix(data, "activity_"):
		t.handleActivitySelection(ctx, chatID, messageID, userID, strings.TrimPrefix(data, "activity_"))

	case strings.HasPrefix(data, "log_"):
		t.confirmMeal(ctx, chatID, messageID, userID, strings.TrimPrefix(data, "log_"))

	case strings.HasPrefix(data, "refine_"):
		t.startRefinement(chatID, userID, strings.TrimPrefix(data, "refine_"))

	case strings.HasPrefix(data, "cancel_"):
		t.cancelAnalysis(chatID, messageID, userID, strings.TrimPrefix(data, "cancel_"))
	}
}

func (t *TelegramBot) handleSexSelection(chatID int64, messageID int, userID int64, sex string) {
	state := t.state(userID)
	if state.CurrentState != models.StateAwaitingSex {
		return
	}
	if sex != "male" && sex != "female" {
		return
	}

	state.Sex = sex
	state.CurrentState = models.StateAwaitingActivity

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 4)
	labels := map[string]string{
		"sedentary": "Sedentary (office job)",
		"light":     "Lightly Active (light exercise)",
		"moderate":  "Moderately Active (regular exercise)",
		"very":      "Very Active (intense exercise)",
	}
	for _, level := range models.ActivityLevels() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labels[level], "activity_"+level),
		))
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		"What's your activity level?", tgbotapi.NewInlineKeyboardMarkup(rows...))
	if _, err := t.api.Send(edit); err != nil {
		t.logger.Error("Failed to send activity prompt", "error", err)
	}
}

// handleActivitySelection completes the wizard: it derives the protein
// goal, persists the profile, and returns the conversation to idle.
func (t *TelegramBot) handleActivitySelection(ctx context.Context, chatID int64, messageID int, userID int64, activity string) {
	state := t.state(userID)
	if state.CurrentState != models.StateAwaitingActivity {
		return
	}

	proteinGoal := models.ProteinGoal(state.WeightKg, activity)
	profile := &models.UserProfile{
		UserID:        userID,
		Age:           state.Age,
		WeightKg:      state.WeightKg,
		HeightCm:      state.HeightCm,
		Sex:           state.Sex,
		ActivityLevel: activity,
		ProteinGoal:   proteinGoal,
	}

	if err := t.storage.SaveProfile(ctx, profile); err != nil {
		t.logger.Error("Failed to save profile", "error", err, "user_id", userID)
		t.sendText(chatID, "Sorry, I couldn't save your profile. Please try again later.")
		return
	}

	t.stateMutex.Lock()
	t.userStates[userID] = &models.UserState{
		UserID:       userID,
		CurrentState: models.StateIdle,
	}
	t.stateMutex.Unlock()

	edit := tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf(
		"Perfect! Your profile is set up! ✅\n\n"+
			"📊 Your daily protein goal: %.0fg\n"+
			"(Based on %.0fkg body weight and %s activity level)\n\n"+
			"Now send me a food photo to get started! 📸",
		proteinGoal, state.WeightKg, activity))
	if _, err := t.api.Send(edit); err != nil {
		t.logger.Error("Failed to send setup confirmation", "error", err)
	}
}

// handleProfileEdit applies a single-field edit: full read, change, goal
// recompute when weight changes, full write-back.
func (t *TelegramBot) handleProfileEdit(ctx context.Context, chatID, userID int64, field, value string) {
	profile, err := t.storage.GetProfile(ctx, userID)
	if err != nil {
		t.logger.Error("Failed to load profile", "error", err)
		t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
		return
	}
	if profile == nil {
		t.sendText(chatID, "Please set up your profile first with /start")
		return
	}

	value = strings.TrimSpace(value)
	switch field {
	case "age":
		age, err := strconv.Atoi(value)
		if err != nil || age < 10 || age > 120 {
			t.sendText(chatID, "Usage: /set_age <years>")
			return
		}
		profile.Age = age

	case "weight":
		weight, err := strconv.ParseFloat(value, 64)
		if err != nil || weight < 30 || weight > 300 {
			t.sendText(chatID, "Usage: /set_weight <kg>")
			return
		}
		profile.WeightKg = weight
		profile.ProteinGoal = models.ProteinGoal(weight, profile.ActivityLevel)

	case "height":
		height, err := strconv.ParseFloat(value, 64)
		if err != nil || height < 100 || height > 250 {
			t.sendText(chatID, "Usage: /set_height <cm>")
			return
		}
		profile.HeightCm = height
	}

	if err := t.storage.SaveProfile(ctx, profile); err != nil {
		t.logger.Error("Failed to save profile", "error", err, "user_id", userID)
		t.sendText(chatID, "Sorry, I couldn't save your profile. Please try again later.")
		return
	}

	t.sendText(chatID, fmt.Sprintf("Updated! Your daily protein goal is %.0fg.", profile.ProteinGoal))
}

func (t *TelegramBot) handleStats(ctx context.Context, chatID, userID int64) {
	profile, err := t.storage.GetProfile(ctx, userID)
	if err != nil {
		t.logger.Error("Failed to load profile", "error", err)
		t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
		return
	}
	if profile == nil {
		t.sendText(chatID, "Please set up your profile first with /start")
		return
	}

	totals, err := t.storage.DailyTotals(ctx, userID, t.today())
	if err != nil {
		t.logger.Error("Failed to load daily totals", "error", err)
		t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatStats(profile, totals))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send stats", "error", err)
	}
}

// handleDeleteLast removes only the newest meal by confirmation timestamp.
func (t *TelegramBot) handleDeleteLast(ctx context.Context, chatID, userID int64) {
	meal, err := t.storage.MostRecentMeal(ctx, userID)
	if err != nil {
		t.logger.Error("Failed to load most recent meal", "error", err)
		t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
		return
	}
	if meal == nil {
		t.sendText(chatID, "You have no logged meals yet.")
		return
	}

	if err := t.storage.DeleteMeal(ctx, meal.ID); err != nil {
		t.logger.Error("Failed to delete meal", "error", err, "meal_id", meal.ID)
		t.sendText(chatID, "Sorry, something went wrong. Please try again later.")
		return
	}

	t.sendText(chatID, fmt.Sprintf("Deleted your last meal: %s (%.0f kcal)", meal.Description, meal.Calories))
}
