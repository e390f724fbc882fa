package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutrition-bot/internal/models"
)

// analyzeAndPresent runs extraction on a photo or text message, stages the
// result, and asks the user to confirm it. Non-food results are never
// staged.
func (t *TelegramBot) analyzeAndPresent(ctx context.Context, message *tgbotapi.Message, profile *models.UserProfile) {
	chatID := message.Chat.ID
	userID := message.From.ID

	var analysis models.FoodAnalysis
	switch {
	case len(message.Photo) > 0:
		t.sendText(chatID, "🔍 Analyzing your food photo...")
		image, err := t.downloadPhoto(message)
		if err != nil {
			t.logger.Error("Failed to download photo", "error", err)
			t.sendText(chatID, "Sorry, I couldn't download that photo. Please try again.")
			return
		}
		analysis = t.analyzer.AnalyzeImage(ctx, image)

	case message.Text != "":
		t.sendText(chatID, "🔍 Analyzing your meal description...")
		analysis = t.analyzer.AnalyzeText(ctx, message.Text)

	default:
		t.sendText(chatID, "Send me a photo of your food or describe your meal! 📸")
		return
	}

	if !analysis.IsFood {
		if analysis.Err != "" {
			t.logger.Warn("Extraction failed", "reason", analysis.Err, "user_id", userID)
		}
		t.sendText(chatID, "I couldn't identify any food there. Please send a clear photo or description of your meal! 🍽️")
		return
	}

	id := t.pending.Stage(userID, analysis)
	t.presentAnalysis(chatID, userID, id, analysis, profile)
}

// presentAnalysis shows the staged analysis with Confirm / Refine / Cancel
// buttons.
func (t *TelegramBot) presentAnalysis(chatID, userID int64, id string, analysis models.FoodAnalysis, profile *models.UserProfile) {
	msg := tgbotapi.NewMessage(chatID, formatAnalysis(analysis, profile))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Log this meal", "log_"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Adjust", "refine_"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel_"+id),
		),
	)
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to present analysis", "error", err, "user_id", userID)
	}
}

// confirmMeal promotes a staged analysis into the meal ledger. The removal
// doubles as the debounce: a second tap on the same id finds nothing and
// does nothing.
func (t *TelegramBot) confirmMeal(ctx context.Context, chatID int64, messageID int, userID int64, id string) {
	entry, ok := t.pending.Remove(userID, id)
	if !ok {
		return
	}

	rawAnalysis, err := json.Marshal(entry.Analysis)
	if err != nil {
		t.logger.Error("Failed to encode analysis", "error", err)
		rawAnalysis = []byte("{}")
	}

	now := time.Now().In(t.location)
	meal := &models.MealRecord{
		UserID:      userID,
		Date:        t.today(),
		Timestamp:   now,
		Description: entry.Description,
		Calories:    entry.Analysis.Nutrition.Calories,
		Protein:     entry.Analysis.Nutrition.Protein,
		Carbs:       entry.Analysis.Nutrition.Carbs,
		Fat:         entry.Analysis.Nutrition.Fat,
		Fiber:       entry.Analysis.Nutrition.Fiber,
		RawAnalysis: string(rawAnalysis),
	}

	if err := t.storage.AppendMeal(ctx, meal); err != nil {
		t.logger.Error("Failed to append meal", "error", err, "user_id", userID)
		t.sendText(chatID, "Sorry, I couldn't save that meal. Please try again.")
		return
	}

	profile, err := t.storage.GetProfile(ctx, userID)
	if err != nil || profile == nil {
		t.logger.Error("Failed to load profile after confirm", "error", err)
		t.sendText(chatID, "✅ Meal logged successfully!")
		return
	}

	totals, err := t.storage.DailyTotals(ctx, userID, t.today())
	if err != nil {
		t.logger.Error("Failed to load daily totals", "error", err)
		t.sendText(chatID, "✅ Meal logged successfully!")
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID,
		"✅ Meal logged successfully!\n\n"+formatTotals(profile, totals))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(edit); err != nil {
		t.logger.Error("Failed to send confirmation", "error", err)
	}
}

// startRefinement moves the conversation into the refinement state for a
// staged analysis. A tap on an already-confirmed analysis is a no-op.
func (t *TelegramBot) startRefinement(chatID, userID int64, id string) {
	if _, ok := t.pending.Get(userID, id); !ok {
		return
	}

	t.stateMutex.Lock()
	state, exists := t.userStates[userID]
	if !exists {
		state = &models.UserState{UserID: userID}
		t.userStates[userID] = state
	}
	state.CurrentState = models.StateAwaitingRefinement
	state.RefinementID = id
	t.stateMutex.Unlock()

	t.sendText(chatID, "What should I adjust? Describe the portion or correction (e.g. \"it was a large plate, about 400g\"), or send another photo.")
}

// handleRefinementInput bundles the prior analysis with the user's
// correction and replaces the staged entry on success. The conversation
// returns to idle regardless of outcome.
func (t *TelegramBot) handleRefinementInput(ctx context.Context, message *tgbotapi.Message, state *models.UserState) {
	chatID := message.Chat.ID
	userID := message.From.ID
	id := state.RefinementID

	t.setState(userID, models.StateIdle)

	entry, ok := t.pending.Get(userID, id)
	if !ok {
		t.sendText(chatID, "That analysis is no longer pending. Send a new photo or description!")
		return
	}

	var image []byte
	if len(message.Photo) > 0 {
		data, err := t.downloadPhoto(message)
		if err != nil {
			t.logger.Error("Failed to download refinement photo", "error", err)
			t.sendText(chatID, "Sorry, I couldn't download that photo. Please try again.")
			return
		}
		image = data
	}

	t.sendText(chatID, "🔍 Updating the estimate...")

	refined := t.analyzer.Refine(ctx, entry.Analysis, message.Text, image)
	if !refined.IsFood {
		t.logger.Warn("Refinement failed", "reason", refined.Err, "user_id", userID)
		t.sendText(chatID, "Sorry, I couldn't process that adjustment. The original analysis is still pending.")
		return
	}

	if !t.pending.Replace(userID, id, refined) {
		return
	}

	profile, err := t.storage.GetProfile(ctx, userID)
	if err != nil || profile == nil {
		t.logger.Error("Failed to load profile after refinement", "error", err)
		return
	}

	t.presentAnalysis(chatID, userID, id, refined, profile)
}

// cancelAnalysis discards a staged entry and returns the conversation to
// idle. Cancelling an unknown id still resets the state.
func (t *TelegramBot) cancelAnalysis(chatID int64, messageID int, userID int64, id string) {
	t.pending.Remove(userID, id)
	t.setState(userID, models.StateIdle)

	edit := tgbotapi.NewEditMessageText(chatID, messageID, "Meal not logged. Send another photo anytime! 📸")
	if _, err := t.api.Send(edit); err != nil {
		t.logger.Error("Failed to send cancel confirmation", "error", err)
	}
}

// downloadPhoto fetches the highest-resolution photo attached to a message.
func (t *TelegramBot) downloadPhoto(message *tgbotapi.Message) ([]byte, error) {
	photo := message.Photo[len(message.Photo)-1]

	url, err := t.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	resp, err := t.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status %d downloading file", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}
