package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/pending"
	"nutrition-bot/pkg/logger"
)

// Storage is the durable store behind the profile and meal operations.
// *db.PostgresDB satisfies it.
type Storage interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	AppendMeal(ctx context.Context, meal *models.MealRecord) error
	DailyTotals(ctx context.Context, userID int64, date time.Time) (models.DailyTotals, error)
	MostRecentMeal(ctx context.Context, userID int64) (*models.MealRecord, error)
	DeleteMeal(ctx context.Context, id int64) error
}

// Analyzer turns food input into a normalized analysis. *gpt.Client
// satisfies it.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte) models.FoodAnalysis
	AnalyzeText(ctx context.Context, description string) models.FoodAnalysis
	Refine(ctx context.Context, prior models.FoodAnalysis, correction string, image []byte) models.FoodAnalysis
}

// telegramAPI is the slice of *tgbotapi.BotAPI the handlers use.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	api        telegramAPI
	storage    Storage
	analyzer   Analyzer
	pending    *pending.Store
	logger     *logger.Logger
	authorized int64
	location   *time.Location
	httpClient *http.Client
	userStates map[int64]*models.UserState
	stateMutex sync.RWMutex
}

func NewTelegramBot(token string, authorizedID int64, storage Storage, analyzer Analyzer, pendingStore *pending.Store, location *time.Location, logger *logger.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info("Authorized on Telegram", "username", api.Self.UserName)

	return &TelegramBot{
		bot:        api,
		api:        api,
		storage:    storage,
		analyzer:   analyzer,
		pending:    pendingStore,
		logger:     logger,
		authorized: authorizedID,
		location:   location,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userStates: make(map[int64]*models.UserState),
	}, nil
}

// Start begins receiving updates from Telegram via polling.
func (t *TelegramBot) Start(ctx context.Context) error {
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

// handleUpdates processes incoming updates. Each update runs in its own
// goroutine so a slow extraction call never starves polling.
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go func(update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("Recovered from panic while processing update", "error", r)
				}
			}()

			t.dispatch(ctx, update)
		}(update)
	}
}

// dispatch authorizes the sender, then routes by update kind. Events from
// any other identity are dropped without reply.
func (t *TelegramBot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if !t.authorize(update.Message.From.ID) {
			return
		}
		if update.Message.IsCommand() {
			t.handleCommand(ctx, update.Message)
		} else {
			t.handleMessage(ctx, update.Message)
		}

	case update.CallbackQuery != nil:
		if !t.authorize(update.CallbackQuery.From.ID) {
			return
		}
		t.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (t *TelegramBot) authorize(userID int64) bool {
	if userID == t.authorized {
		return true
	}
	t.logger.Debug("Dropping update from unauthorized user", "user_id", userID)
	return false
}

// Stop gracefully shuts down the bot.
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

// DeliverReport sends a report message to the authorized user's private
// chat. The report scheduler uses it as its delivery callback.
func (t *TelegramBot) DeliverReport(text string) error {
	msg := tgbotapi.NewMessage(t.authorized, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := t.api.Send(msg)
	return err
}

// state returns the user's conversation state, creating an idle one on
// first contact.
func (t *TelegramBot) state(userID int64) *models.UserState {
	t.stateMutex.RLock()
	state, exists := t.userStates[userID]
	t.stateMutex.RUnlock()
	if exists {
		return state
	}

	t.stateMutex.Lock()
	defer t.stateMutex.Unlock()
	if state, exists = t.userStates[userID]; exists {
		return state
	}
	state = &models.UserState{UserID: userID, CurrentState: models.StateIdle}
	t.userStates[userID] = state
	return state
}

func (t *TelegramBot) setState(userID int64, current string) {
	t.stateMutex.Lock()
	defer t.stateMutex.Unlock()
	state, exists := t.userStates[userID]
	if !exists {
		state = &models.UserState{UserID: userID}
		t.userStates[userID] = state
	}
	state.CurrentState = current
	if current != models.StateAwaitingRefinement {
		state.RefinementID = ""
	}
}

func (t *TelegramBot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

// today is the current calendar date in the deployment's location,
// truncated to midnight.
func (t *TelegramBot) today() time.Time {
	now := time.Now().In(t.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, t.location)
}
