// Package telegram provides the Telegram front-end of the bot using the
// Telego library. It receives operator commands over long polling,
// drives the compose flow with inline keyboards, and delivers
// publication reports back to post authors.
//
// Features:
//   - Long polling for receiving updates
//   - Allow-list based operator authorization
//   - Inline keyboard compose flow (platforms, post now or schedule)
//   - Graceful shutdown handling
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"github.com/aatumaykin/crosspost/internal/config"
	"github.com/aatumaykin/crosspost/internal/constants"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/metrics"
	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/preview"
	"github.com/aatumaykin/crosspost/internal/retry"
	"github.com/aatumaykin/crosspost/internal/scheduler"
	"github.com/aatumaykin/crosspost/internal/store"
	"github.com/aatumaykin/crosspost/internal/template"
	"github.com/aatumaykin/crosspost/internal/version"
)

// Publisher publishes a post immediately to all of its targets.
// Implemented by the dispatcher.
type Publisher interface {
	Publish(ctx context.Context, post store.ScheduledPost) []scheduler.Result
}

// Connector is the Telegram bot connector.
type Connector struct {
	cfg    config.TelegramConfig
	logger *logger.Logger

	// botMu guards bot: Stop clears it while the long-poll goroutine
	// and the dispatcher's report path may still be sending.
	botMu sync.RWMutex
	bot   BotInterface

	ctx       context.Context
	cancel    context.CancelFunc
	store     *store.Store
	registry  *platform.Registry
	publisher Publisher
	templates *template.Loader
	previews  *preview.Fetcher
	metrics   *metrics.Metrics

	conversations   *ConversationManager
	commandHandler  *CommandHandler
	callbackHandler *CallbackHandler
	updateHandler   *UpdateHandler
	longPollManager *LongPollManager
}

// Deps bundles the collaborators the connector needs.
type Deps struct {
	Store     *store.Store
	Registry  *platform.Registry
	Publisher Publisher
	Templates *template.Loader
	Previews  *preview.Fetcher
	Metrics   *metrics.Metrics
}

// New creates a new Telegram connector.
func New(cfg config.TelegramConfig, log *logger.Logger, deps Deps) *Connector {
	conn := &Connector{
		cfg:           cfg,
		logger:        log,
		store:         deps.Store,
		registry:      deps.Registry,
		publisher:     deps.Publisher,
		templates:     deps.Templates,
		previews:      deps.Previews,
		metrics:       deps.Metrics,
		conversations: NewConversationManager(),
	}
	conn.commandHandler = NewCommandHandler(conn, log)
	conn.callbackHandler = NewCallbackHandler(conn, log)
	conn.updateHandler = NewUpdateHandler(conn, log)
	conn.longPollManager = NewLongPollManager(conn, nil, log)
	return conn
}

// Start initializes the Telegram bot and starts listening for updates.
func (c *Connector) Start(ctx context.Context) error {
	c.logger.Info("starting telegram connector")

	if c.cfg.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	bot, err := telego.NewBot(c.cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	c.setBot(NewBotAdapter(bot))
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.longPollManager.SetContext(c.ctx)
	c.longPollManager.SetBot(c.getBot())

	botUser, err := c.getBot().GetMe(c.ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	c.logger.Info("telegram bot initialized",
		logger.Field{Key: "bot_id", Value: botUser.ID},
		logger.Field{Key: "username", Value: botUser.Username})

	if err := c.registerCommands(); err != nil {
		c.logger.ErrorCtx(c.ctx, "failed to register bot commands", err)
	}

	if err := c.sendStartupMessage(); err != nil {
		c.logger.ErrorCtx(c.ctx, "failed to send startup message", err)
	}

	go c.longPollManager.Start()

	return nil
}

// Stop gracefully stops the Telegram connector.
func (c *Connector) Stop() error {
	c.logger.Info("stopping telegram connector")

	if c.cancel != nil {
		c.cancel()
	}

	c.setBot(nil)

	c.logger.Info("telegram connector stopped gracefully")

	return nil
}

func (c *Connector) setBot(bot BotInterface) {
	c.botMu.Lock()
	defer c.botMu.Unlock()
	c.bot = bot
}

// getBot returns the current bot handle, or nil after Stop.
func (c *Connector) getBot() BotInterface {
	c.botMu.RLock()
	defer c.botMu.RUnlock()
	return c.bot
}

// registerCommands registers the bot command menu with Telegram.
func (c *Connector) registerCommands() error {
	bot := c.getBot()
	if bot == nil {
		return fmt.Errorf("bot is not initialized")
	}

	commands := &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: constants.CommandPost, Description: "Create a new post"},
			{Command: constants.CommandListScheduled, Description: "List your scheduled posts"},
			{Command: constants.CommandDeleteScheduled, Description: "Delete a scheduled post by ID"},
			{Command: constants.CommandTemplates, Description: "List post templates"},
			{Command: constants.CommandCancel, Description: "Cancel the current operation"},
			{Command: constants.CommandHelp, Description: "Show help"},
		},
	}

	if err := bot.SetMyCommands(c.ctx, commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	c.logger.Info("bot commands registered successfully")

	return nil
}

// isAllowedUser checks the operator allow-list.
func (c *Connector) isAllowedUser(userID string) bool {
	return c.cfg.IsAllowedUser(userID)
}

// sendStartupMessage notifies every allowed operator that the bot is up.
// Skipped when quiet mode is enabled.
func (c *Connector) sendStartupMessage() error {
	if c.cfg.QuietMode {
		c.logger.Info("quiet mode enabled, skipping startup message")
		return nil
	}

	message := version.FormatStartupMessage() + "\n\n" + constants.MsgStartup

	for _, userID := range c.cfg.AllowedUsers {
		chatID, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			c.logger.WarnCtx(c.ctx, "invalid user ID in allowed_users",
				logger.Field{Key: "user_id", Value: userID})
			continue
		}

		if err := c.sendText(chatID, message); err != nil {
			c.logger.ErrorCtx(c.ctx, "failed to send startup message", err,
				logger.Field{Key: "user_id", Value: userID})
			continue
		}

		c.logger.InfoCtx(c.ctx, "startup message sent",
			logger.Field{Key: "user_id", Value: userID})
	}

	return nil
}

// NotifyAuthor delivers a publication report to the author's chat.
// Implements the dispatcher's Notifier. Transient send failures are
// retried because losing a report means the author never learns whether
// their post went out.
func (c *Connector) NotifyAuthor(ctx context.Context, authorID, message string) error {
	chatID, err := strconv.ParseInt(authorID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid author ID %q: %w", authorID, err)
	}

	_, err = retry.DoWithRetry(ctx, func() (string, error) {
		return "", c.sendText(chatID, message)
	}, retry.Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
	}, c.logger)

	return err
}

// sendText sends a plain text message under the configured send timeout.
func (c *Connector) sendText(chatID int64, text string) error {
	return c.sendWithMarkup(chatID, text, nil)
}

func (c *Connector) sendWithMarkup(chatID int64, text string, markup *telego.InlineKeyboardMarkup) error {
	bot := c.getBot()
	if bot == nil {
		return fmt.Errorf("bot is not initialized")
	}

	ctx, cancel := c.sendTimeout()
	defer cancel()

	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// editMessage replaces the text (and keyboard) of a previously sent
// message. Used to resolve inline keyboards in place.
func (c *Connector) editMessage(chatID int64, messageID int, text string, markup *telego.InlineKeyboardMarkup) error {
	bot := c.getBot()
	if bot == nil {
		return fmt.Errorf("bot is not initialized")
	}

	ctx, cancel := c.sendTimeout()
	defer cancel()

	params := &telego.EditMessageTextParams{
		ChatID:    telego.ChatID{ID: chatID},
		MessageID: messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := bot.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	return nil
}

func (c *Connector) sendTimeout() (context.Context, context.CancelFunc) {
	timeout := time.Duration(c.cfg.SendTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(c.ctx, timeout)
}
