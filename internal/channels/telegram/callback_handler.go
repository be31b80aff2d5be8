package telegram

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/aatumaykin/crosspost/internal/constants"
	"github.com/aatumaykin/crosspost/internal/logger"
)

// CallbackHandler processes inline keyboard callback queries that drive
// the compose flow.
type CallbackHandler struct {
	connector *Connector
	logger    *logger.Logger
}

// NewCallbackHandler creates a new callback handler.
func NewCallbackHandler(connector *Connector, logger *logger.Logger) *CallbackHandler {
	return &CallbackHandler{
		connector: connector,
		logger:    logger,
	}
}

// Handle processes a Telegram callback query.
func (ch *CallbackHandler) Handle(callbackQuery *telego.CallbackQuery) error {
	if callbackQuery == nil {
		return nil
	}

	userID := fmt.Sprintf("%d", callbackQuery.From.ID)

	if !ch.connector.isAllowedUser(userID) {
		ch.logger.WarnCtx(ch.connector.ctx, "callback query blocked - user not in allow-list",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "username", Value: callbackQuery.From.Username})

		ch.answer(callbackQuery.ID, constants.MsgUnauthorized, true)
		return nil
	}

	// Answer immediately to remove the loading animation.
	ch.answer(callbackQuery.ID, "", false)

	if callbackQuery.Message == nil {
		ch.logger.DebugCtx(ch.connector.ctx, "callback query without message, ignoring",
			logger.Field{Key: "callback_query_id", Value: callbackQuery.ID})
		return nil
	}

	chatID := callbackQuery.Message.GetChat().ID
	messageID := callbackQuery.Message.GetMessageID()
	data := callbackQuery.Data

	ch.logger.DebugCtx(ch.connector.ctx, "handling callback query",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "data", Value: data})

	conv := ch.connector.conversations.Get(chatID)

	switch {
	case data == CallbackCancel:
		ch.connector.conversations.Reset(chatID)
		return ch.connector.editMessage(chatID, messageID, constants.MsgCancelled, nil)
	case strings.HasPrefix(data, CallbackPlatformPrefix):
		return ch.handlePlatformChoice(chatID, messageID, conv, strings.TrimPrefix(data, CallbackPlatformPrefix))
	case data == CallbackTimingNow:
		if conv.State != StateAwaitingTiming {
			return nil
		}
		return ch.connector.commandHandler.publishNow(chatID, messageID, userID, conv)
	case data == CallbackTimingSchedule:
		if conv.State != StateAwaitingTiming {
			return nil
		}
		conv.State = StateAwaitingScheduleTime
		return ch.connector.editMessage(chatID, messageID, constants.MsgAskWhen, nil)
	default:
		// Stale or unknown button, e.g. from a keyboard that outlived
		// its flow.
		ch.logger.DebugCtx(ch.connector.ctx, "ignoring unexpected callback data",
			logger.Field{Key: "data", Value: data},
			logger.Field{Key: "state", Value: string(conv.State)})
		return nil
	}
}

// handlePlatformChoice records the selected targets and replaces the
// platform keyboard with the confirmation message and timing keyboard.
func (ch *CallbackHandler) handlePlatformChoice(chatID int64, messageID int, conv *Conversation, choice string) error {
	if conv.State != StateAwaitingPlatforms {
		return nil
	}

	var targets []string
	if choice == "all" {
		targets = ch.connector.registry.IDs()
	} else {
		if _, err := ch.connector.registry.Get(choice); err != nil {
			ch.logger.WarnCtx(ch.connector.ctx, "unknown platform in callback",
				logger.Field{Key: "platform", Value: choice})
			return nil
		}
		targets = []string{choice}
	}

	if !ch.connector.commandHandler.checkLength(chatID, conv.Draft.Content, targets) {
		ch.connector.conversations.Reset(chatID)
		return nil
	}

	conv.Draft.Targets = targets
	conv.State = StateAwaitingTiming

	confirmation := fmt.Sprintf(constants.MsgConfirmFormat, formatTargets(targets), conv.Draft.Content)
	return ch.connector.editMessage(chatID, messageID, confirmation, buildTimingKeyboard())
}

// answer acknowledges a callback query, optionally with an alert.
func (ch *CallbackHandler) answer(callbackQueryID, text string, showAlert bool) {
	bot := ch.connector.getBot()
	if bot == nil {
		return
	}

	ctx, cancel := ch.connector.sendTimeout()
	defer cancel()

	params := &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
		ShowAlert:       showAlert,
	}

	if err := bot.AnswerCallbackQuery(ctx, params); err != nil {
		ch.logger.ErrorCtx(ch.connector.ctx, "failed to answer callback query", err,
			logger.Field{Key: "callback_query_id", Value: callbackQueryID})
	}
}
