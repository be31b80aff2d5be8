package telegram

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/aatumaykin/crosspost/internal/constants"
	"github.com/aatumaykin/crosspost/internal/logger"
)

// UpdateHandler routes Telegram updates to the command, callback and
// conversation handlers.
type UpdateHandler struct {
	connector *Connector
	logger    *logger.Logger
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(connector *Connector, logger *logger.Logger) *UpdateHandler {
	return &UpdateHandler{
		connector: connector,
		logger:    logger,
	}
}

// Handle processes a single Telegram update.
func (uh *UpdateHandler) Handle(update telego.Update) error {
	if update.CallbackQuery != nil {
		return uh.connector.callbackHandler.Handle(update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}

	msg := update.Message
	if msg.Text == "" {
		// Skip non-text messages (photos, stickers, etc.).
		return nil
	}

	var userID string
	if msg.From != nil {
		userID = fmt.Sprintf("%d", msg.From.ID)
	}

	// Check the allow-list before anything else. Unauthorized callers
	// get one polite refusal and nothing more.
	if !uh.connector.isAllowedUser(userID) {
		uh.logger.WarnCtx(uh.connector.ctx, "message blocked - user not in allow-list",
			logger.Field{Key: "user_id", Value: userID},
			logger.Field{Key: "username", Value: usernameOf(msg)})

		if msg.Chat.ID != 0 && uh.connector.getBot() != nil {
			if err := uh.connector.sendText(msg.Chat.ID, constants.MsgUnauthorized); err != nil {
				uh.logger.ErrorCtx(uh.connector.ctx, "failed to send refusal", err)
			}
		}

		return nil
	}

	if command, args, ok := parseCommand(msg.Text); ok {
		return uh.connector.commandHandler.Handle(msg.Chat.ID, userID, command, args)
	}

	return uh.connector.commandHandler.HandleConversationInput(msg.Chat.ID, userID, msg.Text)
}

// parseCommand splits "/cmd arg1 arg2" into its command name and
// arguments. The "/cmd@BotName" form is accepted too.
func parseCommand(text string) (command, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	rest := strings.TrimPrefix(text, "/")
	command, args, _ = strings.Cut(rest, " ")
	command, _, _ = strings.Cut(command, "@")
	if command == "" {
		return "", "", false
	}

	return command, strings.TrimSpace(args), true
}

func usernameOf(msg *telego.Message) string {
	if msg.From == nil {
		return ""
	}
	return msg.From.Username
}
