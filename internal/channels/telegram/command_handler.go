package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/aatumaykin/crosspost/internal/constants"
	"github.com/aatumaykin/crosspost/internal/logger"
	"github.com/aatumaykin/crosspost/internal/scheduler"
	"github.com/aatumaykin/crosspost/internal/store"
)

// listContentPreviewLength caps the post body shown in /list_scheduled.
const listContentPreviewLength = 50

// CommandHandler handles bot commands and compose-flow text input.
type CommandHandler struct {
	connector *Connector
	logger    *logger.Logger
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(connector *Connector, logger *logger.Logger) *CommandHandler {
	return &CommandHandler{
		connector: connector,
		logger:    logger,
	}
}

// Handle processes a bot command from an authorized operator.
func (h *CommandHandler) Handle(chatID int64, userID, command, args string) error {
	h.connector.metrics.RecordCommand(command)

	h.logger.DebugCtx(h.connector.ctx, "handling command",
		logger.Field{Key: "command", Value: "/" + command},
		logger.Field{Key: "user_id", Value: userID})

	switch command {
	case constants.CommandStart, constants.CommandHelp:
		return h.connector.sendText(chatID, constants.MsgStartup)
	case constants.CommandPost:
		return h.handlePost(chatID, userID, args)
	case constants.CommandListScheduled:
		return h.handleListScheduled(chatID, userID)
	case constants.CommandDeleteScheduled:
		return h.handleDeleteScheduled(chatID, userID, args)
	case constants.CommandTemplates:
		return h.handleTemplates(chatID)
	case constants.CommandCancel:
		h.connector.conversations.Reset(chatID)
		return h.connector.sendText(chatID, constants.MsgCancelled)
	default:
		return h.connector.sendText(chatID, constants.MsgIdleHint)
	}
}

// handlePost starts the compose flow. With a template name argument the
// draft is pre-filled from the template, otherwise the operator is
// asked for the post body.
func (h *CommandHandler) handlePost(chatID int64, userID, args string) error {
	conv := h.connector.conversations.Get(chatID)

	if args == "" {
		conv.State = StateAwaitingText
		conv.Draft = Draft{}
		return h.connector.sendText(chatID, constants.MsgAskPostText)
	}

	tpl, err := h.connector.templates.Get(args)
	if err != nil {
		h.logger.ErrorCtx(h.connector.ctx, "failed to load templates", err)
		return h.connector.sendText(chatID, constants.MsgInternalError)
	}
	if tpl == nil {
		return h.connector.sendText(chatID, fmt.Sprintf(constants.MsgTemplateNotFoundFormat, args))
	}

	conv.Draft = Draft{Content: tpl.Text}

	// Templates may carry default targets. Unknown ones are dropped so
	// a stale template cannot poison the flow.
	targets := make([]string, 0, len(tpl.Targets))
	for _, target := range tpl.Targets {
		if _, err := h.connector.registry.Get(target); err == nil {
			targets = append(targets, target)
		}
	}

	if len(targets) == 0 {
		return h.askPlatforms(chatID, conv)
	}

	if !h.checkLength(chatID, conv.Draft.Content, targets) {
		h.connector.conversations.Reset(chatID)
		return nil
	}

	conv.Draft.Targets = targets
	conv.State = StateAwaitingTiming
	return h.connector.sendWithMarkup(chatID, constants.MsgAskTiming, buildTimingKeyboard())
}

// HandleConversationInput processes free text while a compose flow is
// in progress.
func (h *CommandHandler) HandleConversationInput(chatID int64, userID, text string) error {
	conv := h.connector.conversations.Get(chatID)

	switch conv.State {
	case StateAwaitingText:
		conv.Draft.Content = text
		h.sendPreview(chatID, text)
		return h.askPlatforms(chatID, conv)
	case StateAwaitingScheduleTime:
		return h.handleScheduleTime(chatID, userID, conv, text)
	case StateAwaitingPlatforms, StateAwaitingTiming:
		return h.connector.sendText(chatID, constants.MsgUseButtons)
	default:
		return h.connector.sendText(chatID, constants.MsgIdleHint)
	}
}

// handleScheduleTime parses the schedule timestamp and stores the post.
func (h *CommandHandler) handleScheduleTime(chatID int64, userID string, conv *Conversation, text string) error {
	when, err := time.ParseInLocation(constants.ScheduleTimeFormat, strings.TrimSpace(text), time.UTC)
	if err != nil {
		return h.connector.sendText(chatID, constants.MsgBadTimeFormat)
	}

	if !when.After(time.Now().UTC()) {
		return h.connector.sendText(chatID, constants.MsgTimeInPast)
	}

	post := store.ScheduledPost{
		AuthorID:    userID,
		Content:     conv.Draft.Content,
		Targets:     conv.Draft.Targets,
		ScheduledAt: &when,
	}

	id, err := h.connector.store.Add(post)
	if err != nil {
		h.logger.ErrorCtx(h.connector.ctx, "failed to store scheduled post", err,
			logger.Field{Key: "author_id", Value: userID})
		return h.connector.sendText(chatID, constants.MsgInternalError)
	}

	h.connector.conversations.Reset(chatID)
	h.connector.metrics.SetPendingPosts(h.connector.store.Len())

	h.logger.InfoCtx(h.connector.ctx, "post scheduled",
		logger.Field{Key: "post_id", Value: id},
		logger.Field{Key: "scheduled_at", Value: when.Format(constants.ScheduleTimeFormat)},
		logger.Field{Key: "author_id", Value: userID})

	return h.connector.sendText(chatID,
		fmt.Sprintf(constants.MsgScheduledFormat, when.Format(constants.ScheduleTimeFormat), id))
}

// publishNow publishes the draft immediately and replaces the
// confirmation message with the per-platform results. Immediate posts
// never touch the store.
func (h *CommandHandler) publishNow(chatID int64, messageID int, userID string, conv *Conversation) error {
	post := store.ScheduledPost{
		AuthorID: userID,
		Content:  conv.Draft.Content,
		Targets:  conv.Draft.Targets,
	}

	h.connector.conversations.Reset(chatID)

	results := h.connector.publisher.Publish(h.connector.ctx, post)
	return h.connector.editMessage(chatID, messageID, scheduler.FormatResults(results), nil)
}

func (h *CommandHandler) handleListScheduled(chatID int64, userID string) error {
	posts := h.connector.store.List(userID)
	if len(posts) == 0 {
		return h.connector.sendText(chatID, constants.MsgNoScheduled)
	}

	var sb strings.Builder
	sb.WriteString(constants.MsgScheduledHeader)
	for _, post := range posts {
		sb.WriteString(fmt.Sprintf("ID: %s\n", post.ID))
		if post.ScheduledAt != nil {
			sb.WriteString(fmt.Sprintf("Scheduled: %s UTC\n", post.ScheduledAt.UTC().Format(constants.ScheduleTimeFormat)))
		}
		sb.WriteString(fmt.Sprintf("Platforms: %s\n", formatTargets(post.Targets)))
		sb.WriteString(fmt.Sprintf("Text: %s\n\n", truncate(post.Content, listContentPreviewLength)))
	}

	return h.connector.sendText(chatID, sb.String())
}

func (h *CommandHandler) handleDeleteScheduled(chatID int64, userID, args string) error {
	id := strings.TrimSpace(args)
	if id == "" {
		return h.connector.sendText(chatID, constants.MsgDeleteUsage)
	}

	removed, err := h.connector.store.Remove(id, userID)
	if err != nil {
		h.logger.ErrorCtx(h.connector.ctx, "failed to remove scheduled post", err,
			logger.Field{Key: "post_id", Value: id})
		return h.connector.sendText(chatID, constants.MsgInternalError)
	}
	if !removed {
		return h.connector.sendText(chatID, constants.MsgDeleteNotFound)
	}

	h.connector.metrics.SetPendingPosts(h.connector.store.Len())

	return h.connector.sendText(chatID, constants.MsgDeleted)
}

func (h *CommandHandler) handleTemplates(chatID int64) error {
	names, err := h.connector.templates.List()
	if err != nil {
		h.logger.ErrorCtx(h.connector.ctx, "failed to list templates", err)
		return h.connector.sendText(chatID, constants.MsgInternalError)
	}
	if len(names) == 0 {
		return h.connector.sendText(chatID, constants.MsgNoTemplates)
	}

	var sb strings.Builder
	sb.WriteString(constants.MsgTemplatesHeader)
	for _, name := range names {
		tpl, err := h.connector.templates.Get(name)
		if err != nil || tpl == nil {
			continue
		}
		if tpl.Description != "" {
			sb.WriteString(fmt.Sprintf("• %s — %s\n", name, tpl.Description))
		} else {
			sb.WriteString(fmt.Sprintf("• %s\n", name))
		}
	}
	sb.WriteString("\nUse /post <name> to start from a template.")

	return h.connector.sendText(chatID, sb.String())
}

// askPlatforms shows the platform selection keyboard.
func (h *CommandHandler) askPlatforms(chatID int64, conv *Conversation) error {
	conv.State = StateAwaitingPlatforms
	return h.connector.sendWithMarkup(chatID, constants.MsgAskPlatforms, buildPlatformKeyboard(h.connector.registry))
}

// sendPreview fetches and shows a link preview for the draft, if any.
// Preview failures are silent.
func (h *CommandHandler) sendPreview(chatID int64, content string) {
	if h.connector.previews == nil {
		return
	}

	p := h.connector.previews.ForContent(h.connector.ctx, content)
	if p == nil {
		return
	}

	if err := h.connector.sendText(chatID, p.Format()); err != nil {
		h.logger.WarnCtx(h.connector.ctx, "failed to send link preview",
			logger.Field{Key: "error", Value: err.Error()})
	}
}

// checkLength verifies the draft fits every selected platform. Sends a
// rejection message and returns false when it does not.
func (h *CommandHandler) checkLength(chatID int64, content string, targets []string) bool {
	platformID, limit, actual, ok := h.connector.registry.CheckLength(content, targets)
	if ok {
		return true
	}

	msg := fmt.Sprintf(constants.MsgTooLongFormat, scheduler.DisplayName(platformID), limit, actual)
	if err := h.connector.sendText(chatID, msg); err != nil {
		h.logger.ErrorCtx(h.connector.ctx, "failed to send length rejection", err)
	}
	return false
}

func formatTargets(targets []string) string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, scheduler.DisplayName(t))
	}
	return strings.Join(names, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
