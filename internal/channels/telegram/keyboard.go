package telegram

import (
	"github.com/mymmrac/telego"

	"github.com/aatumaykin/crosspost/internal/platform"
	"github.com/aatumaykin/crosspost/internal/scheduler"
)

// Callback data values for the compose flow keyboards.
const (
	CallbackPlatformPrefix = "platform:"
	CallbackPlatformAll    = "platform:all"
	CallbackTimingNow      = "timing:now"
	CallbackTimingSchedule = "timing:schedule"
	CallbackCancel         = "cancel"
)

// buildPlatformKeyboard builds the platform selection keyboard from the
// registered publishers. A "Both"/"All platforms" button is added when
// more than one platform is enabled.
func buildPlatformKeyboard(registry *platform.Registry) *telego.InlineKeyboardMarkup {
	ids := registry.IDs()

	rows := make([][]telego.InlineKeyboardButton, 0, len(ids)+2)
	for _, id := range ids {
		rows = append(rows, []telego.InlineKeyboardButton{
			{Text: scheduler.DisplayName(id), CallbackData: CallbackPlatformPrefix + id},
		})
	}

	if len(ids) > 1 {
		rows = append(rows, []telego.InlineKeyboardButton{
			{Text: "All platforms", CallbackData: CallbackPlatformAll},
		})
	}

	rows = append(rows, []telego.InlineKeyboardButton{
		{Text: "Cancel", CallbackData: CallbackCancel},
	})

	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildTimingKeyboard builds the post-now/schedule keyboard.
func buildTimingKeyboard() *telego.InlineKeyboardMarkup {
	return &telego.InlineKeyboardMarkup{
		InlineKeyboard: [][]telego.InlineKeyboardButton{
			{
				{Text: "Post Now", CallbackData: CallbackTimingNow},
				{Text: "Schedule", CallbackData: CallbackTimingSchedule},
			},
			{
				{Text: "Cancel", CallbackData: CallbackCancel},
			},
		},
	}
}
