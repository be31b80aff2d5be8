package constants

// Package messages contains all user-facing text constants used by the bot.

// Authorization and generic replies
const (
	// MsgUnauthorized is sent to callers that are not in the allow-list.
	MsgUnauthorized = "Sorry, you are not authorized to use this bot."

	// MsgCancelled confirms that an in-progress flow was aborted.
	MsgCancelled = "Operation cancelled."

	// MsgInternalError is shown when a store or platform operation failed unexpectedly.
	MsgInternalError = "❌ Something went wrong. Please try again later."
)

// Compose flow
const (
	// MsgAskPostText asks the operator for the post body.
	MsgAskPostText = "Please send the text you want to post to your social media accounts."

	// MsgAskPlatforms asks where the post should go.
	MsgAskPlatforms = "Where would you like to post this?"

	// MsgAskWhen asks for the schedule timestamp.
	MsgAskWhen = "Please enter when you want to schedule this post in the format YYYY-MM-DD HH:MM (UTC).\nExample: 2025-03-05 15:30"

	// MsgBadTimeFormat rejects an unparseable schedule timestamp.
	MsgBadTimeFormat = "Invalid date format. Please use YYYY-MM-DD HH:MM (UTC)."

	// MsgTimeInPast rejects a schedule timestamp that is not in the future.
	MsgTimeInPast = "That time is already in the past. Please pick a future time (UTC)."

	// MsgScheduledFormat confirms a scheduled post. Args: time, post id.
	MsgScheduledFormat = "Your post has been scheduled for %s UTC.\nID: %s"

	// MsgTooLongFormat rejects content over a platform limit. Args: platform, limit, actual.
	MsgTooLongFormat = "Post is too long for %s (limit %d characters, got %d). Please shorten it and try /post again."

	// MsgAskTiming asks whether to post now or schedule for later.
	MsgAskTiming = "When should this be posted?"

	// MsgConfirmFormat recaps the draft before the timing choice. Args: platforms, text.
	MsgConfirmFormat = "You're about to post to %s:\n\n%s\n\nWhat would you like to do?"

	// MsgUseButtons nudges the operator back to the inline keyboard.
	MsgUseButtons = "Please use the buttons above, or /cancel to abort."

	// MsgIdleHint replies to free text outside of any flow.
	MsgIdleHint = "Use /post to create a new post, or /help for the list of commands."
)

// Scheduled post management
const (
	// MsgNoScheduled is shown when the caller has no pending posts.
	MsgNoScheduled = "You don't have any scheduled posts."

	// MsgScheduledHeader opens the /list_scheduled reply.
	MsgScheduledHeader = "Your scheduled posts:\n\n"

	// MsgDeleteUsage is shown when /delete_scheduled is called without an id.
	MsgDeleteUsage = "Please provide the post ID to delete. Use /list_scheduled to see your scheduled posts."

	// MsgDeleteNotFound is shown when the id is unknown or owned by someone else.
	MsgDeleteNotFound = "Post ID not found."

	// MsgDeleted confirms a successful removal.
	MsgDeleted = "Scheduled post deleted successfully."
)

// Templates
const (
	// MsgNoTemplates is shown when the templates directory is empty.
	MsgNoTemplates = "No post templates configured."

	// MsgTemplatesHeader opens the /templates reply.
	MsgTemplatesHeader = "Available post templates:\n\n"

	// MsgTemplateNotFoundFormat rejects an unknown template name. Arg: name.
	MsgTemplateNotFoundFormat = "Template %q not found. Use /templates to see the available ones."
)

// Publication results
const (
	// MsgResultsHeader opens a publication report.
	MsgResultsHeader = "Post results:\n"

	// MsgScheduledResultFormat wraps a report for a fired scheduled post. Args: post id, report.
	MsgScheduledResultFormat = "Your scheduled post (ID: %s) has been published:\n\n%s"
)

// MsgStartup is the welcome/help text listing the available commands.
const MsgStartup = "Welcome to the Social Media Cross-Poster Bot!\n\n" +
	"Use /help to see the available commands.\n" +
	"Use /post to create a new post.\n" +
	"Use /list_scheduled to view your scheduled posts.\n" +
	"Use /delete_scheduled to remove a scheduled post.\n" +
	"Use /templates to list post templates.\n" +
	"Use /cancel to cancel the current operation.\n"
