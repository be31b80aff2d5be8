package constants

// CommandStart greets the operator and lists what the bot can do.
const CommandStart = "start"

// CommandHelp shows the command reference.
const CommandHelp = "help"

// CommandPost starts the compose-and-publish flow.
const CommandPost = "post"

// CommandListScheduled lists the caller's pending scheduled posts.
const CommandListScheduled = "list_scheduled"

// CommandDeleteScheduled removes one of the caller's scheduled posts by id.
const CommandDeleteScheduled = "delete_scheduled"

// CommandTemplates lists the available post templates.
const CommandTemplates = "templates"

// CommandCancel aborts an in-progress compose flow.
const CommandCancel = "cancel"
