package scheduler

import (
	"fmt"
	"strings"

	"github.com/aatumaykin/crosspost/internal/constants"
	"github.com/aatumaykin/crosspost/internal/platform"
)

// Result is the outcome of publishing a post to a single platform.
type Result struct {
	Platform string
	Link     string
	Err      error
}

// displayNames maps platform IDs to the names shown to operators.
var displayNames = map[string]string{
	platform.IDBluesky:  "Bluesky",
	platform.IDMastodon: "Mastodon",
}

// DisplayName returns the operator-facing name for a platform ID.
func DisplayName(id string) string {
	if name, ok := displayNames[id]; ok {
		return name
	}
	return id
}

// FormatResults renders per-platform outcomes as a chat message.
func FormatResults(results []Result) string {
	var sb strings.Builder
	sb.WriteString(constants.MsgResultsHeader)

	for _, r := range results {
		name := DisplayName(r.Platform)
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("❌ Failed to post to %s: %v\n", name, r.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("✅ Posted to %s successfully\n", name))
		if r.Link != "" {
			sb.WriteString(fmt.Sprintf("🔗 %s\n", r.Link))
		}
	}

	return sb.String()
}

// FormatScheduledReport wraps a publication report for a scheduled post
// that has just fired.
func FormatScheduledReport(postID string, results []Result) string {
	return fmt.Sprintf(constants.MsgScheduledResultFormat, postID, FormatResults(results))
}
